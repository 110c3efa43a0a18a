package gdocs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	docs "google.golang.org/api/docs/v1"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Credentials selects a service-account key source. Exactly one field
// must be set.
type Credentials struct {
	// File is a path to a service-account JSON key file.
	File string
	// JSON is the inline key payload.
	JSON string
}

// googleClient is the real provider binding over the Docs and Drive
// read-only APIs.
type googleClient struct {
	docs  *docs.Service
	drive *drive.Service
}

// NewGoogleClient builds the Docs and Drive services with read-only
// scopes from the given credentials.
func NewGoogleClient(ctx context.Context, creds Credentials) (APIClient, error) {
	opts := []option.ClientOption{
		option.WithScopes(docs.DocumentsReadonlyScope, drive.DriveMetadataReadonlyScope),
	}
	switch {
	case creds.File != "":
		opts = append(opts, option.WithCredentialsFile(creds.File))
	case creds.JSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(creds.JSON)))
	default:
		return nil, errors.New("gdocs: no service account credentials supplied")
	}

	docsService, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &googleClient{docs: docsService, drive: driveService}, nil
}

func (c *googleClient) DocumentText(ctx context.Context, docID string) (string, error) {
	document, err := c.docs.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return flattenBody(document.Body), nil
}

func (c *googleClient) ModifiedTime(ctx context.Context, docID string) (string, error) {
	file, err := c.drive.Files.Get(docID).Fields("modifiedTime").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return file.ModifiedTime, nil
}

// flattenBody joins the document's paragraph text runs in reading order,
// skipping empty runs and trimming the result.
func flattenBody(body *docs.Body) string {
	if body == nil {
		return ""
	}
	var fragments []string
	for _, element := range body.Content {
		if element == nil || element.Paragraph == nil {
			continue
		}
		for _, item := range element.Paragraph.Elements {
			if item == nil || item.TextRun == nil {
				continue
			}
			if item.TextRun.Content != "" {
				fragments = append(fragments, item.TextRun.Content)
			}
		}
	}
	return strings.TrimSpace(strings.Join(fragments, ""))
}

// isTransient reports whether a provider error is worth retrying. HTTP
// 429 and 5xx responses and plain network errors are transient; any
// other API error (not-found, auth) propagates immediately.
func isTransient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
