// Package extract reads numeric and date fields off FCD slip images. The
// OCR itself is Google Vision; everything recognized is best-effort and
// feeds a draft that still has to pass the validator like manual input.
package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gvision "google.golang.org/api/vision/v1"

	"fcd/internal/ledger"
)

type Client struct {
	svc *gvision.Service
}

var _ ledger.SlipExtractor = (*Client)(nil)

// NewFromEnv creates a Vision client using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	credentialsJSON, err := serviceAccountJSON(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := gvision.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gvision.CloudPlatformScope))
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}

	return &Client{svc: svc}, nil
}

func serviceAccountJSON(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials", "path", file, "size", len(data))
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Extract implements ledger.SlipExtractor: run text detection over the
// image and parse whatever fields the recognized text yields.
func (c *Client) Extract(ctx context.Context, image []byte) (ledger.ExtractedFields, error) {
	req := &gvision.BatchAnnotateImagesRequest{
		Requests: []*gvision.AnnotateImageRequest{{
			Image:    &gvision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []*gvision.Feature{{Type: "TEXT_DETECTION"}},
		}},
	}

	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return ledger.ExtractedFields{}, fmt.Errorf("annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return ledger.ExtractedFields{}, fmt.Errorf("%w: empty annotate response", ledger.ErrNoFields)
	}
	r := resp.Responses[0]
	if r.Error != nil {
		return ledger.ExtractedFields{}, fmt.Errorf("annotate image: %s", r.Error.Message)
	}
	if r.FullTextAnnotation == nil || strings.TrimSpace(r.FullTextAnnotation.Text) == "" {
		return ledger.ExtractedFields{}, fmt.Errorf("%w: no text recognized", ledger.ErrNoFields)
	}

	fields := ParseSlipText(r.FullTextAnnotation.Text, time.Now())
	if fields.Empty() {
		return ledger.ExtractedFields{}, fmt.Errorf("%w: recognized text carries no known fields", ledger.ErrNoFields)
	}

	slog.InfoContext(ctx, "Slip fields extracted",
		"has_usd", fields.USD != nil,
		"has_thb", fields.THB != nil,
		"has_rate", fields.Rate != nil,
		"has_date", fields.Date != nil)

	return fields, nil
}
