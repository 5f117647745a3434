package http

import (
	"context"

	"mergecli/internal/exporter"
	"mergecli/internal/services"
	"mergecli/internal/transform"
)

// MergeServiceInterface is the service contract the handler depends on.
// Defined here so handler tests can substitute a mock.
type MergeServiceInterface interface {
	CreateSession(ctx context.Context, pos, supplier services.FileUpload, keyColumn string) (*services.SessionSummary, error)
	Session(ctx context.Context, id string) (*services.SessionSummary, error)
	ApplyTransform(ctx context.Context, id string, params transform.Params) (*services.SessionSummary, error)
	Export(ctx context.Context, id string, format exporter.Format) (*exporter.Result, error)
}
