package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "mergecli/internal/errors"
	"mergecli/internal/exporter"
	"mergecli/internal/infrastructure"
	"mergecli/internal/loader"
	"mergecli/internal/merge"
	custommw "mergecli/internal/middleware"
	"mergecli/internal/services"
	"mergecli/internal/transform"
)

// MergeHandler handles the merge pipeline endpoints.
type MergeHandler struct {
	service        MergeServiceInterface
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewMergeHandler creates a merge handler. maxUploadBytes caps the size of
// each multipart upload.
func NewMergeHandler(service MergeServiceInterface, maxUploadBytes int64, logger *slog.Logger) *MergeHandler {
	return &MergeHandler{
		service:        service,
		logger:         infrastructure.WithComponent(logger, "merge_handler"),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the merge routes.
func (h *MergeHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/merge", h.CreateSession)

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(h.SessionCtx)
		r.Get("/", h.GetSession)
		r.Post("/transform", h.Transform)
		r.Post("/export", h.Export)
	})

	return r
}

// SessionCtx validates the session ID parameter.
func (h *MergeHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "" {
			h.renderError(w, r, apierrors.ErrValidation("id", "Session ID is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateSession handles POST /api/merge. Expects a multipart form with the
// files "pos" and "supplier" and an optional "key_column" field.
func (h *MergeHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.renderError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.renderError(w, r, apierrors.New(http.StatusBadRequest, "INVALID_REQUEST",
			"Expected a multipart form with pos and supplier files"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	pos, err := h.readUpload(r, "pos")
	if err != nil {
		h.renderError(w, r, err.(*apierrors.APIError))
		return
	}
	supplier, err := h.readUpload(r, "supplier")
	if err != nil {
		h.renderError(w, r, err.(*apierrors.APIError))
		return
	}

	summary, err := h.service.CreateSession(r.Context(), pos, supplier, r.FormValue("key_column"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

// GetSession handles GET /api/sessions/{id}.
func (h *MergeHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// Transform handles POST /api/sessions/{id}/transform with a JSON body of
// transform parameters.
func (h *MergeHandler) Transform(w http.ResponseWriter, r *http.Request) {
	var params transform.Params
	if err := render.DecodeJSON(r.Body, &params); err != nil {
		h.renderError(w, r, apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST",
			"Invalid transform request body", err.Error()))
		return
	}

	summary, err := h.service.ApplyTransform(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// exportRequest is the optional JSON body for the export endpoint. The
// format may also be given as a query parameter.
type exportRequest struct {
	Format string `json:"format"`
}

// Export handles POST /api/sessions/{id}/export and streams the generated
// file back as an attachment.
func (h *MergeHandler) Export(w http.ResponseWriter, r *http.Request) {
	formatName := r.URL.Query().Get("format")
	if formatName == "" {
		var req exportRequest
		if err := render.DecodeJSON(r.Body, &req); err == nil {
			formatName = req.Format
		}
	}

	format, err := exporter.ParseFormat(formatName)
	if err != nil {
		h.renderError(w, r, apierrors.ErrValidation("format",
			fmt.Sprintf("Unknown export format %q, expected xlsx, json or parquet", formatName)))
		return
	}

	res, err := h.service.Export(r.Context(), chi.URLParam(r, "id"), format)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", res.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Bytes)))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Bytes)
}

// readUpload pulls one named file out of the parsed multipart form.
func (h *MergeHandler) readUpload(r *http.Request, field string) (services.FileUpload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return services.FileUpload{}, apierrors.NewWithDetails(http.StatusBadRequest, "MISSING_PARAMETER",
			fmt.Sprintf("Missing %q file upload", field), field)
	}
	defer file.Close()

	data, err := readAll(file, h.maxUploadBytes)
	if err != nil {
		return services.FileUpload{}, apierrors.ErrPayloadTooLarge
	}
	return services.FileUpload{Filename: header.Filename, Data: data}, nil
}

func readAll(f multipart.File, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errors.New("upload exceeds size limit")
	}
	return data, nil
}

// handleServiceError maps service and pipeline errors to API errors.
func (h *MergeHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		formatErr *loader.FormatError
		loadErr   *loader.LoadError
		mergeErr  *merge.ValidationError
		exportErr *exporter.ExportError
		valErrs   validator.ValidationErrors
		apiErr    *apierrors.APIError
	)

	switch {
	case errors.As(err, &apiErr):
		// already shaped
	case errors.Is(err, services.ErrSessionNotFound):
		apiErr = apierrors.ErrSessionNotFound
	case errors.As(err, &valErrs):
		apiErr = apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED",
			"Request validation failed", valErrs.Error())
	case errors.As(err, &formatErr):
		apiErr = apierrors.ErrFormatUnsupported(formatErr.Filename)
	case errors.As(err, &loadErr):
		apiErr = apierrors.ErrLoadFailed(err)
	case errors.As(err, &mergeErr):
		apiErr = apierrors.ErrMergeValidation(err)
	case errors.Is(err, transform.ErrEmptySelection):
		apiErr = apierrors.ErrValidation("selected_columns", "At least one column must be selected")
	case errors.As(err, &exportErr):
		apiErr = apierrors.ErrExportFailed(err)
	default:
		h.logger.ErrorContext(r.Context(), "unhandled service error",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
			slog.String("request_id", custommw.GetReqID(r.Context())),
		)
		apiErr = apierrors.ErrInternalServer
	}

	h.renderError(w, r, apiErr)
}

func (h *MergeHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if err := render.Render(w, r, apierrors.NewErrorResponse(apiErr)); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error response",
			slog.String("error", err.Error()))
	}
}
