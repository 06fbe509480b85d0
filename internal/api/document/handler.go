package document

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs-backend/internal/config"
	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/askdocs/askdocs-backend/internal/pkg/logger"
	"github.com/askdocs/askdocs-backend/internal/pkg/response"
)

type Handler struct {
	ingest    IngestUsecase
	documents DocumentsUsecase
	cfg       config.IngestConfig
}

func NewHandler(ingest IngestUsecase, documents DocumentsUsecase, cfg config.IngestConfig) *Handler {
	return &Handler{
		ingest:    ingest,
		documents: documents,
		cfg:       cfg,
	}
}

// Upload handles POST /documents
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadDocuments")

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid form data or size too large")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		ctxzap.Warn(ctx, "no files provided")
		response.Error(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	uploads := make([]upload, 0, len(files))
	for _, fh := range files {
		if !entity.FileTypeFromName(fh.Filename).IsSupported() {
			ctxzap.Warn(ctx, "unsupported file type", zap.String("file", fh.Filename))
			response.Error(w, http.StatusBadRequest, "unsupported file type: "+fh.Filename)
			return
		}

		if fh.Size > h.cfg.MaxUploadSize {
			ctxzap.Warn(ctx, "file exceeds size limit",
				zap.String("file", fh.Filename),
				zap.Int64("size", fh.Size),
				zap.Error(entity.ErrFileTooLarge))
			response.Error(w, http.StatusBadRequest, "file too large: "+fh.Filename)
			return
		}

		data, err := readUpload(fh)
		if err != nil {
			ctxzap.Error(ctx, "failed to read uploaded file",
				zap.String("file", fh.Filename), zap.Error(err))
			response.Error(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}

		uploads = append(uploads, upload{name: fh.Filename, data: data})
	}

	ctxzap.Info(ctx, "upload accepted", zap.Int("file_count", len(uploads)))

	response.Accepted(w, entity.UploadResponse{
		Status:  "accepted",
		Message: "files are being processed",
	})

	// Ingestion runs after the response: embedding a large document can
	// take minutes and the client only needs the upload acknowledged.
	go func() {
		bgCtx := logger.AddFields(ctxzap.ToContext(context.Background(), ctxzap.Extract(ctx)),
			zap.String("action", "UploadDocuments-async"),
		)

		for _, u := range uploads {
			if err := h.ingest.IngestFileWait(bgCtx, u.name, u.data); err != nil {
				ctxzap.Error(bgCtx, "ingestion failed",
					zap.String("file", u.name), zap.Error(err))
				continue
			}
			ctxzap.Info(bgCtx, "file ingested", zap.String("file", u.name))
		}
	}()
}

// List handles GET /documents
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListDocuments")

	docs, err := h.documents.List(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	items := make([]entity.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, entity.DocumentResponse{
			ID:        doc.ID,
			Name:      doc.Name,
			CreatedAt: doc.CreatedAt,
		})
	}

	ctxzap.Info(ctx, "documents listed", zap.Int("count", len(items)))
	response.Success(w, entity.ListDocumentsResponse{Items: items})
}

// Delete handles DELETE /documents/{document_id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.WithAction(logger.WithDocument(r.Context(), documentID), "DeleteDocument")

	if err := h.documents.Delete(ctx, documentID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.NoContent(w)
}

// Export handles GET /documents/{document_id}/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	format := entity.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.FormatMarkdown
	}

	ctx := logger.AddFields(logger.WithDocument(r.Context(), documentID),
		zap.String("format", string(format)),
		zap.String("action", "ExportDocument"),
	)

	export, err := h.documents.ExportDocument(ctx, documentID, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Attachment(w, export.FileName, export.ContentType, export.Data)
}

type upload struct {
	name string
	data []byte
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	ctxzap.Error(ctx, "request failed", zap.Error(err))

	switch {
	case errors.Is(err, entity.ErrDocumentNotFound):
		response.Error(w, http.StatusNotFound, "document not found")
	case errors.Is(err, entity.ErrUnknownExportFormat):
		response.Error(w, http.StatusBadRequest, "unknown export format")
	case errors.Is(err, entity.ErrUnsupportedFileType), errors.Is(err, entity.ErrMissingField):
		response.Error(w, http.StatusBadRequest, "invalid request")
	default:
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
