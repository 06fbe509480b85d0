package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/askdocs/askdocs-backend/internal/pkg/logger"
	"github.com/askdocs/askdocs-backend/internal/pkg/response"
)

type Handler struct {
	usecase ChatUsecase
}

func NewHandler(usecase ChatUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// Ask handles POST /chat
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Ask")

	var req entity.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.usecase.Ask(ctx, req.Question)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.ChatResponse{Answer: answer})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	ctxzap.Error(ctx, "question failed", zap.Error(err))

	switch {
	case errors.Is(err, entity.ErrQuestionEmpty):
		response.Error(w, http.StatusBadRequest, "question is empty")
	case errors.Is(err, entity.ErrQuestionTooLong):
		response.Error(w, http.StatusBadRequest, "question is too long")
	default:
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
