package v1alpha1

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/presentai/presentai/internal/service"
	"github.com/presentai/presentai/internal/service/mappers"
)

// (POST /api/v1alpha1/jobs/{id}/questions)
func (h *ServiceHandler) CreateQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDFromRequest(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	set, err := h.questionSrv.StartGeneration(r.Context(), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		case *service.ErrReportNotReady:
			respondError(w, r, http.StatusPreconditionFailed, err.Error())
		case *service.ErrQuestionsGenerating:
			respondError(w, r, http.StatusConflict, err.Error())
		default:
			zap.S().Named("question_handler").Errorw("failed to start question generation", "job_id", id, "error", err)
			respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to start question generation: %v", err))
		}
		return
	}

	respondJSON(w, http.StatusAccepted, mappers.QuestionSetToApi(*set))
}

// (GET /api/v1alpha1/jobs/{id}/questions)
func (h *ServiceHandler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDFromRequest(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	set, err := h.questionSrv.GetQuestions(r.Context(), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound, *service.ErrQuestionSetNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("question_handler").Errorw("failed to get questions", "job_id", id, "error", err)
			respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get questions: %v", err))
		}
		return
	}

	respondJSON(w, http.StatusOK, mappers.QuestionSetToApi(*set))
}
