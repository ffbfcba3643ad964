package v1alpha1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	api "github.com/presentai/presentai/api/v1alpha1"
	"github.com/presentai/presentai/internal/service"
	"github.com/presentai/presentai/pkg/requestid"
)

// ServiceHandler exposes the analysis job API.
type ServiceHandler struct {
	jobSrv         *service.JobService
	questionSrv    *service.QuestionService
	maxUploadBytes int64
}

func NewServiceHandler(jobService *service.JobService, questionService *service.QuestionService, maxUploadBytes int64) *ServiceHandler {
	return &ServiceHandler{
		jobSrv:         jobService,
		questionSrv:    questionService,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes mounts all v1alpha1 endpoints on the given router.
func (h *ServiceHandler) RegisterRoutes(router chi.Router) {
	router.Route("/api/v1alpha1", func(r chi.Router) {
		r.Post("/jobs", h.CreateJob)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)
		r.Delete("/jobs/{id}", h.DeleteJob)
		r.Get("/jobs/{id}/report", h.GetReport)
		r.Get("/jobs/{id}/video", h.GetVideo)
		r.Get("/jobs/{id}/clips/{clip}", h.GetClip)
		r.Post("/jobs/{id}/questions", h.CreateQuestions)
		r.Get("/jobs/{id}/questions", h.GetQuestions)
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, status, api.Error{Message: message, RequestId: requestid.FromRequest(r)})
}

func jobIDFromRequest(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}
