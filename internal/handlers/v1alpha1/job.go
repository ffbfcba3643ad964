package v1alpha1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	api "github.com/presentai/presentai/api/v1alpha1"
	"github.com/presentai/presentai/internal/handlers/validator"
	"github.com/presentai/presentai/internal/service"
	"github.com/presentai/presentai/internal/service/mappers"
	"github.com/presentai/presentai/internal/store"
)

const (
	videoFormField    = "video"
	documentFormField = "document"
	titleFormField    = "title"

	// Parts above this threshold spill to temp files instead of memory.
	multipartMemoryLimit = 32 << 20
)

// (POST /api/v1alpha1/jobs)
func (h *ServiceHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("job_handler")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse multipart form: %v", err))
		return
	}

	video, videoHeader, err := r.FormFile(videoFormField)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "a video file is required")
		return
	}
	defer video.Close()

	form := api.JobUploadForm{
		Title:     strings.TrimSpace(r.FormValue(titleFormField)),
		VideoName: videoHeader.Filename,
	}

	var supporting io.Reader
	document, documentHeader, err := r.FormFile(documentFormField)
	switch {
	case err == nil:
		defer document.Close()
		supporting = document
		form.SupportingName = documentHeader.Filename
	case errors.Is(err, http.ErrMissingFile):
	default:
		respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to read supporting document: %v", err))
		return
	}

	if form.Title == "" {
		base := filepath.Base(form.VideoName)
		form.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	v := validator.NewValidator()
	v.Register(validator.NewUploadValidationRules()...)
	if err := v.Struct(form); err != nil {
		respondError(w, r, http.StatusBadRequest, validator.Message(err))
		return
	}

	job, err := h.jobSrv.CreateJob(r.Context(), mappers.JobCreateForm{
		Title:          form.Title,
		VideoName:      form.VideoName,
		Video:          video,
		SupportingName: form.SupportingName,
		Supporting:     supporting,
	})
	if err != nil {
		logger.Errorw("failed to create job", "error", err)
		switch err.(type) {
		case *service.ErrInvalidUpload:
			respondError(w, r, http.StatusBadRequest, err.Error())
		default:
			respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to create job: %v", err))
		}
		return
	}

	respondJSON(w, http.StatusCreated, mappers.JobToApi(*job))
}

// (GET /api/v1alpha1/jobs)
func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := store.NewJobQueryFilter()
	if status := r.URL.Query().Get("status"); status != "" {
		filter = filter.WithStatus(status)
	}

	opts := store.NewJobQueryOptions()
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		opts = opts.WithLimit(limit)
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		opts = opts.WithOffset(offset)
	}

	jobs, err := h.jobSrv.ListJobs(r.Context(), filter, opts)
	if err != nil {
		zap.S().Named("job_handler").Errorw("failed to list jobs", "error", err)
		respondError(w, r, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	respondJSON(w, http.StatusOK, mappers.JobListToApi(jobs))
}

// (GET /api/v1alpha1/jobs/{id})
func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDFromRequest(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.jobSrv.GetJob(r.Context(), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("job_handler").Errorw("failed to get job", "job_id", id, "error", err)
			respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get job: %v", err))
		}
		return
	}

	respondJSON(w, http.StatusOK, mappers.JobToApi(*job))
}

// (DELETE /api/v1alpha1/jobs/{id})
func (h *ServiceHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDFromRequest(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	if err := h.jobSrv.DeleteJob(r.Context(), id); err != nil {
		zap.S().Named("job_handler").Errorw("failed to delete job", "job_id", id, "error", err)
		respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to delete job: %v", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// (GET /api/v1alpha1/jobs/{id}/report)
func (h *ServiceHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDFromRequest(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	report, err := h.jobSrv.GetReport(r.Context(), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound, *service.ErrReportNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("job_handler").Errorw("failed to get report", "job_id", id, "error", err)
			respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get report: %v", err))
		}
		return
	}

	respondJSON(w, http.StatusOK, mappers.ReportToApi(*report))
}

// (GET /api/v1alpha1/jobs/{id}/video)
func (h *ServiceHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDFromRequest(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	path, err := h.jobSrv.GetVideoPath(r.Context(), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("job_handler").Errorw("failed to resolve video", "job_id", id, "error", err)
			respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to resolve video: %v", err))
		}
		return
	}

	h.serveMedia(w, r, path)
}

// (GET /api/v1alpha1/jobs/{id}/clips/{clip})
func (h *ServiceHandler) GetClip(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDFromRequest(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	clipIndex, err := strconv.Atoi(chi.URLParam(r, "clip"))
	if err != nil || clipIndex < 0 {
		respondError(w, r, http.StatusBadRequest, "invalid clip index")
		return
	}

	path, err := h.jobSrv.GetClipPath(r.Context(), id, clipIndex)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("job_handler").Errorw("failed to resolve clip", "job_id", id, "clip", clipIndex, "error", err)
			respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to resolve clip: %v", err))
		}
		return
	}

	h.serveMedia(w, r, path)
}

// serveMedia streams a media file with range support so players can seek.
func (h *ServiceHandler) serveMedia(w http.ResponseWriter, r *http.Request, path string) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			respondError(w, r, http.StatusNotFound, "media file not found")
		} else {
			respondError(w, r, http.StatusInternalServerError, "media file not accessible")
		}
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, path)
}
