package mappers

import (
	"io"

	"github.com/google/uuid"

	api "github.com/presentai/presentai/api/v1alpha1"
	"github.com/presentai/presentai/internal/store/model"
)

// JobCreateForm carries a validated upload from the handler into the job
// service. The service owns the on-disk layout, so streams arrive unread.
type JobCreateForm struct {
	Title string

	VideoName string
	Video     io.Reader

	SupportingName string
	Supporting     io.Reader
}

func (f JobCreateForm) ToJob(id uuid.UUID, videoPath string) model.Job {
	return model.Job{
		ID:        id,
		Title:     f.Title,
		Status:    string(api.JobStatusQueued),
		Progress:  0,
		Message:   "Job queued",
		VideoPath: videoPath,
	}
}
