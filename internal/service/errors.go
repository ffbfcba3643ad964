package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrJobNotFound struct {
	error
}

func NewErrJobNotFound(id uuid.UUID) *ErrJobNotFound {
	return &ErrJobNotFound{fmt.Errorf("job %s not found", id)}
}

type ErrReportNotFound struct {
	error
}

func NewErrReportNotFound(id uuid.UUID) *ErrReportNotFound {
	return &ErrReportNotFound{fmt.Errorf("no report found for job %s", id)}
}

type ErrReportNotReady struct {
	error
}

func NewErrReportNotReady(id uuid.UUID, reason string) *ErrReportNotReady {
	return &ErrReportNotReady{fmt.Errorf("report for job %s is not ready: %s", id, reason)}
}

type ErrQuestionSetNotFound struct {
	error
}

func NewErrQuestionSetNotFound(id uuid.UUID) *ErrQuestionSetNotFound {
	return &ErrQuestionSetNotFound{fmt.Errorf("no question set found for job %s", id)}
}

type ErrQuestionsGenerating struct {
	error
}

func NewErrQuestionsGenerating(id uuid.UUID) *ErrQuestionsGenerating {
	return &ErrQuestionsGenerating{fmt.Errorf("question generation for job %s is already running", id)}
}

type ErrInvalidUpload struct {
	error
}

func NewErrInvalidUpload(reason string) *ErrInvalidUpload {
	return &ErrInvalidUpload{fmt.Errorf("bad request: %s", reason)}
}

type ErrDurationLimit struct {
	error
}

func NewErrDurationLimit(duration, limit float64) *ErrDurationLimit {
	return &ErrDurationLimit{fmt.Errorf("video duration %.1fs exceeds the %.0fs limit", duration, limit)}
}

type ErrResourceUpload struct {
	error
}

func NewErrResourceUpload(err error) *ErrResourceUpload {
	return &ErrResourceUpload{fmt.Errorf("failed to upload media: %s", err)}
}

type ErrTimedOut struct {
	error
}

func NewErrTimedOut(target string) *ErrTimedOut {
	return &ErrTimedOut{fmt.Errorf("%s did not become ready in time", target)}
}

type ErrResourceFailed struct {
	error
}

func NewErrResourceFailed(target string) *ErrResourceFailed {
	return &ErrResourceFailed{fmt.Errorf("%s entered a failed state", target)}
}

type ErrTransientService struct {
	error
}

func NewErrTransientService(err error) *ErrTransientService {
	return &ErrTransientService{fmt.Errorf("service unavailable: %s", err)}
}

type ErrQuotaExhausted struct {
	error
}

func NewErrQuotaExhausted(target string) *ErrQuotaExhausted {
	return &ErrQuotaExhausted{fmt.Errorf("quota exhausted while generating %s", target)}
}

type ErrParse struct {
	error
}

func NewErrParse(err error) *ErrParse {
	return &ErrParse{fmt.Errorf("failed to parse model output: %s", err)}
}
