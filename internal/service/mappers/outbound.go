package mappers

import (
	"github.com/thoas/go-funk"

	api "github.com/presentai/presentai/api/v1alpha1"
	"github.com/presentai/presentai/internal/store/model"
)

func JobToApi(j model.Job) api.Job {
	return api.Job{
		Id:        j.ID.String(),
		Title:     j.Title,
		Status:    api.JobStatus(j.Status),
		Progress:  j.Progress,
		Message:   j.Message,
		CreatedAt: j.CreatedAt,
	}
}

func JobListToApi(jobs model.JobList) api.JobList {
	return funk.Map(jobs, JobToApi).([]api.Job)
}

func ReportToApi(r model.Report) api.AggregatedReport {
	if r.Document == nil {
		return api.AggregatedReport{Markers: []api.Marker{}}
	}
	return r.Document.Data
}

func QuestionSetToApi(q model.QuestionSet) api.QuestionSet {
	questionSet := api.QuestionSet{
		JobId:  q.JobID.String(),
		Status: api.QuestionStatus(q.Status),
		Error:  q.Error,
	}
	if q.Questions != nil {
		questionSet.Questions = q.Questions.Data
	}
	return questionSet
}
