package v1alpha1

func StringToJobStatus(s string) JobStatus {
	switch s {
	case string(JobStatusQueued):
		return JobStatusQueued
	case string(JobStatusProcessing):
		return JobStatusProcessing
	case string(JobStatusCompleted):
		return JobStatusCompleted
	case string(JobStatusFailed):
		return JobStatusFailed
	default:
		return JobStatusFailed
	}
}

func StringToQuestionStatus(s string) QuestionStatus {
	switch s {
	case string(QuestionStatusGenerating):
		return QuestionStatusGenerating
	case string(QuestionStatusCompleted):
		return QuestionStatusCompleted
	case string(QuestionStatusFailed):
		return QuestionStatusFailed
	default:
		return QuestionStatusFailed
	}
}
