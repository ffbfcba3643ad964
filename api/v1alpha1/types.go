package v1alpha1

import "time"

type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

type QuestionStatus string

const (
	QuestionStatusGenerating QuestionStatus = "generating"
	QuestionStatusCompleted  QuestionStatus = "completed"
	QuestionStatusFailed     QuestionStatus = "failed"
)

// The four evaluation dimensions. Every marker belongs to exactly one.
const (
	CategoryClarity    = "clarity"
	CategoryGestures   = "gestures"
	CategoryInflection = "inflection"
	CategoryContent    = "content"
)

// Job is the caller-visible lifecycle record of one analysis job.
type Job struct {
	Id        string    `json:"job_id"`
	Title     string    `json:"title"`
	Status    JobStatus `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type JobList []Job

// Marker is a timestamped finding with severity and category.
type Marker struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Label    string  `json:"label"`
	Severity int     `json:"severity"`
	Feedback string  `json:"feedback"`
	Category string  `json:"category,omitempty"`
	ClipRef  string  `json:"clip_ref,omitempty"`
}

type ReportScores struct {
	Clarity    int `json:"clarity"`
	Gestures   int `json:"gestures"`
	Inflection int `json:"inflection"`
	Content    int `json:"content"`
	Total      int `json:"total"`
}

type ReportMetadata struct {
	Duration       float64 `json:"duration"`
	VideoFile      string  `json:"video_file,omitempty"`
	SupportingFile string  `json:"supporting_file,omitempty"`
	Language       string  `json:"language"`
	AnalyzedBy     string  `json:"analyzed_by"`
}

// AggregatedReport is the persisted outcome of a completed job.
type AggregatedReport struct {
	Scores     ReportScores   `json:"scores"`
	Markers    []Marker       `json:"markers"`
	Transcript string         `json:"transcript"`
	Metadata   ReportMetadata `json:"metadata"`
	VideoURL   string         `json:"video_url,omitempty"`
}

// QuestionSet is the outcome of the question-generation sub-job, keyed by
// the analysis job id.
type QuestionSet struct {
	JobId     string         `json:"job_id"`
	Status    QuestionStatus `json:"status"`
	Questions []string       `json:"questions,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// JobUploadForm carries the metadata fields of a multipart job submission.
// The file bytes travel separately as multipart parts.
type JobUploadForm struct {
	Title          string `json:"title" validate:"omitempty,job_title"`
	VideoName      string `json:"video_name" validate:"required,video_file"`
	SupportingName string `json:"supporting_name,omitempty" validate:"omitempty,supporting_file"`
}

// Error is the envelope returned by every failing endpoint.
type Error struct {
	Message   string `json:"message"`
	RequestId string `json:"request_id,omitempty"`
}
