package analysis

import (
	"sort"

	api "github.com/presentai/presentai/api/v1alpha1"
)

const (
	categoryCeiling = 25
	reportLanguage  = "English"
)

// Metadata describes the analyzed recording for the final report.
type Metadata struct {
	Duration       float64
	VideoFile      string
	SupportingFile string
	AnalyzedBy     string
}

// Aggregate merges the four task results into one scored report. Scoring is
// strictly linear: each marker deducts its severity from its category, a
// category is floored at 0 and starts at 25, the total is the sum of the
// four. Markers are tagged with their source category and stable-sorted by
// start time so ties keep task order. The report transcript is exactly the
// clarity task's transcript.
func Aggregate(results map[Task]Result, meta Metadata) api.AggregatedReport {
	markers := make([]api.Marker, 0)
	deductions := make(map[Task]int, len(Tasks))

	for _, task := range Tasks {
		for _, marker := range results[task].Markers {
			marker.Category = string(task)
			markers = append(markers, marker)
			deductions[task] += marker.Severity
		}
	}

	scores := make(map[Task]int, len(Tasks))
	total := 0
	for _, task := range Tasks {
		score := categoryCeiling - deductions[task]
		if score < 0 {
			score = 0
		}
		scores[task] = score
		total += score
	}

	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].Start < markers[j].Start
	})

	return api.AggregatedReport{
		Scores: api.ReportScores{
			Clarity:    scores[TaskClarity],
			Gestures:   scores[TaskGestures],
			Inflection: scores[TaskInflection],
			Content:    scores[TaskContent],
			Total:      total,
		},
		Markers:    markers,
		Transcript: results[TaskClarity].Transcript,
		Metadata: api.ReportMetadata{
			Duration:       meta.Duration,
			VideoFile:      meta.VideoFile,
			SupportingFile: meta.SupportingFile,
			Language:       reportLanguage,
			AnalyzedBy:     meta.AnalyzedBy,
		},
	}
}
