package analysis_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	api "github.com/presentai/presentai/api/v1alpha1"
	"github.com/presentai/presentai/internal/analysis"
)

func marker(start float64, severity int) api.Marker {
	return api.Marker{Start: start, End: start + 1, Label: "issue", Severity: severity, Feedback: "tip"}
}

func resultsWith(task analysis.Task, markers ...api.Marker) map[analysis.Task]analysis.Result {
	results := map[analysis.Task]analysis.Result{}
	for _, t := range analysis.Tasks {
		results[t] = analysis.Result{Markers: []api.Marker{}}
	}
	results[task] = analysis.Result{Markers: markers}
	return results
}

var _ = Describe("aggregator", func() {
	Context("scores", func() {
		It("gives a clean run full marks", func() {
			report := analysis.Aggregate(resultsWith(analysis.TaskClarity), analysis.Metadata{Duration: 60})
			Expect(report.Scores.Clarity).To(Equal(25))
			Expect(report.Scores.Gestures).To(Equal(25))
			Expect(report.Scores.Inflection).To(Equal(25))
			Expect(report.Scores.Content).To(Equal(25))
			Expect(report.Scores.Total).To(Equal(100))
		})

		It("deducts the severity linearly", func() {
			results := resultsWith(analysis.TaskContent,
				marker(10, 1), marker(20, 3), marker(30, 5), marker(40, 2))

			report := analysis.Aggregate(results, analysis.Metadata{Duration: 60})
			Expect(report.Scores.Content).To(Equal(14))
			Expect(report.Scores.Total).To(Equal(89))
		})

		It("floors a category at zero", func() {
			results := resultsWith(analysis.TaskGestures,
				marker(1, 5), marker(2, 5), marker(3, 5), marker(4, 5), marker(5, 5), marker(6, 5))

			report := analysis.Aggregate(results, analysis.Metadata{Duration: 60})
			Expect(report.Scores.Gestures).To(Equal(0))
			Expect(report.Scores.Total).To(Equal(75))
		})
	})

	Context("markers", func() {
		It("tags each marker with its source category", func() {
			results := resultsWith(analysis.TaskInflection, marker(5, 2))

			report := analysis.Aggregate(results, analysis.Metadata{Duration: 60})
			Expect(report.Markers).To(HaveLen(1))
			Expect(report.Markers[0].Category).To(Equal(api.CategoryInflection))
		})

		It("sorts merged markers by start and keeps task order on ties", func() {
			results := map[analysis.Task]analysis.Result{
				analysis.TaskClarity:    {Markers: []api.Marker{marker(30, 1), marker(10, 1)}},
				analysis.TaskGestures:   {Markers: []api.Marker{marker(10, 1)}},
				analysis.TaskInflection: {Markers: []api.Marker{}},
				analysis.TaskContent:    {Markers: []api.Marker{marker(5, 1)}},
			}

			report := analysis.Aggregate(results, analysis.Metadata{Duration: 60})
			Expect(report.Markers).To(HaveLen(4))
			Expect(report.Markers[0].Category).To(Equal(api.CategoryContent))
			Expect(report.Markers[1].Category).To(Equal(api.CategoryClarity))
			Expect(report.Markers[2].Category).To(Equal(api.CategoryGestures))
			Expect(report.Markers[3].Start).To(Equal(30.0))
		})
	})

	Context("report", func() {
		It("carries the clarity transcript only", func() {
			results := map[analysis.Task]analysis.Result{
				analysis.TaskClarity:    {Transcript: "the talk", Markers: []api.Marker{}},
				analysis.TaskGestures:   {Transcript: "ignored", Markers: []api.Marker{}},
				analysis.TaskInflection: {Markers: []api.Marker{}},
				analysis.TaskContent:    {Markers: []api.Marker{}},
			}

			report := analysis.Aggregate(results, analysis.Metadata{Duration: 60})
			Expect(report.Transcript).To(Equal("the talk"))
		})

		It("fills the metadata", func() {
			report := analysis.Aggregate(resultsWith(analysis.TaskClarity), analysis.Metadata{
				Duration:       72.5,
				VideoFile:      "input.mp4",
				SupportingFile: "outline.pdf",
				AnalyzedBy:     "gemini-2.5-pro",
			})
			Expect(report.Metadata.Duration).To(Equal(72.5))
			Expect(report.Metadata.VideoFile).To(Equal("input.mp4"))
			Expect(report.Metadata.SupportingFile).To(Equal("outline.pdf"))
			Expect(report.Metadata.Language).To(Equal("English"))
			Expect(report.Metadata.AnalyzedBy).To(Equal("gemini-2.5-pro"))
		})
	})
})
