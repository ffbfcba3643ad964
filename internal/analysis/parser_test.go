package analysis_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/presentai/presentai/internal/analysis"
)

var _ = Describe("task output parser", func() {
	Context("fenced output", func() {
		It("strips a json-tagged fence", func() {
			result := analysis.ParseTaskOutput("```json\n{\"markers\": []}\n```")
			Expect(result.Markers).To(BeEmpty())
			Expect(result.Transcript).To(BeEmpty())
		})

		It("strips a bare fence", func() {
			result := analysis.ParseTaskOutput("```\n{\"transcript\": \"hello\", \"markers\": []}\n```")
			Expect(result.Transcript).To(Equal("hello"))
		})

		It("parses unfenced output", func() {
			result := analysis.ParseTaskOutput(`{"markers": [{"start": 1.5, "end": 2.0, "label": "Filler word: 'um'", "severity": 2, "feedback": "Pause instead."}]}`)
			Expect(result.Markers).To(HaveLen(1))
			Expect(result.Markers[0].Start).To(Equal(1.5))
			Expect(result.Markers[0].Severity).To(Equal(2))
		})
	})

	Context("decoded shapes", func() {
		It("passes transcript and wpm through on the object shape", func() {
			result := analysis.ParseTaskOutput(`{"transcript": "welcome everyone", "wpm": 150, "markers": []}`)
			Expect(result.Transcript).To(Equal("welcome everyone"))
			Expect(result.WPM).To(Equal(150.0))
		})

		It("normalizes a missing markers field to an empty list", func() {
			result := analysis.ParseTaskOutput(`{"transcript": "short talk"}`)
			Expect(result.Markers).ToNot(BeNil())
			Expect(result.Markers).To(BeEmpty())
		})

		It("wraps a bare string as the transcript", func() {
			result := analysis.ParseTaskOutput(`"just the spoken words"`)
			Expect(result.Transcript).To(Equal("just the spoken words"))
			Expect(result.Markers).To(BeEmpty())
		})

		It("falls back on an array", func() {
			result := analysis.ParseTaskOutput(`[1, 2, 3]`)
			Expect(result).To(Equal(analysis.ParseTaskOutput("")))
		})

		It("falls back on a number", func() {
			result := analysis.ParseTaskOutput(`42`)
			Expect(result.Markers).To(BeEmpty())
			Expect(result.Transcript).To(BeEmpty())
		})
	})

	Context("unparseable output", func() {
		It("falls back instead of failing", func() {
			result := analysis.ParseTaskOutput("The presenter did well overall, though...")
			Expect(result.Markers).ToNot(BeNil())
			Expect(result.Markers).To(BeEmpty())
			Expect(result.Transcript).To(BeEmpty())
		})

		It("falls back on empty input", func() {
			result := analysis.ParseTaskOutput("   ")
			Expect(result.Markers).To(BeEmpty())
		})

		It("falls back when the object does not match the schema", func() {
			result := analysis.ParseTaskOutput(`{"markers": "none found"}`)
			Expect(result.Markers).To(BeEmpty())
			Expect(result.Transcript).To(BeEmpty())
		})
	})
})

var _ = Describe("instruction builder", func() {
	It("embeds the duration", func() {
		instruction := analysis.BuildInstruction(analysis.TaskClarity, 95.5, "")
		Expect(instruction).To(ContainSubstring("Video duration: 95.5 seconds"))
	})

	It("embeds the supporting text for the content task", func() {
		instruction := analysis.BuildInstruction(analysis.TaskContent, 60, "talk outline")
		Expect(instruction).To(ContainSubstring("Supporting document:\ntalk outline"))
	})

	It("truncates long supporting text", func() {
		long := strings.Repeat("0123456789", 500)
		instruction := analysis.BuildInstruction(analysis.TaskContent, 60, long)
		Expect(strings.Count(instruction, "0123456789")).To(Equal(200))
	})

	It("omits the supporting text for other tasks", func() {
		instruction := analysis.BuildInstruction(analysis.TaskGestures, 60, "talk outline")
		Expect(instruction).ToNot(ContainSubstring("talk outline"))
	})
})
