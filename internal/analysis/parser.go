package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	api "github.com/presentai/presentai/api/v1alpha1"
)

// Result is the structured outcome of one analysis task. A task that
// produced nothing usable carries the empty fallback: no markers and an
// empty transcript.
type Result struct {
	Transcript string       `json:"transcript"`
	WPM        float64      `json:"wpm"`
	Markers    []api.Marker `json:"markers"`
}

func emptyResult() Result {
	return Result{Markers: []api.Marker{}}
}

// ParseTaskOutput decodes the free-form model response for one task. The
// response may be wrapped in a triple-backtick fence, optionally language
// tagged. Three decoded shapes are accepted: an object (taken as the result,
// missing fields zeroed), a bare string (taken as the transcript), anything
// else falls back. Unparseable output falls back too; this function never
// fails the pipeline.
func ParseTaskOutput(raw string) Result {
	text := stripFence(raw)
	if text == "" {
		return emptyResult()
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return emptyResult()
	}

	switch value := decoded.(type) {
	case map[string]any:
		var result Result
		if err := json.Unmarshal([]byte(text), &result); err != nil {
			return emptyResult()
		}
		if result.Markers == nil {
			result.Markers = []api.Marker{}
		}
		return result
	case string:
		return Result{Transcript: value, Markers: []api.Marker{}}
	default:
		return emptyResult()
	}
}

// ParseQuestions decodes the question-generation response, a JSON array of
// strings, tolerating the same fence wrapping as task output. Unlike task
// parsing this reports failure: the question sub-job surfaces it.
func ParseQuestions(raw string) ([]string, error) {
	text := stripFence(raw)
	if text == "" {
		return nil, errors.New("empty model output")
	}

	var questions []string
	if err := json.Unmarshal([]byte(text), &questions); err != nil {
		return nil, fmt.Errorf("failed to decode question output: %w", err)
	}
	return questions, nil
}

func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	if strings.HasSuffix(text, "```") {
		text = text[:len(text)-len("```")]
	}
	return strings.TrimSpace(text)
}
