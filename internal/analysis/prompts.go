package analysis

import (
	"fmt"
	"strings"
)

// supportingTextLimit caps how much extracted document text is embedded in
// an instruction.
const supportingTextLimit = 2000

const clarityInstruction = `You are a speech clarity coach analyzing a presentation video.

Analyze the speech from the video and provide:
1. Full transcription of all spoken words
2. Words per minute (WPM) - calculate based on total words and duration
3. Filler words ("um", "uh", "like", etc.) with timestamps
4. Awkward pauses (>2 seconds) with timestamps
5. Speaking pace issues (too fast: >180 WPM, too slow: <120 WPM)

For each issue found, provide:
- Timestamp (start and end in seconds)
- Specific issue label
- Severity (1-5, where 5 is most severe)
- Brief, encouraging coaching tip

Output as JSON with this structure:
{
  "transcript": "full text...",
  "wpm": 150,
  "markers": [
    {
      "start": 12.5,
      "end": 13.0,
      "label": "Filler word: 'um'",
      "severity": 2,
      "feedback": "Take a breath instead of using filler words."
    }
  ]
}`

const gesturesInstruction = `You are a body language coach analyzing a presentation video.

Watch the entire video and analyze the presenter's:
1. Posture (slouching, fidgeting, standing straight)
2. Hand gestures (natural, stiff, repetitive, appropriate emphasis)
3. Eye contact and gaze direction
4. Facial expressions (engaged, monotone, appropriate emotion)
5. Movement and positioning

For each issue found, provide:
- Timestamp range (start and end in seconds)
- Specific issue label
- Severity (1-5)
- Brief, encouraging coaching tip

Output as JSON:
{
  "markers": [
    {
      "start": 45.0,
      "end": 52.0,
      "label": "Crossed arms (closed posture)",
      "severity": 3,
      "feedback": "Keep arms relaxed at your sides or use open gestures to engage the audience."
    }
  ]
}`

const inflectionInstruction = `You are a vocal delivery coach analyzing a presentation video.

Listen to the audio in the video and analyze vocal delivery:
1. Pitch variation (monotone sections vs. dynamic delivery)
2. Volume consistency (too quiet, too loud, inconsistent)
3. Emphasis on key points
4. Energy and enthusiasm in voice
5. Tone and expression

For each issue found, provide:
- Timestamp range (start and end in seconds)
- Specific issue label
- Severity (1-5)
- Brief, encouraging coaching tip

Output as JSON:
{
  "markers": [
    {
      "start": 28.0,
      "end": 35.0,
      "label": "Monotone delivery",
      "severity": 3,
      "feedback": "Vary your pitch to emphasize key ideas and maintain audience interest."
    }
  ]
}`

const contentInstruction = `You are a content structure coach analyzing a presentation video.

Watch and listen to the entire video to analyze content quality:
1. Clear introduction and conclusion
2. Logical flow and structure
3. Topic alignment (if supporting document provided)
4. Key points are well explained
5. Transitions between topics
6. Visual aids usage (if any)

For each issue found, provide:
- Timestamp range (start and end in seconds)
- Specific issue label
- Severity (1-5)
- Brief, encouraging coaching tip

Output as JSON:
{
  "markers": [
    {
      "start": 0.0,
      "end": 15.0,
      "label": "Weak introduction",
      "severity": 2,
      "feedback": "Start with a clear hook or thesis statement to engage your audience."
    }
  ]
}`

const questionsInstruction = `You are a presentation coach preparing a speaker for the audience Q&A.

Read the presentation transcript below and generate the 5 questions the audience is most likely to ask, ordered from most to least likely.

Output as a JSON array of 5 strings, nothing else:
["question 1", "question 2", "question 3", "question 4", "question 5"]`

var instructions = map[Task]string{
	TaskClarity:    clarityInstruction,
	TaskGestures:   gesturesInstruction,
	TaskInflection: inflectionInstruction,
	TaskContent:    contentInstruction,
}

// BuildInstruction assembles the full instruction for one task: the task
// brief, the duration context, and for the content task the supporting
// document text used for topic alignment.
func BuildInstruction(task Task, duration float64, supportingText string) string {
	var sb strings.Builder
	sb.WriteString(instructions[task])
	sb.WriteString(fmt.Sprintf("\n\nVideo duration: %.1f seconds", duration))

	if task == TaskContent && supportingText != "" {
		sb.WriteString("\n\nSupporting document:\n")
		sb.WriteString(truncate(supportingText, supportingTextLimit))
	}
	return sb.String()
}

// BuildQuestionInstruction assembles the instruction for the question
// generation sub-job from a completed report's transcript.
func BuildQuestionInstruction(transcript string) string {
	return fmt.Sprintf("%s\n\nTranscript:\n%s", questionsInstruction, transcript)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
