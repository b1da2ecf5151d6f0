package workers

import "strings"

// promptPersona fixes the evaluator's role. Kept separate from the
// per-session context blocks so the instruction surface stays stable.
const promptPersona = `You are a senior technical recruiter conducting a mock interview.
Analyze this audio recording of a candidate answering an interview question.`

const promptFormat = `Respond with ONLY a single JSON object. No markdown, no code fences, no text outside the object. Exact shape:
{
    "technical_score": integer 0-100,
    "clarity_score": integer 0-100,
    "summary": "one-sentence summary of what the candidate said",
    "strengths": ["strength 1", "strength 2"],
    "weaknesses": ["weakness 1"],
    "feedback": "constructive final feedback for the candidate",
    "follow_up_question": "one challenging technical question based on what was said",
    "transcription": "exact text of what the candidate said"
}
Base every field strictly on what is actually said in the audio. Never invent or embellish content that is not present in the recording.
If the audio is silent or contains no intelligible speech, return exactly {"error": "AUDIO_INAUDIVEL"} and nothing else.`

// buildPrompt assembles the inference request text: fixed persona, the
// interview question when the bank resolved it, the job-description
// context only when non-empty, and the strict output-format instruction.
func buildPrompt(questionText, jobDescription string) string {
	var sb strings.Builder
	sb.WriteString(promptPersona)

	if questionText != "" {
		sb.WriteString("\n\nThe candidate was answering this question:\n")
		sb.WriteString(questionText)
	}
	if jobDescription != "" {
		sb.WriteString("\n\nEvaluate the answer against this job description:\n")
		sb.WriteString(jobDescription)
	}

	sb.WriteString("\n\n")
	sb.WriteString(promptFormat)
	return sb.String()
}
