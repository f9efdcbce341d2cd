package prompts

import "fmt"

// summarizeTemplate condenses fetched page text or user-provided text.
// The format verbs are the topic and the source text.
const summarizeTemplate = `Summarize the following text about "%s" in two or three plain sentences.
Answer with the summary only, no preamble.

%s`

// SummarizePrompt returns the interpolated summarization prompt.
func SummarizePrompt(topic, text string) string {
	return fmt.Sprintf(summarizeTemplate, topic, text)
}

// generalTemplate answers conversational queries that need no
// capability provider.
const generalTemplate = `You are Steward, a concise voice assistant. Answer the user's question
in one or two short sentences of plain text.

Question: %s`

// GeneralQueryPrompt returns the interpolated general-query prompt.
func GeneralQueryPrompt(query string) string {
	return fmt.Sprintf(generalTemplate, query)
}
