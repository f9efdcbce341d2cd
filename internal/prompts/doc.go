// Package prompts contains the LLM prompt templates used by Steward.
//
// Prompt text is Go code rather than config files because it is program
// logic: the classifier prompt is generated from the intent schema table
// so the taxonomy in the prompt can never drift from the taxonomy the
// validator enforces, and the templates are validated by tests.
//
// Convention: each prompt category gets its own file (classify.go,
// summarize.go) with an exported function that accepts the dynamic
// parts and returns the fully interpolated prompt string.
package prompts
