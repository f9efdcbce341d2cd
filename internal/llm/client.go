// Package llm provides text-completion clients.
//
// The pipeline only needs "prompt in, raw text out"; it never assumes
// the output is well-formed. Each provider converts its own wire format
// at the boundary and returns plain text.
package llm

import "context"

// Completer is the contract the interpretation pipeline consumes.
type Completer interface {
	// Complete sends a prompt and returns the raw completion text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
