// Package completion is the boundary to the text-completion service: given a
// prompt it returns text, or a classified error.
package completion

import "context"

// Completer is the single capability the protocol depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to Completer.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type operationKey struct{}

// WithOperation labels ctx with the protocol operation issuing the call.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// Operation returns the label set by WithOperation, or "unknown".
func Operation(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok && op != "" {
		return op
	}
	return "unknown"
}
