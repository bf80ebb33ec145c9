package http

import "context"

type confirmKeyType struct{}

var confirmKey confirmKeyType

func withConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmKey, confirmed)
}

// RequestConfirmer answers confirmation prompts from the explicit
// confirmed flag the client sent with the request. The browser shows
// the actual prompt; the server only honors the recorded decision.
type RequestConfirmer struct{}

func (RequestConfirmer) Confirm(ctx context.Context, _ string) bool {
	confirmed, ok := ctx.Value(confirmKey).(bool)
	return ok && confirmed
}
