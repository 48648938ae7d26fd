package auth

import (
	"context"

	"github.com/BuzzLyutic/taskflow/internal/model"
)

type ctxKey struct{}

func WithIdentity(ctx context.Context, who model.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, who)
}

// IdentityFrom returns the zero Identity for anonymous requests.
func IdentityFrom(ctx context.Context) model.Identity {
	who, _ := ctx.Value(ctxKey{}).(model.Identity)
	return who
}
