package genctx

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	keyRID    ctxKey = "rid"
	keyWallet ctxKey = "wallet"
)

// WithRID stores a correlation id for upstream call logs.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns the correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// EnsureRID returns ctx unchanged when it already carries an id.
func EnsureRID(ctx context.Context) context.Context {
	if RID(ctx) != "" {
		return ctx
	}
	return WithRID(ctx, uuid.NewString()[:8])
}

// WithWallet stores the wallet the request acts for.
func WithWallet(ctx context.Context, wallet string) context.Context {
	return context.WithValue(ctx, keyWallet, wallet)
}

// Wallet returns the wallet if present.
func Wallet(ctx context.Context) string {
	v, _ := ctx.Value(keyWallet).(string)
	return v
}
