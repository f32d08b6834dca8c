package git

import (
	"context"
	"time"
)

// withTimeout bounds ctx by limit. An existing shorter deadline is kept and
// a non-positive limit disables the bound.
func withTimeout(ctx context.Context, limit time.Duration) (context.Context, context.CancelFunc) {
	if limit <= 0 {
		return ctx, func() {}
	}
	// Don't override if context already has a shorter deadline
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) < limit {
			return ctx, func() {}
		}
	}
	return context.WithTimeout(ctx, limit)
}

func (r *Repository) withLocalTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, r.cfg.LocalTimeout)
}

func (r *Repository) withRemoteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, r.cfg.RemoteTimeout)
}
