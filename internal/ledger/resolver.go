package ledger

import (
	"context"
	"strings"
)

// Exists reports whether username names an account. The answer is advisory:
// Transfer and Purchase resolve both parties again inside their own unit of
// work.
func (e *Engine) Exists(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, nil
	}
	return e.store.Exists(ctx, username)
}
