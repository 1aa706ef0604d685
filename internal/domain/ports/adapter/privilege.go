// File: internal/domain/ports/adapter/privilege.go
package adapter

import "context"

// PrivilegeResolver answers membership-privilege questions. Implementations
// are expected to cache, since admin lookups sit on the hot path.
type PrivilegeResolver interface {
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
	IsBotAdmin(ctx context.Context, chatID int64) (bool, error)
	IsSudo(userID int64) bool
}
