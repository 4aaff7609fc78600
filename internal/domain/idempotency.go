package domain

import "time"

// Idempotency represents a recorded result of a previously processed request,
// keyed by (user_id, scope, key). Scope is the route template, so the same key
// may be reused across different endpoints. The stored status and body are
// replayed verbatim on retry without re-executing side effects.
type Idempotency struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_user_scope_key,priority:1"`
	Scope     string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_user_scope_key,priority:2"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_user_scope_key,priority:3"`
	Status    int       `gorm:"not null"`
	Body      []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
