package domain

import "time"

// Idempotency records the outcome of a completed play request so retries can
// be answered from storage. Rows are unique per (user_id, scope, key): Scope
// is the route the key was presented on and Key is the client-chosen retry
// token. A retry inside the TTL window is served the stored Result body
// instead of consuming another daily play.
type Idempotency struct {
	ID     string `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID string `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:1"`
	Scope  string `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:2"`
	Key    string `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:3"`
	// ResultID points at the awarded prize entry, when the play won one.
	ResultID string `gorm:"type:TEXT NOT NULL"`
	// Result is the JSON response body the original request was served.
	Result    string    `gorm:"type:TEXT NOT NULL;default:''"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
