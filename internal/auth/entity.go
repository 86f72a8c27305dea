// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

type RefreshToken struct {
	ID         string     `db:"id"          json:"id"`
	UserID     string     `db:"user_id"     json:"user_id"`
	TokenHash  string     `db:"token_hash"  json:"-"`
	FamilyID   string     `db:"family_id"   json:"family_id"`
	ExpiresAt  time.Time  `db:"expires_at"  json:"expires_at"`
	CreatedAt  time.Time  `db:"created_at"  json:"created_at"`
	RevokedAt  *time.Time `db:"revoked_at"  json:"revoked_at,omitempty"`
	ReplacedBy *string    `db:"replaced_by" json:"replaced_by,omitempty"`
	UserAgent  string     `db:"user_agent"  json:"user_agent"`
	IPAddress  string     `db:"ip_address"  json:"ip_address"`
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsValid() bool {
	return !t.IsExpired() && !t.IsRevoked()
}

// UserInfo is the slice of a user account that authentication needs.
// It keeps the auth package decoupled from the user package's entity.
type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	TokenVersion int
}
