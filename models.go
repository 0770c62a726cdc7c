package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	FirstName     string     `bun:"first_name" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name" json:"last_name,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Activated     bool       `bun:"activated,notnull,default:false" json:"activated"`
	IsAdmin       bool       `bun:"is_admin,notnull,default:false" json:"is_admin,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// Scopes derives the scope set a token minted for this user carries.
// Admins get {admin, user}, everyone else {user}.
func (u *User) Scopes() ScopeSet {
	if u.IsAdmin {
		return NewScopeSet(ScopeAdmin, ScopeUser)
	}
	return NewScopeSet(ScopeUser)
}

// NormalizeEmail lower-cases and trims an email address. Every store write
// and lookup goes through this so matching is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
