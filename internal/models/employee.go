package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Employee struct {
	bun.BaseModel `bun:"table:employees"`

	ID   string `bun:"id,pk" json:"id"`
	Name string `bun:"name,notnull" json:"name"`
	Role string `bun:"role,notnull" json:"role"`

	// ExtraPermissions supplements the role's default permission set for
	// custom roles. Stored as a JSON array of permission keys.
	ExtraPermissions []string `bun:"extra_permissions,type:jsonb,nullzero" json:"extra_permissions,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
