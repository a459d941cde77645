package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User states.
const (
	UserStateActive   = "active"
	UserStateLocked   = "locked"
	UserStateCreating = "creating"
	UserStateDeleting = "deleting"
)

// ValidUserState reports whether s is one of the known user states.
func ValidUserState(s string) bool {
	switch s {
	case UserStateActive, UserStateLocked, UserStateCreating, UserStateDeleting:
		return true
	}
	return false
}

// User is a platform account.
type User struct {
	ID          int64      `json:"id" yaml:"id"`
	UUID        string     `json:"uuid" yaml:"uuid"`
	Username    string     `json:"username" yaml:"username"`
	Email       string     `json:"email" yaml:"email"`
	Cellphone   string     `json:"cellphone" yaml:"cellphone"`
	RoleID      *int64     `json:"role_id,omitempty" yaml:"role_id,omitempty"`
	State       string     `json:"state" yaml:"state"`
	LoginChance int64      `json:"login_chance" yaml:"login_chance"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Deleted     bool       `json:"deleted" yaml:"deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" yaml:"deleted_at,omitempty"`
}

// Resource is a quota-bearing platform resource such as USERS or GPU.
type Resource struct {
	ID          int64           `json:"id" yaml:"id"`
	UUID        string          `json:"uuid" yaml:"uuid"`
	Resource    string          `json:"resource" yaml:"resource"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	TotalQuota  decimal.Decimal `json:"total_quota" yaml:"total_quota"`
	UsedQuota   decimal.Decimal `json:"used_quota" yaml:"used_quota"`
	Unit        string          `json:"unit" yaml:"unit"`
	CreatedAt   time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// ResourcePatch holds the mutable fields of a Resource. Nil fields are left unchanged.
type ResourcePatch struct {
	Name        *string
	Description *string
	TotalQuota  *decimal.Decimal
	UsedQuota   *decimal.Decimal
	Unit        *string
}

// Page is one page of list results.
type Page[T any] struct {
	Items      []T    `json:"items" yaml:"items"`
	Total      int64  `json:"total" yaml:"total"`
	NextMarker string `json:"next_marker,omitempty" yaml:"next_marker,omitempty"`
	Truncated  bool   `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}
