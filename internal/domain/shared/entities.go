package shared

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies what a user may do in the marketplace
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleTrader Role = "trader"
	RoleAdmin  Role = "admin"
)

// User represents an authenticated marketplace participant. Identity and
// role arrive from the auth collaborator and are trusted as-is.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}
