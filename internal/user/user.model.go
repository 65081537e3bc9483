package user

import "time"

// Role is the staff/member role stored on the user record. Authorization is
// always decided by this column, never by heuristics on the email address.
type Role string

const (
	RoleMember    Role = "member"
	RoleTrainer   Role = "trainer"
	RoleAdmin     Role = "admin"
	RoleSecretary Role = "secretary"
)

type User struct {
	ID            string    `json:"id"`
	ClerkID       string    `json:"clerkId"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
