package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for user authorization.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

var ValidRoles = []string{RoleUser, RoleModerator, RoleAdmin}

// ReservedUsername cannot be registered: it collides with the
// /v1/users/me/ route.
const ReservedUsername = "me"

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	FirstName string             `bson:"firstName" json:"first_name"`
	LastName  string             `bson:"lastName" json:"last_name"`
	Bio       string             `bson:"bio" json:"bio"`
	Role      string             `bson:"role" json:"role"`

	// Last issued sign-up code; nil until the first sign-up request.
	ConfirmationCode *int `bson:"confirmationCode,omitempty" json:"-"`

	// Set out-of-band (importer/ops), never via the API.
	Superuser bool `bson:"superuser,omitempty" json:"-"`
}

// IsStaff is derived from role on every read; it is never stored.
func (u *User) IsStaff() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func RoleValid(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// UsernameReserved reports whether the username collides with the reserved
// "me" value, case-insensitively.
func UsernameReserved(username string) bool {
	return strings.EqualFold(username, ReservedUsername)
}
