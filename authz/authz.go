// Package authz holds the three access-control policies as plain predicates,
// evaluated per request and, for object-level writes, per object. Keeping
// them out of the HTTP plumbing makes each rule testable in isolation.
package authz

import (
	"errors"

	"github.com/yamdb/backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Policy int

const (
	// ContentOwnerOrStaff: anyone reads; writes need the object's author,
	// staff, or a superuser.
	ContentOwnerOrStaff Policy = iota
	// AdminOrReadOnly: anyone reads; writes need an admin or superuser.
	AdminOrReadOnly
	// AdminOnly: reads and writes both need an admin or superuser.
	AdminOnly
)

var (
	// ErrUnauthenticated maps to 401: the request carried no identity where
	// one was required.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden maps to 403: the identity is known but the policy denies.
	ErrForbidden = errors.New("forbidden")
)

type rule func(write bool, requester *models.User, owner primitive.ObjectID) error

var rules = map[Policy]rule{
	ContentOwnerOrStaff: func(write bool, requester *models.User, owner primitive.ObjectID) error {
		if !write {
			return nil
		}
		if requester == nil {
			return ErrUnauthenticated
		}
		// Ownership is compared by identity, never by username: usernames
		// are mutable and reusable.
		if requester.ID == owner || requester.IsStaff() || requester.Superuser {
			return nil
		}
		return ErrForbidden
	},
	AdminOrReadOnly: func(write bool, requester *models.User, owner primitive.ObjectID) error {
		if !write {
			return nil
		}
		if requester == nil {
			return ErrUnauthenticated
		}
		if requester.IsAdmin() || requester.Superuser {
			return nil
		}
		return ErrForbidden
	},
	AdminOnly: func(write bool, requester *models.User, owner primitive.ObjectID) error {
		if requester == nil {
			return ErrUnauthenticated
		}
		if requester.IsAdmin() || requester.Superuser {
			return nil
		}
		return ErrForbidden
	},
}

// Authorize evaluates the policy. write marks unsafe methods (POST, PATCH,
// DELETE). owner is the id of the user owning the target object; pass
// primitive.NilObjectID for collection-level actions.
func Authorize(p Policy, write bool, requester *models.User, owner primitive.ObjectID) error {
	return rules[p](write, requester, owner)
}
