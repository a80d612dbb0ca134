package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidRole       = errors.New("invalid role")
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrProfileConflict   = errors.New("profile already present for user")
	ErrAPIKeyNotIssued   = errors.New("user holds no api key")
	ErrRoleNotKeyBearing = errors.New("role not permitted to hold api keys")
)

// RelationConflictError reports the relation that blocked a user deletion.
// The whole deletion transaction aborts; no partial delete is permitted.
type RelationConflictError struct {
	Relation string
	Err      error
}

func (e *RelationConflictError) Error() string {
	return fmt.Sprintf("user deletion blocked by relation %s: %v", e.Relation, e.Err)
}

func (e *RelationConflictError) Unwrap() error {
	return e.Err
}

func NewRelationConflict(relation string, err error) error {
	return &RelationConflictError{Relation: relation, Err: err}
}
