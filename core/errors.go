// Package core implements the membership, visibility, invite and cascade
// rules that keep users, families, recipes and invites consistent in a
// store without enforced foreign keys.
package core

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Kind classifies a core failure so the transport layer can pick a stable
// status family without inspecting codes.
type Kind int

// Failure kinds, in the order the transport maps them: not-found -> 404,
// forbidden -> 403, conflict and invalid input -> 400, unavailable -> 503.
const (
	KindNotFound Kind = iota + 1
	KindForbidden
	KindConflict
	KindInvalidInput
	KindUnavailable
)

// Machine-readable failure codes carried alongside the kind.
const (
	CodeUserNotFound   = "user_not_found"
	CodeFamilyNotFound = "family_not_found"
	CodeRecipeNotFound = "recipe_not_found"
	CodeInviteNotFound = "invite_not_found"

	CodeNotAdmin   = "not_admin"
	CodeNotAMember = "not_a_member"
	CodeNotAuthor  = "not_author"
	CodeNotInvited = "not_invited"

	CodeAlreadyAdmin     = "already_admin"
	CodeAlreadyMember    = "already_member"
	CodeAlreadyInvited   = "already_invited"
	CodeAlreadyFavorite  = "already_favorite"
	CodeNotFavorite      = "not_favorite"
	CodeLastAdmin        = "last_admin"
	CodeCannotRemoveSelf = "cannot_remove_self"
	CodeStaleFamily      = "stale_family"

	CodePrivateRecipe  = "private_recipe"
	CodeNoSharedFamily = "no_shared_family"

	CodeInvalidVisibility = "invalid_visibility"
	CodeInvalidID         = "invalid_id"

	CodeStoreUnavailable = "store_unavailable"
)

// Error is the typed failure returned by every core operation.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying store error, if any
func (e *Error) Unwrap() error { return e.Err }

// NotFound reports that an entity id or name did not resolve
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Forbidden reports that the actor lacks the role the operation requires
func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

// Conflict reports that the operation would violate an invariant
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// InvalidInput reports a malformed id or out-of-range field value
func InvalidInput(code, message string) *Error {
	return &Error{Kind: KindInvalidInput, Code: code, Message: message}
}

// Unavailable reports a transient backing-store failure; callers may retry
func Unavailable(message string, err error) *Error {
	return &Error{Kind: KindUnavailable, Code: CodeStoreUnavailable, Message: message, Err: err}
}

// KindOf returns the kind of a core error, or zero for foreign errors
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// CodeOf returns the machine code of a core error, or empty for foreign errors
func CodeOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// StoreError translates an entity-store lookup failure. A missing document
// becomes NotFound with the given code; anything else, including timeouts,
// is surfaced as Unavailable so it is never mistaken for a missing entity.
func StoreError(err error, code, notFoundMessage string) *Error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return NotFound(code, notFoundMessage)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable("entity store timed out", err)
	}
	return Unavailable("entity store unavailable", err)
}
