// Package domain holds the typed identifiers shared across services. Distinct
// ID types keep a user ID from ever being passed where an offer ID belongs;
// the compiler enforces what code review would otherwise have to catch.
package domain

import (
	"github.com/google/uuid"

	dErrors "kreditomat/pkg/domain-errors"
)

type UserID uuid.UUID

type ApplicationID uuid.UUID

type OfferID uuid.UUID

func NewUserID() UserID               { return UserID(uuid.New()) }
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }
func NewOfferID() OfferID             { return OfferID(uuid.New()) }

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id OfferID) String() string       { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OfferID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Parsing happens at trust boundaries only.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id cannot be empty", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s id", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id cannot be nil", kind)
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "application")
	return ApplicationID(u), err
}

func ParseOfferID(s string) (OfferID, error) {
	u, err := parseUUID(s, "offer")
	return OfferID(u), err
}
