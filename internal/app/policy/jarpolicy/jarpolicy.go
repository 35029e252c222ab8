// internal/app/policy/jarpolicy.go

// Package jarpolicy decides which operation classes a user may run
// inside a jar. Handlers ask it instead of querying memberships
// themselves, so the role each operation requires lives in one place.
package jarpolicy

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipSource answers role and status questions for a jar's
// roster. The members store satisfies it.
type MembershipSource interface {
	IsActiveAdmin(ctx context.Context, jarID, userID primitive.ObjectID) (bool, error)
	IsActiveMember(ctx context.Context, jarID, userID primitive.ObjectID) (bool, error)
}

// CanManageJar reports whether the acting user may run the jar's admin
// operations: change the selection mode, manage the roster, approve or
// reject ideas, reset a consumed idea, pick a winner directly, start or
// force-resolve a vote session.
// Returns an error only when the membership check fails, so callers can
// distinguish "not authorized" (false, nil) from "database error"
// (false, err).
func CanManageJar(ctx context.Context, members MembershipSource, jarID, actorID primitive.ObjectID) (bool, error) {
	return members.IsActiveAdmin(ctx, jarID, actorID)
}

// CanParticipate reports whether the acting user may take part in the
// jar: read it, add ideas, spin, cast a vote. Pending and waitlisted
// members have no rights yet.
func CanParticipate(ctx context.Context, members MembershipSource, jarID, actorID primitive.ObjectID) (bool, error) {
	return members.IsActiveMember(ctx, jarID, actorID)
}
