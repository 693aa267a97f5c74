package services

import "errors"

// Kind classifies a caller-visible failure. Handlers map kinds to HTTP statuses.
type Kind string

const (
	KindUnauthenticated         Kind = "unauthenticated"
	KindUnauthorized            Kind = "unauthorized"
	KindInvalidCodeFormat       Kind = "invalid_code_format"
	KindInvalidCode             Kind = "invalid_code"
	KindInvalidEmailFormat      Kind = "invalid_email_format"
	KindInvalidTTL              Kind = "invalid_ttl"
	KindInvalidKind             Kind = "invalid_kind"
	KindNotRedeemable           Kind = "invitation_not_redeemable"
	KindExpired                 Kind = "invitation_expired"
	KindEmailMismatch           Kind = "email_mismatch"
	KindConcurrentClaimLost     Kind = "concurrent_claim_lost"
	KindConflictingRelationship Kind = "conflicting_relationship_exists"
	KindCodeGenerationExhausted Kind = "code_generation_exhausted"
	KindRelationshipInactive    Kind = "relationship_inactive"
	KindNotFound                Kind = "not_found"
)

// Error is a typed failure. Two Errors match under errors.Is when their kinds match, so
// a message naming the specific terminal state still matches its sentinel.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrUnauthenticated         = newError(KindUnauthenticated, "not authenticated")
	ErrUnauthorized            = newError(KindUnauthorized, "not allowed")
	ErrInvalidCodeFormat       = newError(KindInvalidCodeFormat, "invitation code must be 6 characters")
	ErrInvalidCode             = newError(KindInvalidCode, "invitation code not found")
	ErrInvalidEmailFormat      = newError(KindInvalidEmailFormat, "invalid email address")
	ErrInvalidTTL              = newError(KindInvalidTTL, "invitation lifetime must be between 1 and 30 days")
	ErrInvalidKind             = newError(KindInvalidKind, "invalid relationship kind")
	ErrNotRedeemable           = newError(KindNotRedeemable, "invitation can no longer be redeemed")
	ErrInvitationExpired       = newError(KindExpired, "invitation has expired")
	ErrEmailMismatch           = newError(KindEmailMismatch, "invitation was issued to a different email address")
	ErrConcurrentClaimLost     = newError(KindConcurrentClaimLost, "invitation was claimed by another request")
	ErrConflictingRelationship = newError(KindConflictingRelationship, "an active relationship of this kind already exists")
	ErrCodeGenerationExhausted = newError(KindCodeGenerationExhausted, "could not generate a unique invitation code")
	ErrRelationshipInactive    = newError(KindRelationshipInactive, "relationship is not active")
	ErrNotFound                = newError(KindNotFound, "not found")
)

func notRedeemable(status string) *Error {
	return newError(KindNotRedeemable, "invitation has already been "+status)
}

// KindOf returns the kind of err, or "" when err is not a typed failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
