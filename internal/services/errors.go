// Package services defines the business logic for team membership,
// recognitions, sentiment logging, reports, and user accounts.
// This file centralizes the service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Every specific error wraps exactly one kind sentinel (ErrNotFound,
// ErrConflict, ...). Callers test the kind with errors.Is or Kind and read
// the stable code with Code. Translation into HTTP status codes is performed
// at the handler layer.
package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/aura-backend/internal/observability"
	"github.com/tbourn/aura-backend/internal/repo"
)

// Kind sentinels.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrorKind classifies a service error.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalid
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInvalid:
		return "invalid"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

// Error is a service error with a stable machine code.
type Error struct {
	kind error
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

// Code returns the stable machine-readable code.
func (e *Error) Code() string { return e.code }

func newError(kind error, code, msg string) *Error {
	return &Error{kind: kind, code: code, msg: msg}
}

// invalid builds an input validation error carrying msg.
func invalid(msg string) error {
	return newError(ErrInvalidInput, "invalid_input", msg)
}

// Lookup errors.
var (
	ErrUserNotFound        = newError(ErrNotFound, "user_not_found", "user not found")
	ErrTeamNotFound        = newError(ErrNotFound, "team_not_found", "team not found")
	ErrReceiverNotFound    = newError(ErrNotFound, "receiver_not_found", "receiver not found")
	ErrMemberNotFound      = newError(ErrNotFound, "member_not_found", "member not found")
	ErrRecognitionNotFound = newError(ErrNotFound, "recognition_not_found", "recognition not found")
	ErrSentimentNotFound   = newError(ErrNotFound, "sentiment_not_found", "sentiment entry not found")
	ErrReportNotFound      = newError(ErrNotFound, "report_not_found", "report not found")
)

// Membership errors.
var (
	ErrUserInactive      = newError(ErrConflict, "user_inactive", "user is inactive")
	ErrAlreadyInTeam     = newError(ErrConflict, "already_in_team", "user already belongs to a team")
	ErrNotInTeam         = newError(ErrConflict, "not_in_team", "user does not belong to a team")
	ErrManagerHasMembers = newError(ErrConflict, "manager_has_members", "a manager cannot leave while other active members remain")
	ErrTeamHasMembers    = newError(ErrConflict, "team_has_members", "team still has other active members")
	ErrNotManager        = newError(ErrForbidden, "not_manager", "only the team manager can perform this action")
	ErrMemberInactive    = newError(ErrConflict, "member_inactive", "member is inactive")
	ErrMemberHasTeam     = newError(ErrConflict, "member_has_team", "member already belongs to a team")
	ErrRemoveSelf        = newError(ErrConflict, "remove_self", "a manager cannot remove themselves")
	ErrMemberNotInTeam   = newError(ErrConflict, "member_not_in_team", "member does not belong to your team")
)

// Recognition errors.
var (
	ErrGiverInactive       = newError(ErrConflict, "giver_inactive", "giver is inactive")
	ErrGiverNoTeam         = newError(ErrConflict, "giver_no_team", "giver does not belong to a team")
	ErrReceiverInactive    = newError(ErrConflict, "receiver_inactive", "receiver is inactive")
	ErrReceiverNotTeammate = newError(ErrConflict, "receiver_not_teammate", "receiver is not on the giver's team")
	ErrSelfRecognition     = newError(ErrConflict, "self_recognition", "users cannot recognize themselves")
	ErrDailyLimit          = newError(ErrConflict, "daily_limit", "only one recognition can be given per day")
	ErrMonthlyLimit        = newError(ErrConflict, "monthly_limit", "this receiver was already recognized by you this month")
	ErrNotGiver            = newError(ErrForbidden, "not_giver", "only the giver can delete a recognition")
	ErrBatchEmpty          = newError(ErrInvalidInput, "batch_empty", "at least one recognition is required")
	ErrBatchTooLarge       = newError(ErrInvalidInput, "batch_too_large", "too many recognitions in one batch")
)

// Sentiment and report errors.
var (
	ErrSentimentExists = newError(ErrConflict, "sentiment_exists", "a sentiment was already recorded today")
	ErrNotOwner        = newError(ErrForbidden, "not_owner", "only the owner can access this entry")
	ErrNoActiveMembers = newError(ErrConflict, "no_active_members", "team has no active members")
	ErrReportForbidden = newError(ErrForbidden, "report_forbidden", "report belongs to another user")
)

// Account errors.
var (
	ErrEmailTaken         = newError(ErrConflict, "email_taken", "email is already registered")
	ErrInvalidCredentials = newError(ErrUnauthorized, "invalid_credentials", "invalid email or password")
)

// Kind returns the classification of err.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInvalidInput):
		return KindInvalid
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	}
	return KindInternal
}

// Code returns the stable code of a service error, or "" for other errors.
func Code(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.code
	}
	return ""
}

// rejected records a rule rejection metric and returns err unchanged.
func rejected(err error) error {
	if c := Code(err); c != "" {
		observability.RuleRejections.WithLabelValues(c).Inc()
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, repo.ErrNotFound)
}

func isDuplicate(err error) bool { return repo.IsDuplicate(err) }

// duplicateRecognition maps a unique-index violation on recognitions to the
// rule it enforces.
func duplicateRecognition(err error) error {
	low := strings.ToLower(err.Error())
	if strings.Contains(low, "daily") {
		return ErrDailyLimit
	}
	return ErrMonthlyLimit
}
