package engine

import (
	"errors"

	"spycat/internal/repo"
)

// Failure kinds. Every *Error unwraps to exactly one of these.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = repo.ErrNotFound
	ErrConflict        = errors.New("conflict")
	ErrInvalidState    = errors.New("invalid state")
)

// Error is a business-rule failure with a stable, user-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func invalidArgument(msg string) error { return &Error{Kind: ErrInvalidArgument, Message: msg} }
func notFound(msg string) error        { return &Error{Kind: ErrNotFound, Message: msg} }
func conflict(msg string) error        { return &Error{Kind: ErrConflict, Message: msg} }
func invalidState(msg string) error    { return &Error{Kind: ErrInvalidState, Message: msg} }

// Stable messages.
const (
	msgCatNotFound          = "cat not found"
	msgMissionNotFound      = "mission not found"
	msgTargetNotFound       = "target not found"
	msgTargetCount          = "a mission must have between 1 and 3 targets"
	msgCatOnMission         = "cat is on a mission"
	msgCatHasActiveMission  = "this cat already has an active mission"
	msgMissionTaken         = "mission is already assigned to another cat"
	msgMissionCompleted     = "mission is already completed"
	msgMissionAssigned      = "cannot delete mission assigned to a cat"
	msgTargetNotesCompleted = "cannot update notes for completed target"
)

// orNotFound converts a storage miss into a NotFound failure carrying msg.
func orNotFound(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return notFound(msg)
	}
	return err
}
