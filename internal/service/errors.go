package service

import "errors"

// Cross-cutting workflow errors. Handlers translate these to HTTP statuses;
// services never panic or throw for expected business conditions.
var (
	// ErrForbidden indicates the caller lacks the role or ownership required.
	ErrForbidden = errors.New("caller is not allowed to perform this action")
	// ErrInvalidTransition indicates a state-machine precondition failed. It is
	// wrapped with the required source state so callers see what was expected.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrAlreadyReviewed indicates a second decision on a decided request.
	ErrAlreadyReviewed = errors.New("request has already been reviewed")
	// ErrSchedulingConflict indicates the proposed window overlaps an existing
	// commitment of the instructor or mentor.
	ErrSchedulingConflict = errors.New("time slot conflicts with an existing commitment")
)
