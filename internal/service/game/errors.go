package game

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionBusy rejects an action that arrives while another one is being applied.
	ErrSessionBusy     = errors.New("please wait, the previous action is still being processed")
	ErrSessionFinished = errors.New("session already finished")
	ErrIllegalAction   = errors.New("illegal action")

	ErrNotYourTurn = fmt.Errorf("%w: not your turn", ErrIllegalAction)
	ErrNotSeated   = fmt.Errorf("%w: player is not seated in this session", ErrIllegalAction)
)

// IllegalActionError carries the rejected action and the rule it broke. State is unchanged.
type IllegalActionError struct {
	Action string
	Reason string
}

func (e *IllegalActionError) Error() string {
	if e.Action == "" {
		return "illegal action: " + e.Reason
	}
	return fmt.Sprintf("illegal action %q: %s", e.Action, e.Reason)
}

func (e *IllegalActionError) Is(target error) bool { return target == ErrIllegalAction }

func illegal(action, format string, args ...interface{}) error {
	return &IllegalActionError{Action: action, Reason: fmt.Sprintf(format, args...)}
}

type AckStatus string

const (
	AckAccepted AckStatus = "accepted"
	AckBusy     AckStatus = "busy"
	AckIllegal  AckStatus = "illegal"
	AckFinished AckStatus = "finished"
	AckError    AckStatus = "error"
)

// Classify maps a dispatch result onto the acknowledgement shown to the actor.
func Classify(err error) AckStatus {
	switch {
	case err == nil:
		return AckAccepted
	case errors.Is(err, ErrSessionBusy):
		return AckBusy
	case errors.Is(err, ErrIllegalAction):
		return AckIllegal
	case errors.Is(err, ErrSessionFinished):
		return AckFinished
	default:
		return AckError
	}
}
