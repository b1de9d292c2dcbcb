// Package deal implements the bilateral deal state machine for swap
// negotiations and the controller that submits deal actions.
//
// The backend is the authority for every transition. The client-side
// machine exists for two reasons: to validate actions before issuing a
// request (Preflight), and to define the canonical transition semantics
// (Apply) that tests and fakes exercise. The controller never applies
// Apply's result optimistically; it always adopts the server snapshot.
package deal

import (
	"errors"
	"fmt"
	"time"

	"github.com/swapcircle/swapcircle-go/internal/models"
)

// Action is a deal-related intent a participant may invoke.
type Action string

const (
	ActionAgree    Action = "agree"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a == ActionAgree || a == ActionComplete || a == ActionCancel
}

// Sentinel errors for precondition failures. Check with errors.Is.
var (
	// ErrNotParticipant indicates the actor is not a party to the conversation.
	ErrNotParticipant = errors.New("not a conversation participant")

	// ErrDealClosed indicates the conversation is in a terminal state and
	// accepts no further actions.
	ErrDealClosed = errors.New("deal is closed")

	// ErrNotAgreed indicates complete was attempted before both parties agreed.
	ErrNotAgreed = errors.New("deal must be agreed before completing")

	// ErrAlreadyAgreed indicates agree was attempted after the joint
	// agreement already advanced the status.
	ErrAlreadyAgreed = errors.New("deal is already agreed")
)

// System message content appended by the backend on each transition.
// The client renders these but never synthesizes them locally; Apply
// returns them so tests and embedded fakes match the backend exactly.
const (
	NoteAgreedWaiting    = "You agreed to the deal. Waiting for the other party…"
	NoteAgreedBoth       = "Both parties agreed to the deal! Time to arrange the swap."
	NoteCompletedWaiting = "You marked this swap as complete. Waiting for the other party to confirm…"
	NoteCompletedBoth    = "Swap completed! Both users confirmed the exchange."
	NoteCancelled        = "This deal was cancelled."
)

// Preflight validates that actor may invoke action given the current
// conversation state. It is advisory: the backend re-validates and is
// the final arbiter. A duplicate agree/complete by the same actor is
// not an error (the action is idempotent) and passes preflight.
func Preflight(c *models.Conversation, actor string, action Action) error {
	if !c.HasParticipant(actor) {
		return ErrNotParticipant
	}

	switch action {
	case ActionAgree:
		switch c.Status {
		case models.StatusInterested, models.StatusNegotiating:
			return nil
		case models.StatusDealAgreed:
			return ErrAlreadyAgreed
		default:
			return fmt.Errorf("%w: cannot agree while %s", ErrDealClosed, c.Status)
		}

	case ActionComplete:
		switch c.Status {
		case models.StatusDealAgreed:
			return nil
		case models.StatusCompleted, models.StatusCancelled:
			return fmt.Errorf("%w: cannot complete while %s", ErrDealClosed, c.Status)
		default:
			return ErrNotAgreed
		}

	case ActionCancel:
		// Cancelling a completed swap is a hard error, matching the
		// backend's rejection. Cancelling twice is likewise rejected.
		if c.Status.Terminal() {
			return fmt.Errorf("%w: cannot cancel while %s", ErrDealClosed, c.Status)
		}
		return nil
	}

	return fmt.Errorf("unknown deal action %q", action)
}

// Result is the outcome of applying an action to a conversation.
type Result struct {
	Conversation *models.Conversation
	// SystemNote is the system message content the backend appends for
	// this transition, or "" when the action was an idempotent no-op.
	SystemNote string
	// Changed reports whether the conversation state was mutated.
	Changed bool
}

// Apply executes the authoritative transition for action at time now,
// returning a new conversation; the input is never mutated.
//
// Agreement and completion accumulate monotonically: a repeat call by a
// party already in the respective set is a silent no-op. Status only
// advances when both participants are present in the set.
func Apply(c *models.Conversation, actor string, action Action, now time.Time) (Result, error) {
	if err := Preflight(c, actor, action); err != nil {
		return Result{}, err
	}

	next := c.Clone()

	switch action {
	case ActionAgree:
		if next.AgreedBy(actor) {
			return Result{Conversation: next}, nil
		}
		next.DealAgreedBy = append(next.DealAgreedBy, actor)
		if next.AgreedBy(next.User1) && next.AgreedBy(next.User2) {
			next.Status = models.StatusDealAgreed
			next.DealAgreedAt = &now
			return Result{Conversation: next, SystemNote: NoteAgreedBoth, Changed: true}, nil
		}
		return Result{Conversation: next, SystemNote: NoteAgreedWaiting, Changed: true}, nil

	case ActionComplete:
		if next.MarkedCompleteBy(actor) {
			return Result{Conversation: next}, nil
		}
		next.CompletedBy = append(next.CompletedBy, actor)
		if next.MarkedCompleteBy(next.User1) && next.MarkedCompleteBy(next.User2) {
			next.Status = models.StatusCompleted
			next.CompletedAt = &now
			return Result{Conversation: next, SystemNote: NoteCompletedBoth, Changed: true}, nil
		}
		return Result{Conversation: next, SystemNote: NoteCompletedWaiting, Changed: true}, nil

	case ActionCancel:
		next.Status = models.StatusCancelled
		next.CancelledBy = actor
		next.CancelledAt = &now
		return Result{Conversation: next, SystemNote: NoteCancelled, Changed: true}, nil
	}

	return Result{}, fmt.Errorf("unknown deal action %q", action)
}

// StepIndex maps a status onto the four-step deal progress display
// (interested → negotiating → agreed → swapped). Cancelled maps to -1.
func StepIndex(s models.Status) int {
	switch s {
	case models.StatusInterested:
		return 0
	case models.StatusNegotiating:
		return 1
	case models.StatusDealAgreed:
		return 2
	case models.StatusCompleted:
		return 3
	case models.StatusCancelled:
		return -1
	}
	return 0
}
