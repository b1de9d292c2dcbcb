package deal

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/swapcircle/swapcircle-go/internal/api"
	"github.com/swapcircle/swapcircle-go/internal/chat"
	"github.com/swapcircle/swapcircle-go/internal/models"
)

// ErrActionInFlight indicates a deal action is already outstanding for
// this thread; the duplicate submission is refused.
var ErrActionInFlight = errors.New("deal action already in flight")

// StatusUpdater issues the authoritative deal-action request. It is
// implemented by *api.Client.
type StatusUpdater interface {
	UpdateDealStatus(ctx context.Context, session api.Session, convID, action string) (*models.Conversation, error)
}

// Controller is the single entry point for a participant's deal intent
// (agree, complete, cancel) on one conversation thread.
//
// The flow is deliberately non-optimistic for status: preflight the
// action locally, refuse duplicate submission while a request is
// outstanding, then adopt the server's returned snapshot wholesale.
// Whether a signal produces "waiting for the other party" or the joint
// transition depends on the counterparty's prior signal, which this
// client cannot know with certainty.
type Controller struct {
	updater  StatusUpdater
	thread   *chat.Thread
	inFlight atomic.Bool
}

// NewController creates a controller for the given thread.
func NewController(updater StatusUpdater, thread *chat.Thread) *Controller {
	return &Controller{updater: updater, thread: thread}
}

// InFlight reports whether an action is currently outstanding; UIs use
// this to disable the action button.
func (ctl *Controller) InFlight() bool {
	return ctl.inFlight.Load()
}

// Invoke validates, submits and reconciles one deal action.
//
// On success the thread's conversation is replaced with the server's
// authoritative snapshot. On failure the thread is left untouched (no
// rollback is needed because no optimistic status mutation occurred)
// and the error is returned for the UI to surface. There is no
// automatic retry.
func (ctl *Controller) Invoke(ctx context.Context, session api.Session, action Action) error {
	if !ctl.inFlight.CompareAndSwap(false, true) {
		return ErrActionInFlight
	}
	defer ctl.inFlight.Store(false)

	conv := ctl.thread.Conversation()
	if err := Preflight(&conv, session.UserID, action); err != nil {
		return err
	}

	snapshot, err := ctl.updater.UpdateDealStatus(ctx, session, conv.ID, string(action))
	if err != nil {
		return err
	}

	ctl.thread.ReplaceConversation(*snapshot)
	return nil
}
