package room

import (
	"context"
	"fmt"
	"sync"

	"github.com/dutchbamin/together/internal/baemin"
	"github.com/dutchbamin/together/internal/session"
	pkgerrors "github.com/dutchbamin/together/pkg/errors"
	"github.com/dutchbamin/together/pkg/logger"
)

// Phase is the derived state of the viewer in a room. It is recomputed
// from the current snapshot on every read, never stored.
type Phase string

const (
	PhaseUnauthenticated Phase = "UNAUTHENTICATED"
	PhaseNotParticipant  Phase = "NOT_PARTICIPANT"
	PhaseCollecting      Phase = "COLLECTING"
	PhasePaymentActive   Phase = "PAYMENT_ACTIVE"
)

// WorkflowAPI is the mutation surface of the backend client consumed by
// the workflow.
type WorkflowAPI interface {
	JoinRoom(ctx context.Context, roomID string, req baemin.JoinRoomRequest) (*baemin.JoinRoomResponse, error)
	AddMenu(ctx context.Context, roomID string, req baemin.AddMenuRequest) (*baemin.AddMenuResponse, error)
	DeleteCartItem(ctx context.Context, roomID, cartItemID string) error
	SelectSettlementMethod(ctx context.Context, roomID string, req baemin.SelectSettlementMethodRequest) (*baemin.SelectSettlementMethodResponse, error)
	RequestPayment(ctx context.Context, roomID string, req baemin.PaymentRequestRequest) (*baemin.PaymentRequestResponse, error)
	CompletePayment(ctx context.Context, roomID, userID string, req baemin.CompletePaymentRequest) (*baemin.CompletePaymentResponse, error)
	CalculateAmount(ctx context.Context, roomID, userID string) (*baemin.CalculatedAmount, error)
	GetPaymentStatus(ctx context.Context, roomID string) (*baemin.PaymentStatus, error)
	LeaveRoom(ctx context.Context, roomID, userID string) error
	DeleteRoom(ctx context.Context, roomID string) error
	CreateOrder(ctx context.Context, roomID string, req baemin.CreateOrderRequest) (*baemin.CreateOrderResponse, error)
}

// Workflow gates the mutating room actions by viewer role and phase, and
// triggers an immediate refresh after each successful mutation instead of
// waiting for the next poll tick. All mutations are confirm-then-reflect:
// local state changes only after the backend accepted the call.
type Workflow struct {
	api      WorkflowAPI
	syncer   *Syncer
	sessions SessionSource
	logg     *logger.Logger

	mu     sync.Mutex
	method baemin.SettlementMethod
}

func NewWorkflow(api WorkflowAPI, syncer *Syncer, sessions SessionSource, logg *logger.Logger) (*Workflow, error) {
	if api == nil {
		return nil, fmt.Errorf("workflow api is required")
	}
	if syncer == nil {
		return nil, fmt.Errorf("syncer is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session source is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Workflow{
		api:      api,
		syncer:   syncer,
		sessions: sessions,
		logg:     logg,
	}, nil
}

// PhaseFor derives the viewer's phase from a snapshot. The payment list
// is the sole phase signal: the synchronizer already normalized empty or
// failed status fetches to a nil Payment.
func PhaseFor(viewer *session.Session, snap Snapshot) Phase {
	if !viewer.Authenticated() {
		return PhaseUnauthenticated
	}
	if snap.Room == nil || !snap.Room.HasParticipant(viewer.UserID) {
		return PhaseNotParticipant
	}
	if snap.Payment != nil && len(snap.Payment.Payments) > 0 {
		return PhasePaymentActive
	}
	return PhaseCollecting
}

// Phase returns the viewer's current phase.
func (w *Workflow) Phase() Phase {
	return PhaseFor(w.sessions.Current(), w.syncer.Snapshot())
}

// IsHost reports whether the viewer created the room.
func (w *Workflow) IsHost() bool {
	viewer := w.sessions.Current()
	snap := w.syncer.Snapshot()
	return viewer.Authenticated() && snap.Room != nil && snap.Room.HostID == viewer.UserID
}

// SettlementMethod returns the locally confirmed method, if any.
func (w *Workflow) SettlementMethod() (baemin.SettlementMethod, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.method, w.method != ""
}

// Join adds the viewer to the room's participants. On success the
// snapshot is refreshed immediately so the phase flips without waiting
// for the next tick; on failure nothing changes.
func (w *Workflow) Join(ctx context.Context) error {
	viewer := w.sessions.Current()
	if !viewer.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to join a room")
	}
	if w.Phase() != PhaseNotParticipant {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "already a participant")
	}

	_, err := w.api.JoinRoom(ctx, w.syncer.RoomID(), baemin.JoinRoomRequest{
		UserID:   viewer.UserID,
		Nickname: viewer.Nickname,
	})
	if err != nil {
		return err
	}

	return w.syncer.Load(ctx, false)
}

// AddMenu puts a menu item into the shared cart for the viewer. Quantity
// has a floor of 1, enforced before anything is dispatched.
func (w *Workflow) AddMenu(ctx context.Context, menu baemin.Menu, quantity int, options []baemin.MenuOption) error {
	viewer := w.sessions.Current()
	if !viewer.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to add menus")
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if phase := w.Phase(); phase != PhaseCollecting {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot add menus in phase %s", phase))
	}

	_, err := w.api.AddMenu(ctx, w.syncer.RoomID(), baemin.AddMenuRequest{
		UserID:   viewer.UserID,
		MenuID:   menu.MenuID,
		MenuName: menu.MenuName,
		Quantity: quantity,
		Price:    menu.Price,
		Options:  options,
	})
	if err != nil {
		return err
	}

	return w.syncer.Load(ctx, false)
}

// DeleteCartItem removes one of the viewer's own cart items. Items owned
// by other participants are refused without a call to the backend.
func (w *Workflow) DeleteCartItem(ctx context.Context, cartItemID string) error {
	viewer := w.sessions.Current()
	if !viewer.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to edit the cart")
	}
	if phase := w.Phase(); phase != PhaseCollecting {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot edit the cart in phase %s", phase))
	}

	snap := w.syncer.Snapshot()
	if snap.Cart == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	var owned bool
	for _, item := range snap.Cart.Items {
		if item.CartItemID == cartItemID {
			if item.UserID != viewer.UserID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "only your own items can be removed")
			}
			owned = true
			break
		}
	}
	if !owned {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	if err := w.api.DeleteCartItem(ctx, w.syncer.RoomID(), cartItemID); err != nil {
		return err
	}

	return w.syncer.Load(ctx, false)
}

// SelectSettlementMethod records the host's split policy. The local
// method state is optimistic only in the sense that the next poll may
// not echo it; it is still set strictly after the backend accepted it.
func (w *Workflow) SelectSettlementMethod(ctx context.Context, method baemin.SettlementMethod) error {
	viewer := w.sessions.Current()
	if !viewer.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in first")
	}
	if !w.IsHost() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the host selects the settlement method")
	}
	if phase := w.Phase(); phase != PhaseCollecting {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot change settlement method in phase %s", phase))
	}

	_, err := w.api.SelectSettlementMethod(ctx, w.syncer.RoomID(), baemin.SelectSettlementMethodRequest{
		HostID:           viewer.UserID,
		SettlementMethod: method,
	})
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.method = method
	w.mu.Unlock()
	return nil
}

// RequestPayment asks the backend to open the payment phase. It is never
// dispatched unless the cart meets the minimum order and a settlement
// method was chosen. The phase flip itself is observed by the next
// refresh seeing a non-empty payment list, never set here.
func (w *Workflow) RequestPayment(ctx context.Context) error {
	viewer := w.sessions.Current()
	if !viewer.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in first")
	}
	if !w.IsHost() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the host requests payment")
	}
	if phase := w.Phase(); phase != PhaseCollecting {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot request payment in phase %s", phase))
	}

	snap := w.syncer.Snapshot()
	if snap.Cart == nil || !snap.Cart.MinimumOrderMet {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "minimum order amount not met")
	}
	if _, ok := w.SettlementMethod(); !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "settlement method not selected")
	}

	_, err := w.api.RequestPayment(ctx, w.syncer.RoomID(), baemin.PaymentRequestRequest{
		HostID: viewer.UserID,
	})
	return err
}
