package room

import (
	"context"
	"fmt"

	"github.com/dutchbamin/together/internal/baemin"
	pkgerrors "github.com/dutchbamin/together/pkg/errors"
)

// Leave removes the viewer from the room. The host cannot leave their
// own room, and nobody leaves once the payment phase has begun.
func (w *Workflow) Leave(ctx context.Context) error {
	viewer := w.sessions.Current()
	if !viewer.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in first")
	}
	if w.IsHost() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "the host deletes the room instead of leaving it")
	}
	if phase := w.Phase(); phase != PhaseCollecting {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot leave in phase %s", phase))
	}

	if err := w.api.LeaveRoom(ctx, w.syncer.RoomID(), viewer.UserID); err != nil {
		return err
	}
	return w.syncer.Load(ctx, false)
}

// Delete tears the room down. Host only.
func (w *Workflow) Delete(ctx context.Context) error {
	viewer := w.sessions.Current()
	if !viewer.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in first")
	}
	if !w.IsHost() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the host deletes the room")
	}
	return w.api.DeleteRoom(ctx, w.syncer.RoomID())
}

// CreateOrder places the group order with the store. Host only, and only
// once every participant has paid.
func (w *Workflow) CreateOrder(ctx context.Context, deliveryAddress string) (*baemin.CreateOrderResponse, error) {
	viewer := w.sessions.Current()
	if !viewer.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in first")
	}
	if !w.IsHost() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the host places the order")
	}
	if phase := w.Phase(); phase != PhasePaymentActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot order in phase %s", phase))
	}
	if snap := w.syncer.Snapshot(); snap.Payment == nil || !snap.Payment.AllPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "waiting for all participants to pay")
	}

	return w.api.CreateOrder(ctx, w.syncer.RoomID(), baemin.CreateOrderRequest{
		RoomID:          w.syncer.RoomID(),
		DeliveryAddress: deliveryAddress,
	})
}
