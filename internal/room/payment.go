package room

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dutchbamin/together/internal/baemin"
	pkgerrors "github.com/dutchbamin/together/pkg/errors"
)

// PaymentView is what the payment screen renders: the viewer's share and
// the room-wide progress, fetched in one shot.
type PaymentView struct {
	Amount *baemin.CalculatedAmount
	Status *baemin.PaymentStatus
}

// PaymentView loads the viewer's calculated amount and the aggregate
// payment status in parallel. Both must succeed; a partial view is worse
// than an error here.
func (w *Workflow) PaymentView(ctx context.Context) (*PaymentView, error) {
	viewer := w.sessions.Current()
	if !viewer.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in first")
	}
	if phase := w.Phase(); phase != PhasePaymentActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payment not active in phase %s", phase))
	}

	view := &PaymentView{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		amount, err := w.api.CalculateAmount(gctx, w.syncer.RoomID(), viewer.UserID)
		if err != nil {
			return err
		}
		view.Amount = amount
		return nil
	})
	g.Go(func() error {
		status, err := w.api.GetPaymentStatus(gctx, w.syncer.RoomID())
		if err != nil {
			return err
		}
		view.Status = status
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// CompletePayment settles the viewer's share. Duplicate completion is
// refused locally when the last snapshot already shows the viewer's
// payment as COMPLETED; the backend remains the final judge either way.
func (w *Workflow) CompletePayment(ctx context.Context, method baemin.PaymentMethod, amount int) (*baemin.CompletePaymentResponse, error) {
	viewer := w.sessions.Current()
	if !viewer.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in first")
	}
	if phase := w.Phase(); phase != PhasePaymentActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot pay in phase %s", phase))
	}

	snap := w.syncer.Snapshot()
	if own := snap.Payment.PaymentFor(viewer.UserID); own != nil && own.Status == baemin.PaymentCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already completed")
	}

	resp, err := w.api.CompletePayment(ctx, w.syncer.RoomID(), viewer.UserID, baemin.CompletePaymentRequest{
		PaymentMethod: method,
		PaymentKey:    newPaymentKey(),
		Amount:        amount,
	})
	if err != nil {
		return nil, err
	}

	lctx := w.logg.WithFields(w.logg.WithRoomID(ctx, w.syncer.RoomID()), map[string]any{
		"paid_count":         resp.PaidCount,
		"total_participants": resp.TotalParticipants,
	})
	w.logg.Info(lctx, "payment completed")

	if err := w.syncer.Load(ctx, false); err != nil {
		return resp, err
	}
	return resp, nil
}

// newPaymentKey mints the client-side idempotency key sent with a
// completion call.
func newPaymentKey() string {
	return fmt.Sprintf("payment_%d_%s", time.Now().UnixMilli(), uuid.NewString())
}
