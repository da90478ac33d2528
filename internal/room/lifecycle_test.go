package room

import (
	"context"
	"testing"

	"github.com/dutchbamin/together/internal/baemin"
	pkgerrors "github.com/dutchbamin/together/pkg/errors"
)

func TestLeaveGuards(t *testing.T) {
	left := false
	api := &stubAPI{
		getRoom: func(context.Context, string) (*baemin.RoomDetail, error) {
			if left {
				return testRoom("host-1"), nil
			}
			return testRoom("host-1", "user-1"), nil
		},
		leaveRoom: func(_ context.Context, _, userID string) error {
			left = true
			return nil
		},
	}
	sessions := &stubSessions{current: participantSession("host-1")}
	wf, syncer := newTestWorkflow(t, api, sessions)

	if err := syncer.Load(context.Background(), true); err != nil {
		t.Fatalf("load: %v", err)
	}

	wantCode(t, wf.Leave(context.Background()), pkgerrors.CodeForbidden)

	sessions.current = participantSession("user-1")
	if err := wf.Leave(context.Background()); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if got := wf.Phase(); got != PhaseNotParticipant {
		t.Fatalf("phase after leave = %s, want %s", got, PhaseNotParticipant)
	}
}

func TestDeleteRoomHostOnly(t *testing.T) {
	deleted := false
	api := &stubAPI{
		getRoom: func(context.Context, string) (*baemin.RoomDetail, error) {
			return testRoom("host-1", "user-1"), nil
		},
		deleteRoom: func(context.Context, string) error {
			deleted = true
			return nil
		},
	}
	sessions := &stubSessions{current: participantSession("user-1")}
	wf, syncer := newTestWorkflow(t, api, sessions)

	if err := syncer.Load(context.Background(), true); err != nil {
		t.Fatalf("load: %v", err)
	}

	wantCode(t, wf.Delete(context.Background()), pkgerrors.CodeForbidden)
	if deleted {
		t.Fatal("non-host delete must not reach the backend")
	}

	sessions.current = participantSession("host-1")
	if err := wf.Delete(context.Background()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("host delete was not dispatched")
	}
}

func TestCreateOrderRequiresAllPaid(t *testing.T) {
	allPaid := false
	var placed bool
	api := &stubAPI{
		getRoom: func(context.Context, string) (*baemin.RoomDetail, error) {
			return testRoom("host-1", "user-1"), nil
		},
		getPaymentStatus: func(context.Context, string) (*baemin.PaymentStatus, error) {
			return &baemin.PaymentStatus{
				AllPaid:           allPaid,
				TotalParticipants: 2,
				Payments: []baemin.Payment{
					{UserID: "host-1", Status: baemin.PaymentCompleted},
					{UserID: "user-1", Status: baemin.PaymentPending},
				},
			}, nil
		},
		createOrder: func(_ context.Context, roomID string, req baemin.CreateOrderRequest) (*baemin.CreateOrderResponse, error) {
			placed = true
			return &baemin.CreateOrderResponse{
				OrderID:         "order-1",
				RoomID:          roomID,
				DeliveryAddress: req.DeliveryAddress,
				Status:          baemin.OrderPending,
			}, nil
		},
	}
	sessions := &stubSessions{current: participantSession("host-1")}
	wf, syncer := newTestWorkflow(t, api, sessions)

	if err := syncer.Load(context.Background(), true); err != nil {
		t.Fatalf("load: %v", err)
	}

	_, err := wf.CreateOrder(context.Background(), "123 Mapo-gu")
	wantCode(t, err, pkgerrors.CodeStateConflict)
	if placed {
		t.Fatal("order must not be placed before everyone paid")
	}

	allPaid = true
	if err := syncer.Load(context.Background(), false); err != nil {
		t.Fatalf("reload: %v", err)
	}
	resp, err := wf.CreateOrder(context.Background(), "123 Mapo-gu")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if resp.OrderID != "order-1" || resp.DeliveryAddress != "123 Mapo-gu" {
		t.Fatalf("unexpected order: %+v", resp)
	}
}
