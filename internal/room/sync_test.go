package room

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/dutchbamin/together/internal/baemin"
	"github.com/dutchbamin/together/internal/session"
	pkgerrors "github.com/dutchbamin/together/pkg/errors"
	"github.com/dutchbamin/together/pkg/logger"
)

type stubAPI struct {
	getRoom          func(ctx context.Context, roomID string) (*baemin.RoomDetail, error)
	getMenus         func(ctx context.Context, storeID string) (*baemin.MenuListResponse, error)
	getCart          func(ctx context.Context, roomID string) (*baemin.Cart, error)
	getPaymentStatus func(ctx context.Context, roomID string) (*baemin.PaymentStatus, error)

	joinRoom               func(ctx context.Context, roomID string, req baemin.JoinRoomRequest) (*baemin.JoinRoomResponse, error)
	addMenu                func(ctx context.Context, roomID string, req baemin.AddMenuRequest) (*baemin.AddMenuResponse, error)
	deleteCartItem         func(ctx context.Context, roomID, cartItemID string) error
	selectSettlementMethod func(ctx context.Context, roomID string, req baemin.SelectSettlementMethodRequest) (*baemin.SelectSettlementMethodResponse, error)
	requestPayment         func(ctx context.Context, roomID string, req baemin.PaymentRequestRequest) (*baemin.PaymentRequestResponse, error)
	completePayment        func(ctx context.Context, roomID, userID string, req baemin.CompletePaymentRequest) (*baemin.CompletePaymentResponse, error)
	calculateAmount        func(ctx context.Context, roomID, userID string) (*baemin.CalculatedAmount, error)
	leaveRoom              func(ctx context.Context, roomID, userID string) error
	deleteRoom             func(ctx context.Context, roomID string) error
	createOrder            func(ctx context.Context, roomID string, req baemin.CreateOrderRequest) (*baemin.CreateOrderResponse, error)
}

func (s *stubAPI) GetRoom(ctx context.Context, roomID string) (*baemin.RoomDetail, error) {
	return s.getRoom(ctx, roomID)
}

func (s *stubAPI) GetMenus(ctx context.Context, storeID string) (*baemin.MenuListResponse, error) {
	if s.getMenus == nil {
		return &baemin.MenuListResponse{}, nil
	}
	return s.getMenus(ctx, storeID)
}

func (s *stubAPI) GetCart(ctx context.Context, roomID string) (*baemin.Cart, error) {
	if s.getCart == nil {
		return &baemin.Cart{RoomID: roomID}, nil
	}
	return s.getCart(ctx, roomID)
}

func (s *stubAPI) GetPaymentStatus(ctx context.Context, roomID string) (*baemin.PaymentStatus, error) {
	if s.getPaymentStatus == nil {
		return &baemin.PaymentStatus{}, nil
	}
	return s.getPaymentStatus(ctx, roomID)
}

func (s *stubAPI) JoinRoom(ctx context.Context, roomID string, req baemin.JoinRoomRequest) (*baemin.JoinRoomResponse, error) {
	return s.joinRoom(ctx, roomID, req)
}

func (s *stubAPI) AddMenu(ctx context.Context, roomID string, req baemin.AddMenuRequest) (*baemin.AddMenuResponse, error) {
	return s.addMenu(ctx, roomID, req)
}

func (s *stubAPI) DeleteCartItem(ctx context.Context, roomID, cartItemID string) error {
	return s.deleteCartItem(ctx, roomID, cartItemID)
}

func (s *stubAPI) SelectSettlementMethod(ctx context.Context, roomID string, req baemin.SelectSettlementMethodRequest) (*baemin.SelectSettlementMethodResponse, error) {
	return s.selectSettlementMethod(ctx, roomID, req)
}

func (s *stubAPI) RequestPayment(ctx context.Context, roomID string, req baemin.PaymentRequestRequest) (*baemin.PaymentRequestResponse, error) {
	return s.requestPayment(ctx, roomID, req)
}

func (s *stubAPI) CompletePayment(ctx context.Context, roomID, userID string, req baemin.CompletePaymentRequest) (*baemin.CompletePaymentResponse, error) {
	return s.completePayment(ctx, roomID, userID, req)
}

func (s *stubAPI) CalculateAmount(ctx context.Context, roomID, userID string) (*baemin.CalculatedAmount, error) {
	return s.calculateAmount(ctx, roomID, userID)
}

func (s *stubAPI) LeaveRoom(ctx context.Context, roomID, userID string) error {
	return s.leaveRoom(ctx, roomID, userID)
}

func (s *stubAPI) DeleteRoom(ctx context.Context, roomID string) error {
	return s.deleteRoom(ctx, roomID)
}

func (s *stubAPI) CreateOrder(ctx context.Context, roomID string, req baemin.CreateOrderRequest) (*baemin.CreateOrderResponse, error) {
	return s.createOrder(ctx, roomID, req)
}

type stubSessions struct {
	current *session.Session
}

func (s *stubSessions) Current() *session.Session {
	return s.current
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testRoom(participants ...string) *baemin.RoomDetail {
	room := &baemin.RoomDetail{
		RoomID:             "room-1",
		HostID:             "host-1",
		StoreID:            "store-1",
		StoreName:          "Chicken Alley",
		DeliveryFee:        3000,
		MinimumOrderAmount: 15000,
	}
	for _, id := range participants {
		room.Participants = append(room.Participants, baemin.Participant{
			UserID: id,
			IsHost: id == room.HostID,
		})
	}
	return room
}

func participantSession(userID string) *session.Session {
	return &session.Session{
		AccessToken: "token-" + userID,
		UserID:      userID,
		Nickname:    "nick-" + userID,
	}
}

func newTestSyncer(t *testing.T, api *stubAPI, sessions SessionSource) *Syncer {
	t.Helper()
	syncer, err := NewSyncer(api, sessions, "room-1", testLogger(), nil)
	if err != nil {
		t.Fatalf("NewSyncer: %v", err)
	}
	return syncer
}

func TestLoadInitialRoomFailure(t *testing.T) {
	api := &stubAPI{
		getRoom: func(context.Context, string) (*baemin.RoomDetail, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "room not found")
		},
	}
	syncer := newTestSyncer(t, api, &stubSessions{})

	if err := syncer.Load(context.Background(), true); err == nil {
		t.Fatal("expected initial load to surface the room failure")
	}
	if snap := syncer.Snapshot(); snap.Room != nil {
		t.Fatalf("snapshot should stay empty after a failed initial load, got %+v", snap.Room)
	}
}

func TestLoadBackgroundRoomFailureKeepsSnapshot(t *testing.T) {
	var fail bool
	api := &stubAPI{
		getRoom: func(context.Context, string) (*baemin.RoomDetail, error) {
			if fail {
				return nil, errors.New("upstream down")
			}
			return testRoom("host-1"), nil
		},
	}
	syncer := newTestSyncer(t, api, &stubSessions{})

	if err := syncer.Load(context.Background(), true); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	fail = true
	if err := syncer.Load(context.Background(), false); err != nil {
		t.Fatalf("background failure must be swallowed, got %v", err)
	}
	snap := syncer.Snapshot()
	if snap.Room == nil || snap.Room.RoomID != "room-1" {
		t.Fatalf("last-known-good room lost: %+v", snap.Room)
	}
}

func TestEmptyPaymentsAndStatusErrorBothMeanCollecting(t *testing.T) {
	cases := []struct {
		name   string
		status func(context.Context, string) (*baemin.PaymentStatus, error)
	}{
		{
			name: "empty payment list",
			status: func(context.Context, string) (*baemin.PaymentStatus, error) {
				return &baemin.PaymentStatus{TotalParticipants: 2}, nil
			},
		},
		{
			name: "status fetch error",
			status: func(context.Context, string) (*baemin.PaymentStatus, error) {
				return nil, errors.New("not started")
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &stubAPI{
				getRoom: func(context.Context, string) (*baemin.RoomDetail, error) {
					return testRoom("host-1", "user-1"), nil
				},
				getPaymentStatus: tc.status,
			}
			sessions := &stubSessions{current: participantSession("user-1")}
			syncer := newTestSyncer(t, api, sessions)

			if err := syncer.Load(context.Background(), true); err != nil {
				t.Fatalf("load: %v", err)
			}
			if snap := syncer.Snapshot(); snap.Payment != nil {
				t.Fatalf("payment must normalize to nil, got %+v", snap.Payment)
			}
			if got := PhaseFor(sessions.Current(), syncer.Snapshot()); got != PhaseCollecting {
				t.Fatalf("phase = %s, want %s", got, PhaseCollecting)
			}
		})
	}
}

func TestCartKeepsLastKnownGoodOnFetchError(t *testing.T) {
	var failCart bool
	api := &stubAPI{
		getRoom: func(context.Context, string) (*baemin.RoomDetail, error) {
			return testRoom("host-1", "user-1"), nil
		},
		getCart: func(ctx context.Context, roomID string) (*baemin.Cart, error) {
			if failCart {
				return nil, errors.New("cart unavailable")
			}
			return &baemin.Cart{RoomID: roomID, TotalAmount: 18000, FinalAmount: 21000}, nil
		},
	}
	syncer := newTestSyncer(t, api, &stubSessions{current: participantSession("user-1")})

	if err := syncer.Load(context.Background(), true); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	failCart = true
	if err := syncer.Load(context.Background(), false); err != nil {
		t.Fatalf("background load: %v", err)
	}
	snap := syncer.Snapshot()
	if snap.Cart == nil || snap.Cart.FinalAmount != 21000 {
		t.Fatalf("cart last-known-good lost: %+v", snap.Cart)
	}
}

func TestDoubleLoadIsIdempotent(t *testing.T) {
	api := &stubAPI{
		getRoom: func(context.Context, string) (*baemin.RoomDetail, error) {
			return testRoom("host-1", "user-1"), nil
		},
		getMenus: func(context.Context, string) (*baemin.MenuListResponse, error) {
			return &baemin.MenuListResponse{Menus: []baemin.Menu{{MenuID: "m1", MenuName: "Fried Half", Price: 18000}}}, nil
		},
		getCart: func(ctx context.Context, roomID string) (*baemin.Cart, error) {
			return &baemin.Cart{RoomID: roomID, TotalAmount: 18000}, nil
		},
	}
	syncer := newTestSyncer(t, api, &stubSessions{current: participantSession("user-1")})

	if err := syncer.Load(context.Background(), true); err != nil {
		t.Fatalf("first load: %v", err)
	}
	first := syncer.Snapshot()

	if err := syncer.Load(context.Background(), false); err != nil {
		t.Fatalf("second load: %v", err)
	}
	second := syncer.Snapshot()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("unchanged backend must produce an identical snapshot\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestNonParticipantSkipsCartAndPayment(t *testing.T) {
	var cartCalls, statusCalls int
	api := &stubAPI{
		getRoom: func(context.Context, string) (*baemin.RoomDetail, error) {
			return testRoom("host-1"), nil
		},
		getCart: func(context.Context, string) (*baemin.Cart, error) {
			cartCalls++
			return &baemin.Cart{}, nil
		},
		getPaymentStatus: func(context.Context, string) (*baemin.PaymentStatus, error) {
			statusCalls++
			return &baemin.PaymentStatus{}, nil
		},
	}
	sessions := &stubSessions{current: participantSession("outsider")}
	syncer := newTestSyncer(t, api, sessions)

	if err := syncer.Load(context.Background(), true); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cartCalls != 0 || statusCalls != 0 {
		t.Fatalf("cart/payment must not be fetched for non-participants, calls = %d/%d", cartCalls, statusCalls)
	}
	if got := PhaseFor(sessions.Current(), syncer.Snapshot()); got != PhaseNotParticipant {
		t.Fatalf("phase = %s, want %s", got, PhaseNotParticipant)
	}
}

func TestStaleResultDiscarded(t *testing.T) {
	api := &stubAPI{
		getRoom: func(context.Context, string) (*baemin.RoomDetail, error) {
			return testRoom("host-1"), nil
		},
	}
	syncer := newTestSyncer(t, api, &stubSessions{})

	if err := syncer.Load(context.Background(), true); err != nil {
		t.Fatalf("load: %v", err)
	}

	// A result tagged with an already-applied sequence must not roll the
	// snapshot back.
	stale := testRoom("host-1")
	stale.StoreName = "Stale Store"
	syncer.apply(syncer.appliedSeq, stale, nil, nil, false, nil, false)

	if snap := syncer.Snapshot(); snap.Room.StoreName != "Chicken Alley" {
		t.Fatalf("stale apply overwrote the snapshot: %q", snap.Room.StoreName)
	}
}

func TestTryBackgroundLoadSkipsWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	api := &stubAPI{
		getRoom: func(context.Context, string) (*baemin.RoomDetail, error) {
			close(entered)
			<-release
			return testRoom("host-1"), nil
		},
	}
	syncer := newTestSyncer(t, api, &stubSessions{})

	done := make(chan bool)
	go func() {
		done <- syncer.TryBackgroundLoad(context.Background())
	}()

	<-entered
	if syncer.TryBackgroundLoad(context.Background()) {
		t.Fatal("overlapping tick must be skipped")
	}

	close(release)
	if !<-done {
		t.Fatal("first load should have run")
	}
}
