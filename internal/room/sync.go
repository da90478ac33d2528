package room

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"

	"github.com/dutchbamin/together/internal/baemin"
	"github.com/dutchbamin/together/internal/session"
	pkgerrors "github.com/dutchbamin/together/pkg/errors"
	"github.com/dutchbamin/together/pkg/logger"
	"github.com/dutchbamin/together/pkg/metrics"
)

// SnapshotAPI is the read surface of the backend client consumed by the
// synchronizer.
type SnapshotAPI interface {
	GetRoom(ctx context.Context, roomID string) (*baemin.RoomDetail, error)
	GetMenus(ctx context.Context, storeID string) (*baemin.MenuListResponse, error)
	GetCart(ctx context.Context, roomID string) (*baemin.Cart, error)
	GetPaymentStatus(ctx context.Context, roomID string) (*baemin.PaymentStatus, error)
}

// SessionSource exposes the current viewer. session.Store implements it.
type SessionSource interface {
	Current() *session.Session
}

// Snapshot is the reconciled local view of one room. Every field is a
// value copy replaced wholesale by a refresh; consumers never mutate it.
// Payment is nil until the payment phase has begun: an empty payment
// list and a failed status fetch are both normalized to nil, and that
// nil-ness is the only phase signal the workflow trusts.
type Snapshot struct {
	Room    *baemin.RoomDetail
	Menus   []baemin.Menu
	Cart    *baemin.Cart
	Payment *baemin.PaymentStatus
}

// Syncer keeps the local snapshot of one room consistent with the remote
// backend. Loads are sequence-tagged: a result older than the newest
// requested load is discarded, so overlapping refreshes can never roll
// the snapshot backwards.
type Syncer struct {
	api      SnapshotAPI
	sessions SessionSource
	roomID   string
	logg     *logger.Logger
	metrics  *metrics.RefreshMetrics

	mu         sync.Mutex
	snap       Snapshot
	appliedSeq uint64

	nextSeq  atomic.Uint64
	inFlight atomic.Bool
}

// NewSyncer builds a synchronizer for one room. metrics may be nil.
func NewSyncer(api SnapshotAPI, sessions SessionSource, roomID string, logg *logger.Logger, m *metrics.RefreshMetrics) (*Syncer, error) {
	if api == nil {
		return nil, fmt.Errorf("snapshot api is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session source is required")
	}
	if roomID == "" {
		return nil, fmt.Errorf("room id is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Syncer{
		api:      api,
		sessions: sessions,
		roomID:   roomID,
		logg:     logg,
		metrics:  m,
	}, nil
}

// RoomID returns the room this synchronizer tracks.
func (s *Syncer) RoomID() string {
	return s.roomID
}

// Snapshot returns the last applied snapshot.
func (s *Syncer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Load refreshes the snapshot from the backend. On the initial load a
// room fetch failure is returned so the caller can surface it; on a
// background refresh the same failure is logged and swallowed, leaving
// the last-known-good snapshot authoritative. Menu, cart, and payment
// fetches are always best-effort.
func (s *Syncer) Load(ctx context.Context, initial bool) error {
	kind := "background"
	if initial {
		kind = "initial"
	}

	start := time.Now()
	err := s.refresh(ctx, s.nextSeq.Add(1))
	s.metrics.ObserveDuration(kind, time.Since(start))

	if err != nil {
		s.metrics.IncFailure(kind)
		if initial {
			return err
		}
		ctx = s.logg.WithRoomID(ctx, s.roomID)
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "background refresh failed")
		return nil
	}

	s.metrics.IncSuccess(kind)
	return nil
}

// TryBackgroundLoad is the poll-tick entry point. It skips the tick when
// a previous load is still unresolved, so slow responses never pile up.
func (s *Syncer) TryBackgroundLoad(ctx context.Context) bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.IncSkipped("background")
		s.logg.Debug(ctx, "refresh still in flight, skipping tick")
		return false
	}
	defer s.inFlight.Store(false)

	_ = s.Load(ctx, false)
	return true
}

func (s *Syncer) refresh(ctx context.Context, seq uint64) error {
	// Room first: cart and payment endpoints need the room's store and
	// participant context, and the viewer check below reads the fresh
	// participant list.
	roomData, err := s.api.GetRoom(ctx, s.roomID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.As(err).Code(), err, "fetch room")
	}

	var softErrs error

	menus, err := s.api.GetMenus(ctx, roomData.StoreID)
	if err != nil {
		softErrs = multierr.Append(softErrs, fmt.Errorf("menus: %w", err))
		menus = nil
	}

	var (
		cart        *baemin.Cart
		cartFetched bool
		payment     *baemin.PaymentStatus
	)

	viewer := s.sessions.Current()
	isParticipant := viewer.Authenticated() && roomData.HasParticipant(viewer.UserID)
	if isParticipant {
		fetched, err := s.api.GetCart(ctx, s.roomID)
		if err != nil {
			softErrs = multierr.Append(softErrs, fmt.Errorf("cart: %w", err))
		} else {
			cart = fetched
			cartFetched = true
		}

		status, err := s.api.GetPaymentStatus(ctx, s.roomID)
		if err != nil {
			// Payment may simply not have started yet; treated the same
			// as an empty payment list.
			softErrs = multierr.Append(softErrs, fmt.Errorf("payment status: %w", err))
			status = nil
		}
		payment = normalizePaymentStatus(status)
	}

	if softErrs != nil {
		ctx := s.logg.WithRoomID(ctx, s.roomID)
		s.logg.Debug(s.logg.WithField(ctx, "errors", softErrs.Error()), "partial refresh")
	}

	s.apply(seq, roomData, menus, cart, cartFetched, payment, isParticipant)
	return nil
}

// apply installs a fetched snapshot unless a newer load was requested in
// the meantime. Cart keeps its last-known-good value when the fetch
// failed; payment is replaced unconditionally for participants because
// nil already encodes "phase not started".
func (s *Syncer) apply(seq uint64, roomData *baemin.RoomDetail, menuList *baemin.MenuListResponse, cart *baemin.Cart, cartFetched bool, payment *baemin.PaymentStatus, isParticipant bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.appliedSeq {
		s.metrics.IncStale("background")
		return
	}
	s.appliedSeq = seq

	s.snap.Room = roomData
	if menuList != nil {
		s.snap.Menus = menuList.Menus
	} else {
		s.snap.Menus = nil
	}
	if isParticipant {
		if cartFetched {
			s.snap.Cart = cart
		}
		s.snap.Payment = payment
	}
}

// normalizePaymentStatus collapses "no status", "empty payment list", and
// "fetch failed" into nil. The presence of at least one payment record is
// the sole signal that the payment phase has begun.
func normalizePaymentStatus(status *baemin.PaymentStatus) *baemin.PaymentStatus {
	if status == nil || len(status.Payments) == 0 {
		return nil
	}
	return status
}
