package stores

import (
	"context"
	"time"

	"github.com/dutchbamin/together/internal/baemin"
	"github.com/dutchbamin/together/internal/session"
	pkgerrors "github.com/dutchbamin/together/pkg/errors"
	"github.com/dutchbamin/together/pkg/logger"
)

// BrowseAPI is the store catalog surface of the backend client.
type BrowseAPI interface {
	ListStores(ctx context.Context, q baemin.StoreQuery) (*baemin.StoreListResponse, error)
	GetStore(ctx context.Context, storeID string) (*baemin.StoreDetail, error)
	GetMenus(ctx context.Context, storeID string) (*baemin.MenuListResponse, error)
	CreateRoom(ctx context.Context, req baemin.CreateRoomRequest) (*baemin.CreateRoomResponse, error)
}

// SessionSource exposes the current viewer.
type SessionSource interface {
	Current() *session.Session
}

// ListedStore is one catalog entry decorated with the local favorite
// flag.
type ListedStore struct {
	baemin.Store
	Favorite bool
}

// RecentRoomEntry is one row of the recent-rooms list.
type RecentRoomEntry struct {
	RoomID    string
	StoreName string
	VisitedAt time.Time
}

// ServiceParams groups dependencies for the store browsing service.
type ServiceParams struct {
	API       BrowseAPI
	Favorites *FavoriteRepo
	Recents   *RecentRoomRepo
	Sessions  SessionSource
	Logger    *logger.Logger
}

// Service exposes store browsing and the room-opening flow that starts
// from a store page.
type Service struct {
	api       BrowseAPI
	favorites *FavoriteRepo
	recents   *RecentRoomRepo
	sessions  SessionSource
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "browse api is required")
	}
	if params.Favorites == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorite repo is required")
	}
	if params.Recents == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recent room repo is required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session source is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Service{
		api:       params.API,
		favorites: params.Favorites,
		recents:   params.Recents,
		sessions:  params.Sessions,
		logg:      params.Logger,
	}, nil
}

// List fetches the store catalog and marks locally favorited stores. A
// favorite lookup failure degrades to unmarked results rather than
// failing the listing.
func (s *Service) List(ctx context.Context, q baemin.StoreQuery) ([]ListedStore, error) {
	resp, err := s.api.ListStores(ctx, q)
	if err != nil {
		return nil, err
	}

	favs, err := s.favorites.IDs(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "favorite lookup failed")
		favs = nil
	}

	listed := make([]ListedStore, 0, len(resp.Stores))
	for _, store := range resp.Stores {
		listed = append(listed, ListedStore{Store: store, Favorite: favs[store.StoreID]})
	}
	return listed, nil
}

// Detail fetches one store's full page.
func (s *Service) Detail(ctx context.Context, storeID string) (*baemin.StoreDetail, error) {
	if storeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	return s.api.GetStore(ctx, storeID)
}

// Menus fetches a store's menu board.
func (s *Service) Menus(ctx context.Context, storeID string) ([]baemin.Menu, error) {
	if storeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	resp, err := s.api.GetMenus(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return resp.Menus, nil
}

// ToggleFavorite flips the local favorite flag for a store and returns
// the new state.
func (s *Service) ToggleFavorite(ctx context.Context, storeID, storeName string) (bool, error) {
	if storeID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	has, err := s.favorites.Contains(ctx, storeID)
	if err != nil {
		return false, err
	}
	if has {
		return false, s.favorites.Remove(ctx, storeID)
	}
	return true, s.favorites.Add(ctx, storeID, storeName)
}

// RecentRooms lists the rooms the viewer recently visited, newest first.
func (s *Service) RecentRooms(ctx context.Context) ([]RecentRoomEntry, error) {
	rows, err := s.recents.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]RecentRoomEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, RecentRoomEntry{
			RoomID:    row.RoomID,
			StoreName: row.StoreName,
			VisitedAt: row.VisitedAt,
		})
	}
	return entries, nil
}

// RememberRoom records a room visit for the recent list.
func (s *Service) RememberRoom(ctx context.Context, roomID, storeName string) error {
	return s.recents.RecordVisit(ctx, roomID, storeName)
}

// OpenRoom starts a group-order room for a store with the viewer as
// host, then remembers it as a recent room. The delivery fee and minimum
// order are copied from the store page so the room carries them verbatim.
func (s *Service) OpenRoom(ctx context.Context, store *baemin.StoreDetail) (*baemin.CreateRoomResponse, error) {
	viewer := s.sessions.Current()
	if !viewer.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to open a room")
	}
	if store == nil || store.StoreID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store is required")
	}

	resp, err := s.api.CreateRoom(ctx, baemin.CreateRoomRequest{
		HostID:             viewer.UserID,
		StoreID:            store.StoreID,
		StoreName:          store.StoreName,
		DeliveryFee:        store.DeliveryFee,
		MinimumOrderAmount: store.MinimumOrderAmount,
	})
	if err != nil {
		return nil, err
	}

	if err := s.recents.RecordVisit(ctx, resp.RoomID, resp.StoreName); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "recent room not recorded")
	}

	lctx := s.logg.WithStoreID(s.logg.WithRoomID(ctx, resp.RoomID), store.StoreID)
	s.logg.Info(lctx, "room opened")
	return resp, nil
}
