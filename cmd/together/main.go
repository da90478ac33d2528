package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dutchbamin/together/internal/baemin"
	"github.com/dutchbamin/together/internal/localstore"
	"github.com/dutchbamin/together/internal/room"
	"github.com/dutchbamin/together/internal/session"
	"github.com/dutchbamin/together/internal/stores"
	"github.com/dutchbamin/together/pkg/config"
	"github.com/dutchbamin/together/pkg/logger"
)

const usage = `usage: together <command> [args]

  signup        -email -password -nickname -phone -address
  login         -email -password
  logout
  whoami
  stores        [-category C] [-sort S]
  menus         <store-id>
  favorite      <store-id> [store-name]
  recent
  open-room     <store-id>
  room          <room-id> <watch|join|leave|delete|status|add|remove|method|request-payment|pay|order> [args]
`

type app struct {
	cfg      *config.Config
	logg     *logger.Logger
	client   *baemin.Client
	sessions *session.Store
	stores   *stores.Service
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "together"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Debug(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "together",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	local, err := localstore.Open(ctx, cfg.LocalStore, logg)
	if err != nil {
		logg.Error(ctx, "failed to open local store", err)
		os.Exit(1)
	}
	defer local.Close()

	sessions, err := session.NewStore(local, logg)
	if err != nil {
		logg.Error(ctx, "failed to build session store", err)
		os.Exit(1)
	}
	if _, err := sessions.Restore(ctx); err != nil {
		logg.Warn(ctx, "could not restore saved session")
	}

	client, err := baemin.NewClient(cfg.Upstream, sessions, logg)
	if err != nil {
		logg.Error(ctx, "failed to build api client", err)
		os.Exit(1)
	}

	storeSvc, err := stores.NewService(stores.ServiceParams{
		API:       client,
		Favorites: stores.NewFavoriteRepo(local.DB()),
		Recents:   stores.NewRecentRoomRepo(local.DB()),
		Sessions:  sessions,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to build store service", err)
		os.Exit(1)
	}

	a := &app{cfg: cfg, logg: logg, client: client, sessions: sessions, stores: storeSvc}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "signup":
		return a.signup(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.sessions.Clear(ctx)
	case "whoami":
		return a.whoami()
	case "stores":
		return a.listStores(ctx, args)
	case "menus":
		return a.menus(ctx, args)
	case "favorite":
		return a.favorite(ctx, args)
	case "recent":
		return a.recent(ctx)
	case "open-room":
		return a.openRoom(ctx, args)
	case "room":
		return a.room(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	nickname := fs.String("nickname", "", "display name")
	phone := fs.String("phone", "", "phone number")
	address := fs.String("address", "", "road address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := a.client.Signup(ctx, baemin.SignupRequest{
		Email:       *email,
		Password:    *password,
		Nickname:    *nickname,
		PhoneNumber: *phone,
		RoadAddress: *address,
	})
	if err != nil {
		return err
	}
	fmt.Printf("signed up as %s (%s)\n", resp.Nickname, resp.Email)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := a.client.Login(ctx, baemin.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}

	if err := a.sessions.Save(ctx, session.Session{
		AccessToken: resp.AccessToken,
		UserID:      resp.UserID,
		Email:       resp.Email,
		Nickname:    resp.Nickname,
	}); err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", resp.Nickname)
	return nil
}

func (a *app) whoami() error {
	sess := a.sessions.Current()
	if !sess.Authenticated() {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("%s <%s>\n", sess.Nickname, sess.Email)
	return nil
}

func (a *app) listStores(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stores", flag.ExitOnError)
	category := fs.String("category", "", "store category filter")
	sortBy := fs.String("sort", "", "sort order")
	if err := fs.Parse(args); err != nil {
		return err
	}

	listed, err := a.stores.List(ctx, baemin.StoreQuery{Category: *category, SortBy: *sortBy})
	if err != nil {
		return err
	}
	for _, s := range listed {
		mark := " "
		if s.Favorite {
			mark = "*"
		}
		fmt.Printf("%s %-12s %-24s %.1f (%d) min %d won\n",
			mark, s.StoreID, s.StoreName, s.Rating, s.ReviewCount, s.MinimumOrderAmount)
	}
	return nil
}

func (a *app) menus(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("menus: store id required")
	}
	menus, err := a.stores.Menus(ctx, args[0])
	if err != nil {
		return err
	}
	for _, m := range menus {
		fmt.Printf("%-12s %-24s %d won\n", m.MenuID, m.MenuName, m.Price)
	}
	return nil
}

func (a *app) favorite(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("favorite: store id required")
	}
	name := ""
	if len(args) > 1 {
		name = args[1]
	}
	on, err := a.stores.ToggleFavorite(ctx, args[0], name)
	if err != nil {
		return err
	}
	if on {
		fmt.Println("favorited")
	} else {
		fmt.Println("unfavorited")
	}
	return nil
}

func (a *app) recent(ctx context.Context) error {
	entries, err := a.stores.RecentRooms(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%-12s %-24s %s\n", e.RoomID, e.StoreName, e.VisitedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) openRoom(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("open-room: store id required")
	}
	detail, err := a.stores.Detail(ctx, args[0])
	if err != nil {
		return err
	}
	resp, err := a.stores.OpenRoom(ctx, detail)
	if err != nil {
		return err
	}
	fmt.Printf("room %s opened for %s\n", resp.RoomID, resp.StoreName)
	return nil
}

func (a *app) room(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("room: room id and action required")
	}
	roomID, action, rest := args[0], args[1], args[2:]

	syncer, err := room.NewSyncer(a.client, a.sessions, roomID, a.logg, nil)
	if err != nil {
		return err
	}
	wf, err := room.NewWorkflow(a.client, syncer, a.sessions, a.logg)
	if err != nil {
		return err
	}

	if err := syncer.Load(ctx, true); err != nil {
		return err
	}
	if err := a.stores.RememberRoom(ctx, roomID, syncer.Snapshot().Room.StoreName); err != nil {
		a.logg.Warn(ctx, "recent room not recorded")
	}

	switch action {
	case "watch":
		return a.watch(ctx, syncer, wf)
	case "status":
		printSnapshot(wf, syncer.Snapshot())
		return nil
	case "join":
		return wf.Join(ctx)
	case "leave":
		return wf.Leave(ctx)
	case "delete":
		return wf.Delete(ctx)
	case "add":
		if len(rest) < 2 {
			return fmt.Errorf("room add: menu id and quantity required")
		}
		qty, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("room add: bad quantity %q", rest[1])
		}
		menus, err := a.stores.Menus(ctx, syncer.Snapshot().Room.StoreID)
		if err != nil {
			return err
		}
		for _, m := range menus {
			if m.MenuID == rest[0] {
				return wf.AddMenu(ctx, m, qty, nil)
			}
		}
		return fmt.Errorf("room add: menu %q not found", rest[0])
	case "remove":
		if len(rest) < 1 {
			return fmt.Errorf("room remove: cart item id required")
		}
		return wf.DeleteCartItem(ctx, rest[0])
	case "method":
		if len(rest) < 1 {
			return fmt.Errorf("room method: MENU_BASED or EQUAL_SPLIT required")
		}
		return wf.SelectSettlementMethod(ctx, baemin.SettlementMethod(rest[0]))
	case "request-payment":
		return wf.RequestPayment(ctx)
	case "pay":
		if len(rest) < 2 {
			return fmt.Errorf("room pay: method and amount required")
		}
		amount, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("room pay: bad amount %q", rest[1])
		}
		resp, err := wf.CompletePayment(ctx, baemin.PaymentMethod(rest[0]), amount)
		if err != nil {
			return err
		}
		fmt.Printf("paid, %d/%d participants done\n", resp.PaidCount, resp.TotalParticipants)
		return nil
	case "order":
		if len(rest) < 1 {
			return fmt.Errorf("room order: delivery address required")
		}
		resp, err := wf.CreateOrder(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Printf("order %s placed (%s)\n", resp.OrderID, resp.Status)
		return nil
	default:
		return fmt.Errorf("unknown room action %q", action)
	}
}

func (a *app) watch(ctx context.Context, syncer *room.Syncer, wf *room.Workflow) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller, err := room.NewPoller(syncer, a.cfg.Poll.Interval, nil, a.logg)
	if err != nil {
		return err
	}

	printSnapshot(wf, syncer.Snapshot())
	poller.Run(ctx)
	return nil
}

func printSnapshot(wf *room.Workflow, snap room.Snapshot) {
	if snap.Room == nil {
		fmt.Println("no room data")
		return
	}
	fmt.Printf("room %s at %s, %d participants, phase %s\n",
		snap.Room.RoomID, snap.Room.StoreName, len(snap.Room.Participants), wf.Phase())
	if snap.Cart != nil {
		for _, item := range snap.Cart.Items {
			fmt.Printf("  %s x%d %d won (%s)\n", item.MenuName, item.Quantity, item.TotalPrice, item.Nickname)
		}
		fmt.Printf("  total %d + delivery %d = %d won\n",
			snap.Cart.TotalAmount, snap.Cart.DeliveryFee, snap.Cart.FinalAmount)
	}
	if snap.Payment != nil {
		fmt.Printf("  payments %d/%d done\n", snap.Payment.PaidCount, snap.Payment.TotalParticipants)
	}
}
