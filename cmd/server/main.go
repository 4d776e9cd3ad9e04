package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/reserve-my-spot/internal/booking"
	"github.com/iliyamo/reserve-my-spot/internal/config" // Internal config loader
	"github.com/iliyamo/reserve-my-spot/internal/database"
	"github.com/iliyamo/reserve-my-spot/internal/handler"
	"github.com/iliyamo/reserve-my-spot/internal/job"
	"github.com/iliyamo/reserve-my-spot/internal/notify"
	"github.com/iliyamo/reserve-my-spot/internal/queue"
	"github.com/iliyamo/reserve-my-spot/internal/repository"
	"github.com/iliyamo/reserve-my-spot/internal/router" // Internal router setup
	"github.com/iliyamo/reserve-my-spot/internal/seed"
	"github.com/iliyamo/reserve-my-spot/internal/service"
)

// bookingStore is what the ledger and the operator views need from the
// booking table.
type bookingStore interface {
	booking.BookingStore
	handler.BookingQueries
}

type stores struct {
	db       *sql.DB // nil for the memory driver
	orgs     handler.OrganizationStore
	slots    handler.SlotStore
	bookings bookingStore
}

// openStores selects the persistence backend named by STORE_DRIVER.
func openStores(ctx context.Context, cfg config.Config) stores {
	if cfg.StoreDriver == config.DriverMemory {
		log.Printf("store: using in-memory store; data is lost on restart")
		m := repository.NewMemoryStore()
		return stores{orgs: m, slots: m, bookings: m}
	}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("store: migrate: %v", err)
	}
	return stores{
		db:       db,
		orgs:     repository.NewOrganizationRepo(db),
		slots:    repository.NewSlotRepo(db),
		bookings: repository.NewBookingRepo(db),
	}
}

func main() {
	cfg := config.Load() // Load environment config
	bcfg := config.LoadBookingConfig()
	ncfg := config.LoadNotifyConfig()
	ccfg := config.LoadCacheConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := openStores(ctx, cfg)
	if st.db != nil {
		defer st.db.Close()
	}

	if cfg.SeedFile != "" {
		cat, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		target := struct {
			handler.OrganizationStore
			handler.SlotStore
		}{st.orgs, st.slots}
		if _, err := seed.Apply(ctx, target, cat, cfg.BcryptCost); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	var events booking.EventSink
	if cfg.AMQPURL != "" {
		events = service.NewPublisher(cfg.AMQPURL, bcfg.Location)
	} else {
		log.Printf("rabbitmq: RABBITMQ_URL not set; booking events are disabled")
	}

	inv := booking.NewInventory(st.slots)
	ledger := booking.NewLedger(booking.LedgerConfig{
		Store:        st.bookings,
		Catalog:      st.slots,
		Inventory:    inv,
		Codes:        booking.NewCodeIssuer(bcfg.CodeAttempts),
		Events:       events,
		GraceWindow:  bcfg.GraceWindow,
		PlatePattern: bcfg.PlatePattern,
	})
	restored, err := ledger.Restore(ctx)
	if err != nil {
		log.Fatalf("booking: restore: %v", err)
	}
	log.Printf("booking: restored %d active bookings", restored)

	if cfg.AMQPURL != "" {
		go queue.StartBookingConsumer(ctx, cfg.AMQPURL, &queue.Handler{
			LogDir:   ncfg.BookingLogDir,
			Notifier: notify.New(ncfg),
		})
	}

	sched, err := job.StartSweeper(bcfg.SweepSpec, ledger)
	if err != nil {
		log.Fatalf("sweep: invalid BOOKING_SWEEP_SPEC %q: %v", bcfg.SweepSpec, err)
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("http: %s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))

	clock := booking.RealClock{}
	router.RegisterRoutes(e, router.Deps{ // Register application routes
		Cfg:     cfg,
		Cache:   ccfg,
		Redis:   rdb,
		Health:  &handler.HealthHandler{DB: dbPinger(st.db)},
		Public:  &handler.PublicHandler{Slots: st.slots, Inventory: inv, Clock: clock, Loc: bcfg.Location},
		Booking: &handler.BookingHandler{Ledger: ledger, Verifier: ledger.Verifier(), Loc: bcfg.Location},
		Auth:    handler.NewAuthHandler(cfg, st.orgs),
		Org: &handler.OrgHandler{
			Orgs:      st.orgs,
			Slots:     st.slots,
			Bookings:  st.bookings,
			Ledger:    ledger,
			Inventory: inv,
			Clock:     clock,
			Loc:       bcfg.Location,
		},
		Admin: &handler.AdminHandler{Orgs: st.orgs, Bookings: st.bookings, Loc: bcfg.Location},
	})

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	<-sched.Stop().Done()
}

// dbPinger avoids handing a typed nil *sql.DB to the health handler.
func dbPinger(db *sql.DB) handler.Pinger {
	if db == nil {
		return nil
	}
	return db
}
