package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/harshvardhansingh3000/flower-inventory/internal/auth"
	"github.com/harshvardhansingh3000/flower-inventory/internal/config"
	"github.com/harshvardhansingh3000/flower-inventory/internal/flowers"
	"github.com/harshvardhansingh3000/flower-inventory/internal/httpx"
	kafkax "github.com/harshvardhansingh3000/flower-inventory/internal/kafka"
	"github.com/harshvardhansingh3000/flower-inventory/internal/notifier"
	"github.com/harshvardhansingh3000/flower-inventory/internal/postgres"
	"github.com/harshvardhansingh3000/flower-inventory/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := postgres.EnsureAdmin(ctx, db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for low-stock alerts
	prod := kafkax.NewProducer(cfg.KafkaBrokers, flowers.TopicStockLow, 1024)
	prod.Start(ctx)

	// Core wiring
	manager := &flowers.Manager{
		Inventory:       &flowers.InventoryRepo{DB: db},
		Reservations:    &flowers.ReservationRepo{DB: db},
		Audit:           &flowers.AuditRepo{DB: db},
		Notifier:        &notifier.Publisher{Producer: prod, ServiceName: cfg.ServiceName},
		RetainProcessed: cfg.RetainProcessed(),
	}
	authSvc := auth.NewService(db, cfg.JWTSecret)

	// HTTP
	router := httpx.NewRouter()
	uh := &httpx.UsersHandler{Auth: authSvc}
	fh := &httpx.FlowersHandler{Manager: manager, Redis: rdb}
	rh := &httpx.ReservationsHandler{Manager: manager}
	ah := &httpx.AuditHandler{Manager: manager}
	router.Route("/api", func(r chi.Router) {
		uh.RegisterPublic(r)
		fh.RegisterPublic(r)
		r.Group(func(r chi.Router) {
			r.Use(httpx.Authenticated(authSvc.VerifyToken))
			uh.Register(r)
			fh.Register(r)
			rh.Register(r)
			ah.Register(r)
		})
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
