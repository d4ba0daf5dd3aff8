package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lingoboard.org/internal/auth"
	"lingoboard.org/internal/feedback"
	"lingoboard.org/internal/httpapi"
	"lingoboard.org/internal/notify"
	"lingoboard.org/internal/obs"
	"lingoboard.org/internal/perm"
	"lingoboard.org/internal/store/pg"
	"lingoboard.org/internal/translate"
)

var version = "0.3.0"

func main() {
	obs.Init()

	dsn := os.Getenv("LINGOBOARD_PG_DSN")
	if dsn == "" {
		log.Fatal("missing LINGOBOARD_PG_DSN")
	}
	secret := os.Getenv("LINGOBOARD_TOKEN_SECRET")
	if secret == "" {
		log.Fatal("missing LINGOBOARD_TOKEN_SECRET")
	}

	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	authSvc, err := auth.NewService(store.Users(), secret)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	resolver, err := perm.NewResolver(store.Memberships())
	if err != nil {
		log.Fatalf("permission resolver: %v", err)
	}

	stream := notify.New()

	feedbackSvc, err := feedback.NewService(feedback.Config{
		Organizations: store.Organizations(),
		Projects:      store.Projects(),
		Threads:       store.Threads(),
		Comments:      store.Comments(),
		Invitations:   store.Invitations(),
		Memberships:   store.Memberships(),
		Permissions:   resolver,
		Events:        stream,
	})
	if err != nil {
		log.Fatalf("feedback service: %v", err)
	}

	// Translation is optional: without a provider URL the endpoints answer 503
	// and everything else keeps working.
	var sessions *translate.Registry
	if baseURL := os.Getenv("LINGOBOARD_TRANSLATE_URL"); baseURL != "" {
		client, err := translate.NewClient(baseURL, os.Getenv("LINGOBOARD_TRANSLATE_KEY"))
		if err != nil {
			log.Fatalf("translation client: %v", err)
		}
		sessions, err = translate.NewRegistry(client)
		if err != nil {
			log.Fatalf("translation registry: %v", err)
		}
	}

	api := httpapi.New(httpapi.Config{
		Auth:       authSvc,
		Feedback:   feedbackSvc,
		Sessions:   sessions,
		Stream:     stream,
		ReadyProbe: httpapi.ReadyProbe{DB: store.DB()},
		Version:    version,
	})

	handler := httpapi.RequestID(
		httpapi.SecurityHeaders(
			httpapi.CORS(
				httpapi.RateLimit(
					httpapi.MaxBodyBytes(
						httpapi.Logging(api.Handler()),
						1<<20),
					50, 25))))

	addr := os.Getenv("LINGOBOARD_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// Long timeout so SSE subscribers are not cut off.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting lingoboard-api %s on %s", version, srv.Addr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
