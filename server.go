package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caintamart/admin"
	"caintamart/auth"
	"caintamart/chat"
	"caintamart/commerce"
	"caintamart/config"
	"caintamart/db"
	"caintamart/docstore"
	"caintamart/filemgr"
	"caintamart/globals"
	"caintamart/hub"
	"caintamart/idempotency"
	"caintamart/mailer"
	"caintamart/mq"
	"caintamart/profile"
	"caintamart/ratelim"
	"caintamart/rdx"
	"caintamart/receipt"
	"caintamart/routes"
	"caintamart/settings"
	"caintamart/state"

	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s in %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

func serve(cfg config.Config) error {
	globals.SetJWTSecret(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer disconnect(client)

	rc, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return err
	}
	defer rc.Close()
	cache := rdx.NewCache(rc, "caintamart")

	store := docstore.NewMongo(database, mq.NewFeed(rc))
	if err := store.EnsureIndexes(ctx, db.ListCollections...); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	if err := store.EnsureTTL(ctx, "idempotency", "expiresAt"); err != nil {
		return err
	}

	app := state.New(cfg.DefaultDeliveryFee)
	fees := settings.New(store, cache, app, cfg.DefaultDeliveryFee)
	shop := commerce.NewService(store, app, fees)
	detachSweeper := shop.AttachSweeper(app)
	defer detachSweeper()

	chats := chat.NewSynchronizer(store, cfg.AutoResponseDelay)
	defer chats.Close()

	h := hub.NewHub()
	go h.Run()
	detachSurfaces := chat.NewSurfaces(h).Attach(app)
	defer detachSurfaces()

	syncer := state.NewSync(store, app)
	syncer.AddSource("chats", chats.Source(app))
	syncer.AddSource("settings", fees.Source())
	if err := syncer.Start(ctx); err != nil {
		return err
	}
	defer syncer.Stop()

	mail := mailer.New(cfg.EmailEndpoint, cfg.EmailPublicKey)
	accounts := auth.New(store, cache, mail, auth.Options{
		AdminEmails:    cfg.AdminEmails,
		ServiceID:      cfg.EmailServiceID,
		VerifyTemplate: cfg.EmailTemplateVerify,
		ResetTemplate:  cfg.EmailTemplateReset,
	})
	profiles := profile.New(store)
	host := filemgr.NewLocalHost(cfg.UploadDir, cfg.PublicBaseURL)

	router := routes.RoutesWrapper(routes.Handlers{
		Auth:        accounts,
		Chat:        chat.NewHandler(chats, app, h),
		Commerce:    commerce.NewHandler(shop, app, receipt.NewRenderer(globals.JwtSecret)),
		Profile:     profile.NewHandler(profiles, host),
		Settings:    fees,
		Admin:       admin.NewHandler(store, app, profiles),
		Idempotency: idempotency.New(store),
		Uploader:    host,
		UploadDir:   cfg.UploadDir,
	}, routes.Limiters{
		Auth: ratelim.PerMinute(10),
		Chat: ratelim.PerMinute(30),
	})

	// CORS, then security headers, then logging.
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           loggingMiddleware(securityHeaders(corsHandler)),
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}
	server.RegisterOnShutdown(func() {
		log.Println("Shutting down chat hub...")
		h.Stop()
	})

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Println("Server stopped cleanly")
	return nil
}
