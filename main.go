package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/yamdb/backend/config"
	"github.com/yamdb/backend/handlers"
	"github.com/yamdb/backend/metrics"
	"github.com/yamdb/backend/middleware"
	"github.com/yamdb/backend/service"
	"github.com/yamdb/backend/store"
)

func main() {
	_ = godotenv.Load()
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("config")
	}

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("mongodb")
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			logrus.WithError(err).Warn("mongodb disconnect")
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		logrus.WithError(err).Fatal("mongodb indexes")
	}

	var mailer handlers.CodeMailer
	if cfg.MailEnabled() {
		mailer = service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
	} else {
		logrus.Warn("SMTP_HOST not set; confirmation codes will only be logged")
	}

	authHandler := &handlers.AuthHandler{
		Store:      db,
		Mailer:     mailer,
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		RotateCode: cfg.RotateConfirmationCode,
	}
	usersHandler := &handlers.UsersHandler{Store: db}
	catalogHandler := &handlers.CatalogHandler{Store: db}
	titlesHandler := &handlers.TitlesHandler{Store: db}
	reviewsHandler := &handlers.ReviewsHandler{Store: db}
	commentsHandler := &handlers.CommentsHandler{Store: db}

	m := metrics.InitMetrics()

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.StripSlashes)
	r.Use(m.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/token", authHandler.Token)

		// User management requires a token even for reads.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret, db))
			r.Get("/users/me", usersHandler.Me)
			r.Patch("/users/me", usersHandler.UpdateMe)
			r.Get("/users", usersHandler.List)
			r.Post("/users", usersHandler.Create)
			r.Get("/users/{username}", usersHandler.Get)
			r.Patch("/users/{username}", usersHandler.Update)
			r.Delete("/users/{username}", usersHandler.Delete)
		})

		// Content endpoints are readable anonymously; writes are gated by
		// the per-resource policies inside the handlers.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWTSecret, db))

			r.Get("/categories", catalogHandler.ListCategories)
			r.Post("/categories", catalogHandler.CreateCategory)
			r.Delete("/categories/{slug}", catalogHandler.DeleteCategory)

			r.Get("/genres", catalogHandler.ListGenres)
			r.Post("/genres", catalogHandler.CreateGenre)
			r.Delete("/genres/{slug}", catalogHandler.DeleteGenre)

			r.Get("/titles", titlesHandler.List)
			r.Post("/titles", titlesHandler.Create)
			r.Get("/titles/{title_id}", titlesHandler.Get)
			r.Patch("/titles/{title_id}", titlesHandler.Update)
			r.Delete("/titles/{title_id}", titlesHandler.Delete)

			r.Route("/titles/{title_id}/reviews", func(r chi.Router) {
				r.Get("/", reviewsHandler.List)
				r.Post("/", reviewsHandler.Create)
				r.Get("/{review_id}", reviewsHandler.Get)
				r.Patch("/{review_id}", reviewsHandler.Update)
				r.Delete("/{review_id}", reviewsHandler.Delete)

				r.Route("/{review_id}/comments", func(r chi.Router) {
					r.Get("/", commentsHandler.List)
					r.Post("/", commentsHandler.Create)
					r.Get("/{comment_id}", commentsHandler.Get)
					r.Patch("/{comment_id}", commentsHandler.Update)
					r.Delete("/{comment_id}", commentsHandler.Delete)
				})
			})
		})
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logrus.WithField("addr", server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("shutdown")
	}
}
