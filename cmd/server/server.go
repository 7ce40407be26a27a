package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"github.com/thereayou/zenlist-realtime/internal/cache"
	"github.com/thereayou/zenlist-realtime/internal/config"
	"github.com/thereayou/zenlist-realtime/internal/database"
	"github.com/thereayou/zenlist-realtime/internal/handlers"
	"github.com/thereayou/zenlist-realtime/internal/services"
	"github.com/thereayou/zenlist-realtime/internal/storage"
	ws "github.com/thereayou/zenlist-realtime/internal/websocket"
	"github.com/thereayou/zenlist-realtime/pkg/auth"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg    *config.Config
	log    logger.Logger
	DB     *database.Database
	Redis  *redis.Client
	Hub    *ws.Hub
	Router *gin.Engine
}

type Handlers struct {
	Auth          *handlers.AuthHandler
	User          *handlers.UserHandler
	WebSocket     *handlers.WebSocketHandler
	Messages      *handlers.HTTPMessageHandler
	Presence      *handlers.PresenceHandler
	Notifications *handlers.NotificationHandler
	Invitations   *handlers.InvitationHandler
	Members       *handlers.MemberHandler
	Uploads       *handlers.UploadHandler
}

// NewServer подключается к Postgres и Redis и собирает приложение
func NewServer(cfg *config.Config, log logger.Logger) (*Server, error) {
	db, err := database.Connect(cfg.Database.URL, cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("postgres connect failed: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connect failed: %w", err)
	}

	return newApp(cfg, log, db, rdb)
}

// newApp собирает hub, сервисы, обработчики и роутер поверх готовых хранилищ
func newApp(cfg *config.Config, log logger.Logger, db *database.Database, rdb *redis.Client) (*Server, error) {
	hub := ws.NewHub(ws.Options{
		SendBuffer:    cfg.Realtime.SendBuffer,
		EventTimeout:  cfg.Realtime.EventTimeout,
		TypingTTL:     cfg.Realtime.TypingTTL,
		SweepInterval: cfg.Realtime.SweepInterval,
	}, log.With("component", "hub"))

	jwtMgr := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)
	authenticator := services.NewAuthenticator(db, jwtMgr, cache.NewTokenBlacklist(rdb), log)

	gate := services.NewGate(db, log)
	limiter := cache.NewSendLimiter(rdb, cfg.Realtime.ChatRateLimit, cfg.Realtime.ChatRateWindow, log)
	router := services.NewMessageRouter(gate, db, db, hub, log).WithLimiter(limiter)
	dispatcher := services.NewDispatcher(db, hub, gate, log)
	invitations := services.NewInvitationService(db, db, db, gate, dispatcher, log)
	members := services.NewMemberService(db, gate, hub, log)

	// без бакета presign отвечает StorageFailure, остальное работает
	var presigner services.Presigner
	if cfg.UploadsEnabled() {
		s3, err := storage.NewS3Presigner(storage.S3Config{
			Endpoint:  cfg.Uploads.Endpoint,
			Region:    cfg.Uploads.Region,
			Bucket:    cfg.Uploads.Bucket,
			AccessKey: cfg.Uploads.AccessKey,
			SecretKey: cfg.Uploads.SecretKey,
			UseSSL:    cfg.Uploads.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		presigner = s3
	} else {
		log.Warn("Uploads disabled: S3 bucket or credentials not configured")
	}
	uploads := services.NewUploadService(presigner, services.UploadLimits{
		MaxFiles:      cfg.Uploads.MaxFiles,
		MaxFileSize:   cfg.Uploads.MaxFileSize,
		Expiry:        cfg.Uploads.Expiry,
		DefaultFolder: cfg.Uploads.DefaultFolder,
	}, log)

	events := handlers.NewSocketEvents(gate, hub, router, dispatcher, log.With("component", "socket"))

	h := &Handlers{
		Auth:          handlers.NewAuthHandler(authenticator),
		User:          handlers.NewUserHandler(db, hub),
		WebSocket:     handlers.NewWebSocketHandler(hub, events, cfg.Server.AllowedOrigins, log),
		Messages:      handlers.NewHTTPMessageHandler(router),
		Presence:      handlers.NewPresenceHandler(gate, hub),
		Notifications: handlers.NewNotificationHandler(dispatcher),
		Invitations:   handlers.NewInvitationHandler(invitations),
		Members:       handlers.NewMemberHandler(members),
		Uploads:       handlers.NewUploadHandler(uploads),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	APIEndpoints(engine, h, authenticator, log)

	return &Server{
		cfg:    cfg,
		log:    log,
		DB:     db,
		Redis:  rdb,
		Hub:    hub,
		Router: engine,
	}, nil
}

// Run обслуживает HTTP и hub до SIGINT/SIGTERM или отмены ctx, затем
// останавливает сервер и закрывает все сокеты
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.Router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		s.log.Info("Server starting", "port", s.cfg.Server.Port, "env", s.cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	if closeErr := s.DB.Close(); closeErr != nil {
		s.log.Error("Failed to close database", "error", closeErr)
	}
	if closeErr := s.Redis.Close(); closeErr != nil {
		s.log.Error("Failed to close redis", "error", closeErr)
	}

	s.log.Info("Server exited")
	return err
}
