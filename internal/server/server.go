package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/authflow/adapters/events"
	"github.com/layer-3/authflow/adapters/store"
	"github.com/layer-3/authflow/adapters/tokenizer"
	"github.com/layer-3/authflow/internal/config"
	"github.com/layer-3/authflow/ports"
	"github.com/layer-3/authflow/service"
	transport "github.com/layer-3/authflow/transport/http"
)

// Server is the wired reference auth API
type Server struct {
	Router      *gin.Engine
	AuthService *service.AuthService

	addr    string
	logger  *slog.Logger
	closers []func() error
}

// New wires stores, tokenizer and publisher according to cfg.
// REDIS_URL moves revocations and events to Redis. Otherwise events stay
// in process and revocations share the DB_PATH database, or memory when
// there is none. Without DB_PATH users are kept in memory.
func New(cfg *config.ServerConfig, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{addr: cfg.Addr, logger: logger.With("component", "server")}

	signKey, err := tokenizer.LoadOrGenerateKey(cfg.SigningKeyPath)
	if err != nil {
		return nil, err
	}

	wmLogger := watermill.NewStdLogger(false, false)

	var users ports.UserStore
	var sqliteUsers *store.SQLiteUserStore
	if cfg.DBPath != "" {
		sqliteUsers, err = store.NewSQLiteUserStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, sqliteUsers.Close)
		users = sqliteUsers
	} else {
		users = store.NewMemoryUserStore()
	}

	var revocations ports.Store
	var publisher message.Publisher
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient := redis.NewClient(opts)
		s.closers = append(s.closers, redisClient.Close)

		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			wmLogger,
		)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create Redis publisher: %w", err)
		}
		revocations = store.NewRedisStore(redisClient)
	} else {
		publisher = gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		if sqliteUsers != nil {
			// revocations outlive a restart along with the users
			revocations, err = store.NewSQLiteStore(sqliteUsers.DB())
			if err != nil {
				publisher.Close()
				s.Close()
				return nil, err
			}
		} else {
			revocations = store.NewMemoryStore()
		}
	}
	s.closers = append([]func() error{publisher.Close}, s.closers...)

	s.AuthService = service.NewAuthService(
		tokenizer.NewJWTTokenizer(signKey),
		revocations,
		users,
		events.NewWatermillPublisher(publisher),
		service.WithTTLs(cfg.AccessTTL, cfg.RefreshTTL),
		service.WithLogger(logger),
	)
	s.Router = transport.SetupRouter(s.AuthService, logger)

	return s, nil
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Close releases the publisher and storage connections
func (s *Server) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
