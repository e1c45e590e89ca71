// Package gpttools собирает HTTP-приложение шлюза: хранилище,
// миграции, кэш, провайдер завершений, очередь событий и маршруты.
package gpttools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	amqp "github.com/streadway/amqp"

	"github.com/ldavidflorez/gpt-tools-api/internal/cache"
	"github.com/ldavidflorez/gpt-tools-api/internal/config"
	gpthandler "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/gpt"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/jwt"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/rabbitmq"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/sl"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/tokencount"
	"github.com/ldavidflorez/gpt-tools-api/internal/migrations"
	"github.com/ldavidflorez/gpt-tools-api/internal/provider"
	authservice "github.com/ldavidflorez/gpt-tools-api/internal/services/auth"
	catalogservice "github.com/ldavidflorez/gpt-tools-api/internal/services/catalog"
	completionservice "github.com/ldavidflorez/gpt-tools-api/internal/services/completion"
	trackerservice "github.com/ldavidflorez/gpt-tools-api/internal/services/tracker"
	userservice "github.com/ldavidflorez/gpt-tools-api/internal/services/user"
	"github.com/ldavidflorez/gpt-tools-api/internal/storage/repository"
)

// App — HTTP-приложение шлюза.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	amqpConn *amqp.Connection
}

// New инициализирует зависимости приложения и собирает маршрутизатор.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counter, err := tokencount.New()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	providerClient := provider.New(cfg.OpenAI)

	var amqpConn *amqp.Connection
	var publisher completionservice.UsagePublisher
	if cfg.RabbitConnection.URL != "" {
		amqpConn, err = rabbitmq.Connect(cfg.RabbitConnection.URL, 5, 3*time.Second)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(amqpConn, cfg.RabbitConnection.UsageQueue)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbitmq url is empty, usage events publishing disabled")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.New(db, jwtMaker, cacheRedis)
	userService := userservice.New(db)
	catalogService := catalogservice.New(db)
	completionService := completionservice.New(logger, db, providerClient, counter, publisher, cfg.MaxTokensPerRequest)
	trackerService := trackerservice.New(db, cfg.CostPerToken)

	serviceIDs, err := resolveServiceIDs(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, userService, catalogService,
		completionService, trackerService, serviceIDs)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		amqpConn: amqpConn,
	}, nil
}

// resolveServiceIDs сопоставляет возможности GPT-3 с идентификаторами
// сервисов каталога по их именам из сид-миграции.
func resolveServiceIDs(ctx context.Context, db *repository.Storage) (gpthandler.ServiceIDs, error) {
	var ids gpthandler.ServiceIDs
	for name, target := range map[string]*int64{
		"lang-detection":   &ids.LangDetection,
		"lang-translation": &ids.Translation,
		"sentiment-detect": &ids.Sentiment,
		"intent-detection": &ids.Intent,
		"summarize":        &ids.Summarize,
		"writer":           &ids.Writer,
	} {
		service, err := db.GetServiceByName(ctx, name)
		if err != nil {
			return ids, fmt.Errorf("resolve service %q: %w", name, err)
		}
		*target = service.ID
	}
	return ids, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.amqpConn != nil {
			if cerr := a.amqpConn.Close(); cerr != nil {
				a.logger.Error("failed to close rabbitmq connection", sl.Err(cerr))
			}
		}
		a.db.DB.Close()
		return err
	}
}
