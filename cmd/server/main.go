package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"goa.design/clue/log"

	"lingo-backend/internal/config"
	"lingo-backend/internal/database"
	"lingo-backend/internal/handlers"
	"lingo-backend/internal/middleware"
	"lingo-backend/internal/models"
	"lingo-backend/internal/repository"
	"lingo-backend/internal/router"
	"lingo-backend/internal/stream"
	"lingo-backend/internal/upstream"
	"lingo-backend/internal/websocket"
)

func main() {
	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	log.Print(ctx, log.KV{K: "msg", V: "starting lingo backend"})

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	ctx = log.With(ctx, log.KV{K: "env", V: cfg.Env})
	log.Print(ctx, log.KV{K: "msg", V: "environment loaded"}, log.KV{K: "provider", V: cfg.UpstreamProvider})

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(ctx, err, log.KV{K: "msg", V: "PostgreSQL connection failed"})
	}
	defer pool.Close()
	log.Print(ctx, log.KV{K: "msg", V: "PostgreSQL connected"})

	// ──── Step 3: Run Database Migrations ────
	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatal(ctx, err, log.KV{K: "msg", V: "database migration failed"})
	}
	log.Print(ctx, log.KV{K: "msg", V: "database migrations applied"})

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	readiness := &database.Readiness{}
	go readiness.Monitor(monitorCtx, pool, 5*time.Second)

	// ──── Step 4: Initialize Redis (optional) ────
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal(ctx, err, log.KV{K: "msg", V: "Redis connection failed"})
		}
		defer redisClient.Close()
		log.Print(ctx, log.KV{K: "msg", V: "Redis connected"})
	}

	// ──── Step 5: Initialize Reply Source ────
	source, err := upstream.New(ctx, upstream.Options{
		Provider:          cfg.UpstreamProvider,
		NLPWorkerURL:      cfg.NLPWorkerURL,
		GeminiAPIKey:      cfg.GeminiAPIKey,
		GeminiModel:       cfg.GeminiModel,
		GeminiConcurrency: cfg.GeminiConcurrentReqs,
		AnthropicAPIKey:   cfg.AnthropicAPIKey,
		AnthropicModel:    cfg.AnthropicModel,
	})
	if err != nil {
		log.Fatal(ctx, err, log.KV{K: "msg", V: "reply source initialization failed"})
	}
	if c, ok := source.(io.Closer); ok {
		defer c.Close()
	}
	relay := stream.NewRelay(source, cfg.TokenInterval, cfg.UpstreamTimeout)
	log.Print(ctx, log.KV{K: "msg", V: "chat relay ready"}, log.KV{K: "provider", V: cfg.UpstreamProvider})

	// ──── Initialize Repositories & Handlers ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	lessonRepo := repository.NewLessonRepo(pool)
	vocabRepo := repository.NewVocabRepo(pool)

	wsHub := websocket.NewHub(relay)
	h := router.Handlers{
		Chat:   handlers.NewChatHandler(relay),
		Lesson: handlers.NewLessonHandler(lessonRepo),
		Vocab:  handlers.NewVocabHandler(vocabRepo),
		OCR:    handlers.NewOCRHandler(cfg.SpeechVisionURL, cfg.MaxUploadMB, &http.Client{Timeout: 60 * time.Second}),
		System: handlers.NewSystemHandler(readiness, models.VersionInfo{
			Version:   cfg.AppVersion,
			Env:       cfg.Env,
			Commit:    cfg.GitCommit,
			BuildTime: cfg.BuildTime,
		}),
		Hub: wsHub,
	}

	// ──── Step 6: Configure Rate Limits ────
	var limits router.Limits
	var localLimiters []*middleware.RateLimiter
	if redisClient != nil {
		limits.Chat = middleware.NewRedisRateLimiter(redisClient, "ratelimit:chat", cfg.ChatRateLimitPerMin, time.Minute)
		limits.API = middleware.NewRedisRateLimiter(redisClient, "ratelimit:api", cfg.APIRateLimitPerMin, time.Minute)
	} else {
		chatLimiter := middleware.NewRateLimiter(cfg.ChatRateLimitPerMin, time.Minute)
		apiLimiter := middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute)
		localLimiters = append(localLimiters, chatLimiter, apiLimiter)
		limits.Chat, limits.API = chatLimiter, apiLimiter
	}

	// ──── Step 7: Start HTTP Server ────
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     router.New(format, jwtAuth, h, limits, cfg.AllowedOrigins),
		ReadTimeout: 15 * time.Second,
		// Chat streams stay open for the whole reply.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		defer close(idle)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Print(ctx, log.KV{K: "msg", V: "shutting down"})
		wsHub.Shutdown()
		stopMonitor()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, err, log.KV{K: "msg", V: "server shutdown incomplete"})
		}
		for _, l := range localLimiters {
			l.Close()
		}
	}()

	log.Print(ctx, log.KV{K: "msg", V: "lingo backend ready"},
		log.KV{K: "addr", V: "http://localhost:" + cfg.Port},
		log.KV{K: "ws", V: "ws://localhost:" + cfg.Port + "/chat/ws"})

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(ctx, err, log.KV{K: "msg", V: "server error"})
	}
	<-idle
}
