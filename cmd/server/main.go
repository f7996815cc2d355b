package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/codeblue/config"
	"github.com/dmehra2102/codeblue/internal/domain/session"
	v1 "github.com/dmehra2102/codeblue/internal/handler/v1"
	"github.com/dmehra2102/codeblue/internal/llm"
	"github.com/dmehra2102/codeblue/internal/service"
	"github.com/dmehra2102/codeblue/pkg/auth"
	"github.com/dmehra2102/codeblue/pkg/logger"
	"github.com/dmehra2102/codeblue/pkg/metrics"
	"github.com/dmehra2102/codeblue/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		log.Fatal("failed to init tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	m := metrics.NewCollector(cfg.App.Name)
	client := llm.NewHTTPClient(cfg.LLM, log)
	repo := session.NewMemoryRepository()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	resolver := service.NewResolver(client, m, log, cfg.Game.CommentDelay)
	cases := service.NewCaseService(client, m, log)
	vitals := service.NewVitalsService(client, resolver, m, log, cfg.Game, rng)
	orders := service.NewOrderService(client, resolver, m, log, cfg.Game, rng)
	chat := service.NewChatService(client, m, log, cfg.Game)
	games := service.NewGameService(repo, cases, vitals, orders, chat, resolver, m, log, cfg.Game)

	tokens := auth.NewManager(cfg.JWT)
	handler := v1.NewGameHandler(games, tokens, log)
	router := v1.NewRouter(cfg, handler, tokens, m)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
