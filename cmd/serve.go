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
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/api/channels/whatsapp"
	"github.com/Conversly/lightning-whatsapp/internal/config"
	"github.com/Conversly/lightning-whatsapp/internal/core"
	"github.com/Conversly/lightning-whatsapp/internal/embedder"
	"github.com/Conversly/lightning-whatsapp/internal/llm"
	"github.com/Conversly/lightning-whatsapp/internal/loaders"
	"github.com/Conversly/lightning-whatsapp/internal/queue"
	"github.com/Conversly/lightning-whatsapp/internal/routes"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

func newServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := loadConfig()
			if err != nil {
				return err
			}
			defer cleanup()
			return serve(cfg, migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply database migrations before serving")
	return cmd
}

func newExecutor(cfg *config.Config) (queue.Executor, error) {
	if cfg.QueueBackend == config.QueueBackendAsynq {
		return queue.NewAsynqExecutor(cfg.RedisURL, cfg.WorkerCount)
	}
	return queue.NewLocalExecutor(cfg.WorkerCount, cfg.QueueBuffer), nil
}

func serve(cfg *config.Config, migrateFirst bool) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	utils.Zlog.Info("Starting application",
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.ServerPort),
		zap.String("queue_backend", cfg.QueueBackend))

	if migrateFirst {
		if err := loaders.MigrateUp(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	db, err := loaders.NewPostgresClient(cfg.DatabaseURL, cfg.WorkerCount)
	if err != nil {
		return fmt.Errorf("failed to create database client: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			utils.Zlog.Error("Error closing database connection", zap.Error(err))
		}
	}()

	ctx := context.Background()

	chatModel, err := llm.NewMultiKeyChatModel(ctx, cfg.GeminiAPIKeys, llm.ModelConfig{
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	})
	if err != nil {
		return err
	}
	completer, err := llm.NewChatCompleter(ctx, chatModel, cfg.SystemPrompt)
	if err != nil {
		return err
	}

	sender, err := whatsapp.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioNumber)
	if err != nil {
		return err
	}

	executor, err := newExecutor(cfg)
	if err != nil {
		return err
	}
	executor.Register(core.TaskDeliverReply, core.NewDeliveryHandler(sender, db).Handle)
	if err := executor.Start(ctx); err != nil {
		return err
	}

	deps := routes.Dependencies{
		Config:    cfg,
		Store:     db,
		Completer: completer,
		Tasks:     executor,
	}
	if cfg.EmbedResources {
		emb, err := embedder.NewGeminiEmbedder(cfg.GeminiAPIKeys)
		if err != nil {
			return err
		}
		deps.Embedder = emb
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupRoutes(router, deps)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		utils.Zlog.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		utils.Zlog.Error("Failed to start server", zap.Error(err))
		_ = executor.Stop(context.Background())
		return err
	case <-quit:
	}

	utils.Zlog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	// Accepted deliveries still finish before the pool closes.
	if err := executor.Stop(shutdownCtx); err != nil {
		utils.Zlog.Error("Background tasks did not finish", zap.Error(err))
	}

	utils.Zlog.Info("Server exited")
	return nil
}
