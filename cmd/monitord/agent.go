package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeengine/internal/agent"
	"github.com/hamed0406/uptimeengine/internal/logging"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Serve this host's CPU, memory and disk metrics for hardware monitors",
	RunE:  runAgent,
}

func init() {
	rootCmd.AddCommand(agentCmd)
}

func runAgent(cmd *cobra.Command, _ []string) error {
	log, err := logging.New(logging.Options{Dir: cfg.LogDir, Name: "agent", Level: cfg.LogLevel, Stdout: cfg.LogStdout})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if cfg.AgentSecret == "" {
		log.Warn("agent_open", zap.String("reason", "AGENT_SECRET empty; metrics endpoint is unauthenticated"))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.AgentAddr,
		Handler:           agent.Handler(agent.NewHostCollector(), cfg.AgentSecret, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Info("agent_listen", zap.String("addr", cfg.AgentAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
