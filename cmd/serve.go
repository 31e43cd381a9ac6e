package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"lotto/api"
	"lotto/config"
	"lotto/service"
	"lotto/worker"
)

// ServeCmd runs the HTTP API and the optional draw worker
type ServeCmd struct {
	Addr    string `help:"Listen address (defaults to LOTTO_HTTP_ADDR or :8080)"`
	Memory  bool   `help:"Use the in-memory ledger instead of Postgres"`
	Manager string `help:"Manager address; deploys the lottery if it does not exist yet"`
}

func (c *ServeCmd) Run(ctx context.Context) error {
	log.Info("Starting lotto...")
	cfg := config.Get()

	if c.Addr != "" {
		cfg.HTTPAddr = c.Addr
	}
	if c.Manager != "" {
		cfg.Manager = c.Manager
	}
	manager, hasManager := cfg.ManagerAddress()
	if c.Memory && !hasManager {
		return fmt.Errorf("--manager (or LOTTO_MANAGER) is required with --memory")
	}

	app, err := openApp(ctx, cfg, appOptions{memory: c.Memory, integrations: true})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		app.Close(closeCtx)
	}()

	if hasManager {
		if err := ensureDeployed(ctx, app.lottery, manager); err != nil {
			return err
		}
	}

	if cfg.DrawSchedule != "" {
		if !hasManager {
			return fmt.Errorf("a draw schedule requires a manager address")
		}
		stopWorker, err := worker.NewDrawWorker(app.lottery, manager, cfg.DrawSchedule).Start(ctx)
		if err != nil {
			return err
		}
		defer stopWorker()
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(cfg.HTTPAddr, api.NewRouter(app.lottery, app.accounts))
	serverErr := server.Start()

	log.Infof("lotto is running in %s mode", cfg.Environment)

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	log.Info("Shutdown completed")
	return nil
}

func ensureDeployed(ctx context.Context, svc service.LotteryService, manager common.Address) error {
	state, err := svc.GetState(ctx)
	switch {
	case errors.Is(err, service.ErrNotDeployed):
		if _, err := svc.Deploy(ctx, manager); err != nil {
			return fmt.Errorf("failed to deploy lottery: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read lottery state: %w", err)
	}

	if state.Manager != manager {
		log.WithFields(log.Fields{
			"configured": manager.Hex(),
			"deployed":   state.Manager.Hex(),
		}).Warn("Configured manager differs from the deployed manager")
	}
	return nil
}
