package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/monadflip/flip-monitor/config"
	"github.com/monadflip/flip-monitor/contract"
	"github.com/monadflip/flip-monitor/contract/abi"
	"github.com/monadflip/flip-monitor/db"
	"github.com/monadflip/flip-monitor/ethclient"
	"github.com/monadflip/flip-monitor/logging"
	"github.com/monadflip/flip-monitor/monitor"
	"github.com/monadflip/flip-monitor/presenter"
	"github.com/monadflip/flip-monitor/repository"
)

func main() {
	logger := logging.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yml"
	}
	cfg, err := config.ReadConfigFromFile(configPath)
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel.Level)

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		err2 := http.ListenAndServe(":2112", nil)
		if err2 != nil {
			logger.WithError(err2).Fatal("can't start listener for prometheus metrics")
		}
	}()

	client, err := ethclient.NewClient(cfg.Chain.RPC.Host, cfg.Chain.RPC.Timeout.Duration)
	if err != nil {
		logger.WithError(err).Fatal("can't dial rpc client")
	}

	repo := repository.NewRepo(dbConn)
	flipContract := contract.NewContract(common.HexToAddress(cfg.Contract.Address), abi.Coinflip)
	handler := monitor.NewFlipEventHandler(logger, repo, cfg.Contract.PayoutMultiplier.Decimal)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m, err := monitor.NewMonitor(ctx, logger, client, flipContract, handler, cfg.Monitor)
	if err != nil {
		logger.WithError(err).Fatal("can't initialize contract monitor")
	}
	m.Start(ctx)

	var pr *presenter.Presenter
	if cfg.Presenter != nil {
		pr = presenter.NewPresenter(logger, repo, client, cfg.Presenter)
		go func() {
			err2 := pr.Serve(cfg.Presenter.Host)
			if err2 != nil && err2 != http.ErrServerClosed {
				logger.WithError(err2).Fatal("can't serve presenter")
			}
		}()
	}

	<-ctx.Done()
	logger.Warn("caught stop signal, gracefully terminating")
	if pr != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err = pr.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("can't shutdown presenter gracefully")
		}
	}
}
