// Package main runs the standalone position supervisor daemon (§4.5): a
// process independent of cmd/sentinel's trading cycle that polls open
// positions on its own cadence and fires profit-rule, take-profit, and
// dead-position exits without waiting for the next full cycle.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/kalshiwx/sentinel/internal/clients/kalshi"
	"github.com/kalshiwx/sentinel/internal/clients/nws"
	"github.com/kalshiwx/sentinel/internal/config"
	cfgdomain "github.com/kalshiwx/sentinel/internal/config/domain"
	"github.com/kalshiwx/sentinel/internal/database"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/journal"
	"github.com/kalshiwx/sentinel/internal/orchestrator"
	"github.com/kalshiwx/sentinel/internal/paper"
	"github.com/kalshiwx/sentinel/internal/supervisor"

	"github.com/kalshiwx/sentinel/pkg/logger"
)

func main() {
	live := flag.Bool("live", false, "supervise the real Kalshi account instead of the paper ledger")
	pidPath := flag.String("pid-file", "./data/supervisor.pid", "path to the supervisor's PID file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	zlog := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})
	zlog.Info().Bool("live", *live).Msg("starting position supervisor")

	domainCfg, err := cfgdomain.Load(cfg.DomainConfigPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load domain config")
	}

	db, err := database.New(database.Config{Path: cfg.DBPath, Profile: database.ProfileLedger, Name: "ledger"})
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		zlog.Fatal().Err(err).Msg("failed to migrate database")
	}

	nwsClient := nws.New(zlog)

	var positions orchestrator.PositionSource
	var closer orchestrator.TradeCloser
	var quotes orchestrator.QuoteSource

	if *live {
		kalshiClient, err := kalshi.New(cfg.KalshiAPIKeyID, cfg.KalshiPrivateKey, cfg.UseDemo, zlog)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to build kalshi client")
		}
		tradeRepo := journal.NewTradeRepository(db.Conn(), zlog)
		adapter := &orchestrator.LiveAdapter{Exchange: kalshiClient, Repo: tradeRepo}
		positions, closer = adapter, adapter
		quotes = kalshiClient
	} else {
		demoClient, err := kalshi.New(cfg.KalshiAPIKeyID, cfg.KalshiPrivateKey, true, zlog)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to build demo kalshi client for paper quotes")
		}
		paperTradeRepo := journal.NewPaperTradeRepository(db.Conn(), zlog)
		ledger := paper.NewLedger(db.Conn(), zlog)
		trades := paper.NewTrades(paperTradeRepo, ledger, zlog)
		adapter := &orchestrator.PaperAdapter{Trades: trades, Ledger: ledger, Repo: paperTradeRepo}
		positions, closer = adapter, adapter
		quotes = demoClient
	}

	var stationObserver domain.StationObserver = nwsClient

	sup := &supervisor.Supervisor{
		Positions: positions,
		Quotes:    quotes,
		Closer:    closer,
		Stations:  stationObserver,
		DomainCfg: domainCfg,
		PID:       supervisor.NewPIDFile(*pidPath),
		Log:       zlog,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		zlog.Info().Msg("shutdown signal received")
		cancel()
	}()

	stats, err := sup.Run(ctx)
	if err != nil {
		zlog.Fatal().Err(err).Msg("supervisor exited with error")
	}

	zlog.Info().
		Int("checks", stats.Checks).
		Int("take_profits", stats.TakeProfitsTriggered).
		Int("dead_exits", stats.DeadExitsTriggered).
		Int("profit_rule", stats.ProfitRuleTriggered).
		Int("errors", stats.Errors).
		Msg("supervisor stopped")
}
