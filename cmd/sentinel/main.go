// Package main is the entry point for the weather-contract trading agent.
// It wires persistence, the exchange client, the weather ingest/estimation
// stack, and the orchestrator's trading cycle, then runs either a single
// cycle or a continuous loop depending on the flags in spec.md §6.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kalshiwx/sentinel/internal/backtest"
	"github.com/kalshiwx/sentinel/internal/clients/kalshi"
	"github.com/kalshiwx/sentinel/internal/clients/nws"
	"github.com/kalshiwx/sentinel/internal/clients/openmeteo"
	"github.com/kalshiwx/sentinel/internal/config"
	cfgdomain "github.com/kalshiwx/sentinel/internal/config/domain"
	"github.com/kalshiwx/sentinel/internal/database"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/estimation"
	"github.com/kalshiwx/sentinel/internal/journal"
	"github.com/kalshiwx/sentinel/internal/orchestrator"
	"github.com/kalshiwx/sentinel/internal/paper"
	"github.com/kalshiwx/sentinel/internal/reliability"
	"github.com/kalshiwx/sentinel/internal/scheduler"
	"github.com/kalshiwx/sentinel/internal/server"
	"github.com/kalshiwx/sentinel/internal/weather/consensus"
	"github.com/kalshiwx/sentinel/internal/weather/extremes"
	"github.com/kalshiwx/sentinel/internal/weather/ingest"
	"github.com/rs/zerolog"

	"github.com/kalshiwx/sentinel/pkg/logger"
)

func main() {
	live := flag.Bool("live", false, "trade against the real Kalshi account instead of the paper ledger")
	continuous := flag.Bool("continuous", false, "run cycles in a loop instead of exiting after one")
	intervalMin := flag.Int("interval", 0, "minutes between cycles in --continuous mode (0 uses the domain config default)")
	statusOnly := flag.Bool("status", false, "print the current account/position snapshot and exit")
	paperPortfolio := flag.Bool("paper-portfolio", false, "print the paper ledger's open positions and exit")
	noJitter := flag.Bool("no-jitter", false, "skip the cycle's randomized startup delay")
	yes := flag.Bool("yes", false, "skip the live-trading confirmation prompt")
	runBacktest := flag.Bool("backtest", false, "run the walk-forward/Monte Carlo backtest suite and exit")
	statusServer := flag.Bool("serve-status", false, "run the optional read-only HTTP status server alongside the cycle loop")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	zlog := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})
	zlog.Info().Msg("starting sentinel")

	if *live && !*yes {
		if !confirmLiveTrading() {
			zlog.Warn().Msg("live trading not confirmed, exiting")
			os.Exit(1)
		}
	}

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

	tradeRepo := journal.NewTradeRepository(db.Conn(), zlog)
	paperTradeRepo := journal.NewPaperTradeRepository(db.Conn(), zlog)
	predictionRepo := journal.NewPredictionRepository(db.Conn(), zlog)

	extremesRepo := extremes.NewRepository(db.Conn(), zlog)
	tracker := extremes.NewTracker(extremesRepo)

	ingestRepo := ingest.NewRepository(db.Conn(), zlog)
	nwsClient := nws.New(zlog)
	openMeteoClient := openmeteo.New(zlog)
	providers := []domain.WeatherProvider{nwsClient, openMeteoClient}
	consensusCache := consensus.NewCache(db.Conn(), zlog)

	stations := map[string][]ingest.StationConfig{}
	primaryStations := map[string]string{}
	for city, cityCfg := range domainCfg.Cities {
		stations[city] = []ingest.StationConfig{{Station: cityCfg.Station, IsPrimary: true}}
		primaryStations[city] = cityCfg.Station
	}
	ingestSvc := ingest.New(ingestRepo, tracker, nwsClient, providers[0], domainCfg.Cities, stations, zlog)
	engine := estimation.New(ingestSvc, tracker, providers, consensusCache, domainCfg.Cities, primaryStations, zlog)

	if *runBacktest {
		runBacktestReport(tradeRepo, predictionRepo, domainCfg, zlog)
		return
	}

	if *paperPortfolio {
		printPaperPortfolio(paperTradeRepo)
		return
	}

	var exchange domain.ExchangeClient
	if *live {
		kalshiClient, err := kalshi.New(cfg.KalshiAPIKeyID, cfg.KalshiPrivateKey, cfg.UseDemo, zlog)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to build kalshi client")
		}
		exchange = kalshiClient
	}

	var positions orchestrator.PositionSource
	var opener orchestrator.TradeOpener
	var closer orchestrator.TradeCloser
	var quotes orchestrator.QuoteSource
	var markets orchestrator.MarketSource

	if *live {
		adapter := &orchestrator.LiveAdapter{Exchange: exchange, Repo: tradeRepo}
		positions, opener, closer = adapter, adapter, adapter
		quotes, markets = exchange, exchange
	} else {
		ledger := paper.NewLedger(db.Conn(), zlog)
		trades := paper.NewTrades(paperTradeRepo, ledger, zlog)
		adapter := &orchestrator.PaperAdapter{Trades: trades, Ledger: ledger, Repo: paperTradeRepo}
		positions, opener, closer = adapter, adapter, adapter
		// Paper mode still needs live quotes to price fills realistically;
		// a kill-switched or keyless demo client is the agent's only quote
		// source even when it never places a real order.
		demoClient, err := kalshi.New(cfg.KalshiAPIKeyID, cfg.KalshiPrivateKey, true, zlog)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to build demo kalshi client for paper quotes")
		}
		quotes, markets = demoClient, demoClient
	}

	if *statusOnly {
		printStatus(context.Background(), positions, quotes)
		return
	}

	activeTradeRepo := tradeRepo
	if !*live {
		activeTradeRepo = paperTradeRepo
	}

	cycle := &orchestrator.Cycle{
		Live:            *live,
		Positions:       positions,
		Opener:          opener,
		Closer:          closer,
		Quotes:          quotes,
		Markets:         markets,
		Estimator:       engine,
		Ingest:          ingestSvc,
		ExtremesTracker: tracker,
		TradeRepo:       activeTradeRepo,
		PredictionRepo:  predictionRepo,
		DomainCfg:       domainCfg,
		KillSwitch:      cfg.KillSwitch,
		NoJitter:        *noJitter,
		Rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
		Log:             zlog,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sched := scheduler.New(zlog)
	registerBackgroundJobs(sched, cfg, domainCfg, quotes, activeTradeRepo, predictionRepo, tracker, db, zlog)
	sched.Start()
	defer sched.Stop()

	statusProvider := &cycleStatusProvider{positions: positions, quotes: quotes, tradeRepo: activeTradeRepo, live: *live}
	var statusSrv *server.Server
	if *statusServer {
		statusSrv = server.New(server.Config{Port: 8090, Provider: statusProvider, Log: zlog})
		go func() {
			if err := statusSrv.ListenAndServe(ctx); err != nil {
				zlog.Error().Err(err).Msg("status server stopped")
			}
		}()
	}

	interval := time.Duration(domainCfg.CollectorIntervalMin) * time.Minute
	if *intervalMin > 0 {
		interval = time.Duration(*intervalMin) * time.Minute
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	runLoop(ctx, cycle, *continuous, interval, quit, zlog)
}

func runLoop(ctx context.Context, cycle *orchestrator.Cycle, continuous bool, interval time.Duration, quit chan os.Signal, zlog zerolog.Logger) {
	result := cycle.Run(ctx)
	logResult(zlog, result)
	if !continuous {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			zlog.Info().Msg("shutdown signal received")
			return
		case <-ticker.C:
			result := cycle.Run(ctx)
			logResult(zlog, result)
		}
	}
}

func logResult(zlog zerolog.Logger, res orchestrator.Result) {
	zlog.Info().
		Int("settlements_synced", res.SettlementsSynced).
		Int("observations", res.ObservationsCount).
		Bool("profit_triggered", res.ProfitTriggered).
		Int("liquidations", len(res.Liquidations)).
		Int("take_profits", len(res.TakeProfits)).
		Int("cut_losers", len(res.CutLosers)).
		Int("signals_generated", res.SignalsGenerated).
		Int("trades_executed", len(res.TradesExecuted)).
		Msg("cycle completed")
}

func registerBackgroundJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	domainCfg *cfgdomain.Config,
	quotes orchestrator.QuoteSource,
	tradeRepo *journal.TradeRepository,
	predictionRepo *journal.PredictionRepository,
	tracker *extremes.Tracker,
	db *database.DB,
	zlog zerolog.Logger,
) {
	settlementJob := &scheduler.SettlementSyncJob{
		Quotes: quotes, TradeRepo: tradeRepo, Predictions: predictionRepo, Extremes: tracker, Log: zlog,
	}
	if err := sched.AddJob("0 */10 * * * *", settlementJob); err != nil {
		zlog.Warn().Err(err).Msg("failed to register settlement sync job")
	}

	calibrator := backtest.NewCalibrator(predictionRepo, domainCfg, zlog)
	recalJob := &scheduler.RecalibrationJob{Recalibrator: calibrator, Log: zlog}
	if err := sched.AddJob("0 0 3 * * *", recalJob); err != nil {
		zlog.Warn().Err(err).Msg("failed to register recalibration job")
	}

	walJob := &scheduler.WALCheckpointJob{DB: db, Log: zlog}
	if err := sched.AddJob("0 */15 * * * *", walJob); err != nil {
		zlog.Warn().Err(err).Msg("failed to register WAL checkpoint job")
	}

	if cfg.S3BackupEnabled {
		s3Client, err := reliability.NewS3Client(context.Background(), cfg.S3BackupRegion, cfg.S3BackupBucket, "", "", zlog)
		if err != nil {
			zlog.Warn().Err(err).Msg("failed to build S3 client, backups disabled")
			return
		}
		backupSvc := reliability.NewLedgerBackupService(s3Client, cfg.DBPath, cfg.LogDir+"/backup-stage", zlog)
		backupJob := &scheduler.LedgerBackupJob{Service: backupSvc, RetentionDays: cfg.BackupRetentionDays, Log: zlog}
		if err := sched.AddJob("0 30 3 * * *", backupJob); err != nil {
			zlog.Warn().Err(err).Msg("failed to register ledger backup job")
		}
	}
}

func confirmLiveTrading() bool {
	fmt.Println("This will place real orders against your Kalshi account. Type 'yes' to continue:")
	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}
	return response == "yes"
}

func runBacktestReport(tradeRepo *journal.TradeRepository, predictionRepo *journal.PredictionRepository, domainCfg *cfgdomain.Config, zlog zerolog.Logger) {
	bt := &backtest.Backtester{Trades: tradeRepo, Predictions: predictionRepo, DomainCfg: domainCfg, Log: zlog}
	report, err := bt.Run()
	if err != nil {
		zlog.Fatal().Err(err).Msg("backtest run failed")
	}
	printBacktestReport(report)
}
