package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tradesim/settlement/internal/config"
	"github.com/tradesim/settlement/internal/engine"
	"github.com/tradesim/settlement/internal/ledger"
	"github.com/tradesim/settlement/internal/logger"
	"github.com/tradesim/settlement/internal/market"
	"github.com/tradesim/settlement/internal/postgres"
	"github.com/tradesim/settlement/internal/quotes"
	"github.com/tradesim/settlement/internal/server"
	"github.com/tradesim/settlement/internal/store"
	"github.com/tradesim/settlement/internal/sweeper"
)

const (
	_cfgFilePath = "./configs/config.yaml"
)

func main() {
	zapLogger, loggerSync, err := logger.NewZapLogger("info")
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if err := godotenv.Load(); err != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(_cfgFilePath)
	if err != nil {
		zapLogger.Fatalf("%s: can't load config", err)
	}

	db, err := postgres.NewDB(postgres.NewConfigFromEnv().Setup())
	if err != nil {
		zapLogger.Fatalf("%s: can't connect to db", err)
	}
	defer db.Close()

	quotesService := quotes.NewService(cfg.Quotes, zapLogger)

	oracle, err := market.NewOracle(cfg.MarketHours, cfg.Quotes.ReferenceInstruments, quotesService, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't create market oracle", err)
	}

	settlementEngine := engine.NewEngine(
		cfg.Engine,
		store.NewTxManager(db),
		store.NewOrderStore(db),
		store.NewSettlementStore(db),
		ledger.NewBalanceLedger(db, cfg.Engine.SellFeeRate, zapLogger),
		ledger.NewHoldingsLedger(db, cfg.Engine.HoldingEpsilon, zapLogger),
		oracle,
		quotesService,
		store.NewActivityStore(db),
		zapLogger,
	)

	go sweeper.NewSweeper(settlementEngine, cfg.Sweep, zapLogger).Run(ctx)

	httpServer := server.NewHTTPServer(ctx, cfg.Server.Port, server.NewHandler(settlementEngine, zapLogger))
	zapLogger.Infof("listening on :%s", cfg.Server.Port)
	if err := httpServer.Run(ctx); err != nil {
		zapLogger.Errorf("%s: server stopped", err)
	}
}
