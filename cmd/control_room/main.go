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

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/app/provider"
	"xrpl_control_room/internal/app/service"
	"xrpl_control_room/internal/infrastructure/configloader"
	"xrpl_control_room/internal/infrastructure/httpclient"
	"xrpl_control_room/internal/infrastructure/metadata"
	"xrpl_control_room/internal/infrastructure/network/client"
	networkdefinition "xrpl_control_room/internal/infrastructure/network/definition"
	"xrpl_control_room/internal/infrastructure/network/stream"
	"xrpl_control_room/internal/infrastructure/restapi"
	"xrpl_control_room/internal/infrastructure/storage"
	"xrpl_control_room/internal/pkg/logger"
	"xrpl_control_room/internal/pkg/metrics"
	"xrpl_control_room/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/config.yml"

func main() {
	configPath := utils.GetEnv("CONFIG_PATH", defaultConfigPath)
	cfg, err := configloader.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	zapLogger, err := logger.InitZap(cfg.Logging.Level, cfg.Logging.Development, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync() //nolint:errcheck // nothing to do if flushing fails on exit

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.MustRegisterMetrics()
	logger.Info("XRPL control room starting", "config", configPath, "network", cfg.Network.Identifier)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zapLogger); err != nil {
		logger.Error("Control room stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Control room exited")
}

func run(parent context.Context, cfg *configloader.Config, zapLogger *zap.Logger) error {
	appLogger := logger.NewSlogAdapter()
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	netDefProvider := networkdefinition.NewNetworkDefinitionProvider(logger.Named("networks"), cfg.Network)
	netDef, ok := netDefProvider.GetNetworkDefinitionByName(cfg.Network.Identifier)
	if !ok {
		return fmt.Errorf("network %q is not defined", cfg.Network.Identifier)
	}

	clientProvider := client.NewXRPLClientProvider(cfg.RpcClient, logger.Named("ledger"))
	ledger, err := clientProvider.GetClient(netDef)
	if err != nil {
		return err
	}

	store, err := storage.NewStateStore(cfg.Storage, logger.Named("storage"))
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close state store", "error", err)
		}
	}()

	live := provider.NewLiveSource(ledger, logger.Named("live_source"))
	selector := provider.NewDataSourceSelector(live, provider.NewDemoSource())
	wallets := service.NewWalletService(selector, service.WalletServiceOptionsFromConfig(cfg.WalletService), logger.Named("wallets"))

	tokenProvider := provider.NewTokenProvider(cfg.Assets.MemeTokensFile, logger.Named("meme_tokens"))
	resolver := metadata.NewResolver(metadata.ConfigFromAssets(cfg.Assets), logger.Named("metadata"))
	assets := service.NewAssetCollector(ledger, tokenProvider, resolver, cfg.Assets.MetadataWorkers, logger.Named("assets"))
	wallets.SetAssetCollector(assets)

	var sentiment port.SentimentFeed
	if cfg.Market.SentiCrypt.Enabled {
		sentiment = httpclient.NewSentiCryptClient(cfg.Market.SentiCrypt, zapLogger)
	}
	market := service.NewMarketService(
		httpclient.NewCoinGeckoClient(cfg.Market.CoinGecko, zapLogger),
		sentiment,
		service.MarketServiceOptionsFromConfig(cfg.Market),
		logger.Named("market"),
	)

	var ledgerStream port.LedgerStream
	if cfg.NetworkMonitor.StreamEnabled && netDef.WebSocketURL != "" {
		ledgerStream = stream.NewLedgerStream(netDef.WebSocketURL, logger.Named("ledger_stream"))
	}
	network := service.NewNetworkService(
		ledger,
		ledgerStream,
		netDef.Identifier,
		time.Duration(cfg.NetworkMonitor.PollIntervalSec)*time.Second,
		logger.Named("network"),
	)

	prefs := service.NewPreferenceService()
	saver := service.NewStateSaver(store, wallets, prefs, market, logger.Named("state"))

	// Restore before seeding so persisted labels and selections win.
	wallets.Start(ctx, time.Duration(cfg.WalletService.AutoRefreshIntervalSec)*time.Second)
	assets.Start(ctx)
	if err := saver.Restore(ctx); err != nil {
		appLogger.Warn("Failed to restore persisted state, starting fresh", "error", err)
	}
	seeds, err := provider.NewWalletProvider(cfg.WalletService.SeedFile, logger.Named("seed")).GetWallets()
	if err != nil {
		appLogger.Warn("Failed to load seed wallets", "error", err)
	}
	if added := wallets.Seed(ctx, seeds); added > 0 {
		appLogger.Info("Seed wallets added", "count", added)
	}
	saver.Start(ctx)
	market.Start(ctx)
	network.Start(ctx)

	go func() {
		report := wallets.RefreshAll(ctx)
		appLogger.Info("Startup refresh finished", "refreshed", report.Refreshed, "failed", len(report.Failed))
	}()

	router := restapi.SetupRouter(
		restapi.NewWalletHandler(wallets, ledger, cfg.RpcClient.AccountTxLimit),
		restapi.NewDashboardHandler(wallets, assets, market, network, prefs),
		restapi.RouterOptions{
			CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
			EnablePprof:        cfg.Server.EnablePprof,
		},
		zapLogger.Named("http"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSec) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		zapLogger.Info("Shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Every background loop is bound to ctx; the saver writes last once they settle.
	cancel()
	wallets.Wait()
	assets.Wait()
	market.Wait()
	network.Wait()
	saver.Wait()
	return runErr
}
