// stealthd serves the stealth wallet and claim-link API.
//
//	@title        stealth-link API
//	@version      1.0
//	@description  Stealth addresses and bearer claim links on Solana
//	@BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/stealth-link/claim"
	"github.com/AlexZinkM/stealth-link/internal/api"
	"github.com/AlexZinkM/stealth-link/internal/client"
	"github.com/AlexZinkM/stealth-link/internal/config"
	"github.com/AlexZinkM/stealth-link/internal/log"
	"github.com/AlexZinkM/stealth-link/internal/metrics"
	"github.com/AlexZinkM/stealth-link/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := config.Init(); err != nil {
		panic(err)
	}
	cfg := config.Get()

	if err := log.Init(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := config.PromptForPassword(); err != nil {
		log.Fatal("failed to read password", zap.Error(err))
	}

	tokens, err := config.Tokens(cfg.Network)
	if err != nil {
		log.Fatal("invalid network", zap.Error(err))
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.EnableMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	operator := loadOperatorKey()
	defer clear(operator)

	solanaClient := client.NewSolanaClient(config.GetSolanaRPCURL(), tokens)
	solanaChainID, _ := config.ChainID(config.DestinationChain)
	bridge := client.NewBridgeClient(cfg.BridgeAPIURL, cfg.BridgeAPIKey, solanaChainID, operator, solanaClient)

	opts := []claim.Option{
		claim.WithPriceFeed(client.NewCoinGeckoClient()),
		claim.WithCooldown(config.GetClaimCooldown()),
		claim.WithConfirmTimeout(config.GetConfirmTimeout()),
		claim.WithMetrics(recorder),
	}
	if len(operator) > 0 {
		opts = append(opts, claim.WithSponsor(operator))
	}
	claimSvc := claim.NewService(bridge, solanaClient, cfg.ClaimBaseURL, tokens, opts...)

	router, err := api.SetupRouter(claimSvc, recorder, metricsHandler)
	if err != nil {
		log.Fatal("failed to set up router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("network", cfg.Network),
			zap.Bool("sponsor", len(operator) > 0),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	// Claim creation may be waiting on the bridge, give it the confirm timeout to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetConfirmTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

// loadOperatorKey opens the optional operator wallet. Without it claims cannot be
// funded from Solana and redeems cannot be sponsored.
func loadOperatorKey() solana.PrivateKey {
	filePath := config.GetSolanaFilePath()
	if filePath == "" {
		log.Warn("SOLANA_FILE_PATH not set, running without operator wallet")
		return nil
	}

	passwordBytes, err := config.GetPasswordBytes()
	if err != nil {
		log.Fatal("password not set", zap.Error(err))
	}
	defer clear(passwordBytes)

	key, err := wallet.LoadOperatorKey(filePath, passwordBytes)
	if err != nil {
		log.Fatal("failed to load operator wallet", zap.Error(err), zap.String("path", filePath))
	}
	return key
}
