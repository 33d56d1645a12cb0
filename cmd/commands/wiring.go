package commands

// Shared wiring helpers for subcommands
// Each subcommand builds only the pieces it needs from these

import (
	"context"
	"time"

	"whale-tracker/internal/clients_api/pricing"
	"whale-tracker/internal/infra/config"
	"whale-tracker/internal/infra/log"
	"whale-tracker/internal/store"

	"go.uber.org/zap"
)

func openDatabase(ctx context.Context, cfg *config.Config) (*store.DB, error) {
	db, err := store.NewDB(cfg.Database)
	if err != nil {
		log.LogError("Failed to connect to database", zap.Error(err))
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		log.LogError("Failed to ensure schema", zap.Error(err))
		return nil, err
	}
	return db, nil
}

func buildOracle(cfg *config.Config) *pricing.Oracle {
	providerTimeout := time.Duration(cfg.Oracle.ProviderTimeout) * time.Second
	clientTimeout := providerTimeout + 2*time.Second

	jupiter := pricing.NewJupiterClient(cfg.Oracle.JupiterURL, clientTimeout)
	birdeye := pricing.NewBirdeyeClient(cfg.Oracle.BirdeyeURL, cfg.Oracle.BirdeyeAPIKey, clientTimeout)
	dexScreener := pricing.NewDexScreenerClient(cfg.Oracle.DexScreenerURL, clientTimeout)
	coinGecko := pricing.NewCoinGeckoClient(cfg.Oracle.CoinGeckoURL, clientTimeout)

	return pricing.NewOracle(jupiter, birdeye, dexScreener, coinGecko, providerTimeout,
		pricing.WithCacheTTL(time.Duration(cfg.Oracle.CacheTTL)*time.Second))
}
