package di

import (
	"context"
	"fmt"

	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/clients/exchangerate"
	"github.com/aristath/folio/internal/clients/yahoo"
	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/modules/goals"
	"github.com/aristath/folio/internal/modules/history"
	"github.com/aristath/folio/internal/modules/income"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/valuation"
	"github.com/aristath/folio/internal/reliability"
	"github.com/aristath/folio/internal/services/marketdata"
	"github.com/rs/zerolog"
)

// InitializeServices creates clients, repositories and services.
// Databases must already be initialized.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.LedgerDB == nil || container.ClientDataDB == nil {
		return fmt.Errorf("databases must be initialized first")
	}

	ledgerConn := container.LedgerDB.Conn()

	// Market data: Yahoo behind a memory cache and the client_data store
	container.YahooClient = yahoo.NewClient(yahoo.Config{
		BaseURL:       cfg.MarketData.BaseURL,
		SearchURL:     cfg.MarketData.SearchURL,
		Timeout:       cfg.MarketData.Timeout,
		MaxRetries:    cfg.MarketData.MaxRetries,
		RatePerSecond: cfg.MarketData.RatePerSecond,
	}, log)
	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn())
	container.MarketDataService = marketdata.NewService(
		container.YahooClient,
		container.ClientDataRepo,
		cfg.MarketData.QuoteCacheTTL,
		log,
	)
	if cfg.MarketData.FXFallbackURL != "" {
		container.MarketDataService.SetFallbackRates(
			exchangerate.NewClient(cfg.MarketData.FXFallbackURL, cfg.MarketData.Timeout, log))
	}

	// Ledger
	container.LedgerRepo = ledger.NewRepository(ledgerConn, log)
	container.LedgerService = ledger.NewService(container.LedgerRepo, cfg.LedgerMaxConflictRetries, log)

	// Read side
	container.ValuationService = valuation.NewService(container.LedgerService, container.MarketDataService, cfg.FallbackUSDTRY, log)
	container.HistoryService = history.NewService(container.LedgerService, container.MarketDataService, cfg.FallbackUSDTRY, log)

	container.GoalsRepo = goals.NewRepository(ledgerConn, log)
	container.GoalsService = goals.NewService(container.GoalsRepo, container.ValuationService, log)

	container.IncomeRepo = income.NewRepository(ledgerConn, log)
	container.IncomeService = income.NewService(container.IncomeRepo, container.LedgerService, container.ValuationService, log)

	if cfg.Backup.Enabled {
		store, err := reliability.NewS3Client(ctx, reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(store,
			[]reliability.Snapshotter{container.LedgerDB}, cfg.DataDir, log)
	}

	log.Info().Bool("backups", container.BackupService != nil).Msg("Services initialized")
	return nil
}
