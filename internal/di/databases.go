// Package di wires the application's databases, services and jobs.
package di

import (
	"fmt"

	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens both databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// ledger.db - the source of truth, maximum safety
	ledgerDB, err := database.New(database.Config{
		Path:    cfg.LedgerPath(),
		Profile: database.ProfileLedger,
		Name:    database.NameLedger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger database: %w", err)
	}
	container.LedgerDB = ledgerDB

	// client_data.db - market data cache, can be rebuilt at any time
	clientDataDB, err := database.New(database.Config{
		Path:    cfg.ClientDataPath(),
		Profile: database.ProfileCache,
		Name:    database.NameClientData,
	})
	if err != nil {
		ledgerDB.Close()
		return nil, fmt.Errorf("failed to initialize client_data database: %w", err)
	}
	container.ClientDataDB = clientDataDB

	for _, db := range container.Databases() {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
		}
	}

	log.Info().Msg("All databases initialized and schemas applied")
	return container, nil
}
