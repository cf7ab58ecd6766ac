package di

import (
	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/clients/yahoo"
	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/modules/goals"
	"github.com/aristath/folio/internal/modules/history"
	"github.com/aristath/folio/internal/modules/income"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/valuation"
	"github.com/aristath/folio/internal/reliability"
	"github.com/aristath/folio/internal/scheduler"
	"github.com/aristath/folio/internal/services/marketdata"
)

// Container holds all dependencies for the application.
// It is created by Wire() and passed to the server.
type Container struct {
	// Databases
	LedgerDB     *database.DB // Transactions, holdings, income and goals
	ClientDataDB *database.DB // Market data cache

	// Clients
	YahooClient *yahoo.Client

	// Repositories
	ClientDataRepo *clientdata.Repository
	LedgerRepo     *ledger.Repository
	GoalsRepo      *goals.Repository
	IncomeRepo     *income.Repository

	// Services
	MarketDataService *marketdata.Service
	LedgerService     *ledger.Service
	ValuationService  *valuation.Service
	HistoryService    *history.Service
	GoalsService      *goals.Service
	IncomeService     *income.Service
	BackupService     *reliability.BackupService // nil when backups are disabled

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	QuoteWarmup  scheduler.Job
	CacheCleanup scheduler.Job
	Maintenance  scheduler.Job
	Backup       scheduler.Job // nil when backups are disabled
}

// Databases returns every open database
func (c *Container) Databases() []*database.DB {
	var dbs []*database.DB
	for _, db := range []*database.DB{c.LedgerDB, c.ClientDataDB} {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return dbs
}

// Close closes all databases
func (c *Container) Close() {
	for _, db := range c.Databases() {
		db.Close()
	}
}
