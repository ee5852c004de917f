// Package repo selects and opens the configured store.
package repo

import (
	"context"
	"fmt"

	"github.com/geocoder89/finledger/internal/config"
	"github.com/geocoder89/finledger/internal/db"
	"github.com/geocoder89/finledger/internal/observability"
	"github.com/geocoder89/finledger/internal/repo/memory"
	"github.com/geocoder89/finledger/internal/repo/postgres"
	"github.com/geocoder89/finledger/internal/repo/sqlite"
	"github.com/geocoder89/finledger/internal/service"
)

type Stores struct {
	Users        service.UserStore
	Transactions service.TransactionStore

	Ping  func(ctx context.Context) error
	Close func()
}

// Open connects to the store named by cfg.DBDriver and brings its schema up
// to date. prom may be nil.
func Open(ctx context.Context, cfg config.Config, prom *observability.Prom) (Stores, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return Stores{}, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return Stores{}, err
		}
		return Stores{
			Users:        postgres.NewUsersRepo(pool, prom),
			Transactions: postgres.NewTransactionsRepo(pool, prom),
			Ping:         pool.Ping,
			Close:        pool.Close,
		}, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath, prom)
		if err != nil {
			return Stores{}, err
		}
		return Stores{
			Users:        s.Users(),
			Transactions: s.Transactions(),
			Ping:         s.Ping,
			Close:        func() { _ = s.Close() },
		}, nil

	case config.DriverMemory:
		s := memory.New()
		return Stores{
			Users:        s.Users(),
			Transactions: s.Transactions(),
			Ping:         s.Ping,
			Close:        func() {},
		}, nil
	}

	return Stores{}, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
}
