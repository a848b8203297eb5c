package database

import (
	"context"
	"time"

	"github.com/flashbots/address-screener/metrics"
	"github.com/flashbots/address-screener/types"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	connTimeOut  = 10 * time.Second
	maxOpenConns = 100
)

const createTableQuery = `CREATE TABLE IF NOT EXISTS blacklisted (
	address TEXT UNIQUE NOT NULL,
	chain   TEXT NOT NULL
)`

type postgresStore struct {
	DB *sqlx.DB
}

// NewPostgresStore connects to postgres and creates the blacklisted table if it does not exist yet
func NewPostgresStore(ctx context.Context, dsn string) (*postgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "postgres connect")
	}
	db.SetMaxOpenConns(maxOpenConns)

	store := &postgresStore{DB: db}
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (d *postgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connTimeOut)
	defer cancel()
	if _, err := d.DB.ExecContext(ctx, createTableQuery); err != nil {
		metrics.IncDatabaseErr()
		return errors.Wrap(err, "create blacklisted table")
	}
	return nil
}

func (d *postgresStore) Close() error {
	return d.DB.Close()
}

// LookupBlacklisted resolves the whole batch with a single ANY($1) query
func (d *postgresStore) LookupBlacklisted(ctx context.Context, addresses []types.AddressInfo) ([]types.LookupResult, error) {
	if len(addresses) == 0 {
		return []types.LookupResult{}, nil
	}

	params := make([]string, len(addresses))
	for i, addr := range addresses {
		params[i] = addr.Address
	}

	ctx, cancel := context.WithTimeout(ctx, connTimeOut)
	defer cancel()
	var found []string
	if err := d.DB.SelectContext(ctx, &found, `SELECT address FROM blacklisted WHERE address = ANY($1)`, pq.Array(params)); err != nil {
		metrics.IncDatabaseErr()
		return nil, errors.Wrap(err, "lookup blacklisted")
	}

	known := make(map[string]struct{}, len(found))
	for _, address := range found {
		known[address] = struct{}{}
	}
	return lookupResults(addresses, func(address string) bool {
		_, ok := known[address]
		return ok
	}), nil
}

// RecordBlacklisted inserts all blacklisted verdicts in one transaction. Concurrent requests may
// race to insert the same address, which ON CONFLICT turns into a no-op.
func (d *postgresStore) RecordBlacklisted(ctx context.Context, verdicts []types.Verdict) error {
	entries := blacklistedEntries(verdicts)
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, connTimeOut)
	defer cancel()
	tx, err := d.DB.BeginTxx(ctx, nil)
	if err != nil {
		metrics.IncDatabaseErr()
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	query := `INSERT INTO blacklisted (address, chain) VALUES (:address, :chain) ON CONFLICT (address) DO NOTHING`
	for _, entry := range entries {
		if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
			metrics.IncDatabaseErr()
			return errors.Wrapf(err, "insert blacklisted %s", entry.Address)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.IncDatabaseErr()
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}
