/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity/wallet"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var logger = logging.MustGetLogger("asset", "identity", "wallet", "db")

// Persistence types and the database/sql driver serving them.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"

	sqliteDriverName   = "sqlite"
	postgresDriverName = "pgx"

	DefaultTable = "identities"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store is a wallet backed by a SQL table with one row per label.
type Store struct {
	db    *sql.DB
	table string
}

// Open connects to the database and creates the wallet table if missing.
func Open(persistence, dataSource, table string) (*Store, error) {
	var driverName string
	switch persistence {
	case SQLite:
		driverName = sqliteDriverName
	case Postgres:
		driverName = postgresDriverName
	default:
		return nil, errors.Errorf("unsupported persistence [%s]", persistence)
	}
	db, err := sql.Open(driverName, dataSource)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s wallet", persistence)
	}
	if persistence == SQLite {
		// a single writer avoids SQLITE_BUSY on concurrent puts
		db.SetMaxOpenConns(1)
	}
	s, err := New(db, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.CreateSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debugf("opened %s wallet [%s]", persistence, s.table)
	return s, nil
}

// New returns a store over an existing connection without touching the schema.
func New(db *sql.DB, table string) (*Store, error) {
	if len(table) == 0 {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, errors.Errorf("invalid table name [%s]", table)
	}
	return &Store{db: db, table: table}, nil
}

func (s *Store) CreateSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		label TEXT NOT NULL PRIMARY KEY,
		msp_id TEXT NOT NULL,
		certificate TEXT NOT NULL,
		private_key TEXT NOT NULL
	)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return errors.Wrapf(err, "failed to create table [%s]", s.table)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, label string) (*identity.Identity, error) {
	query := fmt.Sprintf("SELECT msp_id, certificate, private_key FROM %s WHERE label = $1", s.table)
	logger.Debug(query, label)

	id := &identity.Identity{Label: label}
	var cert, key string
	err := s.db.QueryRowContext(ctx, query, label).Scan(&id.MSPID, &cert, &key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(wallet.ErrNotFound, "no identity [%s] in [%s]", label, s.table)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query identity [%s]", label)
	}
	id.Certificate = []byte(cert)
	id.PrivateKey = []byte(key)
	return id, nil
}

func (s *Store) Put(ctx context.Context, id *identity.Identity) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (label, msp_id, certificate, private_key) VALUES ($1, $2, $3, $4) ON CONFLICT (label) DO NOTHING",
		s.table,
	)
	logger.Debug(query, id.Label, id.MSPID)

	res, err := s.db.ExecContext(ctx, query, id.Label, id.MSPID, string(id.Certificate), string(id.PrivateKey))
	if err != nil {
		return errors.Wrapf(err, "failed to store identity [%s]", id.Label)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "failed to store identity [%s]", id.Label)
	}
	if n == 0 {
		return errors.Wrapf(wallet.ErrExists, "identity [%s] in [%s]", id.Label, s.table)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT label FROM %s ORDER BY label", s.table)
	logger.Debug(query)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list identities")
	}
	defer func() { _ = rows.Close() }()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, errors.Wrapf(err, "failed to scan label")
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
