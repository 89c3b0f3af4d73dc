package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/relialab/healthprobe/internal/core/domain/target"
)

// Connector is the connection handle a database target carries: driver name
// and DSN only, no open connection. Every validation or probe opens a fresh
// session and closes it afterwards, so pooling stays with the driver.
type Connector struct {
	driver string
	dsn    string
	ident  string
}

// NewConnector builds a handle for the given Postgres DSN. The DSN is
// parsed once for the database@host identity reported in results.
func NewConnector(dsn string) *Connector {
	return &Connector{driver: "postgres", dsn: dsn, ident: identityFromDSN(dsn)}
}

// Open opens a session. sqlx defers the actual dial until the first
// statement, so connectivity errors surface from Exec, wrapped by the
// caller.
func (c *Connector) Open(ctx context.Context) (target.DatabaseSession, error) {
	dbx, err := sqlx.Open(c.driver, c.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &session{db: dbx}, nil
}

func (c *Connector) String() string { return c.ident }

type session struct {
	db *sqlx.DB
}

func (s *session) Exec(ctx context.Context, statement string, args ...any) error {
	_, err := s.db.ExecContext(ctx, statement, args...)
	return err
}

func (s *session) Close() error { return s.db.Close() }

// identityFromDSN renders a DSN as dbname@host:port without credentials.
// Both URL DSNs (postgres://user:pw@host:5432/name) and keyword/value DSNs
// (host=... dbname=...) are handled; anything unparseable falls back to the
// raw string.
func identityFromDSN(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		name := strings.TrimPrefix(u.Path, "/")
		if name == "" {
			name = "postgres"
		}
		return fmt.Sprintf("%s@%s", name, u.Host)
	}

	kv := map[string]string{}
	for _, field := range strings.Fields(dsn) {
		if k, v, ok := strings.Cut(field, "="); ok {
			kv[k] = v
		}
	}
	name, host := kv["dbname"], kv["host"]
	if name == "" && host == "" {
		return dsn
	}
	if port := kv["port"]; port != "" {
		host += ":" + port
	}
	return fmt.Sprintf("%s@%s", name, host)
}

var _ target.DatabaseHandle = (*Connector)(nil)
