package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const defaultDBName = "spycat.db"

// Dialect names the SQL flavour spoken by the opened store.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

type Config struct {
	Driver    string
	DSN       string
	Workspace string
}

func dbPath(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, ".spycat", defaultDBName)
}

// EnsureWorkspace creates workspace directory if missing.
func EnsureWorkspace(workspace string) (string, error) {
	if workspace == "" {
		workspace = "."
	}
	path := filepath.Join(workspace, ".spycat")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open opens the record store. SQLite runs with foreign keys on and immediate
// transactions so concurrent writers queue on the database lock.
func Open(cfg Config) (*sql.DB, Dialect, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, "", err
	}
	switch dialect {
	case Postgres:
		if cfg.DSN == "" {
			return nil, "", fmt.Errorf("postgres dsn required")
		}
		conn, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres: %w", err)
		}
		return conn, Postgres, nil
	default:
		dsn := cfg.DSN
		if dsn == "" {
			if _, err := EnsureWorkspace(cfg.Workspace); err != nil {
				return nil, "", err
			}
			dsn = "file:" + dbPath(cfg.Workspace)
		}
		dsn, err = sqliteDSN(dsn)
		if err != nil {
			return nil, "", err
		}
		conn, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, "", err
		}
		return conn, SQLite, nil
	}
}

// sqliteDSN fills in the foreign_keys, busy_timeout and _txlock settings the
// store relies on when dsn leaves them out.
func sqliteDSN(dsn string) (string, error) {
	base, rawQuery, _ := strings.Cut(dsn, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("sqlite dsn: %w", err)
	}
	var extra []string
	for _, p := range []struct{ name, value string }{
		{"foreign_keys", "foreign_keys(1)"},
		{"busy_timeout", "busy_timeout(5000)"},
	} {
		if !hasPragma(q["_pragma"], p.name) {
			extra = append(extra, "_pragma="+p.value)
		}
	}
	if q.Get("_txlock") == "" {
		extra = append(extra, "_txlock=immediate")
	}
	if len(extra) == 0 {
		return dsn, nil
	}
	if rawQuery != "" {
		extra = append([]string{rawQuery}, extra...)
	}
	return base + "?" + strings.Join(extra, "&"), nil
}

func hasPragma(pragmas []string, name string) bool {
	for _, p := range pragmas {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == name || strings.HasPrefix(p, name+"(") || strings.HasPrefix(p, name+"=") || strings.HasPrefix(p, name+" ") {
			return true
		}
	}
	return false
}

// ReadTxOptions are the options for transactions that only read. They must
// see a single snapshot across statements: SQLite gets a deferred
// transaction, Postgres repeatable read.
func (d Dialect) ReadTxOptions() *sql.TxOptions {
	if d == Postgres {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return &sql.TxOptions{ReadOnly: true}
}

// Path returns the db path for the workspace.
func Path(workspace string) string {
	return dbPath(workspace)
}

// Rebind rewrites ? placeholders into the dialect's positional form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// ForUpdate returns the row-lock suffix for SELECT statements. SQLite has no
// row locks; its immediate transactions already hold the write lock.
func (d Dialect) ForUpdate() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}
