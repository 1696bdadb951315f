package storage

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/arfanana/smart-internship-engine/internal/domain"
)

// dialect captures the differences between the supported drivers.
type dialect struct {
	name   string
	driver string
	// numbered placeholders ($1, $2) instead of ?.
	numbered bool
}

func dialectFor(name string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DriverSQLite, "sqlite3":
		return dialect{name: DriverSQLite, driver: "sqlite"}, nil
	case DriverPostgres, "postgresql", "pg":
		return dialect{name: DriverPostgres, driver: "postgres", numbered: true}, nil
	default:
		return dialect{}, fmt.Errorf("%w: unsupported database driver %q", domain.ErrInvalidInput, name)
	}
}

// rebind rewrites ? placeholders for drivers that use numbered parameters.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholders returns n comma separated ? markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// tokens converts a token list into a driver argument: a JSON document for
// SQLite, a text array for Postgres.
func (d dialect) tokens(values []string) any {
	if values == nil {
		values = []string{}
	}
	if d.name == DriverPostgres {
		return pq.Array(values)
	}
	return jsonTokens{values: &values}
}

// scanTokens returns a scan destination that fills dest.
func (d dialect) scanTokens(dest *[]string) any {
	if d.name == DriverPostgres {
		return pq.Array(dest)
	}
	return jsonTokens{values: dest}
}

type jsonTokens struct {
	values *[]string
}

var (
	_ driver.Valuer = jsonTokens{}
	_ sql.Scanner   = jsonTokens{}
)

func (j jsonTokens) Value() (driver.Value, error) {
	data, err := json.Marshal(*j.values)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (j jsonTokens) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*j.values = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported token column type %T", src)
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("decoding tokens: %w", err)
	}
	*j.values = out
	return nil
}

// isForeignKeyViolation reports whether err is a referential integrity
// failure from either driver. The offending constraint is returned when the
// driver reports it.
func isForeignKeyViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint, pqErr.Code == "23503"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return "", true
		}
		return "", code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "FOREIGN KEY")
	}

	return "", false
}

// NeedsDSN reports whether the driver connects through a DSN rather than a data directory.
func NeedsDSN(driver string) bool {
	d, err := dialectFor(driver)
	return err == nil && d.numbered
}
