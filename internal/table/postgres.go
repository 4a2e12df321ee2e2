package table

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/energy-insights/internal/db"
)

// IsPostgresURL reports whether a location names a PostgreSQL database.
func IsPostgresURL(location string) bool {
	return strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://")
}

// SplitPostgresURL separates the table query parameter from a connection URL.
// The parameter is not a libpq option, so it must not reach the server.
func SplitPostgresURL(location string) (dsn string, tableName string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("invalid database URL: %w", err)
	}
	q := u.Query()
	tableName = q.Get("table")
	if tableName == "" {
		tableName = db.DefaultTable
	}
	q.Del("table")
	u.RawQuery = q.Encode()
	return u.String(), tableName, nil
}

// LoadPostgres reads the predictions table from PostgreSQL.
func LoadPostgres(ctx context.Context, location string) (*Table, error) {
	dsn, tableName, err := SplitPostgresURL(location)
	if err != nil {
		return nil, &LoadError{Source: "postgres", Message: "bad location", Cause: err}
	}
	source := "postgres table " + tableName

	database, err := db.Connect(ctx, dsn)
	if err != nil {
		return nil, &LoadError{Source: source, Message: "connect", Cause: err}
	}
	defer database.Close()

	present, err := database.ListColumns(ctx, tableName)
	if err != nil {
		return nil, &LoadError{Source: source, Message: "inspect columns", Cause: err}
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrArtifactNotFound)
	}
	for _, col := range RequiredColumns {
		if !present[col] {
			return nil, &LoadError{Source: source, Message: "bad schema", Cause: &MissingColumnError{Column: col}}
		}
	}

	records, err := database.LoadPredictions(ctx, tableName, present)
	if err != nil {
		return nil, &LoadError{Source: source, Message: "read rows", Cause: err}
	}

	return New(records, ColumnsFromNames(present), source)
}
