package telemetry

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

var dbSystems = map[string]attribute.KeyValue{
	"postgres": semconv.DBSystemPostgreSQL,
	"sqlite":   semconv.DBSystemSqlite,
}

// OpenDB opens a traced database handle. Only the drivers the storage layer
// uses are accepted so spans always carry a db.system.
func OpenDB(driverName, dsn string) (*sql.DB, error) {
	system, ok := dbSystems[driverName]
	if !ok {
		return nil, fmt.Errorf("open db: unsupported driver %q", driverName)
	}
	return otelsql.Open(driverName, dsn,
		otelsql.WithAttributes(system),
		otelsql.WithSpanOptions(otelsql.SpanOptions{OmitConnResetSession: true}),
	)
}
