// Package dialect provides the database dialect abstraction used by blocks.
//
// This package defines the interfaces the model core requires of its
// persistence layer, allowing the schema generator, validators and record
// loaders to run against PostgreSQL, MySQL or SQLite.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
//	type Driver interface {
//	    ExecQuerier
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
// The Tx interface extends ExecQuerier with transaction methods:
//
//	type Tx interface {
//	    ExecQuerier
//	    Commit() error
//	    Rollback() error
//	}
//
// # Usage
//
//	import (
//	    "github.com/blockscms/blocks/dialect"
//	    "github.com/blockscms/blocks/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.SQLite, "file:cms.db?_pragma=foreign_keys(1)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver, statement builders and query statistics
//   - dialect/sql/schema: physical tables, DDL rendering and inspection
package dialect
