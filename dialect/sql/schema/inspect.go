package schema

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"sync"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/blockscms/blocks/dialect"
)

// Inspector answers existence questions about the live database schema.
type Inspector interface {
	TableExists(ctx context.Context, name string) (bool, error)
	ForeignKeyExists(ctx context.Context, table, symbol string) (bool, error)
}

// AtlasInspector implements Inspector on top of the Atlas schema inspectors.
// The Atlas driver is opened on first use.
type AtlasInspector struct {
	dialect string
	db      *stdsql.DB

	once sync.Once
	drv  migrate.Driver
	err  error
}

// NewInspector returns an Inspector for the given dialect and database.
func NewInspector(d string, db *stdsql.DB) *AtlasInspector {
	return &AtlasInspector{dialect: d, db: db}
}

func (i *AtlasInspector) driver() (migrate.Driver, error) {
	i.once.Do(func() {
		switch i.dialect {
		case dialect.MySQL:
			i.drv, i.err = mysql.Open(i.db)
		case dialect.Postgres:
			i.drv, i.err = postgres.Open(i.db)
		case dialect.SQLite:
			i.drv, i.err = sqlite.Open(i.db)
		default:
			i.err = fmt.Errorf("schema: unsupported dialect %q", i.dialect)
		}
	})
	return i.drv, i.err
}

// table inspects a single table. It returns nil if the table does not exist.
func (i *AtlasInspector) table(ctx context.Context, name string) (*schema.Table, error) {
	drv, err := i.driver()
	if err != nil {
		return nil, err
	}
	s, err := drv.InspectSchema(ctx, "", &schema.InspectOptions{Tables: []string{name}})
	if err != nil {
		if schema.IsNotExistError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("schema: inspect table %q: %w", name, err)
	}
	t, ok := s.Table(name)
	if !ok {
		return nil, nil
	}
	return t, nil
}

// TableExists reports whether the named table exists.
func (i *AtlasInspector) TableExists(ctx context.Context, name string) (bool, error) {
	t, err := i.table(ctx, name)
	return t != nil, err
}

// ForeignKeyExists reports whether table has a foreign key with the given
// constraint name. It is false if the table does not exist.
func (i *AtlasInspector) ForeignKeyExists(ctx context.Context, table, symbol string) (bool, error) {
	t, err := i.table(ctx, table)
	if err != nil || t == nil {
		return false, err
	}
	_, ok := t.ForeignKey(symbol)
	return ok, nil
}
