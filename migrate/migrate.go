// Package migrate creates and drops the tables of registered models.
//
// Plan derives the physical tables of a model without touching the database.
// A Migrator executes plans: Install creates every table before adding any
// foreign key, and Uninstall drops every foreign key before dropping any
// table. Drop operations skip objects that do not exist.
package migrate

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"
	"slices"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/dialect"
	"github.com/blockscms/blocks/dialect/sql"
	"github.com/blockscms/blocks/dialect/sql/schema"
)

// Migrator runs the DDL of registered models against a driver.
type Migrator struct {
	drv    dialect.ExecQuerier
	ddl    *schema.DDL
	insp   schema.Inspector
	reg    *blocks.Registry
	prefix string
	log    *slog.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithPrefix sets the table prefix used in index and foreign key names.
func WithPrefix(prefix string) Option {
	return func(m *Migrator) {
		m.prefix = prefix
	}
}

// WithLogger sets the logger the executed statements are written to at
// debug level.
func WithLogger(l *slog.Logger) Option {
	return func(m *Migrator) {
		m.log = l
	}
}

// WithInspector sets the schema inspector used by the existence checks.
func WithInspector(i schema.Inspector) Option {
	return func(m *Migrator) {
		m.insp = i
	}
}

// Driver is the driver a Migrator executes on.
type Driver interface {
	dialect.ExecQuerier
	Dialect() string
}

// New returns a Migrator for the models of reg. Drivers that expose their
// *sql.DB get an Atlas inspector unless WithInspector is given.
func New(drv Driver, reg *blocks.Registry, opts ...Option) *Migrator {
	m := &Migrator{
		drv: drv,
		ddl: schema.NewDDL(drv.Dialect()),
		reg: reg,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.insp == nil {
		if db, ok := drv.(interface{ DB() *stdsql.DB }); ok {
			m.insp = schema.NewInspector(drv.Dialect(), db.DB())
		}
	}
	return m
}

// Plan derives the tables of a model with the migrator's prefix.
func (m *Migrator) Plan(model *blocks.Model) (*Tables, error) {
	return Plan(m.reg, model, m.prefix)
}

// CreateTable creates the table of a model with its indexes, and the join
// and settings tables the model carries. Foreign keys are added by
// AddForeignKeys, except on dialects that declare them inline.
func (m *Migrator) CreateTable(ctx context.Context, model *blocks.Model) error {
	tables, err := m.Plan(model)
	if err != nil {
		return err
	}
	for _, t := range tables.All() {
		if err := m.createTable(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// DropTable drops the join and settings tables of a model and then its
// table. Tables that do not exist are skipped.
func (m *Migrator) DropTable(ctx context.Context, model *blocks.Model) error {
	tables, err := m.Plan(model)
	if err != nil {
		return err
	}
	all := tables.All()
	for i := len(all) - 1; i >= 0; i-- {
		if err := m.dropTable(ctx, all[i].Name); err != nil {
			return err
		}
	}
	return nil
}

// AddForeignKeys adds the foreign keys of the model's tables.
func (m *Migrator) AddForeignKeys(ctx context.Context, model *blocks.Model) error {
	tables, err := m.Plan(model)
	if err != nil {
		return err
	}
	for _, t := range tables.All() {
		if err := m.addForeignKeys(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// DropForeignKeys drops the foreign keys of the model's tables. Missing
// foreign keys are skipped.
func (m *Migrator) DropForeignKeys(ctx context.Context, model *blocks.Model) error {
	tables, err := m.Plan(model)
	if err != nil {
		return err
	}
	for _, t := range tables.All() {
		if err := m.dropForeignKeys(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// CreateContentJoinTable creates the content join table of a model.
func (m *Migrator) CreateContentJoinTable(ctx context.Context, model *blocks.Model) error {
	t, err := m.aux(model, "content", func(t *Tables) *schema.Table { return t.Content })
	if err != nil {
		return err
	}
	return m.createTable(ctx, t)
}

// DropContentJoinTable drops the content join table of a model if it exists.
func (m *Migrator) DropContentJoinTable(ctx context.Context, model *blocks.Model) error {
	return m.dropTable(ctx, model.ContentJoinTable)
}

// CreateBlocksJoinTable creates the blocks join table of a model.
func (m *Migrator) CreateBlocksJoinTable(ctx context.Context, model *blocks.Model) error {
	t, err := m.aux(model, "blocks", func(t *Tables) *schema.Table { return t.Blocks })
	if err != nil {
		return err
	}
	return m.createTable(ctx, t)
}

// DropBlocksJoinTable drops the blocks join table of a model if it exists.
func (m *Migrator) DropBlocksJoinTable(ctx context.Context, model *blocks.Model) error {
	return m.dropTable(ctx, model.BlocksJoinTable)
}

// CreateSettingsTable creates the settings table of a model.
func (m *Migrator) CreateSettingsTable(ctx context.Context, model *blocks.Model) error {
	t, err := m.aux(model, "settings", func(t *Tables) *schema.Table { return t.Settings })
	if err != nil {
		return err
	}
	return m.createTable(ctx, t)
}

// DropSettingsTable drops the settings table of a model if it exists.
func (m *Migrator) DropSettingsTable(ctx context.Context, model *blocks.Model) error {
	return m.dropTable(ctx, model.SettingsTable)
}

// Install creates the tables of the given models, or of all registered
// models if none are given, and then adds their foreign keys. The planned
// tables are validated together with the rest of the registered schema
// before any statement is executed.
func (m *Migrator) Install(ctx context.Context, models ...*blocks.Model) error {
	if len(models) == 0 {
		models = m.reg.Models()
	}
	models = owners(models)
	if err := m.check(ctx, models); err != nil {
		return err
	}
	for _, model := range models {
		if err := m.CreateTable(ctx, model); err != nil {
			return err
		}
	}
	for _, model := range models {
		if err := m.AddForeignKeys(ctx, model); err != nil {
			return err
		}
	}
	m.log.InfoContext(ctx, "blocks installed", "models", len(models))
	return nil
}

// check validates the tables of models and of every registered model as
// one schema, so foreign keys must point at planned tables.
func (m *Migrator) check(ctx context.Context, models []*blocks.Model) error {
	var tables []*schema.Table
	for _, model := range owners(append(m.reg.Models(), models...)) {
		plan, err := m.Plan(model)
		if err != nil {
			return err
		}
		tables = append(tables, plan.All()...)
	}
	result := schema.ValidateSchema(tables)
	for _, w := range result.Warnings {
		m.log.WarnContext(ctx, "schema warning", "table", w.Table, "column", w.Column, "problem", w.Message)
	}
	if err := result.Err(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Uninstall drops the foreign keys of the given models, or of all
// registered models if none are given, and then drops their tables in
// reverse order. A model that fails does not stop the others; the failures
// are combined with blocks.NewAggregateError.
func (m *Migrator) Uninstall(ctx context.Context, models ...*blocks.Model) error {
	if len(models) == 0 {
		models = m.reg.Models()
	}
	reversed := owners(models)
	slices.Reverse(reversed)
	var errs []error
	for _, model := range reversed {
		if err := m.DropForeignKeys(ctx, model); err != nil {
			errs = append(errs, fmt.Errorf("migrate: drop foreign keys of %s: %w", model.Name, err))
		}
	}
	for _, model := range reversed {
		if err := m.DropTable(ctx, model); err != nil {
			errs = append(errs, fmt.Errorf("migrate: drop tables of %s: %w", model.Name, err))
		}
	}
	if err := blocks.NewAggregateError(errs...); err != nil {
		return err
	}
	m.log.InfoContext(ctx, "blocks uninstalled", "models", len(reversed))
	return nil
}

// Probe reports whether the tables of all registered models exist.
func (m *Migrator) Probe(ctx context.Context) (bool, error) {
	insp, err := m.inspector()
	if err != nil {
		return false, err
	}
	for _, model := range m.reg.Models() {
		ok, err := insp.TableExists(ctx, model.Table)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// owners returns the models owning their main table. Subtypes stored in the
// table of an earlier model, such as blocktypes, are skipped.
func owners(models []*blocks.Model) []*blocks.Model {
	seen := make(map[string]bool)
	var out []*blocks.Model
	for _, model := range models {
		if seen[model.Table] {
			continue
		}
		seen[model.Table] = true
		out = append(out, model)
	}
	return out
}

func (m *Migrator) aux(model *blocks.Model, kind string, pick func(*Tables) *schema.Table) (*schema.Table, error) {
	tables, err := m.Plan(model)
	if err != nil {
		return nil, err
	}
	t := pick(tables)
	if t == nil {
		return nil, fmt.Errorf("migrate: model %q has no %s table", model.Name, kind)
	}
	return t, nil
}

func (m *Migrator) createTable(ctx context.Context, t *schema.Table) error {
	if err := schema.ValidateTable(t).Err(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := m.exec(ctx, m.ddl.CreateTable(t)); err != nil {
		return conflict("table", t.Name, err)
	}
	for _, idx := range t.Indexes {
		if err := m.exec(ctx, m.ddl.CreateIndex(t, idx)); err != nil {
			return conflict("index", idx.Name, err)
		}
	}
	return nil
}

func (m *Migrator) dropTable(ctx context.Context, name string) error {
	insp, err := m.inspector()
	if err != nil {
		return err
	}
	exists, err := insp.TableExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		m.log.DebugContext(ctx, "skipping missing table", "table", name)
		return nil
	}
	return m.exec(ctx, m.ddl.DropTable(name))
}

func (m *Migrator) addForeignKeys(ctx context.Context, t *schema.Table) error {
	for _, fk := range t.ForeignKeys {
		q, ok := m.ddl.AddForeignKey(t, fk)
		if !ok {
			m.log.DebugContext(ctx, "foreign key declared inline", "table", t.Name, "symbol", fk.Symbol)
			continue
		}
		if err := m.exec(ctx, q); err != nil {
			return conflict("foreign key", fk.Symbol, err)
		}
	}
	return nil
}

func (m *Migrator) dropForeignKeys(ctx context.Context, t *schema.Table) error {
	if m.ddl.InlineForeignKeys() {
		return nil
	}
	insp, err := m.inspector()
	if err != nil {
		return err
	}
	for _, fk := range t.ForeignKeys {
		exists, err := insp.ForeignKeyExists(ctx, t.Name, fk.Symbol)
		if err != nil {
			return err
		}
		if !exists {
			m.log.DebugContext(ctx, "skipping missing foreign key", "table", t.Name, "symbol", fk.Symbol)
			continue
		}
		q, _ := m.ddl.DropForeignKey(t.Name, fk.Symbol)
		if err := m.exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) inspector() (schema.Inspector, error) {
	if m.insp == nil {
		return nil, fmt.Errorf("migrate: no schema inspector for dialect %q", m.ddl.Dialect())
	}
	return m.insp, nil
}

func (m *Migrator) exec(ctx context.Context, query string) error {
	m.log.DebugContext(ctx, "executing ddl", "query", query)
	return m.drv.Exec(ctx, query, []any{}, nil)
}

// conflict converts already-exists driver errors to SchemaConflictError.
func conflict(object, name string, err error) error {
	if sql.IsAlreadyExistsError(err) {
		return blocks.NewSchemaConflictError(object, name, err)
	}
	return err
}
