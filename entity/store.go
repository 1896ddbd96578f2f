package entity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/dialect"
	"github.com/blockscms/blocks/dialect/sql"
	"github.com/blockscms/blocks/schema/attribute"
	"github.com/blockscms/blocks/schema/mixin"
	"github.com/blockscms/blocks/validate"
)

// Default names of the models backing content and blocks.
const (
	DefaultContentModel = "Content"
	DefaultBlockModel   = "Block"
)

// DefaultRecentLimit is the limit of the recently created and recently
// updated queries.
const DefaultRecentLimit = 50

// Store loads and persists entities.
type Store struct {
	drv          dialect.Driver
	reg          *blocks.Registry
	valid        *validate.Validator
	installed    bool
	log          *slog.Logger
	now          func() time.Time
	contentModel string
	blockModel   string
}

// Option configures a Store.
type Option func(*Store)

// WithInstalled sets the installation flag. When false, New performs no
// database-dependent setup, the loaders return their empty values without
// querying and the persisting operations fail with blocks.ErrNotInstalled.
func WithInstalled(installed bool) Option {
	return func(s *Store) { s.installed = installed }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock sets the clock of the timestamp attributes.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithValidator sets the validator run by Save.
func WithValidator(v *validate.Validator) Option {
	return func(s *Store) { s.valid = v }
}

// WithContentModel sets the name of the model holding content versions.
func WithContentModel(name string) Option {
	return func(s *Store) { s.contentModel = name }
}

// WithBlockModel sets the name of the base model of blocktypes.
func WithBlockModel(name string) Option {
	return func(s *Store) { s.blockModel = name }
}

// NewStore returns a Store over drv. The registry resolves the models of
// content and blocks and the discriminators of polymorphic rows.
func NewStore(drv dialect.Driver, reg *blocks.Registry, opts ...Option) *Store {
	s := &Store{
		drv:          drv,
		reg:          reg,
		installed:    true,
		log:          slog.Default(),
		now:          time.Now,
		contentModel: DefaultContentModel,
		blockModel:   DefaultBlockModel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.valid == nil {
		s.valid = validate.New(drv)
	}
	return s
}

// Installed reports the installation flag of the store.
func (s *Store) Installed() bool { return s.installed }

// New returns a new entity of m. When installed, the declared attribute
// defaults are applied.
func (s *Store) New(m *blocks.Model) *Entity {
	e := newEntity(m)
	if !s.installed {
		return e
	}
	for _, a := range m.Attributes {
		if n := attribute.Normalize(a); n.HasDefault() {
			e.values[n.Name] = n.Default
		}
	}
	return e
}

// Populate instantiates a persisted entity from a raw row. See Populate.
func (s *Store) Populate(base *blocks.Model, row map[string]any) (*Entity, error) {
	return Populate(s.reg, base, row)
}

// Validate evaluates the validation rules of the entity's model.
func (s *Store) Validate(ctx context.Context, e *Entity) error {
	return s.valid.Validate(ctx, e)
}

// FindByID returns the entity of m with the given primary key, resolved to
// its concrete model.
func (s *Store) FindByID(ctx context.Context, m *blocks.Model, id int) (*Entity, error) {
	if !s.installed {
		return nil, blocks.ErrNotInstalled
	}
	query, args := s.builder().Select().From(m.Table).Where(sql.EQ("id", id)).Limit(1).Query()
	rows, err := sql.QueryMaps(ctx, s.drv, query, args)
	if err != nil {
		return nil, blocks.NewQueryError(m.Name, "find", err)
	}
	if len(rows) == 0 {
		return nil, blocks.NewNotFoundErrorWithID(m.Name, id)
	}
	return s.Populate(m, rows[0])
}

// Search returns the entities of the filter's model whose attributes equal
// every non-empty attribute value of filter, ordered by primary key. Nil,
// empty strings and false are empty, so a filter from New does not narrow
// the search by its boolean defaults.
func (s *Store) Search(ctx context.Context, filter *Entity) ([]*Entity, error) {
	m := filter.model
	if !s.installed {
		return nil, blocks.ErrNotInstalled
	}
	sel := s.builder().Select().From(m.Table).OrderBy("id")
	for _, name := range m.AttributeNames() {
		v := filter.values[name]
		if blankFilter(v) {
			continue
		}
		sel.Where(sql.EQ(name, storable(v)))
	}
	return s.query(ctx, m, "search", sel)
}

// RecentlyCreated returns up to limit entities of m, most recently created
// first. A limit of 0 means DefaultRecentLimit.
func (s *Store) RecentlyCreated(ctx context.Context, m *blocks.Model, limit int) ([]*Entity, error) {
	return s.recent(ctx, m, mixin.DateCreated, limit)
}

// RecentlyUpdated returns up to limit entities of m, most recently modified
// first. A limit of 0 means DefaultRecentLimit.
func (s *Store) RecentlyUpdated(ctx context.Context, m *blocks.Model, limit int) ([]*Entity, error) {
	return s.recent(ctx, m, mixin.DateModified, limit)
}

func (s *Store) recent(ctx context.Context, m *blocks.Model, column string, limit int) ([]*Entity, error) {
	if !s.installed {
		return nil, blocks.ErrNotInstalled
	}
	if _, ok := m.Attribute(column); !ok {
		return nil, fmt.Errorf("entity: model %q has no %s attribute", m.Name, column)
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	sel := s.builder().Select().From(m.Table).OrderDesc(column).OrderDesc("id").Limit(limit)
	return s.query(ctx, m, "recent", sel)
}

func (s *Store) query(ctx context.Context, m *blocks.Model, op string, sel *sql.Selector) ([]*Entity, error) {
	query, args := sel.Query()
	rows, err := sql.QueryMaps(ctx, s.drv, query, args)
	if err != nil {
		return nil, blocks.NewQueryError(m.Name, op, err)
	}
	es := make([]*Entity, 0, len(rows))
	for _, row := range rows {
		e, err := s.Populate(m, row)
		if err != nil {
			return nil, err
		}
		es = append(es, e)
	}
	return es, nil
}

// SaveOption configures a Save.
type SaveOption func(*saveOptions)

type saveOptions struct {
	skipValidation bool
}

// SkipValidation saves without evaluating the validation rules.
func SkipValidation() SaveOption {
	return func(o *saveOptions) { o.skipValidation = true }
}

// Save validates the entity and then inserts it if it is new or updates it
// otherwise. Nothing is written when validation fails. The date_created and
// date_modified attributes, when declared, are set on insert and
// date_modified on update.
func (s *Store) Save(ctx context.Context, e *Entity, opts ...SaveOption) error {
	if !s.installed {
		return blocks.ErrNotInstalled
	}
	var o saveOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.skipValidation {
		if err := s.valid.Validate(ctx, e); err != nil {
			return err
		}
	}
	m := e.model
	now := s.now()
	if _, ok := m.Attribute(mixin.DateModified); ok {
		e.values[mixin.DateModified] = now
	}
	if e.persisted {
		return s.update(ctx, e)
	}
	if _, ok := m.Attribute(mixin.DateCreated); ok && e.values[mixin.DateCreated] == nil {
		e.values[mixin.DateCreated] = now
	}
	return s.insert(ctx, e)
}

func (s *Store) insert(ctx context.Context, e *Entity) error {
	m := e.model
	ins := s.builder().Insert(m.Table)
	var cols []string
	var vals []any
	for _, c := range columns(m) {
		if v, ok := e.values[c]; ok {
			cols = append(cols, c)
			vals = append(vals, storable(v))
		}
	}
	if len(cols) > 0 {
		ins.Columns(cols...).Values(vals...)
	}
	id, err := s.insertID(ctx, s.drv, ins)
	if err != nil {
		return mutationError(m, "create", err)
	}
	e.id, e.persisted = id, true
	s.log.DebugContext(ctx, "entity created", "model", m.Name, "id", id)
	return nil
}

func (s *Store) update(ctx context.Context, e *Entity) error {
	m := e.model
	upd := s.builder().Update(m.Table).Where(sql.EQ("id", e.id))
	for _, c := range columns(m) {
		if v, ok := e.values[c]; ok {
			upd.Set(c, storable(v))
		}
	}
	if upd.Empty() {
		return nil
	}
	query, args := upd.Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return mutationError(m, "update", err)
	}
	s.log.DebugContext(ctx, "entity updated", "model", m.Name, "id", e.id)
	return nil
}

// insertID executes the insert and returns the generated primary key.
func (s *Store) insertID(ctx context.Context, eq dialect.ExecQuerier, ins *sql.InsertBuilder) (int, error) {
	if s.drv.Dialect() == dialect.Postgres {
		query, args := ins.Returning("id").Query()
		return sql.QueryInt(ctx, eq, query, args)
	}
	query, args := ins.Query()
	var res sql.Result
	if err := eq.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// withTx runs fn in a transaction. The transaction is rolled back if fn
// fails or panics and committed otherwise.
func (s *Store) withTx(ctx context.Context, fn func(dialect.Tx) error) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return &blocks.RollbackError{Err: fmt.Errorf("%w: rolling back transaction: %v", err, rerr)}
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Store) builder() *sql.DialectBuilder {
	return sql.Dialect(s.drv.Dialect())
}

func mutationError(m *blocks.Model, op string, err error) error {
	if sql.IsUniqueConstraintError(err) || sql.IsForeignKeyConstraintError(err) {
		err = blocks.NewConstraintError(err.Error(), err)
	}
	return blocks.NewMutationError(m.Name, op, err)
}

// blankFilter reports whether a filter value is left out of a search.
func blankFilter(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	}
	return false
}

// storable converts booleans, which are stored as tinyint, to integers.
func storable(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}
