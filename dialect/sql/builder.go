package sql

import (
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/blockscms/blocks/dialect"
)

// Builder is the low-level SQL string builder. It quotes identifiers and
// writes placeholders according to its dialect, collecting the arguments
// in the order they appear in the statement.
type Builder struct {
	sb      strings.Builder
	args    []any
	dialect string
}

// Quote quotes a single identifier for the given dialect.
func Quote(d, ident string) string {
	if d == dialect.Postgres {
		return pq.QuoteIdentifier(ident)
	}
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// Ident writes a quoted identifier. Dotted identifiers ("j.name") are quoted
// per part and a "*" part is written as is.
func (b *Builder) Ident(s string) *Builder {
	for i, part := range strings.Split(s, ".") {
		if i > 0 {
			b.sb.WriteByte('.')
		}
		if part == "*" {
			b.sb.WriteByte('*')
			continue
		}
		b.sb.WriteString(Quote(b.dialect, part))
	}
	return b
}

// IdentComma writes a comma-separated list of quoted identifiers.
func (b *Builder) IdentComma(idents ...string) *Builder {
	for i, s := range idents {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.Ident(s)
	}
	return b
}

// Arg writes a placeholder for v and records it as an argument.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		b.sb.WriteString("$" + strconv.Itoa(len(b.args)))
	} else {
		b.sb.WriteByte('?')
	}
	return b
}

// WriteString writes a raw SQL fragment.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// String returns the statement built so far.
func (b *Builder) String() string { return b.sb.String() }

// Args returns the collected arguments.
func (b *Builder) Args() []any { return b.args }

// Predicate writes a boolean condition into a builder.
type Predicate func(*Builder)

// EQ returns a "col = v" predicate.
func EQ(col string, v any) Predicate {
	return func(b *Builder) { b.Ident(col).WriteString(" = ").Arg(v) }
}

// NEQ returns a "col <> v" predicate.
func NEQ(col string, v any) Predicate {
	return func(b *Builder) { b.Ident(col).WriteString(" <> ").Arg(v) }
}

// In returns a "col IN (vs...)" predicate. An empty value list yields
// a predicate that never matches.
func In(col string, vs ...any) Predicate {
	return func(b *Builder) {
		if len(vs) == 0 {
			b.WriteString("1 = 0")
			return
		}
		b.Ident(col).WriteString(" IN (")
		for i, v := range vs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Arg(v)
		}
		b.WriteString(")")
	}
}

// IsNull returns a "col IS NULL" predicate.
func IsNull(col string) Predicate {
	return func(b *Builder) { b.Ident(col).WriteString(" IS NULL") }
}

// And joins the predicates with AND.
func And(ps ...Predicate) Predicate {
	return join(" AND ", ps)
}

// Or joins the predicates with OR.
func Or(ps ...Predicate) Predicate {
	return join(" OR ", ps)
}

func join(op string, ps []Predicate) Predicate {
	return func(b *Builder) {
		if len(ps) == 1 {
			ps[0](b)
			return
		}
		b.WriteString("(")
		for i, p := range ps {
			if i > 0 {
				b.WriteString(op)
			}
			p(b)
		}
		b.WriteString(")")
	}
}

// DialectBuilder prefixes all statement builders with a dialect.
type DialectBuilder struct {
	dialect string
}

// Dialect creates a new DialectBuilder with the given dialect name.
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect: name}
}

// Quote quotes ident for the builder's dialect.
func (d *DialectBuilder) Quote(ident string) string {
	return Quote(d.dialect, ident)
}

// Select starts a SELECT statement.
func (d *DialectBuilder) Select(columns ...string) *Selector {
	return &Selector{dialect: d.dialect, columns: columns}
}

// Insert starts an INSERT statement.
func (d *DialectBuilder) Insert(table string) *InsertBuilder {
	return &InsertBuilder{dialect: d.dialect, table: table}
}

// Update starts an UPDATE statement.
func (d *DialectBuilder) Update(table string) *UpdateBuilder {
	return &UpdateBuilder{dialect: d.dialect, table: table}
}

// Delete starts a DELETE statement.
func (d *DialectBuilder) Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{dialect: d.dialect, table: table}
}

type joinClause struct {
	table, as   string
	left, right string
}

// Selector is a builder for the SELECT statement.
type Selector struct {
	dialect string
	columns []string
	count   bool
	table   string
	as      string
	joins   []joinClause
	where   []Predicate
	order   []string
	limit   int
}

// Count selects COUNT(*) instead of the columns.
func (s *Selector) Count() *Selector {
	s.count = true
	return s
}

// From sets the source table and an optional alias.
func (s *Selector) From(table string, alias ...string) *Selector {
	s.table = table
	if len(alias) > 0 {
		s.as = alias[0]
	}
	return s
}

// Join adds an inner join on "left = right".
func (s *Selector) Join(table, alias, left, right string) *Selector {
	s.joins = append(s.joins, joinClause{table: table, as: alias, left: left, right: right})
	return s
}

// Where appends a predicate. Multiple predicates are AND-ed.
func (s *Selector) Where(p Predicate) *Selector {
	s.where = append(s.where, p)
	return s
}

// OrderBy appends an ascending order term.
func (s *Selector) OrderBy(col string) *Selector {
	s.order = append(s.order, col)
	return s
}

// OrderDesc appends a descending order term.
func (s *Selector) OrderDesc(col string) *Selector {
	s.order = append(s.order, col+" DESC")
	return s
}

// Limit sets the LIMIT clause. Zero means no limit.
func (s *Selector) Limit(n int) *Selector {
	s.limit = n
	return s
}

// Query returns the statement and its arguments.
func (s *Selector) Query() (string, []any) {
	b := &Builder{dialect: s.dialect}
	b.WriteString("SELECT ")
	switch {
	case s.count:
		b.WriteString("COUNT(*)")
	case len(s.columns) == 0:
		b.WriteString("*")
	default:
		b.IdentComma(s.columns...)
	}
	b.WriteString(" FROM ").Ident(s.table)
	if s.as != "" {
		b.WriteString(" AS ").Ident(s.as)
	}
	for _, j := range s.joins {
		b.WriteString(" JOIN ").Ident(j.table)
		if j.as != "" {
			b.WriteString(" AS ").Ident(j.as)
		}
		b.WriteString(" ON ").Ident(j.left).WriteString(" = ").Ident(j.right)
	}
	writeWhere(b, s.where)
	for i, o := range s.order {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		col, desc := strings.CutSuffix(o, " DESC")
		b.Ident(col)
		if desc {
			b.WriteString(" DESC")
		}
	}
	if s.limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(s.limit))
	}
	return b.String(), b.Args()
}

func writeWhere(b *Builder, ps []Predicate) {
	if len(ps) == 0 {
		return
	}
	b.WriteString(" WHERE ")
	And(ps...)(b)
}

// InsertBuilder is a builder for the INSERT statement. Calling Values more
// than once produces a single multi-row insert.
type InsertBuilder struct {
	dialect   string
	table     string
	columns   []string
	values    [][]any
	returning string
}

// Columns sets the inserted columns.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = columns
	return i
}

// Values appends a row of values.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.values = append(i.values, values)
	return i
}

// Returning sets the RETURNING column. It is only written for Postgres,
// where LastInsertId is not supported.
func (i *InsertBuilder) Returning(column string) *InsertBuilder {
	i.returning = column
	return i
}

// Query returns the statement and its arguments.
func (i *InsertBuilder) Query() (string, []any) {
	b := &Builder{dialect: i.dialect}
	b.WriteString("INSERT INTO ").Ident(i.table)
	if len(i.columns) == 0 {
		if i.dialect == dialect.MySQL {
			b.WriteString(" VALUES ()")
		} else {
			b.WriteString(" DEFAULT VALUES")
		}
	} else {
		b.WriteString(" (").IdentComma(i.columns...).WriteString(") VALUES ")
		for r, row := range i.values {
			if r > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(")
			for c, v := range row {
				if c > 0 {
					b.WriteString(", ")
				}
				b.Arg(v)
			}
			b.WriteString(")")
		}
	}
	if i.returning != "" && i.dialect == dialect.Postgres {
		b.WriteString(" RETURNING ").Ident(i.returning)
	}
	return b.String(), b.Args()
}

// UpdateBuilder is a builder for the UPDATE statement.
type UpdateBuilder struct {
	dialect string
	table   string
	columns []string
	values  []any
	where   []Predicate
}

// Set sets a column to a value.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, v)
	return u
}

// Where appends a predicate. Multiple predicates are AND-ed.
func (u *UpdateBuilder) Where(p Predicate) *UpdateBuilder {
	u.where = append(u.where, p)
	return u
}

// Empty reports whether no column is set.
func (u *UpdateBuilder) Empty() bool { return len(u.columns) == 0 }

// Query returns the statement and its arguments.
func (u *UpdateBuilder) Query() (string, []any) {
	b := &Builder{dialect: u.dialect}
	b.WriteString("UPDATE ").Ident(u.table).WriteString(" SET ")
	for i, c := range u.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(c).WriteString(" = ").Arg(u.values[i])
	}
	writeWhere(b, u.where)
	return b.String(), b.Args()
}

// DeleteBuilder is a builder for the DELETE statement.
type DeleteBuilder struct {
	dialect string
	table   string
	where   []Predicate
}

// Where appends a predicate. Multiple predicates are AND-ed.
func (d *DeleteBuilder) Where(p Predicate) *DeleteBuilder {
	d.where = append(d.where, p)
	return d
}

// Query returns the statement and its arguments.
func (d *DeleteBuilder) Query() (string, []any) {
	b := &Builder{dialect: d.dialect}
	b.WriteString("DELETE FROM ").Ident(d.table)
	writeWhere(b, d.where)
	return b.String(), b.Args()
}
