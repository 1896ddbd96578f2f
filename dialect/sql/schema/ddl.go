package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blockscms/blocks/dialect"
	"github.com/blockscms/blocks/dialect/sql"
)

// DDL renders schema definitions as statements of one dialect.
//
// SQLite cannot add or drop foreign keys on existing tables, so its foreign
// keys are written into CREATE TABLE and the ALTER statements are skipped.
type DDL struct {
	dialect string
}

// NewDDL returns a DDL renderer for the given dialect.
func NewDDL(d string) *DDL {
	return &DDL{dialect: d}
}

// Dialect returns the dialect name.
func (d *DDL) Dialect() string { return d.dialect }

// InlineForeignKeys reports whether foreign keys are part of CREATE TABLE.
func (d *DDL) InlineForeignKeys() bool { return d.dialect == dialect.SQLite }

func (d *DDL) quote(ident string) string { return sql.Quote(d.dialect, ident) }

func (d *DDL) quoteList(cs []*Column) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = d.quote(c.Name)
	}
	return strings.Join(names, ", ")
}

// CreateTable returns the CREATE TABLE statement of t.
func (d *DDL) CreateTable(t *Table) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(d.quote(t.Name))
	b.WriteString(" (")
	var defs []string
	for _, c := range t.Columns {
		defs = append(defs, d.column(c))
	}
	if len(t.PrimaryKey) > 0 && !d.inlinePrimaryKey(t) {
		defs = append(defs, "PRIMARY KEY ("+d.quoteList(t.PrimaryKey)+")")
	}
	if d.InlineForeignKeys() {
		for _, fk := range t.ForeignKeys {
			defs = append(defs, "CONSTRAINT "+d.quote(fk.Symbol)+" "+d.foreignKey(fk))
		}
	}
	b.WriteString(strings.Join(defs, ", "))
	b.WriteString(")")
	if d.dialect == dialect.MySQL {
		b.WriteString(" ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
	}
	return b.String()
}

// CreateIndex returns the CREATE INDEX statement of an index on t.
func (d *DDL) CreateIndex(t *Table, idx *Index) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	b.WriteString(d.quote(idx.Name))
	b.WriteString(" ON ")
	b.WriteString(d.quote(t.Name))
	b.WriteString(" (")
	b.WriteString(d.quoteList(idx.Columns))
	b.WriteString(")")
	return b.String()
}

// AddForeignKey returns the statement adding fk to t. It reports false for
// dialects that declare foreign keys inline.
func (d *DDL) AddForeignKey(t *Table, fk *ForeignKey) (string, bool) {
	if d.InlineForeignKeys() {
		return "", false
	}
	return "ALTER TABLE " + d.quote(t.Name) + " ADD CONSTRAINT " + d.quote(fk.Symbol) + " " + d.foreignKey(fk), true
}

// DropForeignKey returns the statement dropping the foreign key symbol from
// table. It reports false for dialects that declare foreign keys inline.
func (d *DDL) DropForeignKey(table, symbol string) (string, bool) {
	switch d.dialect {
	case dialect.SQLite:
		return "", false
	case dialect.MySQL:
		return "ALTER TABLE " + d.quote(table) + " DROP FOREIGN KEY " + d.quote(symbol), true
	default:
		return "ALTER TABLE " + d.quote(table) + " DROP CONSTRAINT " + d.quote(symbol), true
	}
}

// DropTable returns the DROP TABLE statement of the named table.
func (d *DDL) DropTable(name string) string {
	return "DROP TABLE " + d.quote(name)
}

func (d *DDL) foreignKey(fk *ForeignKey) string {
	refs := fk.RefColumns
	if len(refs) == 0 {
		refs = fk.RefTable.PrimaryKey
	}
	onUpdate, onDelete := fk.OnUpdate, fk.OnDelete
	if onUpdate == "" {
		onUpdate = NoAction
	}
	if onDelete == "" {
		onDelete = NoAction
	}
	return fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s) ON UPDATE %s ON DELETE %s",
		d.quoteList(fk.Columns), d.quote(fk.RefTable.Name), d.quoteList(refs), onUpdate, onDelete)
}

// inlinePrimaryKey reports whether the single auto-increment primary key is
// declared on its column, as SQLite requires for AUTOINCREMENT.
func (d *DDL) inlinePrimaryKey(t *Table) bool {
	return d.dialect == dialect.SQLite && len(t.PrimaryKey) == 1 && t.PrimaryKey[0].Increment
}

func (d *DDL) column(c *Column) string {
	var b strings.Builder
	b.WriteString(d.quote(c.Name))
	b.WriteByte(' ')
	if c.Increment {
		switch d.dialect {
		case dialect.SQLite:
			b.WriteString("integer NOT NULL PRIMARY KEY AUTOINCREMENT")
			return b.String()
		case dialect.Postgres:
			if c.Type == BigInt {
				b.WriteString("bigserial NOT NULL")
			} else {
				b.WriteString("serial NOT NULL")
			}
			return b.String()
		}
	}
	b.WriteString(d.columnType(c))
	if c.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(literal(c.Default))
	}
	if c.Increment {
		b.WriteString(" AUTO_INCREMENT")
	}
	if c.Type == Enum && d.dialect != dialect.MySQL {
		quoted := make([]string, len(c.Enums))
		for i, e := range c.Enums {
			quoted[i] = literal(e)
		}
		fmt.Fprintf(&b, " CHECK (%s IN (%s))", d.quote(c.Name), strings.Join(quoted, ", "))
	}
	return b.String()
}

func (d *DDL) columnType(c *Column) string {
	sized := func(name string) string {
		if c.Size > 0 {
			return name + "(" + strconv.Itoa(c.Size) + ")"
		}
		return name
	}
	switch d.dialect {
	case dialect.MySQL:
		var t string
		switch c.Type {
		case TinyInt, SmallInt, MediumInt, Int, BigInt:
			t = sized(string(c.Type))
		case Float:
			t = "float"
		case Decimal:
			t = d.decimal(c)
		case Char, Varchar:
			t = sized(string(c.Type))
		case Enum:
			quoted := make([]string, len(c.Enums))
			for i, e := range c.Enums {
				quoted[i] = literal(e)
			}
			t = "enum(" + strings.Join(quoted, ",") + ")"
		default:
			t = string(c.Type)
		}
		if c.Unsigned && isNumeric(c.Type) {
			t += " unsigned"
		}
		return t
	case dialect.Postgres:
		switch c.Type {
		case TinyInt, SmallInt:
			return "smallint"
		case MediumInt, Int:
			return "integer"
		case BigInt:
			return "bigint"
		case Float:
			return "real"
		case Decimal:
			return strings.Replace(d.decimal(c), "decimal", "numeric", 1)
		case Char, Varchar:
			return sized(string(c.Type))
		case Enum:
			return "varchar(" + strconv.Itoa(enumSize(c)) + ")"
		case DateTime:
			return "timestamp"
		default:
			return "text"
		}
	default:
		switch c.Type {
		case TinyInt, SmallInt, MediumInt, Int, BigInt:
			return "integer"
		case Float:
			return "real"
		case Decimal:
			return d.decimal(c)
		case Char, Varchar:
			return sized(string(c.Type))
		case Enum:
			return "varchar(" + strconv.Itoa(enumSize(c)) + ")"
		case DateTime:
			return "datetime"
		default:
			return "text"
		}
	}
}

func (d *DDL) decimal(c *Column) string {
	precision := c.Size
	if precision == 0 {
		precision = 10
	}
	return fmt.Sprintf("decimal(%d,2)", precision)
}

func isNumeric(t Type) bool {
	switch t {
	case TinyInt, SmallInt, MediumInt, Int, BigInt, Float, Decimal:
		return true
	}
	return false
}

func enumSize(c *Column) int {
	n := 1
	for _, e := range c.Enums {
		if len(e) > n {
			n = len(e)
		}
	}
	return n
}

// literal renders a default value as an SQL literal.
func literal(v any) string {
	switch v := v.(type) {
	case bool:
		if v {
			return "1"
		}
		return "0"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case time.Time:
		return "'" + v.Format("2006-01-02 15:04:05") + "'"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%v", v)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
	}
}
