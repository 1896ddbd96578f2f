// Package schema holds the physical table model of Blocks and renders it as
// DDL for the supported dialects.
package schema

import (
	"fmt"
	"strings"
)

// Type is a column storage type.
type Type string

// Column storage types.
const (
	TinyInt    Type = "tinyint"
	SmallInt   Type = "smallint"
	MediumInt  Type = "mediumint"
	Int        Type = "int"
	BigInt     Type = "bigint"
	Float      Type = "float"
	Decimal    Type = "decimal"
	Char       Type = "char"
	Varchar    Type = "varchar"
	Text       Type = "text"
	MediumText Type = "mediumtext"
	Enum       Type = "enum"
	DateTime   Type = "datetime"
)

// ReferenceOption for constraint actions.
type ReferenceOption string

// Reference options.
const (
	NoAction ReferenceOption = "NO ACTION"
	Restrict ReferenceOption = "RESTRICT"
	Cascade  ReferenceOption = "CASCADE"
	SetNull  ReferenceOption = "SET NULL"
)

// Column schema definition for SQL dialects.
type Column struct {
	Name      string
	Type      Type
	Size      int // varchar, char or display width
	Unsigned  bool
	Nullable  bool
	Default   any
	Enums     []string
	Increment bool
	Unique    bool // informational, uniqueness is enforced by an index
}

// Index definition for table index.
type Index struct {
	Name    string
	Unique  bool
	Columns []*Column
}

// ColumnNames returns the names of the indexed columns.
func (i *Index) ColumnNames() []string {
	names := make([]string, len(i.Columns))
	for j, c := range i.Columns {
		names[j] = c.Name
	}
	return names
}

// ForeignKey definition for creation.
type ForeignKey struct {
	Symbol     string
	Columns    []*Column
	RefTable   *Table
	RefColumns []*Column
	OnUpdate   ReferenceOption
	OnDelete   ReferenceOption
}

// Table schema definition for SQL dialects.
type Table struct {
	Name        string
	Columns     []*Column
	columns     map[string]*Column
	Indexes     []*Index
	PrimaryKey  []*Column
	ForeignKeys []*ForeignKey
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{
		Name:    name,
		columns: make(map[string]*Column),
	}
}

// AddPrimary adds a new primary key to the table.
func (t *Table) AddPrimary(c *Column) *Table {
	t.AddColumn(c)
	t.PrimaryKey = append(t.PrimaryKey, c)
	return t
}

// AddColumn adds a new column to the table.
func (t *Table) AddColumn(c *Column) *Table {
	if t.columns == nil {
		t.columns = make(map[string]*Column)
	}
	t.columns[c.Name] = c
	t.Columns = append(t.Columns, c)
	return t
}

// AddIndex creates and adds a new index to the table from the given column
// names. Unknown columns are kept by name so that validation can report them.
func (t *Table) AddIndex(name string, unique bool, columns []string) *Table {
	idx := &Index{Name: name, Unique: unique}
	for _, name := range columns {
		c, ok := t.Column(name)
		if !ok {
			c = &Column{Name: name}
		}
		idx.Columns = append(idx.Columns, c)
	}
	t.Indexes = append(t.Indexes, idx)
	return t
}

// AddForeignKey adds a foreign key to the table.
func (t *Table) AddForeignKey(fk *ForeignKey) *Table {
	t.ForeignKeys = append(t.ForeignKeys, fk)
	return t
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	if c, ok := t.columns[name]; ok {
		return c, true
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Index returns the index with the given name.
func (t *Table) Index(name string) (*Index, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return nil, false
}

// String describes the table in a compact, dialect independent form. It is
// used by the CLI to print migration plans.
func (t *Table) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table %s\n", t.Name)
	for _, c := range t.Columns {
		fmt.Fprintf(&b, "  column %s %s", c.Name, c.Type)
		if c.Size > 0 {
			fmt.Fprintf(&b, "(%d)", c.Size)
		}
		if len(c.Enums) > 0 {
			fmt.Fprintf(&b, "(%s)", strings.Join(c.Enums, ","))
		}
		if c.Unsigned {
			b.WriteString(" unsigned")
		}
		if !c.Nullable {
			b.WriteString(" not null")
		}
		if c.Default != nil {
			fmt.Fprintf(&b, " default %v", c.Default)
		}
		if c.Increment {
			b.WriteString(" auto_increment")
		}
		b.WriteByte('\n')
	}
	for _, idx := range t.Indexes {
		kind := "index"
		if idx.Unique {
			kind = "unique index"
		}
		fmt.Fprintf(&b, "  %s %s (%s)\n", kind, idx.Name, strings.Join(idx.ColumnNames(), ", "))
	}
	for _, fk := range t.ForeignKeys {
		fmt.Fprintf(&b, "  foreign key %s (%s) -> %s\n", fk.Symbol, columnNames(fk.Columns), fk.RefTable.Name)
	}
	return b.String()
}

func columnNames(cs []*Column) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
