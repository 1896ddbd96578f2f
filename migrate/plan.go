package migrate

import (
	"fmt"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/dialect/sql/schema"
	"github.com/blockscms/blocks/internal/naming"
	"github.com/blockscms/blocks/schema/attribute"
)

// Tables of the shared content and block records referenced by the join tables.
const (
	ContentTable = "content"
	BlocksTable  = "blocks"
)

// Tables holds the physical tables of one model. Content, Blocks and
// Settings are nil unless the model carries the matching capability.
type Tables struct {
	Model    *blocks.Model
	Main     *schema.Table
	Content  *schema.Table
	Blocks   *schema.Table
	Settings *schema.Table
}

// All returns the non-nil tables, the main table first.
func (t *Tables) All() []*schema.Table {
	all := []*schema.Table{t.Main}
	for _, aux := range []*schema.Table{t.Content, t.Blocks, t.Settings} {
		if aux != nil {
			all = append(all, aux)
		}
	}
	return all
}

// Plan derives the physical tables of a model. It does not touch the
// database. The registry resolves the targets of belongs-to relations.
func Plan(reg *blocks.Registry, m *blocks.Model, prefix string) (*Tables, error) {
	main, err := mainTable(reg, m, prefix)
	if err != nil {
		return nil, fmt.Errorf("migrate: plan %q: %w", m.Name, err)
	}
	tables := &Tables{Model: m, Main: main}
	if m.HasContent {
		tables.Content = contentJoinTable(m, main, prefix)
	}
	if m.HasBlocks {
		tables.Blocks = blocksJoinTable(m, main, prefix)
	}
	if m.HasSettings {
		tables.Settings = settingsTable(m, main, prefix)
	}
	return tables, nil
}

func mainTable(reg *blocks.Registry, m *blocks.Model, prefix string) (*schema.Table, error) {
	t := schema.NewTable(m.Table).AddPrimary(idColumn())
	var indexes []indexSpec
	for _, idx := range m.Indexes {
		indexes = append(indexes, indexSpec{idx.Columns, idx.Unique})
	}
	symbols := make(map[string]bool)
	for _, j := range m.BelongsTo() {
		c := &schema.Column{Name: j.Key, Type: schema.Int, Nullable: !j.Required}
		t.AddColumn(c)
		if j.Unique {
			indexes = append(indexes, indexSpec{[]string{j.Key}, true})
		}
		target, err := targetTable(reg, m, j.Target)
		if err != nil {
			return nil, fmt.Errorf("relation %q: %w", j.Name, err)
		}
		symbol := naming.ForeignKeyConstraint(prefix, t.Name, target)
		if symbols[symbol] {
			symbol = naming.ForeignKeyConstraint(prefix, t.Name, j.Key)
		}
		symbols[symbol] = true
		t.AddForeignKey(&schema.ForeignKey{
			Symbol:   symbol,
			Columns:  []*schema.Column{c},
			RefTable: refTable(target),
			OnUpdate: schema.NoAction,
			OnDelete: schema.NoAction,
		})
	}
	for _, a := range m.Attributes {
		c := Column(a)
		t.AddColumn(c)
		if a.Unique || a.Indexed {
			indexes = append(indexes, indexSpec{[]string{a.Name}, a.Unique})
		}
	}
	seen := make(map[string]bool)
	for _, idx := range indexes {
		name := naming.Index(prefix, t.Name, idx.columns, idx.unique)
		if seen[name] {
			continue
		}
		seen[name] = true
		t.AddIndex(name, idx.unique, idx.columns)
	}
	return t, nil
}

type indexSpec struct {
	columns []string
	unique  bool
}

func targetTable(reg *blocks.Registry, m *blocks.Model, target string) (string, error) {
	if target == m.Name {
		return m.Table, nil
	}
	if reg == nil {
		return "", fmt.Errorf("no registry to resolve %q", target)
	}
	tm, err := reg.Lookup(target)
	if err != nil {
		return "", err
	}
	return tm.Table, nil
}

func contentJoinTable(m *blocks.Model, main *schema.Table, prefix string) *schema.Table {
	t := auxTable(m.ContentJoinTable, m.ForeignKey,
		attribute.Int("content_id").Required(),
		attribute.Int("num").Unsigned().Required(),
		attribute.Name("name"),
		attribute.Boolean("active"),
		attribute.Enum("type", "published", "draft", "autosave").Default("draft").Required(),
	)
	addForeignKey(t, prefix, m.ForeignKey, main)
	addForeignKey(t, prefix, "content_id", refTable(ContentTable))
	return t
}

func blocksJoinTable(m *blocks.Model, main *schema.Table, prefix string) *schema.Table {
	t := auxTable(m.BlocksJoinTable, m.ForeignKey,
		attribute.Int("block_id").Required(),
		attribute.Boolean("required"),
		attribute.SortOrder("sort_order"),
	)
	addForeignKey(t, prefix, m.ForeignKey, main)
	addForeignKey(t, prefix, "block_id", refTable(BlocksTable))
	return t
}

func settingsTable(m *blocks.Model, main *schema.Table, prefix string) *schema.Table {
	t := auxTable(m.SettingsTable, m.ForeignKey,
		attribute.Varchar("name").MaxLength(100).Required(),
		attribute.Text("value"),
	)
	addForeignKey(t, prefix, m.ForeignKey, main)
	return t
}

func auxTable(name, fk string, attrs ...*attribute.Builder) *schema.Table {
	t := schema.NewTable(name).
		AddPrimary(idColumn()).
		AddColumn(&schema.Column{Name: fk, Type: schema.Int})
	for _, a := range attrs {
		t.AddColumn(Column(a.Descriptor()))
	}
	return t
}

func addForeignKey(t *schema.Table, prefix, column string, ref *schema.Table) {
	c, _ := t.Column(column)
	t.AddForeignKey(&schema.ForeignKey{
		Symbol:   naming.ForeignKeyConstraint(prefix, t.Name, ref.Name),
		Columns:  []*schema.Column{c},
		RefTable: ref,
		OnUpdate: schema.NoAction,
		OnDelete: schema.NoAction,
	})
}

func idColumn() *schema.Column {
	return &schema.Column{Name: "id", Type: schema.Int, Increment: true}
}

// refTable returns a reference to a table created elsewhere.
func refTable(name string) *schema.Table {
	return schema.NewTable(name).AddPrimary(idColumn())
}

// Column returns the storage column of an attribute. Macro types are
// normalized first and required attributes are NOT NULL.
func Column(d *attribute.Descriptor) *schema.Column {
	n := attribute.Normalize(d)
	c := &schema.Column{
		Name:     n.Name,
		Type:     columnTypes[n.Type],
		Size:     n.Size,
		Unsigned: n.Unsigned,
		Nullable: !n.Required,
		Default:  n.Default,
		Unique:   n.Unique,
	}
	switch n.Type {
	case attribute.TypeChar, attribute.TypeVarchar:
		switch {
		case n.Length != nil:
			c.Size = *n.Length
		case n.MaxLength != nil:
			c.Size = *n.MaxLength
		}
	case attribute.TypeEnum:
		c.Enums = append([]string(nil), n.Values...)
	}
	return c
}

var columnTypes = map[attribute.Type]schema.Type{
	attribute.TypeTinyInt:    schema.TinyInt,
	attribute.TypeSmallInt:   schema.SmallInt,
	attribute.TypeMediumInt:  schema.MediumInt,
	attribute.TypeInt:        schema.Int,
	attribute.TypeBigInt:     schema.BigInt,
	attribute.TypeFloat:      schema.Float,
	attribute.TypeDecimal:    schema.Decimal,
	attribute.TypeChar:       schema.Char,
	attribute.TypeVarchar:    schema.Varchar,
	attribute.TypeText:       schema.Text,
	attribute.TypeMediumText: schema.MediumText,
	attribute.TypeEnum:       schema.Enum,
	attribute.TypeDateTime:   schema.DateTime,
}
