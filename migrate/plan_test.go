package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/dialect/sql/schema"
	"github.com/blockscms/blocks/migrate"
	"github.com/blockscms/blocks/schema/attribute"
	"github.com/blockscms/blocks/schema/index"
	"github.com/blockscms/blocks/schema/relation"
)

type Content struct{ blocks.Schema }

func (Content) Attributes() []blocks.Attribute {
	return []blocks.Attribute{
		attribute.MediumText("body"),
	}
}

type Block struct{ blocks.Schema }

func (Block) Config() blocks.Config {
	return blocks.Config{Table: "blocks", ClassSuffix: "Blocktype"}
}

func (Block) Attributes() []blocks.Attribute {
	return []blocks.Attribute{
		attribute.Varchar("class").MaxLength(150).Required(),
	}
}

type User struct {
	blocks.Schema
	blocks.WithSettings
}

func (User) Attributes() []blocks.Attribute {
	return []blocks.Attribute{
		attribute.Varchar("username").MaxLength(100).Required().Unique(),
		attribute.Email("email").Required().Unique(),
	}
}

type Page struct {
	blocks.Schema
	blocks.WithContent
	blocks.WithBlocks
}

func (Page) Attributes() []blocks.Attribute {
	return []blocks.Attribute{
		attribute.Varchar("title").Required(),
		attribute.Varchar("uri").Unique(),
		attribute.SortOrder("sort_order"),
	}
}

func (Page) Indexes() []blocks.Index {
	return []blocks.Index{
		index.Columns("title", "sort_order"),
		index.Columns("uri").Unique(),
	}
}

func (Page) Relations() []blocks.Relation {
	return []blocks.Relation{
		relation.BelongsTo("author", User.Type).Required().Unique(),
		relation.BelongsTo("editor", User.Type),
		relation.HasMany("children", Page.Type).ForeignKey("parent"),
	}
}

func registry(t *testing.T) *blocks.Registry {
	t.Helper()
	reg := blocks.NewRegistry()
	require.NoError(t, reg.Register(Content{}, Block{}, User{}, Page{}))
	return reg
}

func columnNames(t *schema.Table) []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func TestPlan(t *testing.T) {
	t.Parallel()
	reg := registry(t)
	page, err := reg.Model(Page{})
	require.NoError(t, err)

	tables, err := migrate.Plan(reg, page, "b_")
	require.NoError(t, err)
	require.Len(t, tables.All(), 3)
	assert.Nil(t, tables.Settings)

	main := tables.Main
	assert.Equal(t, "page", main.Name)
	assert.Equal(t, []string{"id", "author_id", "editor_id", "title", "uri", "sort_order"}, columnNames(main))

	author, _ := main.Column("author_id")
	assert.False(t, author.Nullable)
	editor, _ := main.Column("editor_id")
	assert.True(t, editor.Nullable)
	title, _ := main.Column("title")
	assert.Equal(t, schema.Varchar, title.Type)
	assert.Equal(t, 255, title.Size)
	sortOrder, _ := main.Column("sort_order")
	assert.Equal(t, schema.SmallInt, sortOrder.Type)
	assert.True(t, sortOrder.Unsigned)
	assert.False(t, sortOrder.Nullable)

	var indexes []string
	for _, idx := range main.Indexes {
		indexes = append(indexes, idx.Name)
	}
	assert.Equal(t, []string{
		"b_page_title_sort_order_idx",
		"b_page_uri_unique_idx",
		"b_page_author_id_unique_idx",
	}, indexes, "declared and automatic indexes are not repeated")

	require.Len(t, main.ForeignKeys, 2)
	assert.Equal(t, "b_page_user_fk", main.ForeignKeys[0].Symbol)
	assert.Equal(t, "user", main.ForeignKeys[0].RefTable.Name)
	assert.Equal(t, schema.NoAction, main.ForeignKeys[0].OnDelete)
	assert.Equal(t, schema.NoAction, main.ForeignKeys[0].OnUpdate)
	assert.Equal(t, "b_page_editor_id_fk", main.ForeignKeys[1].Symbol)

	content := tables.Content
	assert.Equal(t, "pagecontent", content.Name)
	assert.Equal(t, []string{"id", "page_id", "content_id", "num", "name", "active", "type"}, columnNames(content))
	num, _ := content.Column("num")
	assert.True(t, num.Unsigned)
	assert.False(t, num.Nullable)
	name, _ := content.Column("name")
	assert.Equal(t, 100, name.Size)
	active, _ := content.Column("active")
	assert.Equal(t, schema.TinyInt, active.Type)
	assert.Equal(t, false, active.Default)
	typ, _ := content.Column("type")
	assert.Equal(t, []string{"published", "draft", "autosave"}, typ.Enums)
	assert.Equal(t, "draft", typ.Default)
	require.Len(t, content.ForeignKeys, 2)
	assert.Equal(t, "b_pagecontent_page_fk", content.ForeignKeys[0].Symbol)
	assert.Equal(t, "b_pagecontent_content_fk", content.ForeignKeys[1].Symbol)

	blocksJoin := tables.Blocks
	assert.Equal(t, "pageblocks", blocksJoin.Name)
	assert.Equal(t, []string{"id", "page_id", "block_id", "required", "sort_order"}, columnNames(blocksJoin))
	require.Len(t, blocksJoin.ForeignKeys, 2)
	assert.Equal(t, "b_pageblocks_page_fk", blocksJoin.ForeignKeys[0].Symbol)
	assert.Equal(t, "b_pageblocks_blocks_fk", blocksJoin.ForeignKeys[1].Symbol)

	for _, tbl := range tables.All() {
		assert.False(t, schema.ValidateTable(tbl).HasErrors(), tbl.Name)
	}
}

func TestPlan_Settings(t *testing.T) {
	t.Parallel()
	reg := registry(t)
	user, err := reg.Model(User{})
	require.NoError(t, err)

	tables, err := migrate.Plan(reg, user, "")
	require.NoError(t, err)
	require.NotNil(t, tables.Settings)
	assert.Equal(t, "usersettings", tables.Settings.Name)
	assert.Equal(t, []string{"id", "user_id", "name", "value"}, columnNames(tables.Settings))
	value, _ := tables.Settings.Column("value")
	assert.Equal(t, schema.Text, value.Type)
	assert.True(t, value.Nullable)
	require.Len(t, tables.Settings.ForeignKeys, 1)
	assert.Equal(t, "usersettings_user_fk", tables.Settings.ForeignKeys[0].Symbol)

	email, _ := tables.Main.Column("email")
	assert.Equal(t, schema.Varchar, email.Type)
	assert.Equal(t, 255, email.Size)
	assert.True(t, email.Unique)
}

func TestPlan_UnresolvedTarget(t *testing.T) {
	t.Parallel()
	page, err := blocks.Load(Page{})
	require.NoError(t, err)

	_, err = migrate.Plan(nil, page, "")
	assert.ErrorContains(t, err, `relation "author"`)

	_, err = migrate.Plan(blocks.NewRegistry(), page, "")
	assert.True(t, blocks.IsResolutionError(err))
}

func TestColumn(t *testing.T) {
	t.Parallel()
	tests := []struct {
		attr blocks.Attribute
		want schema.Column
	}{
		{attribute.Boolean("enabled"), schema.Column{Name: "enabled", Type: schema.TinyInt, Size: 1, Unsigned: true, Default: false}},
		{attribute.Name("name"), schema.Column{Name: "name", Type: schema.Varchar, Size: 100, Nullable: true}},
		{attribute.Url("site"), schema.Column{Name: "site", Type: schema.Varchar, Size: 255, Nullable: true}},
		{attribute.Char("code").Length(2).Required(), schema.Column{Name: "code", Type: schema.Char, Size: 2}},
		{attribute.Int("count").Size(11).Default(0), schema.Column{Name: "count", Type: schema.Int, Size: 11, Nullable: true, Default: 0}},
		{attribute.Enum("status", "a", "b"), schema.Column{Name: "status", Type: schema.Enum, Nullable: true, Enums: []string{"a", "b"}}},
		{attribute.DateTime("date_created"), schema.Column{Name: "date_created", Type: schema.DateTime, Nullable: true}},
	}
	for _, tt := range tests {
		t.Run(tt.want.Name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, &tt.want, migrate.Column(tt.attr.Descriptor()))
		})
	}
}
