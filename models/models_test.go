package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/dialect/sql/schema"
	"github.com/blockscms/blocks/migrate"
	"github.com/blockscms/blocks/models"
	"github.com/blockscms/blocks/schema/relation"
	"github.com/blockscms/blocks/settings"
	"github.com/blockscms/blocks/validate"
)

func registry(t *testing.T) *blocks.Registry {
	t.Helper()
	reg := blocks.NewRegistry()
	require.NoError(t, models.Register(reg))
	return reg
}

func TestRegister(t *testing.T) {
	t.Parallel()
	reg := registry(t)
	var names []string
	for _, m := range reg.Models() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Content", "Block", "PlainTextBlocktype", "RichTextBlocktype", "User", "Page"}, names)
	assert.Error(t, models.Register(reg), "registering twice")
}

func TestNames(t *testing.T) {
	t.Parallel()
	reg := registry(t)
	tests := []struct {
		model                                  blocks.Interface
		handle, table, content, blocks, fk, st string
	}{
		{models.Content{}, "Content", "content", "contentcontent", "contentblocks", "content_id", "contentsettings"},
		{models.Block{}, "Block", "blocks", "blockcontent", "blockblocks", "block_id", "blocksettings"},
		{models.PlainTextBlocktype{}, "PlainText", "blocks", "plaintextcontent", "plaintextblocks", "plaintext_id", "plaintextsettings"},
		{models.User{}, "User", "user", "usercontent", "userblocks", "user_id", "usersettings"},
		{models.Page{}, "Page", "page", "pagecontent", "pageblocks", "page_id", "pagesettings"},
	}
	for _, tt := range tests {
		m, err := reg.Model(tt.model)
		require.NoError(t, err)
		assert.Equal(t, tt.handle, m.Handle)
		assert.Equal(t, tt.table, m.Table)
		assert.Equal(t, tt.content, m.ContentJoinTable)
		assert.Equal(t, tt.blocks, m.BlocksJoinTable)
		assert.Equal(t, tt.fk, m.ForeignKey)
		assert.Equal(t, tt.st, m.SettingsTable)
	}
}

func TestCapabilities(t *testing.T) {
	t.Parallel()
	reg := registry(t)
	page, err := reg.Model(models.Page{})
	require.NoError(t, err)
	assert.True(t, page.HasContent)
	assert.True(t, page.HasBlocks)
	assert.True(t, page.HasSettings)
	assert.Equal(t, settings.Value{"layout": "default", "seo": settings.Value{"index": true, "follow": true}}, page.DefaultSettings)

	user, err := reg.Model(models.User{})
	require.NoError(t, err)
	assert.False(t, user.HasContent)
	assert.False(t, user.HasBlocks)
	assert.True(t, user.HasSettings)

	rich, err := reg.Model(models.RichTextBlocktype{})
	require.NoError(t, err)
	assert.False(t, rich.HasSettings)
	assert.Equal(t, true, must(rich.DefaultSettings.Get("toolbar.bold")))
}

func must(v any, ok bool) any {
	if !ok {
		return nil
	}
	return v
}

func TestBlocktypeResolution(t *testing.T) {
	t.Parallel()
	reg := registry(t)
	base, err := reg.Model(models.Block{})
	require.NoError(t, err)
	for class, want := range map[string]string{
		"PlainText": "PlainTextBlocktype",
		"RichText":  "RichTextBlocktype",
		"":          "Block",
	} {
		m, err := reg.Resolve(base, class)
		require.NoError(t, err)
		assert.Equal(t, want, m.Name)
	}
	_, err = reg.Resolve(base, "Video")
	assert.True(t, blocks.IsResolutionError(err))
}

func TestPageRelations(t *testing.T) {
	t.Parallel()
	reg := registry(t)
	page, err := reg.Model(models.Page{})
	require.NoError(t, err)
	var keys []string
	for _, j := range page.BelongsTo() {
		keys = append(keys, j.Key)
	}
	assert.Equal(t, []string{"author_id", "parent_id"}, keys)
	require.Len(t, page.Relations, 3)
	assert.Equal(t, relation.KindHasMany, page.Relations[2].Kind)
	assert.Equal(t, "parent_id", page.Relations[2].Key)
}

func TestPlans(t *testing.T) {
	t.Parallel()
	reg := registry(t)
	for _, m := range reg.Models() {
		tables, err := migrate.Plan(reg, m, "")
		require.NoError(t, err, m.Name)
		for _, tbl := range tables.All() {
			assert.False(t, schema.ValidateTable(tbl).HasErrors(), "%s: %s", m.Name, schema.ValidateTable(tbl))
		}
	}
}

func TestUserRules(t *testing.T) {
	t.Parallel()
	reg := registry(t)
	user, err := reg.Model(models.User{})
	require.NoError(t, err)
	var described []string
	for _, r := range validate.Rules(user) {
		described = append(described, r.String())
	}
	assert.Equal(t, []string{
		"numerical [admin] integerOnly",
		"unique [username, email]",
		"required [username, email]",
		"email [email]",
		"length [username] min=3",
		"length [username, first_name, last_name] max=100",
		"length [email] max=255",
		"safe [date_created, date_modified, username, email, first_name, last_name, admin] on=search",
	}, described)
}
