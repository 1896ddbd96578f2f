package entity_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/dialect"
	"github.com/blockscms/blocks/dialect/sql"
	"github.com/blockscms/blocks/entity"
	"github.com/blockscms/blocks/migrate"
	"github.com/blockscms/blocks/models"
	"github.com/blockscms/blocks/settings"
)

type fixture struct {
	ctx   context.Context
	drv   *sql.Driver
	reg   *blocks.Registry
	store *entity.Store
}

// installed returns a store over an in-memory sqlite database holding the
// tables of the built-in models.
func installed(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	drv, err := sql.Open(dialect.SQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })
	reg := blocks.NewRegistry()
	require.NoError(t, models.Register(reg))
	require.NoError(t, migrate.New(drv, reg, migrate.WithLogger(quiet)).Install(ctx))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ticks int
	clock := func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Minute)
	}
	store := entity.NewStore(drv, reg, entity.WithLogger(quiet), entity.WithClock(clock))
	return &fixture{ctx: ctx, drv: drv, reg: reg, store: store}
}

func (f *fixture) model(t *testing.T, s blocks.Interface) *blocks.Model {
	t.Helper()
	return model(t, f.reg, s)
}

func (f *fixture) create(t *testing.T, s blocks.Interface, values map[string]any) *entity.Entity {
	t.Helper()
	e := f.store.New(f.model(t, s))
	for k, v := range values {
		require.NoError(t, e.Set(k, v))
	}
	require.NoError(t, f.store.Save(f.ctx, e))
	require.False(t, e.IsNew())
	return e
}

func (f *fixture) user(t *testing.T, name string) *entity.Entity {
	t.Helper()
	return f.create(t, models.User{}, map[string]any{"username": name, "email": name + "@example.com"})
}

func (f *fixture) page(t *testing.T, title string, author *entity.Entity) *entity.Entity {
	t.Helper()
	return f.create(t, models.Page{}, map[string]any{"title": title, "sort_order": 1, "author_id": author.ID()})
}

func (f *fixture) exec(t *testing.T, query string, args ...any) {
	t.Helper()
	_, err := f.drv.DB().ExecContext(f.ctx, query, args...)
	require.NoError(t, err)
}

// reload returns a fresh copy of e with nothing loaded.
func (f *fixture) reload(t *testing.T, e *entity.Entity) *entity.Entity {
	t.Helper()
	fresh, err := f.store.FindByID(f.ctx, e.Model(), e.ID())
	require.NoError(t, err)
	return fresh
}

func TestStore_SaveAndFind(t *testing.T) {
	t.Parallel()
	f := installed(t)
	bob := f.user(t, "bob")
	assert.Equal(t, 1, bob.ID())

	found, err := f.store.FindByID(f.ctx, bob.Model(), bob.ID())
	require.NoError(t, err)
	assert.Equal(t, "bob", found.Value("username"))
	assert.Equal(t, "bob@example.com", found.Value("email"))
	assert.NotNil(t, found.Value("date_created"))

	require.NoError(t, found.Set("first_name", "Bob"))
	require.NoError(t, f.store.Save(f.ctx, found))
	assert.Equal(t, "Bob", f.reload(t, bob).Value("first_name"))

	_, err = f.store.FindByID(f.ctx, bob.Model(), 99)
	require.Error(t, err)
	assert.True(t, blocks.IsNotFound(err))
}

func TestStore_SaveInvalid(t *testing.T) {
	t.Parallel()
	f := installed(t)
	f.user(t, "bob")

	dup := f.store.New(f.model(t, models.User{}))
	require.NoError(t, dup.Set("username", "bob"))
	require.NoError(t, dup.Set("email", "not-an-email"))
	err := f.store.Save(f.ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, blocks.ErrValidation)
	var failure *blocks.ValidationFailure
	require.ErrorAs(t, err, &failure)
	assert.Len(t, failure.Attribute("username"), 1)
	assert.Len(t, failure.Attribute("email"), 1)
	assert.True(t, dup.IsNew())

	var n int
	require.NoError(t, f.drv.DB().QueryRowContext(f.ctx, "SELECT COUNT(*) FROM `user`").Scan(&n))
	assert.Equal(t, 1, n)

	// Skipping validation leaves the check to the database.
	require.NoError(t, dup.Set("email", "bob@example.com"))
	err = f.store.Save(f.ctx, dup, entity.SkipValidation())
	require.Error(t, err)
	assert.True(t, blocks.IsConstraintError(err))
}

func TestStore_Search(t *testing.T) {
	t.Parallel()
	f := installed(t)
	f.user(t, "alice")
	bob := f.user(t, "bob")
	f.user(t, "carol")

	filter := f.store.New(f.model(t, models.User{}))
	all, err := f.store.Search(f.ctx, filter)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, filter.Set("username", "bob"))
	found, err := f.store.Search(f.ctx, filter)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, bob.ID(), found[0].ID())

	require.NoError(t, filter.Set("email", "carol@example.com"))
	found, err = f.store.Search(f.ctx, filter)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestStore_SearchBooleans(t *testing.T) {
	t.Parallel()
	f := installed(t)
	alice := f.user(t, "alice")
	root := f.create(t, models.User{}, map[string]any{"username": "root", "email": "root@example.com", "admin": true})

	// The admin=false default of a new filter does not hide admins.
	filter := f.store.New(f.model(t, models.User{}))
	assert.Equal(t, false, filter.Value("admin"))
	found, err := f.store.Search(f.ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, []int{alice.ID(), root.ID()}, ids(found))

	require.NoError(t, filter.Set("admin", true))
	found, err = f.store.Search(f.ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, []int{root.ID()}, ids(found))
}

func TestStore_Recently(t *testing.T) {
	t.Parallel()
	f := installed(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	m := alice.Model()

	recent, err := f.store.RecentlyCreated(f.ctx, m, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{carol.ID(), bob.ID()}, ids(recent))

	require.NoError(t, alice.Set("last_name", "Liddell"))
	require.NoError(t, f.store.Save(f.ctx, alice))
	recent, err = f.store.RecentlyUpdated(f.ctx, m, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{alice.ID(), carol.ID(), bob.ID()}, ids(recent))

	_, err = f.store.RecentlyCreated(f.ctx, blocks.MustLoad(Widget{}), 0)
	assert.EqualError(t, err, `entity: model "Widget" has no date_created attribute`)
}

func ids(es []*entity.Entity) []int {
	out := make([]int, len(es))
	for i, e := range es {
		out[i] = e.ID()
	}
	return out
}

func TestStore_BlocksOrder(t *testing.T) {
	t.Parallel()
	f := installed(t)
	page := f.page(t, "Home", f.user(t, "bob"))
	intro := f.create(t, models.Block{}, map[string]any{"class": "PlainText", "name": "Intro", "handle": "intro"})
	body := f.create(t, models.Block{}, map[string]any{"class": "RichText", "name": "Body", "handle": "body"})
	f.exec(t, "INSERT INTO `pageblocks` (`page_id`, `block_id`, `required`, `sort_order`) VALUES (?, ?, 1, 2), (?, ?, 0, 1)",
		page.ID(), intro.ID(), page.ID(), body.ID())

	page = f.reload(t, page)
	bs, err := f.store.Blocks(f.ctx, page)
	require.NoError(t, err)
	require.Len(t, bs, 2)
	assert.Equal(t, body.ID(), bs[0].ID())
	assert.Equal(t, "RichTextBlocktype", bs[0].Model().Name)
	assert.False(t, bs[0].Required)
	assert.Equal(t, intro.ID(), bs[1].ID())
	assert.Equal(t, "PlainTextBlocktype", bs[1].Model().Name)
	assert.True(t, bs[1].Required)

	// Reorder and persist.
	page.SetBlocks([]*entity.Block{bs[1], bs[0]})
	require.NoError(t, f.store.SaveBlocks(f.ctx, page))
	bs, err = f.store.Blocks(f.ctx, f.reload(t, page))
	require.NoError(t, err)
	assert.Equal(t, []int{intro.ID(), body.ID()}, []int{bs[0].ID(), bs[1].ID()})
	assert.True(t, bs[0].Required)

	// Blocks resolve to their blocktype when found directly too.
	found, err := f.store.FindByID(f.ctx, f.model(t, models.Block{}), intro.ID())
	require.NoError(t, err)
	assert.Equal(t, "PlainTextBlocktype", found.Model().Name)
	v, err := f.store.Settings(f.ctx, found)
	require.NoError(t, err)
	assert.Equal(t, false, v["multiline"])
}

func TestStore_ActiveContent(t *testing.T) {
	t.Parallel()
	f := installed(t)
	page := f.page(t, "Home", f.user(t, "bob"))
	var versions []*entity.Entity
	for _, body := range []string{"v1", "v2", "v3"} {
		versions = append(versions, f.create(t, models.Content{}, map[string]any{"body": body}))
	}
	f.exec(t, "INSERT INTO `pagecontent` (`page_id`, `content_id`, `num`, `active`, `type`) VALUES (?, ?, 1, 0, 'published'), (?, ?, 2, 1, 'published'), (?, ?, 3, 0, 'draft')",
		page.ID(), versions[0].ID(), page.ID(), versions[1].ID(), page.ID(), versions[2].ID())

	content, err := f.store.Content(f.ctx, f.reload(t, page))
	require.NoError(t, err)
	assert.Equal(t, versions[1].ID(), content.ID())
	assert.Equal(t, "v2", content.Value("body"))

	// A page without an active version has empty content.
	other := f.page(t, "About", f.user(t, "alice"))
	content, err = f.store.Content(f.ctx, f.reload(t, other))
	require.NoError(t, err)
	assert.True(t, content.IsNew())
}

func TestStore_SettingsRoundTrip(t *testing.T) {
	t.Parallel()
	f := installed(t)
	bob := f.user(t, "bob")

	v, err := f.store.Settings(f.ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, bob.Model().DefaultSettings, v)

	want := settings.Value{
		"language":      "de",
		"notifications": settings.Value{"email": false, "digest": "weekly"},
		"limits":        settings.Value{"uploads": 10, "ratio": 0.5},
	}
	require.NoError(t, f.store.SetSettings(f.ctx, bob, want))
	v, err = f.store.Settings(f.ctx, f.reload(t, bob))
	require.NoError(t, err)
	assert.Equal(t, want, v)

	var n int
	require.NoError(t, f.drv.DB().QueryRowContext(f.ctx, "SELECT COUNT(*) FROM `usersettings` WHERE `user_id` = ?", bob.ID()).Scan(&n))
	assert.Equal(t, 5, n)

	// Setting again replaces every row.
	require.NoError(t, f.store.SetSettings(f.ctx, bob, settings.Value{"language": "fr"}))
	require.NoError(t, f.drv.DB().QueryRowContext(f.ctx, "SELECT COUNT(*) FROM `usersettings` WHERE `user_id` = ?", bob.ID()).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestStore_FindAll(t *testing.T) {
	t.Parallel()
	f := installed(t)
	bob, alice, carol := f.user(t, "bob"), f.user(t, "alice"), f.user(t, "carol")
	m := bob.Model()

	es, err := f.store.FindAll(f.ctx, m, carol.ID(), bob.ID(), alice.ID())
	require.NoError(t, err)
	assert.Equal(t, []int{carol.ID(), bob.ID(), alice.ID()}, ids(es))
	assert.Equal(t, "carol", es[0].Value("username"))

	_, err = f.store.FindAll(f.ctx, m, bob.ID(), 42)
	require.Error(t, err)
	assert.True(t, blocks.IsNotFound(err))

	es, err = f.store.FindAll(f.ctx, m)
	require.NoError(t, err)
	assert.Empty(t, es)
}

func TestStore_LoadSettings(t *testing.T) {
	t.Parallel()
	f := installed(t)
	bob, alice := f.user(t, "bob"), f.user(t, "alice")
	require.NoError(t, f.store.SetSettings(f.ctx, bob, settings.Value{"language": "de"}))
	fresh := f.store.New(bob.Model())

	es, err := f.store.FindAll(f.ctx, bob.Model(), bob.ID(), alice.ID())
	require.NoError(t, err)
	es = append(es, fresh)
	require.NoError(t, f.store.LoadSettings(f.ctx, es...))
	for _, e := range es {
		assert.Equal(t, entity.Loaded, e.State(entity.AuxSettings), "%s", e)
	}

	v, err := f.store.Settings(f.ctx, es[0])
	require.NoError(t, err)
	lang, ok := v.Get("language")
	require.True(t, ok)
	assert.Equal(t, "de", lang)
	v, err = f.store.Settings(f.ctx, es[1])
	require.NoError(t, err)
	assert.Equal(t, bob.Model().DefaultSettings, v)
	v, err = f.store.Settings(f.ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, bob.Model().DefaultSettings, v)

	page := f.page(t, "Home", bob)
	err = f.store.LoadSettings(f.ctx, f.reload(t, bob), page)
	assert.ErrorContains(t, err, "loading settings of Page")
}
