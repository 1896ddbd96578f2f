package blocks_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/schema/attribute"
	"github.com/blockscms/blocks/schema/index"
	"github.com/blockscms/blocks/schema/relation"
	"github.com/blockscms/blocks/settings"
)

type (
	Article struct {
		blocks.Schema
		blocks.WithContent
		blocks.WithBlocks
		blocks.WithSettings
	}
	Author        struct{ blocks.Schema }
	ImageWidget   struct{ blocks.Schema }
	Broken        struct{ blocks.Schema }
	Panicking     struct{ blocks.Schema }
	Colliding     struct{ blocks.Schema }
	CustomTable   struct{ blocks.Schema }
	BaseWidget    struct{ blocks.Schema }
	VideoWidget   struct{ blocks.Schema }
	ArticleAuthor struct{ blocks.Schema }
)

func (Article) Attributes() []blocks.Attribute {
	return []blocks.Attribute{
		attribute.Varchar("title").Required(),
		attribute.Varchar("uri").Unique(),
	}
}

func (Article) Indexes() []blocks.Index {
	return []blocks.Index{
		index.Columns("title", "uri").Unique(),
	}
}

func (Article) Relations() []blocks.Relation {
	return []blocks.Relation{
		relation.BelongsTo("author", Author.Type).Required(),
		relation.HasMany("coauthors", Author.Type).ForeignKey("article").Through(ArticleAuthor.Type),
	}
}

func (Article) DefaultSettings() settings.Value {
	return settings.Value{"comments": settings.Value{"enabled": true}}
}

func (ImageWidget) Config() blocks.Config {
	return blocks.Config{ClassSuffix: "Widget"}
}

func (Broken) Attributes() []blocks.Attribute {
	return []blocks.Attribute{attribute.Enum("status")}
}

func (Panicking) Attributes() []blocks.Attribute {
	panic("boom")
}

func (Colliding) Attributes() []blocks.Attribute {
	return []blocks.Attribute{attribute.Int("owner_id")}
}

func (Colliding) Relations() []blocks.Relation {
	return []blocks.Relation{relation.BelongsTo("owner", Author.Type)}
}

func (CustomTable) Config() blocks.Config {
	return blocks.Config{Table: "custom", ForeignKey: "custom_ref"}
}

func (BaseWidget) Config() blocks.Config {
	return blocks.Config{Table: "widgets", ClassSuffix: "Widget"}
}

func (VideoWidget) Config() blocks.Config {
	return blocks.Config{Table: "widgets", ClassSuffix: "Widget"}
}

// TestSchemaDefaultMethods tests the default implementations of Schema methods.
func TestSchemaDefaultMethods(t *testing.T) {
	t.Parallel()

	s := Author{}
	assert.Nil(t, s.Attributes())
	assert.Nil(t, s.Indexes())
	assert.Nil(t, s.Relations())
	assert.Nil(t, s.Mixin())
	assert.Equal(t, blocks.Config{}, s.Config())
	assert.Equal(t, "Author", blocks.TypeName(s))
	assert.Equal(t, "Author", blocks.TypeName(&s))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("derived_names", func(t *testing.T) {
		t.Parallel()
		m, err := blocks.Load(Article{})
		require.NoError(t, err)
		assert.Equal(t, "Article", m.Name)
		assert.Equal(t, "Article", m.Handle)
		assert.Equal(t, "article", m.Table)
		assert.Equal(t, "articlecontent", m.ContentJoinTable)
		assert.Equal(t, "articleblocks", m.BlocksJoinTable)
		assert.Equal(t, "articlesettings", m.SettingsTable)
		assert.Equal(t, "article_id", m.ForeignKey)
		assert.True(t, m.HasContent)
		assert.True(t, m.HasBlocks)
		assert.True(t, m.HasSettings)
		assert.Equal(t, settings.Value{"comments": settings.Value{"enabled": true}}, m.DefaultSettings)
		assert.Equal(t, []string{"title", "uri"}, m.AttributeNames())
		require.Len(t, m.Indexes, 1)
		assert.True(t, m.Indexes[0].Composite())
		require.Len(t, m.Relations, 2)
		require.Len(t, m.BelongsTo(), 1)
		assert.Equal(t, "author_id", m.BelongsTo()[0].Key)
		assert.Equal(t, "ArticleAuthor", m.Relations[1].Through)

		a, ok := m.Attribute("uri")
		require.True(t, ok)
		assert.True(t, a.Unique)
		_, ok = m.Attribute("missing")
		assert.False(t, ok)
		assert.Equal(t, Article{}, m.Schema())
	})

	t.Run("class_suffix", func(t *testing.T) {
		t.Parallel()
		m := blocks.MustLoad(ImageWidget{})
		assert.Equal(t, "Image", m.Handle)
		assert.Equal(t, "image", m.Table)
		assert.Equal(t, "image_id", m.ForeignKey)
		assert.False(t, m.HasContent)
		assert.Nil(t, m.DefaultSettings)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()
		m := blocks.MustLoad(CustomTable{})
		assert.Equal(t, "custom", m.Table)
		assert.Equal(t, "custom_ref", m.ForeignKey)
		assert.Equal(t, "customtablesettings", m.SettingsTable)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		_, err := blocks.Load(Broken{})
		assert.ErrorContains(t, err, `model "Broken": attribute "status": enum without values`)

		_, err = blocks.Load(Panicking{})
		assert.ErrorContains(t, err, "Attributes panics: boom")

		_, err = blocks.Load(Colliding{})
		assert.ErrorContains(t, err, `column "owner_id" collides with an attribute`)

		assert.Panics(t, func() { blocks.MustLoad(Broken{}) })
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := blocks.NewRegistry().MustRegister(Article{}, Author{}, BaseWidget{}, VideoWidget{})

	t.Run("lookup", func(t *testing.T) {
		t.Parallel()
		m, err := reg.Lookup("Author")
		require.NoError(t, err)
		assert.Equal(t, "author", m.Table)

		m, err = reg.Model(Article{})
		require.NoError(t, err)
		assert.Equal(t, "Article", m.Name)

		_, err = reg.Lookup("Nope")
		assert.True(t, errors.Is(err, blocks.ErrUnresolvedType))
	})

	t.Run("models_in_order", func(t *testing.T) {
		t.Parallel()
		var names []string
		for _, m := range reg.Models() {
			names = append(names, m.Name)
		}
		assert.Equal(t, []string{"Article", "Author", "BaseWidget", "VideoWidget"}, names)
	})

	t.Run("resolve", func(t *testing.T) {
		t.Parallel()
		base, err := reg.Lookup("BaseWidget")
		require.NoError(t, err)

		m, err := reg.Resolve(base, "")
		require.NoError(t, err)
		assert.Same(t, base, m)

		m, err = reg.Resolve(base, "Base")
		require.NoError(t, err)
		assert.Same(t, base, m)

		m, err = reg.Resolve(base, "Video")
		require.NoError(t, err)
		assert.Equal(t, "VideoWidget", m.Name)

		_, err = reg.Resolve(base, "Audio")
		var rerr *blocks.ResolutionError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "AudioWidget", rerr.Type)
	})

	t.Run("duplicates", func(t *testing.T) {
		t.Parallel()
		err := blocks.NewRegistry().Register(Author{}, Author{})
		assert.ErrorContains(t, err, `model "Author" registered twice`)
		assert.Panics(t, func() { blocks.NewRegistry().MustRegister(Broken{}) })
	})
}
