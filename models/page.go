package models

import (
	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/schema/attribute"
	"github.com/blockscms/blocks/schema/index"
	"github.com/blockscms/blocks/schema/mixin"
	"github.com/blockscms/blocks/schema/relation"
	"github.com/blockscms/blocks/settings"
)

// Page is a routable entity with versioned content, an ordered block list
// and settings.
type Page struct {
	blocks.Schema
	blocks.WithContent
	blocks.WithBlocks
	blocks.WithSettings
}

// Mixin of the Page.
func (Page) Mixin() []blocks.Mixin {
	return []blocks.Mixin{
		mixin.Timestamps{},
	}
}

// Attributes of the Page.
func (Page) Attributes() []blocks.Attribute {
	return []blocks.Attribute{
		attribute.Varchar("title").Required(),
		attribute.Varchar("uri").Unique(),
		attribute.SortOrder("sort_order"),
		attribute.Enum("status", "live", "pending", "offline").Default("pending").Required(),
	}
}

// Indexes of the Page.
func (Page) Indexes() []blocks.Index {
	return []blocks.Index{
		index.Columns("parent_id", "sort_order"),
	}
}

// Relations of the Page.
func (Page) Relations() []blocks.Relation {
	return []blocks.Relation{
		relation.BelongsTo("author", User.Type).Required(),
		relation.BelongsTo("parent", Page.Type),
		relation.HasMany("children", Page.Type).ForeignKey("parent"),
	}
}

// DefaultSettings of the Page.
func (Page) DefaultSettings() settings.Value {
	return settings.Value{
		"layout": "default",
		"seo": settings.Value{
			"index":  true,
			"follow": true,
		},
	}
}
