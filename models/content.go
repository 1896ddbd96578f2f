package models

import (
	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/schema/attribute"
	"github.com/blockscms/blocks/schema/mixin"
)

// Content holds one version of the body of an entity. Versions are linked
// to their entity through its content join table, which records the
// version number, the variant and whether the version is active.
type Content struct {
	blocks.Schema
}

// Config of the Content.
func (Content) Config() blocks.Config {
	return blocks.Config{Table: "content"}
}

// Mixin of the Content.
func (Content) Mixin() []blocks.Mixin {
	return []blocks.Mixin{
		mixin.Timestamps{},
	}
}

// Attributes of the Content.
func (Content) Attributes() []blocks.Attribute {
	return []blocks.Attribute{
		attribute.Varchar("title"),
		attribute.MediumText("body"),
		attribute.Char("language").Length(5).Default("en_us").Required(),
	}
}
