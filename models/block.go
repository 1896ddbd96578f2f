package models

import (
	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/schema/attribute"
	"github.com/blockscms/blocks/schema/mixin"
	"github.com/blockscms/blocks/settings"
)

// Block is the base of all blocktypes. Rows of the blocks table carry the
// blocktype handle in the "class" column, which resolves to the model
// named handle + "Blocktype".
type Block struct {
	blocks.Schema
}

// Config of the Block.
func (Block) Config() blocks.Config {
	return blocks.Config{
		Table:       "blocks",
		ClassSuffix: "Blocktype",
	}
}

// Mixin of the Block.
func (Block) Mixin() []blocks.Mixin {
	return []blocks.Mixin{
		mixin.Timestamps{},
	}
}

// Attributes of the Block.
func (Block) Attributes() []blocks.Attribute {
	return []blocks.Attribute{
		attribute.Varchar("class").MaxLength(150).Required(),
		attribute.Name("name").Required(),
		attribute.Varchar("handle").MaxLength(150).Match(`^[a-zA-Z][a-zA-Z0-9_]*$`).Required(),
		attribute.Text("instructions"),
	}
}

// PlainTextBlocktype is a block of unformatted text.
type PlainTextBlocktype struct {
	Block
}

// DefaultSettings of the PlainTextBlocktype.
func (PlainTextBlocktype) DefaultSettings() settings.Value {
	return settings.Value{
		"multiline": false,
		"hint":      "",
	}
}

// RichTextBlocktype is a block of formatted text.
type RichTextBlocktype struct {
	Block
}

// DefaultSettings of the RichTextBlocktype.
func (RichTextBlocktype) DefaultSettings() settings.Value {
	return settings.Value{
		"toolbar": settings.Value{
			"bold":   true,
			"italic": true,
			"links":  true,
		},
	}
}
