// Package mixin provides reusable attribute sets for models.
//
// A mixin embeds Schema and overrides the methods it needs:
//
//	type Ordered struct {
//		mixin.Schema
//	}
//
//	func (Ordered) Attributes() []blocks.Attribute {
//		return []blocks.Attribute{
//			attribute.SortOrder("sort_order"),
//		}
//	}
//
// Mixed-in attributes and indexes come before the model's own.
package mixin

import (
	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/schema/attribute"
)

// Timestamp attribute names.
const (
	DateCreated  = "date_created"
	DateModified = "date_modified"
)

// Schema is the default implementation for the blocks.Mixin interface.
// It should be embedded in all custom mixin definitions.
type Schema struct{}

// Attributes returns the attributes of the mixin.
func (Schema) Attributes() []blocks.Attribute { return nil }

// Indexes returns the indexes of the mixin.
func (Schema) Indexes() []blocks.Index { return nil }

// schema mixin must implement `Mixin` interface.
var _ blocks.Mixin = (*Schema)(nil)

// Timestamps adds the date_created and date_modified attributes used by
// the recently-created and recently-updated queries. The entity store sets
// both on insert and date_modified on update.
type Timestamps struct {
	Schema
}

// Attributes returns the timestamp attributes.
func (Timestamps) Attributes() []blocks.Attribute {
	return []blocks.Attribute{
		attribute.DateTime(DateCreated).Indexed(),
		attribute.DateTime(DateModified).Indexed(),
	}
}

var _ blocks.Mixin = Timestamps{}
