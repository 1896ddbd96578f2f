// Package blocks is the model core of the Blocks CMS. Models declare their
// attributes, indexes and relations, and opt into versioned content, block
// lists and settings by embedding capability traits:
//
//	type Page struct {
//		blocks.Schema
//		blocks.WithContent
//		blocks.WithBlocks
//		blocks.WithSettings
//	}
//
//	func (Page) Attributes() []blocks.Attribute {
//		return []blocks.Attribute{
//			attribute.Varchar("title").MaxLength(255).Required(),
//			attribute.Varchar("uri").Unique(),
//		}
//	}
//
//	func (Page) Relations() []blocks.Relation {
//		return []blocks.Relation{
//			relation.BelongsTo("author", User.Type).Required(),
//		}
//	}
//
// The schema generator (package migrate), the validation-rule synthesizer
// (package validate) and the record loaders (package entity) work on the
// loaded Model only, never on the declaring type.
package blocks

import (
	"github.com/blockscms/blocks/schema/attribute"
	"github.com/blockscms/blocks/schema/index"
	"github.com/blockscms/blocks/schema/relation"
	"github.com/blockscms/blocks/settings"
)

type (
	// Interface is the interface implemented by all models.
	Interface interface {
		// Type is a dummy method used as the target of relation
		// declarations, for example relation.BelongsTo("author", User.Type).
		Type()
		// Attributes returns the attributes of the model.
		Attributes() []Attribute
		// Indexes returns the declared indexes of the model.
		Indexes() []Index
		// Relations returns the belongs-to, has-many and has-one relations.
		Relations() []Relation
		// Mixin returns the mixins whose attributes and indexes are
		// prepended to the model's own.
		Mixin() []Mixin
		// Config returns the naming overrides of the model.
		Config() Config
	}

	// Attribute is the interface for model attributes.
	Attribute interface {
		Descriptor() *attribute.Descriptor
	}

	// Index is the interface for declared indexes.
	Index interface {
		Descriptor() *index.Descriptor
	}

	// Relation is the interface for model relations.
	Relation interface {
		Descriptor() *relation.Descriptor
	}

	// Mixin is the interface of reusable attribute and index sets.
	Mixin interface {
		Attributes() []Attribute
		Indexes() []Index
	}

	// Config holds naming overrides. Empty fields are derived from the
	// class handle, the type name stripped of ClassPrefix and ClassSuffix.
	Config struct {
		Table            string
		ContentJoinTable string
		BlocksJoinTable  string
		SettingsTable    string
		ForeignKey       string
		// ClassPrefix and ClassSuffix are stripped from the type name to
		// get the class handle, and wrapped around the "class"
		// discriminator value of a row to get the concrete type name.
		ClassPrefix string
		ClassSuffix string
	}

	// Schema is the default implementation for the model Interface.
	// It can be embedded in end-user models as follows:
	//
	//	type T struct {
	//		blocks.Schema
	//	}
	Schema struct{}
)

// Type is a dummy method used as the target of relation declarations.
func (Schema) Type() {}

// Attributes of the model.
func (Schema) Attributes() []Attribute { return nil }

// Indexes of the model.
func (Schema) Indexes() []Index { return nil }

// Relations of the model.
func (Schema) Relations() []Relation { return nil }

// Mixin of the model.
func (Schema) Mixin() []Mixin { return nil }

// Config of the model.
func (Schema) Config() Config { return Config{} }

var _ Interface = (*Schema)(nil)

// Capability traits. A model carries content, blocks or settings by
// embedding the matching With type.
type (
	// HasContent is implemented by models embedding WithContent.
	HasContent interface{ hasContent() }

	// HasBlocks is implemented by models embedding WithBlocks.
	HasBlocks interface{ hasBlocks() }

	// HasSettings is implemented by models embedding WithSettings.
	HasSettings interface{ hasSettings() }

	// SettingsDefaulter is implemented by models that provide default
	// settings. Persisted settings are merged over the defaults.
	SettingsDefaulter interface {
		DefaultSettings() settings.Value
	}

	// WithContent gives a model a content join table and versioned content.
	WithContent struct{}

	// WithBlocks gives a model a blocks join table and an ordered block list.
	WithBlocks struct{}

	// WithSettings gives a model a settings table.
	WithSettings struct{}
)

func (WithContent) hasContent()   {}
func (WithBlocks) hasBlocks()     {}
func (WithSettings) hasSettings() {}
