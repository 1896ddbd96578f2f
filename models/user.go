package models

import (
	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/schema/attribute"
	"github.com/blockscms/blocks/schema/mixin"
	"github.com/blockscms/blocks/settings"
)

// User is an account of the control panel.
type User struct {
	blocks.Schema
	blocks.WithSettings
}

// Mixin of the User.
func (User) Mixin() []blocks.Mixin {
	return []blocks.Mixin{
		mixin.Timestamps{},
	}
}

// Attributes of the User.
func (User) Attributes() []blocks.Attribute {
	return []blocks.Attribute{
		attribute.Varchar("username").MinLength(3).MaxLength(100).Required().Unique(),
		attribute.Email("email").Required().Unique(),
		attribute.Name("first_name"),
		attribute.Name("last_name"),
		attribute.Boolean("admin"),
	}
}

// DefaultSettings of the User.
func (User) DefaultSettings() settings.Value {
	return settings.Value{
		"language": "en_us",
		"notifications": settings.Value{
			"email": true,
		},
	}
}
