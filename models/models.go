// Package models holds the built-in models of the CMS: versioned content,
// blocks and their blocktypes, pages and users.
package models

import "github.com/blockscms/blocks"

// All returns the built-in models in installation order. Blocktypes follow
// Block, whose table they share.
func All() []blocks.Interface {
	return []blocks.Interface{
		Content{},
		Block{},
		PlainTextBlocktype{},
		RichTextBlocktype{},
		User{},
		Page{},
	}
}

// Register registers the built-in models on reg.
func Register(reg *blocks.Registry) error {
	return reg.Register(All()...)
}
