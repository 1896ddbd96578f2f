// Package schema holds the declaration builders of Blocks models:
//
//   - [attribute]: typed attributes with storage and validation metadata
//   - [index]: declared indexes
//   - [relation]: belongs-to, has-many and has-one relations
//   - [mixin]: reusable attribute sets, such as the timestamps mixin
//
// A model embeds blocks.Schema and returns builders from its methods:
//
//	type User struct {
//		blocks.Schema
//		blocks.WithSettings
//	}
//
//	func (User) Mixin() []blocks.Mixin {
//		return []blocks.Mixin{
//			mixin.Timestamps{},
//		}
//	}
//
//	func (User) Attributes() []blocks.Attribute {
//		return []blocks.Attribute{
//			attribute.Varchar("username").MaxLength(100).Required().Unique(),
//			attribute.Email("email").Required().Unique(),
//			attribute.Boolean("admin"),
//		}
//	}
//
//	func (User) Indexes() []blocks.Index {
//		return []blocks.Index{
//			index.Columns("username", "email").Unique(),
//		}
//	}
package schema
