// Package index provides the builder for declared table indexes.
package index

// Descriptor holds the declaration of an index.
type Descriptor struct {
	// Columns is the ordered list of indexed columns.
	Columns []string
	// Unique marks a unique index. A unique index over more than one column
	// is also enforced by a composite-unique validation rule anchored on the
	// first column.
	Unique bool
}

// Builder for indexes.
type Builder struct {
	desc *Descriptor
}

// Columns creates an index on the given columns.
//
//	index.Columns("handle", "site_id").Unique()
func Columns(columns ...string) *Builder {
	return &Builder{desc: &Descriptor{Columns: columns}}
}

// Unique sets the index to be a unique index.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Descriptor implements the blocks.Index interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}

// Composite reports whether the index is unique and spans more than one column.
func (d *Descriptor) Composite() bool {
	return d.Unique && len(d.Columns) > 1
}
