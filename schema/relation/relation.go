// Package relation provides the builders for model relations and the
// resolver that turns them into foreign-key join descriptors.
package relation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/go-openapi/inflect"
)

// Kind is the kind of a relation.
type Kind uint8

// Relation kinds.
const (
	KindBelongsTo Kind = iota + 1
	KindHasMany
	KindHasOne
)

// String returns the relation kind name.
func (k Kind) String() string {
	switch k {
	case KindBelongsTo:
		return "belongs-to"
	case KindHasMany:
		return "has-many"
	case KindHasOne:
		return "has-one"
	}
	return "invalid"
}

// Descriptor holds the declaration of a relation.
type Descriptor struct {
	Name       string
	Kind       Kind
	Target     string
	ForeignKey string
	// ForeignKeys holds a composite key as local column stem to target
	// column stem. Stems get the "_id" suffix on resolution.
	ForeignKeys map[string]string
	Through     string
	Required    bool
	Unique      bool
	Err         error
}

// Builder for relations.
type Builder struct {
	desc *Descriptor
	errs []error
}

// To is the target type argument. Pass the model type method expression:
//
//	relation.BelongsTo("author", User.Type)
type To any

func newBuilder(name string, kind Kind, t To) *Builder {
	b := &Builder{desc: &Descriptor{Name: name, Kind: kind, Target: typ(t)}}
	if b.desc.Target == "" {
		b.errs = append(b.errs, fmt.Errorf("relation %q: invalid target type %T", name, t))
	}
	return b
}

// BelongsTo declares that the model holds a "{name}_id" column pointing at
// the target model.
func BelongsTo(name string, t To) *Builder { return newBuilder(name, KindBelongsTo, t) }

// HasMany declares that many target rows point back at the model.
func HasMany(name string, t To) *Builder { return newBuilder(name, KindHasMany, t) }

// HasOne declares that one target row points back at the model.
func HasOne(name string, t To) *Builder { return newBuilder(name, KindHasOne, t) }

// ForeignKey sets the foreign key stem of a has-many or has-one relation.
// The resolved column is "{stem}_id".
func (b *Builder) ForeignKey(stem string) *Builder {
	b.desc.ForeignKey = stem
	return b
}

// ForeignKeys sets a composite foreign key of a has-many or has-one
// relation as pairs of column stems.
//
//	relation.HasMany("entries", Entry.Type).ForeignKeys(map[string]string{"section": "section"})
func (b *Builder) ForeignKeys(stems map[string]string) *Builder {
	b.desc.ForeignKeys = stems
	return b
}

// Through sets the join model of a has-many or has-one relation.
func (b *Builder) Through(t To) *Builder {
	b.desc.Through = typ(t)
	if b.desc.Through == "" {
		b.errs = append(b.errs, fmt.Errorf("relation %q: invalid through type %T", b.desc.Name, t))
	}
	return b
}

// Required marks the foreign key column of a belongs-to relation NOT NULL.
func (b *Builder) Required() *Builder {
	b.desc.Required = true
	return b
}

// Unique adds a unique index on the foreign key column of a belongs-to relation.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Descriptor implements the blocks.Relation interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	d := b.desc
	errs := append([]error(nil), b.errs...)
	if d.Name == "" {
		errs = append(errs, errors.New("relation: missing name"))
	}
	switch d.Kind {
	case KindBelongsTo:
		if d.ForeignKey != "" || len(d.ForeignKeys) > 0 || d.Through != "" {
			errs = append(errs, fmt.Errorf("relation %q: belongs-to takes no foreign key or through model", d.Name))
		}
	case KindHasMany, KindHasOne:
		if d.ForeignKey == "" && len(d.ForeignKeys) == 0 {
			errs = append(errs, fmt.Errorf("relation %q: missing foreign key", d.Name))
		}
		if d.ForeignKey != "" && len(d.ForeignKeys) > 0 {
			errs = append(errs, fmt.Errorf("relation %q: both single and composite foreign keys set", d.Name))
		}
		if d.Required || d.Unique {
			errs = append(errs, fmt.Errorf("relation %q: required and unique apply to belongs-to only", d.Name))
		}
	}
	d.Err = errors.Join(errs...)
	return d
}

// KeyPair is one column pair of a composite foreign key.
type KeyPair struct {
	Column    string
	RefColumn string
}

// Join is a resolved relation.
type Join struct {
	Name   string
	Kind   Kind
	Target string
	// Key is the foreign key column. Empty for composite keys.
	Key string
	// Keys holds the column pairs of a composite key, sorted by column.
	Keys     []KeyPair
	Through  string
	Required bool
	Unique   bool
}

// Composite reports whether the join uses a composite key.
func (j *Join) Composite() bool { return len(j.Keys) > 0 }

// Resolve resolves the relation declarations of a model into joins, in
// declaration order.
func Resolve(descs []*Descriptor) ([]*Join, error) {
	joins := make([]*Join, 0, len(descs))
	names := make(map[string]bool, len(descs))
	for _, d := range descs {
		if d.Err != nil {
			return nil, d.Err
		}
		if names[d.Name] {
			return nil, fmt.Errorf("relation %q: declared more than once", d.Name)
		}
		names[d.Name] = true
		j := &Join{
			Name:     d.Name,
			Kind:     d.Kind,
			Target:   d.Target,
			Through:  d.Through,
			Required: d.Required,
			Unique:   d.Unique,
		}
		switch d.Kind {
		case KindBelongsTo:
			j.Key = Column(d.Name)
		case KindHasMany, KindHasOne:
			if len(d.ForeignKeys) > 0 {
				j.Keys = make([]KeyPair, 0, len(d.ForeignKeys))
				for local, ref := range d.ForeignKeys {
					j.Keys = append(j.Keys, KeyPair{Column: Column(local), RefColumn: Column(ref)})
				}
				sort.Slice(j.Keys, func(a, b int) bool { return j.Keys[a].Column < j.Keys[b].Column })
			} else {
				j.Key = Column(d.ForeignKey)
			}
		default:
			return nil, fmt.Errorf("relation %q: invalid kind %d", d.Name, d.Kind)
		}
		joins = append(joins, j)
	}
	return joins, nil
}

// Column returns the foreign key column for a relation or key stem.
// CamelCase stems are underscored: "parentPage" becomes "parent_page_id".
func Column(stem string) string {
	return inflect.Underscore(stem) + "_id"
}

// typ returns the type name of the model behind a method expression such as
// User.Type, or of a model value.
func typ(t any) string {
	if t == nil {
		return ""
	}
	rt := reflect.TypeOf(t)
	if rt.Kind() == reflect.Func {
		if rt.NumIn() == 0 {
			return ""
		}
		rt = rt.In(0)
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt.Name()
}
