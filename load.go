package blocks

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/blockscms/blocks/internal/naming"
	"github.com/blockscms/blocks/schema/attribute"
	"github.com/blockscms/blocks/schema/index"
	"github.com/blockscms/blocks/schema/relation"
	"github.com/blockscms/blocks/settings"
)

// Model is a loaded model: the declarations of a model type with mixins
// applied, relations resolved and table names derived.
type Model struct {
	// Name is the type name of the model, for example "PlainTextBlocktype".
	Name string
	// Handle is the type name without the class prefix and suffix.
	Handle string
	Config Config

	Table            string
	ContentJoinTable string
	BlocksJoinTable  string
	SettingsTable    string
	ForeignKey       string

	// Attributes holds the attribute declarations in declaration order,
	// mixed-in attributes first. They are not normalized.
	Attributes []*attribute.Descriptor
	Indexes    []*index.Descriptor
	Relations  []*relation.Join

	HasContent      bool
	HasBlocks       bool
	HasSettings     bool
	DefaultSettings settings.Value

	schema Interface
}

// Schema returns the model type the Model was loaded from.
func (m *Model) Schema() Interface { return m.schema }

// Attribute returns the attribute with the given name.
func (m *Model) Attribute(name string) (*attribute.Descriptor, bool) {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// AttributeNames returns the attribute names in declaration order.
func (m *Model) AttributeNames() []string {
	names := make([]string, len(m.Attributes))
	for i, a := range m.Attributes {
		names[i] = a.Name
	}
	return names
}

// BelongsTo returns the resolved belongs-to relations.
func (m *Model) BelongsTo() []*relation.Join {
	var joins []*relation.Join
	for _, j := range m.Relations {
		if j.Kind == relation.KindBelongsTo {
			joins = append(joins, j)
		}
	}
	return joins
}

// TypeName returns the type name of a model value.
func TypeName(m Interface) string {
	return indirect(reflect.TypeOf(m)).Name()
}

// Load loads the declarations of a model.
func Load(schema Interface) (*Model, error) {
	m := &Model{
		Name:   TypeName(schema),
		schema: schema,
	}
	if m.Name == "" {
		return nil, fmt.Errorf("blocks: model %T has no type name", schema)
	}
	cfg, err := safeConfig(schema)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", m.Name, err)
	}
	m.Config = cfg
	m.Handle = naming.Handle(m.Name, cfg.ClassPrefix, cfg.ClassSuffix)
	m.Table = or(cfg.Table, naming.Table(m.Handle))
	m.ContentJoinTable = or(cfg.ContentJoinTable, naming.ContentJoinTable(m.Handle))
	m.BlocksJoinTable = or(cfg.BlocksJoinTable, naming.BlocksJoinTable(m.Handle))
	m.SettingsTable = or(cfg.SettingsTable, naming.SettingsTable(m.Handle))
	m.ForeignKey = or(cfg.ForeignKey, naming.ForeignKey(m.Handle))

	if err := m.loadMixin(schema); err != nil {
		return nil, fmt.Errorf("model %q: %w", m.Name, err)
	}
	if err := m.loadAttributes(schema); err != nil {
		return nil, fmt.Errorf("model %q: %w", m.Name, err)
	}
	if err := m.loadIndexes(schema); err != nil {
		return nil, fmt.Errorf("model %q: %w", m.Name, err)
	}
	if err := m.loadRelations(schema); err != nil {
		return nil, fmt.Errorf("model %q: %w", m.Name, err)
	}
	_, m.HasContent = schema.(HasContent)
	_, m.HasBlocks = schema.(HasBlocks)
	_, m.HasSettings = schema.(HasSettings)
	if d, ok := schema.(SettingsDefaulter); ok {
		m.DefaultSettings = d.DefaultSettings()
	}
	return m, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(schema Interface) *Model {
	m, err := Load(schema)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Model) loadMixin(schema Interface) error {
	mixin, err := safeMixin(schema)
	if err != nil {
		return err
	}
	for _, mx := range mixin {
		name := indirect(reflect.TypeOf(mx)).Name()
		if err := m.addAttributes(mx); err != nil {
			return fmt.Errorf("mixin %q: %w", name, err)
		}
		if err := m.addIndexes(mx); err != nil {
			return fmt.Errorf("mixin %q: %w", name, err)
		}
	}
	return nil
}

func (m *Model) loadAttributes(schema Interface) error { return m.addAttributes(schema) }

func (m *Model) loadIndexes(schema Interface) error { return m.addIndexes(schema) }

func (m *Model) addAttributes(fd interface{ Attributes() []Attribute }) error {
	attrs, err := safeAttributes(fd)
	if err != nil {
		return err
	}
	for _, a := range attrs {
		d := a.Descriptor()
		if d.Err != nil {
			return d.Err
		}
		if d.Name == "id" {
			return fmt.Errorf("attribute %q: reserved for the primary key", d.Name)
		}
		if _, ok := m.Attribute(d.Name); ok {
			return fmt.Errorf("attribute %q: declared more than once", d.Name)
		}
		m.Attributes = append(m.Attributes, d)
	}
	return nil
}

func (m *Model) addIndexes(schema interface{ Indexes() []Index }) error {
	indexes, err := safeIndexes(schema)
	if err != nil {
		return err
	}
	for _, idx := range indexes {
		d := idx.Descriptor()
		if len(d.Columns) == 0 {
			return errors.New("index without columns")
		}
		m.Indexes = append(m.Indexes, d)
	}
	return nil
}

func (m *Model) loadRelations(schema Interface) error {
	rels, err := safeRelations(schema)
	if err != nil {
		return err
	}
	descs := make([]*relation.Descriptor, len(rels))
	for i, r := range rels {
		descs[i] = r.Descriptor()
	}
	joins, err := relation.Resolve(descs)
	if err != nil {
		return err
	}
	for _, j := range joins {
		if j.Kind != relation.KindBelongsTo {
			continue
		}
		if _, ok := m.Attribute(j.Key); ok {
			return fmt.Errorf("relation %q: column %q collides with an attribute", j.Name, j.Key)
		}
	}
	m.Relations = joins
	return nil
}

// safeAttributes wraps the Attributes method with recover to ensure no panics in loading.
func safeAttributes(fd interface{ Attributes() []Attribute }) (attrs []Attribute, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Attributes panics: %v", fd, v)
			attrs = nil
		}
	}()
	return fd.Attributes(), nil
}

// safeIndexes wraps the Indexes method with recover to ensure no panics in loading.
func safeIndexes(schema interface{ Indexes() []Index }) (indexes []Index, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Indexes panics: %v", schema, v)
			indexes = nil
		}
	}()
	return schema.Indexes(), nil
}

// safeRelations wraps the schema.Relations method with recover to ensure no panics in loading.
func safeRelations(schema Interface) (rels []Relation, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("schema.Relations panics: %v", v)
			rels = nil
		}
	}()
	return schema.Relations(), nil
}

// safeMixin wraps the schema.Mixin method with recover to ensure no panics in loading.
func safeMixin(schema Interface) (mixin []Mixin, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("schema.Mixin panics: %v", v)
			mixin = nil
		}
	}()
	return schema.Mixin(), nil
}

// safeConfig wraps the schema.Config method with recover to ensure no panics in loading.
func safeConfig(schema Interface) (cfg Config, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("schema.Config panics: %v", v)
			cfg = Config{}
		}
	}()
	return schema.Config(), nil
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func or(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
