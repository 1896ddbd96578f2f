// Package entity loads and persists records of loaded models. An Entity
// holds the attribute values of one row together with its lazily loaded
// auxiliary records: the active content version, the ordered block list
// and the settings.
//
// The Store owns the database handle and the registry and performs all
// queries. Entities themselves never touch the database:
//
//	store := entity.NewStore(drv, reg)
//	page, err := store.FindByID(ctx, pageModel, 1)
//	if err != nil {
//		return err
//	}
//	blocks, err := store.Blocks(ctx, page)
package entity

import (
	"fmt"
	"maps"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/settings"
)

// Entity is a record of a model. It is not safe for concurrent mutation;
// the auxiliary record loaders may be called concurrently.
type Entity struct {
	model     *blocks.Model
	id        int
	values    map[string]any
	persisted bool

	content  cell[*Entity]
	blocks   cell[[]*Block]
	settings cell[settings.Value]
}

// Block is an entry of the block list of an entity.
type Block struct {
	*Entity
	// Required is the required flag of the join row.
	Required bool
}

// Aux identifies an auxiliary record kind.
type Aux uint8

// Auxiliary record kinds.
const (
	AuxContent Aux = iota
	AuxBlocks
	AuxSettings
)

func newEntity(m *blocks.Model) *Entity {
	return &Entity{model: m, values: make(map[string]any)}
}

// Model returns the model of the entity.
func (e *Entity) Model() *blocks.Model { return e.model }

// ID returns the primary key, or 0 if the entity is new.
func (e *Entity) ID() int { return e.id }

// IsNew reports whether the entity has not been persisted.
func (e *Entity) IsNew() bool { return !e.persisted }

// Value returns the value of an attribute or belongs-to column.
func (e *Entity) Value(name string) any { return e.values[name] }

// Values returns a copy of the attribute and belongs-to column values.
func (e *Entity) Values() map[string]any { return maps.Clone(e.values) }

// Set sets the value of an attribute or belongs-to column.
func (e *Entity) Set(name string, v any) error {
	if !column(e.model, name) {
		return fmt.Errorf("entity: model %q has no column %q", e.model.Name, name)
	}
	e.values[name] = v
	return nil
}

// SetBlocks replaces the cached block list. It is persisted by
// Store.SaveBlocks.
func (e *Entity) SetBlocks(bs []*Block) {
	e.blocks.set(append([]*Block(nil), bs...))
}

// State returns the load state of an auxiliary record.
func (e *Entity) State(aux Aux) State {
	switch aux {
	case AuxContent:
		return e.content.State()
	case AuxBlocks:
		return e.blocks.State()
	case AuxSettings:
		return e.settings.State()
	}
	return Unloaded
}

// Reset drops the cached auxiliary records. They are loaded again on the
// next access.
func (e *Entity) Reset() {
	e.content.reset()
	e.blocks.reset()
	e.settings.reset()
}

// String implements the fmt.Stringer interface.
func (e *Entity) String() string {
	if e.persisted {
		return fmt.Sprintf("%s(id=%d)", e.model.Name, e.id)
	}
	return e.model.Name + "(new)"
}

// column reports whether name is an attribute or a belongs-to column of m.
func column(m *blocks.Model, name string) bool {
	if _, ok := m.Attribute(name); ok {
		return true
	}
	for _, j := range m.BelongsTo() {
		if j.Key == name {
			return true
		}
	}
	return false
}

// columns returns the belongs-to columns and the attributes of m in table
// order.
func columns(m *blocks.Model) []string {
	var cs []string
	for _, j := range m.BelongsTo() {
		cs = append(cs, j.Key)
	}
	return append(cs, m.AttributeNames()...)
}
