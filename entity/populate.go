package entity

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/blockscms/blocks"
)

// DiscriminatorColumn holds the class handle of a polymorphic row.
const DiscriminatorColumn = "class"

// ErrNoRow is returned by Populate for an absent or empty row.
var ErrNoRow = errors.New("entity: no row to populate")

// Populate instantiates a persisted entity from a raw row. A non-empty
// "class" value is wrapped in the class prefix and suffix of base and
// resolved in reg; the entity then belongs to the resolved model. The
// redirect happens at most once: the resolved model populates the row
// directly. An unknown class fails with a *blocks.ResolutionError rather
// than falling back to base.
//
// Columns that are neither the primary key, an attribute nor a belongs-to
// column of the model are ignored.
func Populate(reg *blocks.Registry, base *blocks.Model, row map[string]any) (*Entity, error) {
	if len(row) == 0 {
		return nil, ErrNoRow
	}
	m := base
	if class, ok := row[DiscriminatorColumn]; ok && class != nil {
		if reg == nil {
			return nil, fmt.Errorf("entity: no registry to resolve class %v", class)
		}
		resolved, err := reg.Resolve(base, fmt.Sprint(class))
		if err != nil {
			return nil, err
		}
		m = resolved
	}
	return populate(m, row)
}

func populate(m *blocks.Model, row map[string]any) (*Entity, error) {
	e := newEntity(m)
	for name, v := range row {
		if name == "id" {
			id, ok := toInt(v)
			if !ok {
				return nil, fmt.Errorf("entity: populate %s: invalid id %v (%T)", m.Name, v, v)
			}
			e.id = id
			continue
		}
		if column(m, name) {
			e.values[name] = v
		}
	}
	e.persisted = e.id != 0
	return e, nil
}

func toInt(v any) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), v == float64(int(v))
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	case []byte:
		n, err := strconv.Atoi(string(v))
		return n, err == nil
	}
	return 0, false
}

func truthy(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	n, ok := toInt(v)
	return ok && n != 0
}
