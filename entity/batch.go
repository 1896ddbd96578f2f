package entity

import (
	"context"
	"fmt"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/dialect/sql"
	"github.com/blockscms/blocks/settings"
)

// orderByKeys reorders values to match the order of keys. Keys without a
// value are reported in missing.
func orderByKeys[K comparable, V any](keys []K, values []V, key func(V) K) (ordered []V, missing []K) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[key(v)] = v
	}
	ordered = make([]V, 0, len(keys))
	for _, k := range keys {
		if v, ok := lookup[k]; ok {
			ordered = append(ordered, v)
		} else {
			missing = append(missing, k)
		}
	}
	return ordered, missing
}

// groupByKey groups values sharing the same key.
func groupByKey[K comparable, V any](values []V, key func(V) K) map[K][]V {
	groups := make(map[K][]V)
	for _, v := range values {
		k := key(v)
		groups[k] = append(groups[k], v)
	}
	return groups
}

// FindAll returns the entities of m with the given primary keys in one
// query, in the order of ids and resolved to their concrete models. A
// missing key fails with a *blocks.NotFoundError for the first of them.
func (s *Store) FindAll(ctx context.Context, m *blocks.Model, ids ...int) ([]*Entity, error) {
	if !s.installed {
		return nil, blocks.ErrNotInstalled
	}
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	sel := s.builder().Select().From(m.Table).Where(sql.In("id", args...))
	es, err := s.query(ctx, m, "find", sel)
	if err != nil {
		return nil, err
	}
	ordered, missing := orderByKeys(ids, es, (*Entity).ID)
	if len(missing) > 0 {
		return nil, blocks.NewNotFoundErrorWithID(m.Name, missing[0])
	}
	return ordered, nil
}

// LoadSettings loads the settings of entities of the same model with one
// query and caches them on each entity. Entities whose settings are already
// loaded or set are left untouched.
func (s *Store) LoadSettings(ctx context.Context, es ...*Entity) error {
	var pending []*Entity
	for _, e := range es {
		if e.settings.State() == Unloaded {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	m := pending[0].model
	ids := make([]any, 0, len(pending))
	for _, e := range pending {
		if e.model.SettingsTable != m.SettingsTable {
			return fmt.Errorf("entity: loading settings of %s with %s", e, pending[0])
		}
		if e.persisted {
			ids = append(ids, e.id)
		}
	}
	var groups map[int][]map[string]any
	if m.HasSettings && s.installed && len(ids) > 0 {
		query, args := s.builder().Select("s."+m.ForeignKey, "s.name", "s.value").
			From(m.SettingsTable, "s").
			Where(sql.In("s."+m.ForeignKey, ids...)).
			Query()
		rows, err := sql.QueryMaps(ctx, s.drv, query, args)
		if err != nil {
			return blocks.NewQueryError(m.Name, "settings", err)
		}
		fk := m.ForeignKey
		groups = groupByKey(rows, func(row map[string]any) int {
			id, _ := toInt(row[fk])
			return id
		})
	}
	for _, e := range pending {
		defaults := e.model.DefaultSettings.Clone()
		if defaults == nil {
			defaults = settings.Value{}
		}
		var rows []map[string]any
		if e.persisted {
			rows = groups[e.id]
		}
		e.settings.set(expandSettings(defaults, rows))
	}
	return nil
}
