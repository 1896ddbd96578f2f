package entity

import (
	"context"
	"fmt"
	"slices"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/dialect"
	"github.com/blockscms/blocks/dialect/sql"
	"github.com/blockscms/blocks/settings"
)

// Content returns the active content version of the entity: the content
// row joined with active = 1 and the highest num. Models without content,
// new entities and entities without an active version get an empty,
// unsaved content entity. The result is cached on the entity.
func (s *Store) Content(ctx context.Context, e *Entity) (*Entity, error) {
	return e.content.get(ctx, func(ctx context.Context) (*Entity, error) {
		cm, err := s.reg.Lookup(s.contentModel)
		if err != nil {
			return nil, err
		}
		m := e.model
		if !m.HasContent || !e.persisted || !s.installed {
			return newEntity(cm), nil
		}
		query, args := s.builder().Select("c.*").
			From(m.ContentJoinTable, "j").
			Join(cm.Table, "c", "j.content_id", "c.id").
			Where(sql.EQ("j."+m.ForeignKey, e.id)).
			Where(sql.EQ("j.active", 1)).
			OrderDesc("j.num").
			Limit(1).
			Query()
		rows, err := sql.QueryMaps(ctx, s.drv, query, args)
		if err != nil {
			return nil, blocks.NewQueryError(m.Name, "content", err)
		}
		if len(rows) == 0 {
			return newEntity(cm), nil
		}
		return populate(cm, rows[0])
	})
}

// Blocks returns the block list of the entity ordered by sort_order. Each
// block is instantiated as its concrete blocktype and carries the required
// flag of its join row. Models without blocks and new entities have an
// empty list. The list is cached on the entity; the returned slice is a
// copy.
func (s *Store) Blocks(ctx context.Context, e *Entity) ([]*Block, error) {
	bs, err := e.blocks.get(ctx, func(ctx context.Context) ([]*Block, error) {
		m := e.model
		if !m.HasBlocks || !e.persisted || !s.installed {
			return nil, nil
		}
		bm, err := s.reg.Lookup(s.blockModel)
		if err != nil {
			return nil, err
		}
		query, args := s.builder().Select("j.required", "b.*").
			From(m.BlocksJoinTable, "j").
			Join(bm.Table, "b", "j.block_id", "b.id").
			Where(sql.EQ("j."+m.ForeignKey, e.id)).
			OrderBy("j.sort_order").
			Query()
		rows, err := sql.QueryMaps(ctx, s.drv, query, args)
		if err != nil {
			return nil, blocks.NewQueryError(m.Name, "blocks", err)
		}
		bs := make([]*Block, 0, len(rows))
		for _, row := range rows {
			required := truthy(row["required"])
			delete(row, "required")
			b, err := Populate(s.reg, bm, row)
			if err != nil {
				return nil, err
			}
			bs = append(bs, &Block{Entity: b, Required: required})
		}
		return bs, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(bs), nil
}

// SaveBlocks replaces the persisted block list of the entity with the
// cached one in a single transaction. The sort_order of a block is its
// position plus one. A block list that was never loaded or set is left
// untouched.
func (s *Store) SaveBlocks(ctx context.Context, e *Entity) error {
	m := e.model
	if !m.HasBlocks {
		return fmt.Errorf("entity: model %q has no blocks", m.Name)
	}
	if !s.installed {
		return blocks.ErrNotInstalled
	}
	if !e.persisted {
		return fmt.Errorf("entity: saving blocks of unsaved %s", m.Name)
	}
	bs, ok := e.blocks.peek()
	if !ok {
		return nil
	}
	ins := s.builder().Insert(m.BlocksJoinTable).Columns(m.ForeignKey, "block_id", "required", "sort_order")
	for i, b := range bs {
		if b.IsNew() {
			return fmt.Errorf("entity: block %d of %s is unsaved", i, e)
		}
		ins.Values(e.id, b.id, storable(b.Required), i+1)
	}
	err := s.withTx(ctx, func(tx dialect.Tx) error {
		query, args := s.builder().Delete(m.BlocksJoinTable).Where(sql.EQ(m.ForeignKey, e.id)).Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return err
		}
		if len(bs) == 0 {
			return nil
		}
		query, args = ins.Query()
		return tx.Exec(ctx, query, args, nil)
	})
	if err != nil {
		return mutationError(m, "save blocks", err)
	}
	s.log.DebugContext(ctx, "blocks saved", "model", m.Name, "id", e.id, "blocks", len(bs))
	return nil
}

// Settings returns the settings of the entity: the persisted settings
// expanded from their dotted keys and merged over the model defaults.
// Models without settings and new entities get the defaults. The value is
// cached on the entity; the returned value is a copy.
func (s *Store) Settings(ctx context.Context, e *Entity) (settings.Value, error) {
	v, err := e.settings.get(ctx, func(ctx context.Context) (settings.Value, error) {
		m := e.model
		defaults := m.DefaultSettings.Clone()
		if defaults == nil {
			defaults = settings.Value{}
		}
		if !m.HasSettings || !e.persisted || !s.installed {
			return defaults, nil
		}
		query, args := s.builder().Select("s.name", "s.value").
			From(m.SettingsTable, "s").
			Where(sql.EQ("s."+m.ForeignKey, e.id)).
			Query()
		rows, err := sql.QueryMaps(ctx, s.drv, query, args)
		if err != nil {
			return nil, blocks.NewQueryError(m.Name, "settings", err)
		}
		return expandSettings(defaults, rows), nil
	})
	if err != nil {
		return nil, err
	}
	return v.Clone(), nil
}

// expandSettings merges the name/value rows of a settings table over
// defaults. A NULL value decodes as null.
func expandSettings(defaults settings.Value, rows []map[string]any) settings.Value {
	if len(rows) == 0 {
		return defaults
	}
	flat := make(settings.Flat, len(rows))
	for _, row := range rows {
		value := "null"
		if v := row["value"]; v != nil {
			value = fmt.Sprint(v)
		}
		flat[fmt.Sprint(row["name"])] = value
	}
	return settings.Merge(defaults, settings.Expand(flat))
}

// SetSettings merges v over the model defaults and caches the result. For
// persisted entities, the stored settings are replaced in one transaction:
// all rows of the entity are deleted and the flattened settings are
// inserted in a single batch.
func (s *Store) SetSettings(ctx context.Context, e *Entity, v settings.Value) error {
	m := e.model
	merged := settings.Merge(m.DefaultSettings, v)
	if e.persisted && s.installed {
		if !m.HasSettings {
			return fmt.Errorf("entity: model %q has no settings", m.Name)
		}
		flat, err := settings.Flatten(merged)
		if err != nil {
			return err
		}
		err = s.withTx(ctx, func(tx dialect.Tx) error {
			query, args := s.builder().Delete(m.SettingsTable).Where(sql.EQ(m.ForeignKey, e.id)).Query()
			if err := tx.Exec(ctx, query, args, nil); err != nil {
				return err
			}
			if len(flat) == 0 {
				return nil
			}
			ins := s.builder().Insert(m.SettingsTable).Columns(m.ForeignKey, "name", "value")
			for _, k := range flat.Keys() {
				ins.Values(e.id, k, flat[k])
			}
			query, args = ins.Query()
			return tx.Exec(ctx, query, args, nil)
		})
		if err != nil {
			return mutationError(m, "save settings", err)
		}
		s.log.DebugContext(ctx, "settings saved", "model", m.Name, "id", e.id, "keys", len(flat))
	}
	e.settings.set(merged)
	return nil
}
