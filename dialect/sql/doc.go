// Package sql provides the database/sql backed driver and the SQL statement
// builders used by the blocks model core.
//
// # Builder Types
//
//   - Builder: low-level SQL string builder with identifier quoting
//   - Selector: SELECT builder with joins, predicates, ordering and limits
//   - InsertBuilder: INSERT builder, including multi-row inserts
//   - UpdateBuilder: UPDATE builder with SET and WHERE clauses
//   - DeleteBuilder: DELETE builder with WHERE predicates
//
// # Dialect Support
//
// Identifiers and placeholders adapt to the dialect:
//
//	sql.Dialect(dialect.Postgres).Select("name").From("pagesettings").
//	    Where(sql.EQ("page_id", 1)).Query()
//	// SELECT "name" FROM "pagesettings" WHERE "page_id" = $1
//
//	sql.Dialect(dialect.SQLite).Select("name").From("pagesettings").
//	    Where(sql.EQ("page_id", 1)).Query()
//	// SELECT `name` FROM `pagesettings` WHERE `page_id` = ?
//
// # Joins
//
//	sql.Dialect(dialect.MySQL).
//	    Select("j.required", "b.*").
//	    From("pageblocks", "j").
//	    Join("blocks", "b", "j.block_id", "b.id").
//	    Where(sql.EQ("j.page_id", 7)).
//	    OrderBy("j.sort_order")
//
// # Statistics
//
// StatsDriver wraps a Driver with counters and slow query logging through
// log/slog.
package sql
