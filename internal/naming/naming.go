// Package naming derives default table and column names from model type names.
package naming

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// Handle returns the class handle of a type name: the name without the
// given prefix and suffix. A prefix or suffix that does not match is kept.
func Handle(typeName, prefix, suffix string) string {
	h := typeName
	if prefix != "" {
		h = strings.TrimPrefix(h, prefix)
	}
	if suffix != "" {
		h = strings.TrimSuffix(h, suffix)
	}
	return h
}

// Table returns the default table name of a handle.
func Table(handle string) string { return lower.String(handle) }

// ContentJoinTable returns the default content join table name of a handle.
func ContentJoinTable(handle string) string { return Table(handle) + "content" }

// BlocksJoinTable returns the default blocks join table name of a handle.
func BlocksJoinTable(handle string) string { return Table(handle) + "blocks" }

// SettingsTable returns the default settings table name of a handle.
func SettingsTable(handle string) string { return Table(handle) + "settings" }

// ForeignKey returns the default foreign key column of a handle.
func ForeignKey(handle string) string { return Table(handle) + "_id" }

// Index returns the name of an index over columns of table.
//
//	{prefix}{table}_{col1}_{col2}[_unique]_idx
func Index(prefix, table string, columns []string, unique bool) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(table)
	for _, c := range columns {
		b.WriteByte('_')
		b.WriteString(c)
	}
	if unique {
		b.WriteString("_unique")
	}
	b.WriteString("_idx")
	return b.String()
}

// ForeignKeyConstraint returns the name of a foreign key from table to
// refTable.
//
//	{prefix}{table}_{refTable}_fk
func ForeignKeyConstraint(prefix, table, refTable string) string {
	return prefix + table + "_" + refTable + "_fk"
}
