package schema

import (
	"fmt"
	"strings"
)

// MaxIdentifierLength is the longest identifier accepted by every supported
// dialect (PostgreSQL truncates at 63 bytes).
const MaxIdentifierLength = 63

// Problem is an issue found in a table definition.
type Problem struct {
	Table   string
	Column  string
	Message string
}

func (p *Problem) Error() string {
	if p.Column != "" {
		return fmt.Sprintf("%s.%s: %s", p.Table, p.Column, p.Message)
	}
	return fmt.Sprintf("%s: %s", p.Table, p.Message)
}

// ValidationResult holds the problems found by ValidateTable and ValidateSchema.
type ValidationResult struct {
	Errors   []*Problem
	Warnings []*Problem
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the errors joined into one error, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("schema: invalid definition: %s", strings.Join(msgs, "; "))
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) errorf(table, column, format string, args ...any) {
	r.Errors = append(r.Errors, &Problem{Table: table, Column: column, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warnf(table, column, format string, args ...any) {
	r.Warnings = append(r.Warnings, &Problem{Table: table, Column: column, Message: fmt.Sprintf(format, args...)})
}

// ValidateTable validates a single table definition.
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}
	if len(t.PrimaryKey) == 0 {
		result.warnf(t.Name, "", "table has no primary key")
	}
	if len(t.Name) > MaxIdentifierLength {
		result.errorf(t.Name, "", "table name exceeds %d characters", MaxIdentifierLength)
	}

	colNames := make(map[string]bool)
	for _, c := range t.Columns {
		if colNames[c.Name] {
			result.errorf(t.Name, c.Name, "duplicate column name")
		}
		colNames[c.Name] = true
		switch {
		case c.Type == Enum && len(c.Enums) == 0:
			result.errorf(t.Name, c.Name, "enum column without values")
		case (c.Type == Varchar || c.Type == Char) && c.Size <= 0:
			result.errorf(t.Name, c.Name, "%s column without size", c.Type)
		}
	}

	idxNames := make(map[string]bool)
	for _, idx := range t.Indexes {
		if idxNames[idx.Name] {
			result.errorf(t.Name, "", "duplicate index name: %s", idx.Name)
		}
		idxNames[idx.Name] = true
		if len(idx.Name) > MaxIdentifierLength {
			result.warnf(t.Name, "", "index name %q exceeds %d characters", idx.Name, MaxIdentifierLength)
		}
		for _, col := range idx.Columns {
			if !colNames[col.Name] {
				result.errorf(t.Name, "", "index %q references non-existent column %q", idx.Name, col.Name)
			}
		}
	}

	for _, fk := range t.ForeignKeys {
		if len(fk.Symbol) > MaxIdentifierLength {
			result.warnf(t.Name, "", "foreign key name %q exceeds %d characters", fk.Symbol, MaxIdentifierLength)
		}
		for _, col := range fk.Columns {
			if !colNames[col.Name] {
				result.errorf(t.Name, "", "foreign key %q references non-existent column %q", fk.Symbol, col.Name)
			}
		}
	}
	return result
}

// ValidateSchema validates a set of tables that are created together. Foreign
// keys must reference tables of the set.
func ValidateSchema(tables []*Table) *ValidationResult {
	result := &ValidationResult{}
	tableNames := make(map[string]bool)
	for _, t := range tables {
		if tableNames[t.Name] {
			result.errorf(t.Name, "", "duplicate table name")
		}
		tableNames[t.Name] = true
		tr := ValidateTable(t)
		result.Errors = append(result.Errors, tr.Errors...)
		result.Warnings = append(result.Warnings, tr.Warnings...)
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if !tableNames[fk.RefTable.Name] {
				result.errorf(t.Name, "", "foreign key %q references non-existent table %q", fk.Symbol, fk.RefTable.Name)
			}
		}
	}
	return result
}
