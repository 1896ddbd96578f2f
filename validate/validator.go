package validate

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/dialect"
	"github.com/blockscms/blocks/dialect/sql"
)

// Record is the view of an entity the rules are evaluated against.
type Record interface {
	// Model returns the loaded model of the record.
	Model() *blocks.Model
	// ID returns the primary key, or 0 if the record is not persisted.
	ID() int
	// Value returns the value of an attribute, or nil.
	Value(name string) any
}

// Driver is the driver unique checks are counted on.
type Driver interface {
	dialect.ExecQuerier
	Dialect() string
}

// Validator evaluates the synthesized rules of models. Rules are
// synthesized once per model and cached.
type Validator struct {
	drv    Driver
	format *validator.Validate
	rules  sync.Map // *blocks.Model -> []*Rule
}

// New returns a Validator. A nil driver skips the unique checks.
func New(drv Driver) *Validator {
	return &Validator{drv: drv, format: validator.New()}
}

// Rules returns the cached rules of a model.
func (v *Validator) Rules(m *blocks.Model) []*Rule {
	if rs, ok := v.rules.Load(m); ok {
		return rs.([]*Rule)
	}
	rs, _ := v.rules.LoadOrStore(m, Rules(m))
	return rs.([]*Rule)
}

// Validate evaluates every rule of the record's model. It returns a
// *blocks.ValidationFailure listing all violations, or the first error of
// a unique check query.
func (v *Validator) Validate(ctx context.Context, r Record) error {
	m := r.Model()
	var errs []*blocks.ValidationError
	fail := func(attr string, kind Kind, format string, args ...any) {
		errs = append(errs, blocks.NewValidationError(attr, string(kind), fmt.Sprintf(format, args...)))
	}
	for _, rule := range v.Rules(m) {
		switch rule.Kind {
		case Required:
			for _, name := range rule.Attributes {
				if blank(r.Value(name)) {
					fail(name, rule.Kind, "cannot be blank")
				}
			}
		case Unique, CompositeUnique:
			if err := v.unique(ctx, r, rule, fail); err != nil {
				return err
			}
		case Safe:
		default:
			for _, name := range rule.Attributes {
				val := r.Value(name)
				if empty(val) {
					continue
				}
				if msg := v.check(rule, val); msg != "" {
					fail(name, rule.Kind, "%s", msg)
				}
			}
		}
	}
	return blocks.NewValidationFailure(m.Name, errs)
}

// check evaluates a single-value rule and returns the violation message.
func (v *Validator) check(rule *Rule, val any) string {
	switch rule.Kind {
	case Numerical:
		f, ok := number(val)
		if !ok {
			return "must be a number"
		}
		if rule.IntegerOnly && f != float64(int64(f)) {
			return "must be an integer"
		}
		if rule.Min != nil && f < *rule.Min {
			return fmt.Sprintf("is too small (minimum is %s)", formatFloat(*rule.Min))
		}
		if rule.Max != nil && f > *rule.Max {
			return fmt.Sprintf("is too big (maximum is %s)", formatFloat(*rule.Max))
		}
	case In:
		s := str(val)
		for _, allowed := range rule.Range {
			if s == allowed {
				return ""
			}
		}
		return "is not in the list"
	case Match:
		re, err := regexp.Compile(rule.Pattern)
		if err != nil || !re.MatchString(str(val)) {
			return "is invalid"
		}
	case Email:
		if v.format.Var(str(val), "email") != nil {
			return "is not a valid email address"
		}
	case URL:
		s := str(val)
		if !rule.RequireScheme && !strings.Contains(s, "://") {
			s = "http://" + s
		}
		if v.format.Var(s, "url") != nil {
			return "is not a valid URL"
		}
	case Length:
		n := utf8.RuneCountInString(str(val))
		switch {
		case rule.Is != nil && n != *rule.Is:
			return fmt.Sprintf("is of the wrong length (should be %d characters)", *rule.Is)
		case rule.MinLength != nil && n < *rule.MinLength:
			return fmt.Sprintf("is too short (minimum is %d characters)", *rule.MinLength)
		case rule.MaxLength != nil && n > *rule.MaxLength:
			return fmt.Sprintf("is too long (maximum is %d characters)", *rule.MaxLength)
		}
	}
	return ""
}

// unique counts the other rows of the table holding the same values.
func (v *Validator) unique(ctx context.Context, r Record, rule *Rule, fail func(string, Kind, string, ...any)) error {
	if v.drv == nil {
		return nil
	}
	m := r.Model()
	check := func(attr string, columns []string) error {
		sel := sql.Dialect(v.drv.Dialect()).Select().Count().From(m.Table)
		for _, c := range columns {
			val := r.Value(c)
			if val == nil {
				sel.Where(sql.IsNull(c))
			} else {
				sel.Where(sql.EQ(c, val))
			}
		}
		if id := r.ID(); id != 0 {
			sel.Where(sql.NEQ("id", id))
		}
		query, args := sel.Query()
		n, err := sql.QueryInt(ctx, v.drv, query, args)
		if err != nil {
			return blocks.NewQueryError(m.Name, string(rule.Kind), err)
		}
		if n > 0 {
			if len(columns) > 1 {
				fail(attr, rule.Kind, "has already been taken together with %s", strings.Join(columns[1:], ", "))
			} else {
				fail(attr, rule.Kind, "has already been taken")
			}
		}
		return nil
	}
	if rule.Kind == CompositeUnique {
		anchor := rule.Attributes[0]
		if empty(r.Value(anchor)) {
			return nil
		}
		return check(anchor, append([]string{anchor}, rule.With...))
	}
	for _, name := range rule.Attributes {
		if empty(r.Value(name)) {
			continue
		}
		if err := check(name, []string{name}); err != nil {
			return err
		}
	}
	return nil
}

// empty reports whether a value is absent. Rules other than required skip
// empty values.
func empty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// blank is like empty but also treats whitespace-only strings as absent.
func blank(v any) bool {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return empty(v)
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func number(v any) (float64, bool) {
	switch v := v.(type) {
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
