package validate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/dialect"
	"github.com/blockscms/blocks/dialect/sql"
	"github.com/blockscms/blocks/validate"
)

type record struct {
	model  *blocks.Model
	id     int
	values map[string]any
}

func (r *record) Model() *blocks.Model  { return r.model }
func (r *record) ID() int               { return r.id }
func (r *record) Value(name string) any { return r.values[name] }

type violation struct{ attr, rule, msg string }

func violations(t *testing.T, err error) []violation {
	t.Helper()
	var f *blocks.ValidationFailure
	require.True(t, errors.As(err, &f), "expected a validation failure, got %v", err)
	out := make([]violation, len(f.Errors))
	for i, e := range f.Errors {
		out[i] = violation{e.Attribute, e.Rule, e.Message}
	}
	return out
}

func TestValidator_Values(t *testing.T) {
	t.Parallel()
	v := validate.New(nil)
	m := blocks.MustLoad(Account{})

	err := v.Validate(context.Background(), &record{model: m, values: map[string]any{
		"username": "ab",
		"email":    "not-an-email",
		"homepage": "example.com",
		"country":  "US",
		"lang":     "eng",
		"age":      200,
		"balance":  "abc",
		"status":   "deleted",
		"admin":    true,
		"code":     "abc",
	}})
	require.Error(t, err)
	assert.True(t, blocks.IsValidationError(err))
	assert.Equal(t, []violation{
		{"age", "numerical", "is too big (maximum is 150)"},
		{"balance", "numerical", "must be a number"},
		{"status", "in", "is not in the list"},
		{"code", "match", "is invalid"},
		{"email", "email", "is not a valid email address"},
		{"lang", "length", "is of the wrong length (should be 2 characters)"},
		{"username", "length", "is too short (minimum is 3 characters)"},
	}, violations(t, err))
}

func TestValidator_Valid(t *testing.T) {
	t.Parallel()
	v := validate.New(nil)
	m := blocks.MustLoad(Account{})
	err := v.Validate(context.Background(), &record{model: m, values: map[string]any{
		"username": "ünïcödé",
		"email":    "bob@example.com",
		"homepage": "https://example.com/about",
		"lang":     "en",
		"age":      "42",
		"balance":  12.5,
		"status":   "banned",
		"admin":    false,
		"code":     "ABC",
	}})
	assert.NoError(t, err)
}

func TestValidator_Required(t *testing.T) {
	t.Parallel()
	v := validate.New(nil)
	m := blocks.MustLoad(Account{})
	err := v.Validate(context.Background(), &record{model: m, values: map[string]any{
		"username": "   ",
	}})
	assert.Equal(t, []violation{
		{"username", "required", "cannot be blank"},
		{"email", "required", "cannot be blank"},
	}, violations(t, err))
}

func TestValidator_Numbers(t *testing.T) {
	t.Parallel()
	v := validate.New(nil)
	m := blocks.MustLoad(Triple{})
	tests := []struct {
		value any
		msg   string
	}{
		{1, ""},
		{int64(-3), ""},
		{uint8(7), ""},
		{"12", ""},
		{2.0, ""},
		{2.5, "must be an integer"},
		{"1.5", "must be an integer"},
		{"x", "must be a number"},
		{[]int{1}, "must be a number"},
	}
	for _, tt := range tests {
		err := v.Validate(context.Background(), &record{model: m, values: map[string]any{"a": tt.value}})
		if tt.msg == "" {
			assert.NoError(t, err, "%v", tt.value)
			continue
		}
		assert.Equal(t, []violation{{"a", "numerical", tt.msg}}, violations(t, err), "%v", tt.value)
	}
}

func TestValidator_Unique(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	v := validate.New(sql.OpenDB(dialect.MySQL, db))
	m := blocks.MustLoad(Account{})
	r := &record{model: m, id: 5, values: map[string]any{
		"username": "bob",
		"email":    "bob@example.com",
		"lang":     "en",
	}}

	mock.ExpectQuery("SELECT COUNT(*) FROM `account` WHERE (`username` = ? AND `email` = ? AND `lang` = ? AND `id` <> ?)").
		WithArgs("bob", "bob@example.com", "en", 5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT(*) FROM `account` WHERE (`username` = ? AND `id` <> ?)").
		WithArgs("bob", 5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT COUNT(*) FROM `account` WHERE (`email` = ? AND `id` <> ?)").
		WithArgs("bob@example.com", 5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err = v.Validate(context.Background(), r)
	assert.Equal(t, []violation{
		{"username", "composite-unique", "has already been taken together with email, lang"},
		{"email", "unique", "has already been taken"},
	}, violations(t, err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidator_UniqueNewRecord(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	v := validate.New(sql.OpenDB(dialect.Postgres, db))
	m := blocks.MustLoad(Triple{})

	mock.ExpectQuery(`SELECT COUNT(*) FROM "triple" WHERE ("a" = $1 AND "b" = $2 AND "c" IS NULL)`).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	require.NoError(t, v.Validate(context.Background(), &record{model: m, values: map[string]any{"a": 1, "b": 2}}))

	// Without an anchor value there is nothing to check.
	require.NoError(t, v.Validate(context.Background(), &record{model: m, values: map[string]any{"b": 2}}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidator_QueryError(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	v := validate.New(sql.OpenDB(dialect.SQLite, db))
	m := blocks.MustLoad(Triple{})

	failure := errors.New("no such table: triple")
	mock.ExpectQuery("SELECT COUNT").WillReturnError(failure)
	err = v.Validate(context.Background(), &record{model: m, values: map[string]any{"a": 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.True(t, blocks.IsQueryError(err))
	assert.False(t, blocks.IsValidationError(err))
}

func TestValidator_RulesCached(t *testing.T) {
	t.Parallel()
	v := validate.New(nil)
	m := blocks.MustLoad(Account{})
	first := v.Rules(m)
	require.NotEmpty(t, first)
	assert.Same(t, first[0], v.Rules(m)[0])
}
