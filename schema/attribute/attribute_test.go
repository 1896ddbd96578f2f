package attribute_test

import (
	"testing"

	"github.com/blockscms/blocks/schema/attribute"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt(t *testing.T) {
	d := attribute.Int("age").
		Range(0, 150).
		Unsigned().
		Default(18).
		Required().
		Descriptor()
	require.NoError(t, d.Err)
	assert.Equal(t, "age", d.Name)
	assert.Equal(t, attribute.TypeInt, d.Type)
	require.NotNil(t, d.Min)
	require.NotNil(t, d.Max)
	assert.Equal(t, 0.0, *d.Min)
	assert.Equal(t, 150.0, *d.Max)
	assert.True(t, d.Unsigned)
	assert.True(t, d.Required)
	assert.True(t, d.HasDefault())
	assert.Equal(t, 18, d.Default)
}

func TestVarchar(t *testing.T) {
	d := attribute.Varchar("handle").
		MinLength(3).
		MaxLength(50).
		Match(`^[a-z]+$`).
		Unique().
		Indexed().
		Descriptor()
	require.NoError(t, d.Err)
	assert.Equal(t, attribute.TypeVarchar, d.Type)
	assert.Equal(t, 3, *d.MinLength)
	assert.Equal(t, 50, *d.MaxLength)
	assert.Nil(t, d.Length)
	assert.Equal(t, `^[a-z]+$`, d.MatchPattern)
	assert.True(t, d.Unique)
	assert.True(t, d.Indexed)
	assert.False(t, d.HasDefault())
}

func TestEnum(t *testing.T) {
	d := attribute.Enum("type", "published", "draft").Values("autosave").Default("draft").Descriptor()
	require.NoError(t, d.Err)
	assert.Equal(t, []string{"published", "draft", "autosave"}, d.Values)
}

func TestDescriptorErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		builder *attribute.Builder
		wantErr string
	}{
		{"enum_without_values", attribute.Enum("status"), `attribute "status": enum without values`},
		{"missing_name", attribute.Int(""), "attribute: missing name"},
		{"bad_pattern", attribute.Varchar("code").Match("("), `attribute "code": invalid pattern`},
		{"negative_length", attribute.Char("iso").Length(-1), `attribute "iso": negative length -1`},
		{"min_over_max_length", attribute.Varchar("x").MinLength(5).MaxLength(2), "min length 5 exceeds max length 2"},
		{"min_over_max", attribute.Float("ratio").Range(2, 1), "min 2 exceeds max 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := tt.builder.Descriptor()
			require.Error(t, d.Err)
			assert.Contains(t, d.Err.Error(), tt.wantErr)
			// Descriptor is idempotent.
			assert.Equal(t, d.Err.Error(), tt.builder.Descriptor().Err.Error())
		})
	}
}

func TestTypes(t *testing.T) {
	t.Parallel()

	for _, typ := range []attribute.Type{
		attribute.TypeTinyInt, attribute.TypeSmallInt, attribute.TypeMediumInt,
		attribute.TypeInt, attribute.TypeBigInt,
	} {
		assert.True(t, typ.Integer(), typ.String())
		assert.True(t, typ.Numeric(), typ.String())
		assert.False(t, typ.Textual(), typ.String())
	}
	assert.True(t, attribute.TypeFloat.Numeric())
	assert.False(t, attribute.TypeFloat.Integer())
	assert.True(t, attribute.TypeDecimal.Numeric())
	assert.True(t, attribute.TypeEmail.Textual())
	assert.True(t, attribute.TypeEmail.Macro())
	assert.False(t, attribute.TypeVarchar.Macro())
	assert.False(t, attribute.TypeInvalid.Valid())
	assert.Equal(t, "invalid", attribute.Type(200).String())
	assert.Equal(t, "mediumtext", attribute.TypeMediumText.String())
	assert.Equal(t, "sortorder", attribute.TypeSortOrder.String())
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      *attribute.Descriptor
		check   func(t *testing.T, d *attribute.Descriptor)
		keepsIn attribute.Type
	}{
		{
			name: "email",
			in:   attribute.Email("email").Descriptor(),
			check: func(t *testing.T, d *attribute.Descriptor) {
				assert.Equal(t, attribute.TypeVarchar, d.Type)
				assert.Equal(t, 255, *d.MaxLength)
			},
			keepsIn: attribute.TypeEmail,
		},
		{
			name: "url",
			in:   attribute.Url("website").MaxLength(100).Descriptor(),
			check: func(t *testing.T, d *attribute.Descriptor) {
				assert.Equal(t, attribute.TypeVarchar, d.Type)
				assert.Equal(t, 100, *d.MaxLength)
			},
			keepsIn: attribute.TypeUrl,
		},
		{
			name: "name",
			in:   attribute.Name("name").Descriptor(),
			check: func(t *testing.T, d *attribute.Descriptor) {
				assert.Equal(t, attribute.TypeVarchar, d.Type)
				assert.Equal(t, 100, *d.MaxLength)
			},
			keepsIn: attribute.TypeName,
		},
		{
			name: "sort_order",
			in:   attribute.SortOrder("sort_order").Descriptor(),
			check: func(t *testing.T, d *attribute.Descriptor) {
				assert.Equal(t, attribute.TypeSmallInt, d.Type)
				assert.True(t, d.Unsigned)
				assert.True(t, d.Required)
			},
			keepsIn: attribute.TypeSortOrder,
		},
		{
			name: "boolean",
			in:   attribute.Boolean("active").Descriptor(),
			check: func(t *testing.T, d *attribute.Descriptor) {
				assert.Equal(t, attribute.TypeTinyInt, d.Type)
				assert.Equal(t, 1, d.Size)
				assert.Nil(t, d.Length)
				assert.True(t, d.Unsigned)
				assert.True(t, d.Required)
				assert.Equal(t, false, d.Default)
			},
			keepsIn: attribute.TypeBoolean,
		},
		{
			name: "boolean_with_default",
			in:   attribute.Boolean("enabled").Default(true).Descriptor(),
			check: func(t *testing.T, d *attribute.Descriptor) {
				assert.Equal(t, true, d.Default)
			},
			keepsIn: attribute.TypeBoolean,
		},
		{
			name: "varchar_default_size",
			in:   attribute.Varchar("title").Descriptor(),
			check: func(t *testing.T, d *attribute.Descriptor) {
				assert.Equal(t, 255, *d.MaxLength)
			},
			keepsIn: attribute.TypeVarchar,
		},
		{
			name: "strict_length_kept",
			in:   attribute.Char("iso").Length(2).Descriptor(),
			check: func(t *testing.T, d *attribute.Descriptor) {
				assert.Equal(t, 2, *d.Length)
				assert.Nil(t, d.MaxLength)
			},
			keepsIn: attribute.TypeChar,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n := attribute.Normalize(tt.in)
			tt.check(t, n)
			assert.Equal(t, tt.keepsIn, tt.in.Type, "normalize must not change its input")
		})
	}
}

func TestClone(t *testing.T) {
	d := attribute.Enum("status", "a", "b").MaxLength(5).Range(1, 2).Descriptor()
	c := d.Clone()
	*c.MaxLength = 10
	*c.Min = 0
	c.Values[0] = "z"
	assert.Equal(t, 5, *d.MaxLength)
	assert.Equal(t, 1.0, *d.Min)
	assert.Equal(t, "a", d.Values[0])
}
