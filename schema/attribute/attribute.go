package attribute

import (
	"errors"
	"fmt"
	"regexp"
)

// Type is the declared type of an attribute.
type Type uint8

// List of attribute types.
const (
	TypeInvalid Type = iota
	TypeTinyInt
	TypeSmallInt
	TypeMediumInt
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDecimal
	TypeChar
	TypeVarchar
	TypeText
	TypeMediumText
	TypeBoolean
	TypeEnum
	TypeEmail
	TypeUrl
	TypeName
	TypeSortOrder
	TypeDateTime
	endTypes
)

var typeNames = [...]string{
	TypeInvalid:    "invalid",
	TypeTinyInt:    "tinyint",
	TypeSmallInt:   "smallint",
	TypeMediumInt:  "mediumint",
	TypeInt:        "int",
	TypeBigInt:     "bigint",
	TypeFloat:      "float",
	TypeDecimal:    "decimal",
	TypeChar:       "char",
	TypeVarchar:    "varchar",
	TypeText:       "text",
	TypeMediumText: "mediumtext",
	TypeBoolean:    "boolean",
	TypeEnum:       "enum",
	TypeEmail:      "email",
	TypeUrl:        "url",
	TypeName:       "name",
	TypeSortOrder:  "sortorder",
	TypeDateTime:   "datetime",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type is a known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Integer reports if the type is one of the integer storage types.
func (t Type) Integer() bool {
	return t >= TypeTinyInt && t <= TypeBigInt
}

// Numeric reports if the type is an integer, float or decimal type.
func (t Type) Numeric() bool {
	return t.Integer() || t == TypeFloat || t == TypeDecimal
}

// Textual reports if the type holds a string value.
func (t Type) Textual() bool {
	switch t {
	case TypeChar, TypeVarchar, TypeText, TypeMediumText, TypeEnum, TypeEmail, TypeUrl, TypeName:
		return true
	}
	return false
}

// Macro reports if the type is an alias that Normalize expands to a storage type.
func (t Type) Macro() bool {
	switch t {
	case TypeEmail, TypeUrl, TypeName, TypeSortOrder, TypeBoolean:
		return true
	}
	return false
}

// Descriptor holds the declaration of a single attribute.
//
// Length, MinLength, MaxLength, Min and Max are nil when not declared. Size
// is the storage display width and never takes part in validation.
type Descriptor struct {
	Name         string
	Type         Type
	Length       *int
	MinLength    *int
	MaxLength    *int
	Min          *float64
	Max          *float64
	Size         int
	Default      any
	Required     bool
	Unique       bool
	Indexed      bool
	Unsigned     bool
	MatchPattern string
	Values       []string
	Err          error
}

// HasDefault reports whether a default value was declared.
func (d *Descriptor) HasDefault() bool { return d.Default != nil }

// Clone returns a deep copy of the descriptor.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	c.Length = cloneInt(d.Length)
	c.MinLength = cloneInt(d.MinLength)
	c.MaxLength = cloneInt(d.MaxLength)
	c.Min = cloneFloat(d.Min)
	c.Max = cloneFloat(d.Max)
	if d.Values != nil {
		c.Values = append([]string(nil), d.Values...)
	}
	return &c
}

// Normalize returns a copy of d with macro types expanded to storage types.
//
//	Email, Url -> Varchar(255)
//	Name       -> Varchar(100)
//	SortOrder  -> unsigned SmallInt, required
//	Boolean    -> unsigned TinyInt(1), default false, required
//
// Varchar and Char attributes without a declared size get a MaxLength of 255.
// Explicit declarations on the original attribute are kept.
func Normalize(d *Descriptor) *Descriptor {
	n := d.Clone()
	switch n.Type {
	case TypeEmail, TypeUrl:
		n.Type = TypeVarchar
		if n.Length == nil && n.MaxLength == nil {
			n.MaxLength = intPtr(255)
		}
	case TypeName:
		n.Type = TypeVarchar
		if n.Length == nil && n.MaxLength == nil {
			n.MaxLength = intPtr(100)
		}
	case TypeSortOrder:
		n.Type = TypeSmallInt
		n.Unsigned = true
		n.Required = true
	case TypeBoolean:
		n.Type = TypeTinyInt
		n.Size = 1
		n.Unsigned = true
		n.Required = true
		if n.Default == nil {
			n.Default = false
		}
	case TypeVarchar, TypeChar:
		if n.Length == nil && n.MaxLength == nil {
			n.MaxLength = intPtr(255)
		}
	}
	return n
}

// Builder is the builder for attributes.
type Builder struct {
	desc *Descriptor
	errs []error
}

func newBuilder(name string, t Type) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Type: t}}
}

// TinyInt returns a new attribute with type tinyint.
func TinyInt(name string) *Builder { return newBuilder(name, TypeTinyInt) }

// SmallInt returns a new attribute with type smallint.
func SmallInt(name string) *Builder { return newBuilder(name, TypeSmallInt) }

// MediumInt returns a new attribute with type mediumint.
func MediumInt(name string) *Builder { return newBuilder(name, TypeMediumInt) }

// Int returns a new attribute with type int.
func Int(name string) *Builder { return newBuilder(name, TypeInt) }

// BigInt returns a new attribute with type bigint.
func BigInt(name string) *Builder { return newBuilder(name, TypeBigInt) }

// Float returns a new attribute with type float.
func Float(name string) *Builder { return newBuilder(name, TypeFloat) }

// Decimal returns a new attribute with type decimal.
func Decimal(name string) *Builder { return newBuilder(name, TypeDecimal) }

// Char returns a new fixed-width string attribute.
func Char(name string) *Builder { return newBuilder(name, TypeChar) }

// Varchar returns a new variable-width string attribute.
func Varchar(name string) *Builder { return newBuilder(name, TypeVarchar) }

// Text returns a new text attribute.
func Text(name string) *Builder { return newBuilder(name, TypeText) }

// MediumText returns a new medium text attribute.
func MediumText(name string) *Builder { return newBuilder(name, TypeMediumText) }

// Boolean returns a new boolean attribute.
func Boolean(name string) *Builder { return newBuilder(name, TypeBoolean) }

// Enum returns a new enum attribute with the given values.
//
//	attribute.Enum("status", "live", "pending", "expired").Default("pending")
func Enum(name string, values ...string) *Builder {
	return newBuilder(name, TypeEnum).Values(values...)
}

// Email returns a new attribute holding an email address.
func Email(name string) *Builder { return newBuilder(name, TypeEmail) }

// Url returns a new attribute holding a URL.
func Url(name string) *Builder { return newBuilder(name, TypeUrl) }

// Name returns a new attribute holding a short human readable name.
func Name(name string) *Builder { return newBuilder(name, TypeName) }

// SortOrder returns a new attribute holding a position in a list.
func SortOrder(name string) *Builder { return newBuilder(name, TypeSortOrder) }

// DateTime returns a new date and time attribute.
func DateTime(name string) *Builder { return newBuilder(name, TypeDateTime) }

// Length sets the exact length of a string attribute. It takes precedence
// over MinLength and MaxLength.
func (b *Builder) Length(n int) *Builder {
	if n < 0 {
		b.errs = append(b.errs, fmt.Errorf("attribute %q: negative length %d", b.desc.Name, n))
	}
	b.desc.Length = &n
	return b
}

// MinLength sets the minimum length of a string attribute.
func (b *Builder) MinLength(n int) *Builder {
	b.desc.MinLength = &n
	return b
}

// MaxLength sets the maximum length of a string attribute.
func (b *Builder) MaxLength(n int) *Builder {
	b.desc.MaxLength = &n
	return b
}

// Min sets the minimum value of a numeric attribute.
func (b *Builder) Min(v float64) *Builder {
	b.desc.Min = &v
	return b
}

// Max sets the maximum value of a numeric attribute.
func (b *Builder) Max(v float64) *Builder {
	b.desc.Max = &v
	return b
}

// Range sets the minimum and maximum value of a numeric attribute.
func (b *Builder) Range(lo, hi float64) *Builder {
	return b.Min(lo).Max(hi)
}

// Size sets the storage display width, for example tinyint(1).
func (b *Builder) Size(n int) *Builder {
	b.desc.Size = n
	return b
}

// Default sets the default value of the attribute. Attributes with a default
// are never validated as required.
func (b *Builder) Default(v any) *Builder {
	b.desc.Default = v
	return b
}

// Required marks the attribute as required.
func (b *Builder) Required() *Builder {
	b.desc.Required = true
	return b
}

// Unique adds a unique index on the attribute and a batched unique rule.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Indexed adds a non-unique index on the attribute.
func (b *Builder) Indexed() *Builder {
	b.desc.Indexed = true
	return b
}

// Unsigned marks a numeric attribute as unsigned.
func (b *Builder) Unsigned() *Builder {
	b.desc.Unsigned = true
	return b
}

// Match sets a regular expression the attribute value must match.
func (b *Builder) Match(pattern string) *Builder {
	if _, err := regexp.Compile(pattern); err != nil {
		b.errs = append(b.errs, fmt.Errorf("attribute %q: invalid pattern: %w", b.desc.Name, err))
	}
	b.desc.MatchPattern = pattern
	return b
}

// Values sets the allowed values of an enum attribute.
func (b *Builder) Values(values ...string) *Builder {
	b.desc.Values = append(b.desc.Values, values...)
	return b
}

// Descriptor implements the blocks.Attribute interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	d := b.desc
	errs := append([]error(nil), b.errs...)
	if d.Name == "" {
		errs = append(errs, errors.New("attribute: missing name"))
	}
	if !d.Type.Valid() {
		errs = append(errs, fmt.Errorf("attribute %q: invalid type", d.Name))
	}
	if d.Type == TypeEnum && len(d.Values) == 0 {
		errs = append(errs, fmt.Errorf("attribute %q: enum without values", d.Name))
	}
	if d.MinLength != nil && d.MaxLength != nil && *d.MinLength > *d.MaxLength {
		errs = append(errs, fmt.Errorf("attribute %q: min length %d exceeds max length %d", d.Name, *d.MinLength, *d.MaxLength))
	}
	if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
		errs = append(errs, fmt.Errorf("attribute %q: min %v exceeds max %v", d.Name, *d.Min, *d.Max))
	}
	d.Err = errors.Join(errs...)
	return d
}

func intPtr(n int) *int { return &n }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
