package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type form struct {
	Name    string   `json:"name" validate:"required,min=2,max=100"`
	Email   string   `json:"email" validate:"required,email"`
	Locale  string   `json:"locale" validate:"omitempty,locale"`
	Service string   `json:"service" validate:"omitempty,service"`
	Consent bool     `json:"consent" validate:"eq=true"`
	Score   int      `json:"score" validate:"gte=0,lte=10"`
	Items   []item   `json:"items" validate:"omitempty,max=2,dive"`
	Tags    []string `json:"tags" validate:"omitempty,min=1"`
}

type item struct {
	Label string `json:"label" validate:"required"`
}

func validForm() form {
	return form{Name: "Ada", Email: "ada@example.com", Consent: true}
}

func TestStruct_Valid(t *testing.T) {
	t.Parallel()

	f := validForm()
	f.Locale = "de"
	f.Service = "growth"
	assert.NoError(t, Struct(f))
}

func TestStruct_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*form)
		field  string
		want   string
	}{
		{"missing name", func(f *form) { f.Name = "" }, "name", "name is required"},
		{"short name", func(f *form) { f.Name = "A" }, "name", "name must be at least 2 characters"},
		{"bad email", func(f *form) { f.Email = "nope" }, "email", "email must be a valid email address"},
		{"bad locale", func(f *form) { f.Locale = "fr" }, "locale", "locale must be one of: en, de"},
		{"upper-case locale", func(f *form) { f.Locale = "EN" }, "locale", "locale must be one of: en, de"},
		{"bad service", func(f *form) { f.Service = "magic" }, "service", "service must be one of: strategy, operations, growth, finance, franchise, fundraising, other"},
		{"no consent", func(f *form) { f.Consent = false }, "consent", "consent must be accepted"},
		{"score too high", func(f *form) { f.Score = 11 }, "score", "score must be less than or equal to 10"},
		{"too many items", func(f *form) { f.Items = []item{{"a"}, {"b"}, {"c"}} }, "items", "items must contain at most 2 items"},
		{"nested", func(f *form) { f.Items = []item{{"a"}, {""}} }, "items[1].label", "items[1].label is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)

			err := Struct(f)
			require.Error(t, err)

			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.want, verr.Error())
		})
	}
}

func TestStruct_ReportsFirstFailure(t *testing.T) {
	t.Parallel()

	err := Struct(form{})
	require.Error(t, err)
	assert.Equal(t, "name is required", err.Error())
}

func TestStruct_NonStruct(t *testing.T) {
	t.Parallel()

	err := Struct(42)
	require.Error(t, err)

	var verr *Error
	assert.False(t, errors.As(err, &verr))
}

func TestNormalizeLocale(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "de", NormalizeLocale("de", "en"))
	assert.Equal(t, "en", NormalizeLocale("fr", "en"))
	assert.Equal(t, "de", NormalizeLocale("", "de"))
	assert.Equal(t, DefaultLocale, NormalizeLocale("", "xx"))
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}

func TestVar(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Var("email", "ada@example.com", "required,email"))

	err := Var("email", "nope", "required,email")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email", verr.Field)
	assert.Equal(t, "email must be a valid email address", verr.Error())
}
