package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func TestErrorMessage(t *testing.T) {
	err := Input("storage must not be negative")
	assert.Equal(t, "[INPUT_ERROR] storage must not be negative", err.Error())

	wrapped := Parsing("bad catalog", stderrors.New("unexpected token"))
	assert.Equal(t, "[PARSING_ERROR] bad catalog: unexpected token", wrapped.Error())
	assert.Equal(t, "unexpected token", stderrors.Unwrap(wrapped).Error())
}

func TestIsTypeFollowsWrappingAndCombining(t *testing.T) {
	cfg := Configf("unknown cluster tier %q", "xxl")
	wrapped := fmt.Errorf("estimate: %w", cfg)
	combined := multierr.Combine(Input("negative storage"), wrapped)

	tests := []struct {
		name string
		err  error
		typ  Type
		want bool
	}{
		{"direct", cfg, TypeConfig, true},
		{"wrapped", wrapped, TypeConfig, true},
		{"combined input", combined, TypeInput, true},
		{"combined config", combined, TypeConfig, true},
		{"absent", combined, TypeNotFound, false},
		{"plain error", stderrors.New("boom"), TypeInput, false},
		{"nil", nil, TypeInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.typ))
		})
	}
}

func TestTypeOfPrefersConfig(t *testing.T) {
	combined := multierr.Combine(Input("negative storage"), Config("unknown version"))
	typ, ok := TypeOf(combined)
	assert.True(t, ok)
	assert.Equal(t, TypeConfig, typ)

	typ, ok = TypeOf(Input("negative queries"))
	assert.True(t, ok)
	assert.Equal(t, TypeInput, typ)

	_, ok = TypeOf(stderrors.New("boom"))
	assert.False(t, ok)
}

func TestWithContext(t *testing.T) {
	err := NotFound("catalog", "cloud-eur").WithContext("available", []string{"cloud-usd"})
	assert.True(t, err.Is(TypeNotFound))
	assert.Equal(t, []string{"cloud-usd"}, err.Context["available"])
}
