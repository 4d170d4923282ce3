package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Numeric(t *testing.T) {
	n := Normalizer{Length: 9, Numeric: true}

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"short code is padded", "123", "000000123"},
		{"exact width", "000000123", "000000123"},
		{"surrounding spaces", "  4567 \n", "000004567"},
		{"inner spaces from reader", "12 34", "000001234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_NumericRejects(t *testing.T) {
	n := Normalizer{Length: 9, Numeric: true}

	for _, raw := range []string{"", "   ", "12A45", "1234567890"} {
		_, err := n.Normalize(raw)
		assert.ErrorIs(t, err, ErrInvalidSerial, "raw=%q", raw)
	}
}

func TestNormalizer_FreeText(t *testing.T) {
	n := Normalizer{}

	got, err := n.Normalize("  LOTE-7/B ")
	require.NoError(t, err)
	assert.Equal(t, "LOTE-7/B", got)
}
