package tracking

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flouci-labs/checkout-gateway/internal/models"
)

func TestFormat(t *testing.T) {
	c := NewCodec("")
	assert.Equal(t, "ORDER42", c.Format(42))
	assert.Equal(t, "ORDER1", c.Format(1))
}

func TestRoundTrip(t *testing.T) {
	for _, codec := range []*Codec{NewCodec(""), NewCodec("s3cret")} {
		for _, id := range []int64{1, 7, 42, 999, 123456789, 1<<62 + 3} {
			t.Run(fmt.Sprintf("order %d", id), func(t *testing.T) {
				got, err := codec.Parse(codec.Format(id))
				require.NoError(t, err)
				assert.Equal(t, id, got)
			})
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	c := NewCodec("")
	tests := []struct {
		name       string
		trackingID string
	}{
		{"empty", ""},
		{"no prefix", "42"},
		{"wrong prefix", "INVOICE42"},
		{"no id", "ORDER"},
		{"non-numeric id", "ORDERabc"},
		{"negative id", "ORDER-42"},
		{"zero id", "ORDER0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Parse(tt.trackingID)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrCorrelation))
		})
	}
}

func TestSignedParseRejectsTampering(t *testing.T) {
	c := NewCodec("s3cret")
	signed := c.Format(42)

	// Unsigned id is rejected when a secret is configured.
	_, err := c.Parse("ORDER42")
	assert.ErrorIs(t, err, models.ErrCorrelation)

	// Swapping the order id invalidates the signature.
	_, err = c.Parse("ORDER43" + signed[len("ORDER42"):])
	assert.ErrorIs(t, err, models.ErrCorrelation)

	// A codec with a different secret rejects the id outright.
	_, err = NewCodec("other").Parse(signed)
	assert.ErrorIs(t, err, models.ErrCorrelation)
}
