package device_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/srg/imuble/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUUID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "canonical hyphenated form",
			input:    "0b91a798-23b1-4369-9d45-a3a26d936904",
			expected: "0b91a798-23b1-4369-9d45-a3a26d936904",
		},
		{
			name:     "uppercase form",
			input:    "026080C9-DC3A-401B-829C-2EE3B5565200",
			expected: "026080c9-dc3a-401b-829c-2ee3b5565200",
		},
		{
			name:     "no dashes",
			input:    "72d913bbe8df44b8b8ec4f098978e0be",
			expected: "72d913bb-e8df-44b8-b8ec-4f098978e0be",
		},
		{
			name:     "16-bit short form",
			input:    "2A19",
			expected: "00002a19-0000-1000-8000-00805f9b34fb",
		},
		{
			name:     "16-bit with 0x prefix",
			input:    "0x180f",
			expected: "0000180f-0000-1000-8000-00805f9b34fb",
		},
		{
			name:     "32-bit short form",
			input:    "1234abcd",
			expected: "1234abcd-0000-1000-8000-00805f9b34fb",
		},
		{
			name:     "surrounding whitespace",
			input:    "  e0a0b53e-5c53-4acf-bf79-39d2982362e9 ",
			expected: "e0a0b53e-5c53-4acf-bf79-39d2982362e9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := device.ParseUUID(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, u.String())
		})
	}
}

func TestParseUUID_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "xyz1", "0b91a798-23b1-4369-9d45", "not-a-uuid-at-all-really-not-a-uuid"} {
		t.Run(input, func(t *testing.T) {
			u, err := device.ParseUUID(input)
			assert.Error(t, err)
			assert.Equal(t, uuid.Nil, u)
		})
	}
}

func TestParseUUID_StructuralEquality(t *testing.T) {
	a := device.MustParseUUID("94b54966-faa7-48c1-9b53-7e44a9a872be")
	b := device.MustParseUUID("94B54966FAA748C19B537E44A9A872BE")
	assert.Equal(t, a, b, "the same UUID MUST compare equal regardless of textual form")
	assert.NotEqual(t, a, device.MustParseUUID("94b54966-faa7-48c1-9b53-7e44a9a872bf"))
}

func TestMustParseUUID_Panics(t *testing.T) {
	assert.Panics(t, func() { device.MustParseUUID("bogus") })
}

func TestShortenUUID(t *testing.T) {
	assert.Equal(t, "0b91a798", device.ShortenUUID(device.MustParseUUID("0b91a798-23b1-4369-9d45-a3a26d936904")))
	assert.Equal(t, "00002a19", device.ShortenUUID(device.FromShortUUID(0x2a19)))
}

func TestValidateUUID(t *testing.T) {
	t.Run("requires at least one", func(t *testing.T) {
		_, err := device.ValidateUUID()
		assert.EqualError(t, err, "at least one UUID is required")
	})

	t.Run("rejects empty entry", func(t *testing.T) {
		_, err := device.ValidateUUID("180f", "")
		assert.EqualError(t, err, "UUID at index 1 cannot be empty")
	})

	t.Run("rejects malformed entry", func(t *testing.T) {
		_, err := device.ValidateUUID("180f", "2a19", "zz")
		assert.EqualError(t, err, "invalid UUID format at index 2: zz")

		var uerr *device.UUIDError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, 2, uerr.Index)
		assert.Equal(t, "zz", uerr.Value)
	})

	t.Run("parses all", func(t *testing.T) {
		got, err := device.ValidateUUID("180f", "0b91a798-23b1-4369-9d45-a3a26d936904")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, device.FromShortUUID(0x180f), got[0])
	})
}
