package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "with prefix", input: "0x00112233445566778899aabbccddeeff00112233"},
		{name: "without prefix", input: "00112233445566778899aabbccddeeff00112233"},
		{name: "upper case", input: "0X00112233445566778899AABBCCDDEEFF00112233"},
		{name: "too short", input: "0x0011", wantErr: true},
		{name: "not hex", input: "0xzz112233445566778899aabbccddeeff00112233", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAddress(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "0x00112233445566778899aabbccddeeff00112233", a.String())
		})
	}
}

func TestAddressJSON(t *testing.T) {
	a := ModuleAddress("vault-registry")
	data, err := json.Marshal(a)
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, a, decoded)
}

func TestModuleAddressDeterministic(t *testing.T) {
	assert.Equal(t, ModuleAddress("market"), ModuleAddress("market"))
	assert.NotEqual(t, ModuleAddress("market"), ModuleAddress("vault-registry"))
	assert.False(t, ModuleAddress("market").IsZero())
	assert.True(t, ZeroAddress.IsZero())
}
