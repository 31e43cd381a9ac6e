package lottery

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "20000000000000000", want: "20000000000000000"},
		{input: "42wei", want: "42"},
		{input: "0.02ether", want: "20000000000000000"},
		{input: " 1.5 ETHER ", want: "1500000000000000000"},
		{input: "3ether", want: "3000000000000000000"},
		{input: "0.0000000000000000001ether", wantErr: true},
		{input: "-1", wantErr: true},
		{input: "-0.5ether", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatEther(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "0", FormatEther(Ether("0")))
	assert.Equal(t, "0.02", FormatEther(Ether("0.02")))
	assert.Equal(t, "10", FormatEther(Ether("10")))
	assert.Equal(t, "1.000000000000000001", FormatEther(new(big.Int).Add(Ether("1"), big.NewInt(1))))
}
