package corpus

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompress(t *testing.T) {
	plain := []byte(`{"hello":"world"}`)
	packed, err := Gzip(plain)
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   []byte
		want    []byte
		wantErr bool
	}{
		{"gzip input", packed, plain, false},
		{"plain input passes through", plain, plain, false},
		{"empty input", nil, nil, true},
		{"truncated gzip", packed[:6], nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decompress("test", tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrDataFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.gz"))
	require.Error(t, err)

	var formatErr *DataFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Contains(t, formatErr.Error(), "nope.gz")
	assert.ErrorIs(t, err, ErrDataFormat)
}
