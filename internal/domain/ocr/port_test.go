package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeAuto, ModeBlock, ModeSingleLine, ModeSparseText} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("diagonal")
	assert.Error(t, err)
	assert.Equal(t, "psm_13", Mode(13).String())
}
