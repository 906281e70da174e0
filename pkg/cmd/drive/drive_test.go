package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickIntervalDefault(t *testing.T) {
	f := NewDriveCmd().Flags().Lookup("tick-interval")
	require.NotNil(t, f)
	assert.Equal(t, "100ms", f.DefValue)
}
