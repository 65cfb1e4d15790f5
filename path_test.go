package mirrorfs

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildHostPath_VerbatimConcatenation(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		child  string
		want   string
	}{
		{"plain", "/mirror", "a", "/mirror/a"},
		{"nested parent", "/mirror/sub", "file.txt", "/mirror/sub/file.txt"},
		{"parent keeps its own separators", "/mirror/", "a", "/mirror//a"},
		{"dot segments survive", "/mirror", "..", "/mirror/.."},
		{"empty name still separated", "/mirror", "", "/mirror/"},
		{"no escaping of strange names", "/mirror", "a b\tc", "/mirror/a b\tc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := childHostPath(&nodeState{hostPath: tt.parent}, tt.child)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChildHostPath_ReleasedParentIsFault(t *testing.T) {
	_, err := childHostPath(&nodeState{}, "a")
	assert.ErrorIs(t, err, syscall.EFAULT)
}
