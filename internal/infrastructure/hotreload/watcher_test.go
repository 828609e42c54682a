package hotreload

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestShouldHandle(t *testing.T) {
	assert.True(t, ShouldHandle("templates/index.html"))
	assert.False(t, ShouldHandle("templates/index.html~"))
	assert.False(t, ShouldHandle("templates/.index.html.swp"))
	assert.False(t, ShouldHandle("static/app.css"))
}

func TestTemplateWatcher_ReloadsOnceAfterBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	var calls atomic.Int32
	tw, err := NewTemplateWatcher(dir, func() error {
		calls.Add(1)
		return nil
	}, zap.NewNop())
	require.NoError(t, err)
	tw.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tw.Start(ctx)
	defer tw.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewTemplateWatcher_MissingRoot(t *testing.T) {
	_, err := NewTemplateWatcher(filepath.Join(t.TempDir(), "nope"), func() error { return nil }, zap.NewNop())
	assert.Error(t, err)
}
