package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failRemove(t *testing.T) {
	t.Helper()
	orig := removeFile
	removeFile = func(string) error { return errors.New("device busy") }
	t.Cleanup(func() { removeFile = orig })
}

func TestCopyThenRemove_LogsLeftoverSource(t *testing.T) {
	failRemove(t)

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	dir := t.TempDir()
	src := filepath.Join(dir, "image-1.png")
	dst := filepath.Join(dir, "abc123.png")
	require.NoError(t, os.WriteFile(src, []byte("png-bytes"), 0o644))

	require.NoError(t, copyThenRemove(ctx, src, dst))

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))
	assert.FileExists(t, src)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "failed to discard temporary upload")
	assert.Contains(t, out, src)
	assert.Contains(t, out, "device busy")
}

func TestDiscardTemp_MissingFileIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	discardTemp(ctx, filepath.Join(t.TempDir(), "gone.png"))
	discardTemp(ctx, "")

	assert.Empty(t, buf.String())
}
