package tts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanupJobRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "old.wav")
	newFile := filepath.Join(dir, "new.wav")
	require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(newFile, []byte("new"), 0644))

	// Состариваем первый файл
	oldTime := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

	job := NewCleanupJob(dir, time.Hour, zap.NewNop())
	require.NoError(t, job.Run(context.Background()))

	_, err := os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err), "старый файл должен быть удален")

	_, err = os.Stat(newFile)
	assert.NoError(t, err, "свежий файл должен остаться")
}

func TestCleanupJobMissingDir(t *testing.T) {
	job := NewCleanupJob("/nonexistent/audio", time.Hour, zap.NewNop())
	assert.NoError(t, job.Run(context.Background()))
}
