package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tomatotimer/internal/ui/preferences"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, preferences.DefaultSettings(), settings)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", settingsFileName)
	want := preferences.DefaultSettings()
	want.Duration = 90 * time.Second
	want.DurationUnit = preferences.UnitMinutes
	want.Shape = "circle"
	want.Policy = "proportional"
	want.ParticleCount = 64
	want.Step = 8 * time.Millisecond
	want.MaxDuration = 2 * time.Minute
	want.LogLevel = "debug"

	require.NoError(t, SaveSettings(path, want))

	got, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may be left behind")
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), settingsFileName)
	require.NoError(t, os.WriteFile(path, []byte("shape: wild-face\nstep_ms: 0\n"), 0o644))

	got, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "wild-face", got.Shape)
	assert.Equal(t, preferences.DefaultSettings().Step, got.Step)
	assert.Equal(t, preferences.DefaultSettings().Duration, got.Duration)
}

func TestLoadMalformedFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), settingsFileName)
	require.NoError(t, os.WriteFile(path, []byte("shape: [unterminated"), 0o644))

	got, err := LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse settings yaml")
	assert.Equal(t, preferences.DefaultSettings(), got)
}

func TestWatcherReloadsOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), settingsFileName)
	require.NoError(t, SaveSettings(path, preferences.DefaultSettings()))

	changes := make(chan preferences.Settings, 4)
	watcher, err := Watch(context.Background(), path, 20*time.Millisecond, func(settings preferences.Settings) {
		changes <- settings
	})
	require.NoError(t, err)

	updated := preferences.DefaultSettings()
	updated.Shape = "circle"
	require.NoError(t, SaveSettings(path, updated))

	select {
	case got := <-changes:
		assert.Equal(t, "circle", got.Shape)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after save")
	}
	require.NoError(t, watcher.Close())
}

func TestWatcherSkipsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), settingsFileName)
	require.NoError(t, SaveSettings(path, preferences.DefaultSettings()))

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan preferences.Settings, 4)
	watcher, err := Watch(ctx, path, 20*time.Millisecond, func(settings preferences.Settings) {
		changes <- settings
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("policy: {"), 0o644))
	select {
	case <-changes:
		t.Fatal("broken file must not be delivered")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.NoError(t, watcher.Close())
}
