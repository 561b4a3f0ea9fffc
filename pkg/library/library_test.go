package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"madj/pkg/log"
	"madj/pkg/madj"

	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *log.Logger {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := log.NewLogger()
	logger.Start(ctx)
	return logger
}

func writeTestFile(t *testing.T, path string) {
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	m, err := madj.NewMuxer(file, []madj.TrackInfo{
		{
			Rate:      madj.Rational{Num: 1, Den: 2},
			CodecKind: madj.CodecVideo,
			CodecID:   1,
			Video:     &madj.VideoInfo{Width: 320, Height: 240},
		},
		{
			Rate:      madj.Rational{Num: 1, Den: 8000},
			CodecKind: madj.CodecAudio,
			CodecID:   2,
			Audio:     &madj.AudioInfo{SampleRate: 8000, ChannelCount: 1},
		},
	})
	require.NoError(t, err)

	require.NoError(t, m.WriteFrame(0, []byte{1, 2}))
	require.NoError(t, m.WriteFrame(0, []byte{3, 4}))
	require.NoError(t, m.WriteFrame(1, []byte{5}))
	require.NoError(t, m.Finalize())
}

func newTestManager(t *testing.T) (*Manager, string) {
	dir := t.TempDir()

	manager, err := NewManager(
		dir, filepath.Join(t.TempDir(), "catalog.db"), newTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return manager, dir
}

func TestScan(t *testing.T) {
	manager, dir := newTestManager(t)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o700))
	writeTestFile(t, filepath.Join(dir, "a.mjv"))
	writeTestFile(t, filepath.Join(dir, "sub", "b.mjv"))

	// Not containers, must be ignored.
	require.NoError(t,
		os.WriteFile(filepath.Join(dir, "garbage.mjv"), []byte("junk"), 0o600))
	require.NoError(t,
		os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	require.NoError(t, manager.Scan(context.Background()))

	entries, err := manager.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	entry, exists, err := manager.Entry("a.mjv")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, uint32(madj.Version), entry.Version)
	require.Len(t, entry.Tracks, 2)
	require.Equal(t, "video", entry.Tracks[0].Kind)
	require.Equal(t, uint64(2), entry.Tracks[0].FrameCount)
	require.Equal(t, uint32(320), entry.Tracks[0].Width)
	require.Equal(t, "audio", entry.Tracks[1].Kind)
	require.Equal(t, uint32(8000), entry.Tracks[1].SampleRate)

	// Two video frames at 2 fps.
	require.Equal(t, 1.0, entry.Duration)

	_, exists, err = manager.Entry("sub/b.mjv")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestScanRemoved(t *testing.T) {
	manager, dir := newTestManager(t)

	path := filepath.Join(dir, "a.mjv")
	writeTestFile(t, path)

	require.NoError(t, manager.Scan(context.Background()))

	entries, err := manager.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, os.Remove(path))
	require.NoError(t, manager.Scan(context.Background()))

	entries, err = manager.Entries()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestScanUnchanged(t *testing.T) {
	manager, dir := newTestManager(t)

	writeTestFile(t, filepath.Join(dir, "a.mjv"))
	require.NoError(t, manager.Scan(context.Background()))

	before, _, err := manager.Entry("a.mjv")
	require.NoError(t, err)

	require.NoError(t, manager.Scan(context.Background()))

	after, _, err := manager.Entry("a.mjv")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestFilePath(t *testing.T) {
	manager, dir := newTestManager(t)
	require.Equal(t,
		filepath.Join(dir, "sub", "b.mjv"), manager.FilePath("sub/b.mjv"))
}
