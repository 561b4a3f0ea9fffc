// Package library maintains a catalog of container files in a directory.
package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"madj/pkg/log"
	"madj/pkg/madj"
)

// FileExtension of container files.
const FileExtension = ".mjv"

// TrackSummary catalog view of one track.
type TrackSummary struct {
	Kind         string  `json:"kind"`
	CodecID      uint32  `json:"codecId"`
	FrameCount   uint64  `json:"frameCount"`
	Duration     float64 `json:"duration"` // Seconds.
	Width        uint32  `json:"width,omitempty"`
	Height       uint32  `json:"height,omitempty"`
	SampleRate   uint32  `json:"sampleRate,omitempty"`
	ChannelCount uint32  `json:"channelCount,omitempty"`
}

// Entry catalog view of one file.
type Entry struct {
	Name     string         `json:"name"` // Path relative to the library dir.
	Size     int64          `json:"size"`
	ModTime  time.Time      `json:"modTime"`
	Version  uint32         `json:"version"`
	Duration float64        `json:"duration"` // Seconds, longest track.
	Tracks   []TrackSummary `json:"tracks"`
}

// Manager owns the catalog database for one library directory.
type Manager struct {
	dir    string
	db     *database
	disk   *disk
	logger *log.Logger
}

// NewManager opens the catalog database.
// Caller must call Close() when done.
func NewManager(dir string, dbPath string, logger *log.Logger) (*Manager, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, err
	}

	return &Manager{
		dir:    dir,
		db:     db,
		disk:   newDisk(dir),
		logger: logger,
	}, nil
}

// Close the catalog database.
func (m *Manager) Close() error {
	return m.db.close()
}

// FilePath returns the absolute path of a cataloged file.
func (m *Manager) FilePath(name string) string {
	return filepath.Join(m.dir, filepath.FromSlash(name))
}

// Entries lists the catalog.
func (m *Manager) Entries() ([]Entry, error) {
	return m.db.list()
}

// Entry returns one catalog entry by name.
func (m *Manager) Entry(name string) (Entry, bool, error) {
	return m.db.get(name)
}

// DiskUsage of the library directory.
// A cached value within maxAge is returned without hitting the disk.
func (m *Manager) DiskUsage(maxAge time.Duration) (DiskUsage, error) {
	return m.disk.usage(maxAge)
}

// Scan walks the library directory and brings the catalog up to date.
// Unreadable files are logged and skipped. Entries whose file has
// disappeared are removed.
func (m *Manager) Scan(ctx context.Context) error {
	seen := map[string]struct{}{}

	walkFunc := func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%v %w", path, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() || !strings.HasSuffix(path, FileExtension) {
			return nil
		}

		name, err := filepath.Rel(m.dir, path)
		if err != nil {
			return err
		}
		name = filepath.ToSlash(name)
		seen[name] = struct{}{}

		stat, err := info.Info()
		if err != nil {
			return err
		}

		// Unchanged files keep their entry.
		cached, exists, err := m.db.get(name)
		if err != nil {
			return err
		}
		if exists && cached.Size == stat.Size() && cached.ModTime.Equal(stat.ModTime()) {
			return nil
		}

		entry, err := readEntry(path, name, stat)
		if err != nil {
			m.logger.Warn().
				Src("library").
				Msgf("skipping %v: %v", name, err)
			return nil
		}
		return m.db.put(entry)
	}
	if err := filepath.WalkDir(m.dir, walkFunc); err != nil {
		return err
	}

	// Drop entries for removed files.
	entries, err := m.db.list()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if _, ok := seen[entry.Name]; ok {
			continue
		}
		if err := m.db.delete(entry.Name); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(path string, name string, stat fs.FileInfo) (Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return Entry{}, err
	}
	defer file.Close()

	demuxer, err := madj.NewDemuxer(file)
	if err != nil {
		return Entry{}, err
	}
	defer demuxer.Close()

	entry := Entry{
		Name:    name,
		Size:    stat.Size(),
		ModTime: stat.ModTime(),
		Version: demuxer.Version(),
	}
	for i := range demuxer.Tracks() {
		track := &demuxer.Tracks()[i]

		summary := TrackSummary{
			Kind:       track.CodecKind.String(),
			CodecID:    track.CodecID,
			FrameCount: track.FrameCount,
			Duration:   track.Duration(),
		}
		if track.Video != nil {
			summary.Width = track.Video.Width
			summary.Height = track.Video.Height
		}
		if track.Audio != nil {
			summary.SampleRate = track.Audio.SampleRate
			summary.ChannelCount = track.Audio.ChannelCount
		}
		entry.Tracks = append(entry.Tracks, summary)

		if summary.Duration > entry.Duration {
			entry.Duration = summary.Duration
		}
	}
	return entry, nil
}
