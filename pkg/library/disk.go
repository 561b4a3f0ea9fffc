package library

import (
	"sync"
	"time"

	psdisk "github.com/shirou/gopsutil/v3/disk"
)

// DiskUsage of the filesystem holding the library.
type DiskUsage struct {
	Used    uint64
	Total   uint64
	Percent float64
}

type disk struct {
	path string

	cached     DiskUsage
	lastUpdate time.Time
	mu         sync.Mutex

	usageFn func(string) (*psdisk.UsageStat, error) // Testing.
}

func newDisk(path string) *disk {
	return &disk{
		path:    path,
		usageFn: psdisk.Usage,
	}
}

// usage returns the cached value if it is within maxAge,
// otherwise it is refreshed first.
func (d *disk) usage(maxAge time.Duration) (DiskUsage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.lastUpdate.IsZero() && time.Since(d.lastUpdate) < maxAge {
		return d.cached, nil
	}

	stat, err := d.usageFn(d.path)
	if err != nil {
		return DiskUsage{}, err
	}

	d.cached = DiskUsage{
		Used:    stat.Used,
		Total:   stat.Total,
		Percent: stat.UsedPercent,
	}
	d.lastUpdate = time.Now()
	return d.cached, nil
}
