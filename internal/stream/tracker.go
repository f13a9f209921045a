package stream

import (
	"io"

	"github.com/JakeFAU/survey-trends/internal/progress"
)

// ProgressReader passes bytes through unchanged and reports the running byte
// count after every chunk it forwards.
type ProgressReader struct {
	r         io.Reader
	processed int64
	total     int64
	notify    func(progress.Progress)
}

// NewProgressReader wraps r. total is the precomputed size of all sources;
// notify is called synchronously once per non-empty read.
func NewProgressReader(r io.Reader, total int64, notify func(progress.Progress)) *ProgressReader {
	if notify == nil {
		notify = func(progress.Progress) {}
	}
	return &ProgressReader{r: r, total: total, notify: notify}
}

// Read implements io.Reader.
func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.processed += int64(n)
		p.notify(p.State())
	}
	return n, err
}

// State returns the current byte counts.
func (p *ProgressReader) State() progress.Progress {
	return progress.Progress{ProcessedBytes: p.processed, TotalBytes: p.total}
}
