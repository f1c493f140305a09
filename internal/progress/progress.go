// Package progress reports run progress on a terminal. Progress output is
// advisory; nothing depends on it.
package progress

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/schollz/progressbar/v3"
)

// FileColumn is the display width of the file name in the description.
const FileColumn = 20

// Status is a snapshot taken after a file's sentences were written.
type Status struct {
	Done    int // files completed
	Total   int // files discovered
	Shard   int
	InShard int
	File    string
}

// Reporter receives progress snapshots from the writer goroutine.
type Reporter interface {
	Update(Status)
	Finish()
}

// Bar draws a progress bar of completed files.
type Bar struct {
	bar *progressbar.ProgressBar
}

// New returns a Bar for total files, drawn on w.
func New(w io.Writer, total int) *Bar {
	return &Bar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(w) }),
	)}
}

// Update implements Reporter.
func (b *Bar) Update(s Status) {
	b.bar.Describe(Describe(s))
	_ = b.bar.Set(s.Done)
}

// Finish implements Reporter.
func (b *Bar) Finish() {
	_ = b.bar.Finish()
}

// Nop discards progress.
type Nop struct{}

func (Nop) Update(Status) {}
func (Nop) Finish()       {}

// Describe formats the bar description, e.g.
// "shard=02 count=004711 file=moby_dick.txt       ".
func Describe(s Status) string {
	return fmt.Sprintf("shard=%02d count=%06d file=%s",
		s.Shard, s.InShard, Column(filepath.Base(s.File), FileColumn))
}

// Column truncates or pads s to exactly width terminal cells.
func Column(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, ""), width)
}
