package fileset

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"fileset/internal/patternmatch"
)

// entryProgress renders a bar advanced once per materialized entry. It is
// a no-op when w is not a terminal.
type entryProgress struct {
	bar *progressbar.ProgressBar
}

func newEntryProgress(w io.Writer, total int, desc string) *entryProgress {
	if total == 0 || !isTerminal(w) {
		return &entryProgress{}
	}
	return &entryProgress{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)}
}

func (p *entryProgress) onEntry(string, patternmatch.Op) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *entryProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
