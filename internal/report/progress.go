package report

import (
	"io"

	"github.com/cheggaaa/pb/v3"

	"github.com/project-tktt/salary-stats/internal/domain"
)

const progressTemplate = `{{string . "prefix"}} {{counters . }} {{bar . }} {{percent . }} {{string . "term"}}`

// Progress shows how many terms of a run have been collected
type Progress struct {
	bar *pb.ProgressBar
}

// NewProgress starts a progress bar over total terms
func NewProgress(w io.Writer, title string, total int) *Progress {
	bar := pb.New(total).
		SetTemplateString(progressTemplate).
		SetWriter(w).
		Set("prefix", title).
		Start()
	return &Progress{bar: bar}
}

// OnTerm advances the bar; it matches aggregator.TermHandler
func (p *Progress) OnTerm(stats *domain.TermStatistics) {
	p.bar.Set("term", stats.Term)
	p.bar.Increment()
}

// Current returns the number of terms done so far
func (p *Progress) Current() int64 {
	return p.bar.Current()
}

// Finish stops the bar
func (p *Progress) Finish() {
	p.bar.Finish()
}
