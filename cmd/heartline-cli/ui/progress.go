package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ProgressBar wraps a progressbar instance for batch runs.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a new progress bar with the given total and description.
func NewProgressBar(total int64, description string) *ProgressBar {
	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(errOut),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("questions"),
		progressbar.OptionShowIts(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(errOut, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar}
}

// Add advances the bar by n.
func (p *ProgressBar) Add(n int) {
	_ = p.bar.Add(n)
}

// Finish completes the progress bar.
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}

// Spinner wraps a spinner instance shown while a reply is computed.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = errOut
	return &Spinner{spinner: s}
}

// Start starts the spinner animation when attached to a terminal.
func (s *Spinner) Start() {
	if IsTerminal() {
		s.spinner.Start()
	}
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	s.spinner.Stop()
}

// IndexProgress renders knowledge base encoding progress with mpb.
type IndexProgress struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	name     string
}

// NewIndexProgress creates an mpb container; the bar is added on the first
// update, once the total is known.
func NewIndexProgress(name string) *IndexProgress {
	return &IndexProgress{
		progress: mpb.New(mpb.WithWidth(48), mpb.WithOutput(os.Stderr)),
		name:     name,
	}
}

// Update matches the index build progress callback.
func (p *IndexProgress) Update(done, total int) {
	if p.bar == nil {
		p.bar = p.progress.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name(p.name, decor.WC{W: len(p.name) + 1, C: decor.DSyncSpaceR}),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Percentage(decor.WC{W: 5}),
				decor.OnComplete(
					decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 8}),
					" done",
				),
			),
		)
	}
	p.bar.SetCurrent(int64(done))
}

// Close waits for the bar to finish rendering. When output is piped the
// container is shut down instead, since Wait may block.
func (p *IndexProgress) Close() {
	if p.bar != nil && !p.bar.Completed() {
		p.bar.Abort(false)
	}
	if IsTerminal() {
		p.progress.Wait()
	} else {
		p.progress.Shutdown()
	}
}
