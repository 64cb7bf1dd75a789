package orchestrator

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/schollz/progressbar/v3"
)

// foldBar wraps an optional progress bar; the zero value draws nothing.
type foldBar struct{ bar *progressbar.ProgressBar }

func (p *Pipeline) newBar(total int, desc string) foldBar {
	if p.progress == nil {
		return foldBar{}
	}
	return foldBar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.progress),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)}
}

func (b foldBar) add() {
	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

func (b foldBar) close() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// RenderSummary formats the per-fold results of m as a table.
func RenderSummary(m *Manifest) string {
	tw := prettytable.NewWriter()
	tw.SetStyle(prettytable.StyleRounded)
	tw.AppendHeader(prettytable.Row{"Fold", "Checkpoint", "Score", "Clips", "Time"})
	for _, f := range m.Folds {
		tw.AppendRow(prettytable.Row{
			f.Fold,
			filepath.Base(f.Checkpoint),
			strconv.FormatFloat(f.Score, 'f', -1, 64),
			f.Clips,
			(time.Duration(f.ElapsedSeconds * float64(time.Second))).Round(time.Second).String(),
		})
	}
	tw.AppendFooter(prettytable.Row{"", m.Blend, "", "", m.Mode})
	tw.SetColumnConfigs([]prettytable.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	tw.SetTitle(fmt.Sprintf("%s  run %s", m.Experiment, m.RunID))
	return tw.Render()
}
