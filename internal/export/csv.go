package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/punchclock/internal/report"
	"github.com/sadopc/punchclock/internal/timecalc"
)

var csvHeader = []string{"ID", "Date", "Start", "End", "Duration (ms)", "Breaks (ms)", "Net (ms)", "Net"}

// WriteCSV writes one row per report entry followed by a totals row.
func WriteCSV(out io.Writer, rep *report.Report) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range rep.Entries {
		row := []string{
			fmt.Sprintf("%d", r.ID),
			r.Date,
			r.StartTime.Format(time.RFC3339),
			r.EndTime.Format(time.RFC3339),
			fmt.Sprintf("%d", timecalc.Millis(r.Duration)),
			fmt.Sprintf("%d", timecalc.Millis(r.Breaks)),
			fmt.Sprintf("%d", timecalc.Millis(r.NetWork)),
			timecalc.FormatDuration(r.NetWork),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	sum := rep.Summary
	total := []string{
		"",
		"Total",
		"",
		"",
		fmt.Sprintf("%d", timecalc.Millis(sum.TotalDuration)),
		fmt.Sprintf("%d", timecalc.Millis(sum.TotalBreaks)),
		fmt.Sprintf("%d", timecalc.Millis(sum.TotalNetWork)),
		timecalc.FormatDuration(sum.TotalNetWork),
	}
	if err := w.Write(total); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

// ToCSV writes the report to a file at path.
func ToCSV(rep *report.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, rep); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
