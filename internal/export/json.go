package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/punchclock/internal/report"
)

type jsonExport struct {
	ExportedAt string         `json:"exported_at"`
	Count      int            `json:"count"`
	Report     *report.Report `json:"report"`
}

// WriteJSON writes the report wrapped with export metadata, indented.
func WriteJSON(w io.Writer, rep *report.Report) error {
	data, err := marshalReport(rep)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func ToJSON(rep *report.Report, path string) error {
	data, err := marshalReport(rep)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

func marshalReport(rep *report.Report) ([]byte, error) {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(rep.Entries),
		Report:     rep,
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return append(data, '\n'), nil
}
