package procedure

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// DefaultOutputFile is written to the working directory.
const DefaultOutputFile = "procedure_steps_from_audio.csv"

var header = []string{"Step Name", "", "Notes"}

// Rows returns the CSV rows for p, header included.
func Rows(p *Procedure) [][]string {
	rows := [][]string{header}
	for _, s := range p.Sections() {
		rows = append(rows, []string{s.Name, "", ""})
		for _, st := range s.Steps {
			rows = append(rows, []string{"Step " + st.Number, st.Description, s.Note(st.Number)})
		}
		rows = append(rows, []string{"", "", ""})
	}
	return rows
}

// WriteCSV serializes p to w and returns the number of rows written.
func WriteCSV(w io.Writer, p *Procedure) (int, error) {
	cw := csv.NewWriter(w)
	rows := Rows(p)
	if err := cw.WriteAll(rows); err != nil {
		return 0, fmt.Errorf("writing csv: %w", err)
	}
	return len(rows), nil
}

// Export writes p to path, replacing any existing file.
func Export(p *Procedure, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	n, err := WriteCSV(f, p)
	if err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing %s: %w", path, err)
	}
	return n, nil
}
