package output

import (
	"encoding/json"
	"io"

	"ioimpact/internal/batch"
)

// flush pushes out anything w buffers (a bufio.Writer, for instance).
func flush(w io.Writer) error {
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// encodeLine writes v as one NDJSON line.
func encodeLine(w io.Writer, v any) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return err
	}
	return flush(w)
}

// encodeRows writes rows as an indented JSON array; no rows is [].
func encodeRows(w io.Writer, rows []batch.Row) error {
	if rows == nil {
		rows = []batch.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return err
	}
	return flush(w)
}
