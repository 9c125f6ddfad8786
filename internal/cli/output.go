package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// OutputFormatter writes command results as text or JSON lines.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func formatterFor(opts *RootOptions, w io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: w}
}

// Emit writes v as one JSON line in json mode, or the text rendering
// otherwise.
func (f *OutputFormatter) Emit(v any, text string) error {
	if f.Format == "json" {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(f.Writer, string(b))
		return err
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}
