package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

func writeJSON(payload any) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

// progressPrinter returns a callback that redraws a percentage on stderr,
// or nil when stderr is not a terminal so piped output stays clean.
func progressPrinter(label string) func(percent int) {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	return func(percent int) {
		fmt.Fprintf(os.Stderr, "\r%s: %3d%%", label, percent)
		if percent >= 100 {
			fmt.Fprintln(os.Stderr)
		}
	}
}
