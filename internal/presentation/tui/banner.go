package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the collector banner, colored when the terminal supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{`                        _                 _            `, "#818cf8"},
		{`  _ __ ___ _ __ ___  ___| |_ ___  ___  __| | _____   __`, "#a78bfa"},
		{` | '__/ _ \ '_ ' _ \/ _ \ __/ _ \/ __|/ _' |/ _ \ \ / /`, "#c084fc"},
		{` | | |  __/ | | | | | (_) | ||  __/ (__| (_| |  __/\ V / `, "#e879f9"},
		{` |_|  \___|_| |_| |_|\___/ \__\___|\___|\__,_|\___| \_/  `, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  collector "+version).Faint())
	fmt.Fprintln(w)
}
