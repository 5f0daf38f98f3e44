package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"  ____  ____  _ _     _     ____",
	" |  _ \\|  _ \\(_) |   | |   / ___|",
	" | | | | |_) | | |   | |   \\___ \\",
	" | |_| |  _ <| | |___| |___ ___) |",
	" |____/|_| \\_\\_|_____|_____|____/",
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa"}

// PrintBanner writes the DRiLLS banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, termenv.String("  logic synthesis design space exploration  v"+version).Faint())
	fmt.Fprintln(w)
}
