package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`  ___         _ _      _    _                      _ `,
	` / __|_ __ __(_) |_ __| |_ | |__  ___  __ _ _ _ __| |`,
	` \__ \ V  V /| |  _/ _| ' \| '_ \/ _ \/ _' | '_/ _' |`,
	` |___/\_/\_/ |_|\__\__|_||_|_.__/\___/\__,_|_| \__,_|`,
}

var bannerColors = []string{"#38bdf8", "#22d3ee", "#2dd4bf", "#34d399"}

// PrintBanner writes the Switchboard banner and version to w.
// Colours follow the terminal profile of w and degrade to plain text.
func PrintBanner(w io.Writer, version string) {
	p := termenv.NewOutput(w).Profile
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, p.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, p.String("  v"+strings.TrimSpace(version)+"  (type 'exit' to quit)").Faint())
	fmt.Fprintln(w)
}

// ColorProfile reports the colour support of w.
func ColorProfile(w io.Writer) termenv.Profile {
	return termenv.NewOutput(w).Profile
}
