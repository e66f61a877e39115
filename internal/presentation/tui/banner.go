package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Arbor.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Green-to-amber gradient, roots to canopy
	s1 := termenv.String("     /\\       _                ").Foreground(p.Color("#4ade80"))
	s2 := termenv.String("    /  \\     | |__   ___  _ __ ").Foreground(p.Color("#86efac"))
	s3 := termenv.String("   / /\\ \\ _ _| '_ \\ / _ \\| '__|").Foreground(p.Color("#bef264"))
	s4 := termenv.String("  / ____ \\ '_| |_) | (_) | |   ").Foreground(p.Color("#fde047"))
	s5 := termenv.String(" /_/    \\_\\_| |_.__/ \\___/|_|  ").Foreground(p.Color("#fbbf24"))
	ver := termenv.String(fmt.Sprintf("  workflow engine %s", version)).Faint()

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(ver)
	fmt.Println()
}
