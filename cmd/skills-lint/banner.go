package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/jingkaihe/skills-lint/pkg/version"
)

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.AdaptiveColor{Light: "#7aa2f7", Dark: "#7aa2f7"})

var taglineStyle = lipgloss.NewStyle().Faint(true)

const bannerArt = `     _    _ _ _         _ _       _
 ___| | _(_) | |___    | (_)_ __ | |_
/ __| |/ / | | / __|___| | | '_ \| __|
\__ \   <| | | \__ \___| | | | | | |_
|___/_|\_\_|_|_|___/   |_|_|_| |_|\__|`

func printBanner(w io.Writer) {
	fmt.Fprintln(w, bannerStyle.Render(bannerArt))
	fmt.Fprintf(w, "  %s\n", taglineStyle.Render("token budgets for agent skills · "+version.Version))
}
