package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/meikuraledutech/curriculum"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

func printSuccess(w io.Writer, format string, a ...any) {
	green.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, a...))
}

func printStep(w io.Writer, format string, a ...any) {
	cyan.Fprintf(w, "→ %s\n", fmt.Sprintf(format, a...))
}

// printError prints a titled error with suggestions to stderr and returns a
// plain error for cobra, which has error printing silenced.
func printError(title, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(os.Stderr, "%s\n", explanation)
	}
	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(os.Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(os.Stderr, "Either:\n")
			for i, s := range suggestions {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, s)
			}
		}
	}
	return fmt.Errorf("%s", title)
}

// printIssues writes errors in red and warnings in yellow, one per line.
func printIssues(w io.Writer, errs, warnings []curriculum.Issue) {
	for _, is := range errs {
		red.Fprintf(w, "✗ %s\n", is)
	}
	for _, is := range warnings {
		yellow.Fprintf(w, "⚠️  %s\n", is)
	}
}

func printCounts(w io.Writer, c curriculum.Counts) {
	fmt.Fprintf(w, "  nodes: %d (tracks %d, lessons %d, skills %d, tunes %d)\n",
		c.Nodes, c.Tracks, c.Lessons, c.Skills, c.Tunes)
	fmt.Fprintf(w, "  edges: %d\n", c.Edges)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
