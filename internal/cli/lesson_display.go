// Package cli renders lesson projects for terminal output.
package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/knishimura/lingotube/internal/project"
)

// LessonDisplay writes a lesson project to a terminal.
type LessonDisplay struct {
	out     io.Writer
	heading *color.Color
	bold    *color.Color
	dim     *color.Color
}

// NewLessonDisplay creates a LessonDisplay writing to out.
func NewLessonDisplay(out io.Writer) *LessonDisplay {
	return &LessonDisplay{
		out:     out,
		heading: color.New(color.FgCyan, color.Bold),
		bold:    color.New(color.Bold),
		dim:     color.New(color.Faint),
	}
}

// Show prints one full lesson.
func (d *LessonDisplay) Show(p *project.Project) {
	fmt.Fprintln(d.out, d.heading.Sprint(p.Title))
	fmt.Fprintln(d.out, d.dim.Sprintf("%s | %s | %s", p.SourceURL, p.DetectedLanguage, p.Status))
	if p.ErrorMessage.Valid && p.ErrorMessage.String != "" {
		color.New(color.FgYellow).Fprintf(d.out, "warning: %s\n", p.ErrorMessage.String)
	}
	fmt.Fprintln(d.out)

	if len(p.Vocabulary) > 0 {
		fmt.Fprintln(d.out, d.heading.Sprint("Vocabulary"))
		for _, v := range p.Vocabulary {
			fmt.Fprintf(d.out, "  %s", d.bold.Sprint(v.Word))
			if v.Difficulty != "" {
				fmt.Fprintf(d.out, " %s", d.dim.Sprintf("(%s)", v.Difficulty))
			}
			fmt.Fprintf(d.out, ": %s\n", v.Definition)
		}
		fmt.Fprintln(d.out)
	}

	if len(p.Grammar) > 0 {
		fmt.Fprintln(d.out, d.heading.Sprint("Grammar"))
		for _, g := range p.Grammar {
			fmt.Fprintf(d.out, "  %s\n", d.bold.Sprint(g.Rule))
			if g.Example != "" {
				fmt.Fprintf(d.out, "    %s\n", g.Example)
			}
			if g.Explanation != "" {
				fmt.Fprintf(d.out, "    %s\n", d.dim.Sprint(g.Explanation))
			}
		}
		fmt.Fprintln(d.out)
	}

	if len(p.Sentences) > 0 {
		fmt.Fprintln(d.out, d.heading.Sprint("Practice Sentences"))
		for i, s := range p.Sentences {
			fmt.Fprintf(d.out, "  %d. %s\n", i+1, s.Text)
			if s.Translation != "" {
				fmt.Fprintf(d.out, "     %s\n", d.dim.Sprint(s.Translation))
			}
		}
		fmt.Fprintln(d.out)
	}
}

// ShowList prints a one-line summary per project.
func (d *LessonDisplay) ShowList(projects []project.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(d.out, "no projects")
		return
	}
	for _, p := range projects {
		marker := " "
		if p.Favorite {
			marker = "*"
		}
		fmt.Fprintf(d.out, "%s %s  %s  %s\n",
			marker, p.ID, statusColor(p.Status).Sprintf("%-10s", p.Status), p.Title)
	}
}

// ShowTranscript prints only the transcript text.
func (d *LessonDisplay) ShowTranscript(p *project.Project) {
	fmt.Fprintln(d.out, d.heading.Sprint(p.Title))
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, p.Script)
}

func statusColor(status string) *color.Color {
	switch status {
	case project.StatusCompleted:
		return color.New(color.FgGreen)
	case project.StatusFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}
