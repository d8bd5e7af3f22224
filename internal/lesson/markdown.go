package lesson

import (
	"fmt"
	"strings"

	"github.com/knishimura/lingotube/internal/project"
)

// RenderMarkdown formats a lesson project as a markdown document, the shape
// fed to the PDF exporter.
func RenderMarkdown(p *project.Project) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "Source: %s\n\n", p.SourceURL)
	if p.DetectedLanguage != "" {
		fmt.Fprintf(&b, "Language: %s\n\n", p.DetectedLanguage)
	}

	if len(p.Vocabulary) > 0 {
		b.WriteString("## Vocabulary\n\n")
		for _, v := range p.Vocabulary {
			if v.Difficulty != "" {
				fmt.Fprintf(&b, "- **%s** (%s): %s\n", v.Word, v.Difficulty, v.Definition)
			} else {
				fmt.Fprintf(&b, "- **%s**: %s\n", v.Word, v.Definition)
			}
		}
		b.WriteString("\n")
	}

	if len(p.Grammar) > 0 {
		b.WriteString("## Grammar\n\n")
		for _, g := range p.Grammar {
			fmt.Fprintf(&b, "### %s\n\n", g.Rule)
			if g.Example != "" {
				fmt.Fprintf(&b, "> %s\n\n", g.Example)
			}
			if g.Explanation != "" {
				fmt.Fprintf(&b, "%s\n\n", g.Explanation)
			}
		}
	}

	if len(p.Sentences) > 0 {
		b.WriteString("## Practice Sentences\n\n")
		for i, s := range p.Sentences {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s.Text)
			if s.Translation != "" {
				fmt.Fprintf(&b, "   - %s\n", s.Translation)
			}
		}
		b.WriteString("\n")
	}

	if p.Script != "" {
		b.WriteString("## Transcript\n\n")
		b.WriteString(p.Script)
		b.WriteString("\n")
	}

	return b.String()
}
