package lesson

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/knishimura/lingotube/internal/project"
)

func TestRenderMarkdown(t *testing.T) {
	p := &project.Project{
		Title:            "Morning Routine",
		SourceURL:        "https://youtu.be/dQw4w9WgXcQ",
		DetectedLanguage: "es",
		Script:           "Me levanto temprano y tomo el desayuno.",
		Vocabulary: project.VocabularyList{
			{Word: "desayuno", Definition: "breakfast", Difficulty: "beginner"},
		},
		Grammar: project.GrammarList{
			{Rule: "reflexive verbs", Example: "Me levanto temprano.", Explanation: "the subject acts on itself"},
		},
		Sentences: project.SentenceList{
			{Text: "Tomo el desayuno a las siete.", Translation: "I have breakfast at seven."},
		},
	}

	got := RenderMarkdown(p)
	assert.Contains(t, got, "# Morning Routine")
	assert.Contains(t, got, "## Vocabulary")
	assert.Contains(t, got, "**desayuno** (beginner): breakfast")
	assert.Contains(t, got, "### reflexive verbs")
	assert.Contains(t, got, "> Me levanto temprano.")
	assert.Contains(t, got, "1. Tomo el desayuno a las siete.")
	assert.Contains(t, got, "   - I have breakfast at seven.")
	assert.Contains(t, got, "## Transcript")
}

func TestRenderMarkdown_SkipsEmptySections(t *testing.T) {
	p := &project.Project{
		Title:     "Bare Lesson",
		SourceURL: "https://youtu.be/dQw4w9WgXcQ",
		Script:    "just a transcript",
	}

	got := RenderMarkdown(p)
	assert.NotContains(t, got, "## Vocabulary")
	assert.NotContains(t, got, "## Grammar")
	assert.NotContains(t, got, "## Practice Sentences")
	assert.Contains(t, got, "## Transcript")
}
