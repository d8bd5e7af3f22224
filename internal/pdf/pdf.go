// Package pdf exports lesson projects as PDF documents.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mandolyte/mdtopdf"

	"github.com/knishimura/lingotube/internal/lesson"
	"github.com/knishimura/lingotube/internal/project"
)

// ExportProject renders a lesson project to markdown and converts it to a
// PDF at pdfPath. The intermediate markdown file is written next to the PDF
// and kept, so the lesson is also readable as plain text.
func ExportProject(p *project.Project, pdfPath string) (string, error) {
	if !strings.HasSuffix(pdfPath, ".pdf") {
		pdfPath += ".pdf"
	}

	markdownPath := strings.TrimSuffix(pdfPath, ".pdf") + ".md"
	if err := os.WriteFile(markdownPath, []byte(lesson.RenderMarkdown(p)), 0644); err != nil {
		return "", fmt.Errorf("os.WriteFile(%s) > %w", markdownPath, err)
	}

	return ConvertMarkdownToPDF(markdownPath)
}

// ConvertMarkdownToPDF converts a markdown file to PDF using mdtopdf package
// The PDF file will be created in the same directory as the markdown file
func ConvertMarkdownToPDF(markdownPath string) (string, error) {
	if !strings.HasSuffix(markdownPath, ".md") {
		return "", fmt.Errorf("input file must have .md extension: %s", markdownPath)
	}

	content, err := os.ReadFile(markdownPath)
	if err != nil {
		return "", fmt.Errorf("os.ReadFile(%s) > %w", markdownPath, err)
	}

	pdfPath := strings.TrimSuffix(markdownPath, ".md") + ".pdf"

	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process(content); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}

	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return pdfPath, nil
	}

	return absPath, nil
}
