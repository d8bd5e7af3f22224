package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knishimura/lingotube/internal/cli"
	"github.com/knishimura/lingotube/internal/inference"
	"github.com/knishimura/lingotube/internal/inference/openai"
	"github.com/knishimura/lingotube/internal/lesson"
	"github.com/knishimura/lingotube/internal/pdf"
	"github.com/knishimura/lingotube/internal/project"
)

func newLessonCommand() *cobra.Command {
	lessonCommand := &cobra.Command{
		Use:   "lesson",
		Short: "Lesson commands for creating and reviewing projects",
	}

	lessonCommand.AddCommand(newLessonCreateCommand())
	lessonCommand.AddCommand(newLessonShowCommand())
	lessonCommand.AddCommand(newLessonListCommand())
	lessonCommand.AddCommand(newLessonRegenerateCommand())
	lessonCommand.AddCommand(newLessonExportCommand())

	return lessonCommand
}

func newLessonCreateCommand() *cobra.Command {
	var userID string

	command := &cobra.Command{
		Use:   "create <video-url>",
		Short: "Create a lesson project from a YouTube video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.OpenAI.APIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY environment variable is required")
			}

			openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, inference.DefaultMaxRetryAttempts)
			defer func() {
				_ = openaiClient.Close()
			}()

			db, repo, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			service := lesson.NewService(lesson.Options{
				Repository:         repo,
				Transcripts:        newOrchestrator(cfg),
				AI:                 openaiClient,
				MaxTranscriptChars: cfg.OpenAI.MaxTranscriptChars,
				SentenceCount:      cfg.OpenAI.SentenceCount,
				MinWords:           cfg.Transcript.MinWords,
			})

			p, err := service.CreateFromURL(cmd.Context(), userID, args[0])
			if err != nil {
				if p != nil {
					fmt.Fprintf(os.Stderr, "project %s recorded the failure\n", p.ID)
				}
				return fmt.Errorf("service.CreateFromURL() > %w", err)
			}

			if p.Status == project.StatusProcessing {
				fmt.Printf("Project %s is waiting on transcription job. Check back later.\n", p.ID)
				return nil
			}

			cli.NewLessonDisplay(os.Stdout).Show(p)
			return nil
		},
	}

	command.Flags().StringVar(&userID, "user", "local", "Owner of the created project")

	return command
}

func newLessonShowCommand() *cobra.Command {
	var withTranscript bool

	command := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show one lesson project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, repo, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			p, err := repo.FindByID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("repo.FindByID() > %w", err)
			}
			if p == nil {
				return fmt.Errorf("project %s not found", args[0])
			}

			display := cli.NewLessonDisplay(os.Stdout)
			display.Show(p)
			if withTranscript {
				display.ShowTranscript(p)
			}
			return nil
		},
	}

	command.Flags().BoolVar(&withTranscript, "transcript", false, "Also print the full transcript")

	return command
}

func newLessonListCommand() *cobra.Command {
	var userID string

	command := &cobra.Command{
		Use:   "list",
		Short: "List lesson projects, most recently accessed first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, repo, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			projects, err := repo.FindByUser(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("repo.FindByUser() > %w", err)
			}

			cli.NewLessonDisplay(os.Stdout).ShowList(projects)
			return nil
		},
	}

	command.Flags().StringVar(&userID, "user", "local", "Owner whose projects are listed")

	return command
}

func newLessonRegenerateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "regenerate <project-id>",
		Short: "Re-run the AI analysis over a project's stored transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.OpenAI.APIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY environment variable is required")
			}

			openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, inference.DefaultMaxRetryAttempts)
			defer func() {
				_ = openaiClient.Close()
			}()

			db, repo, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			service := lesson.NewService(lesson.Options{
				Repository:         repo,
				AI:                 openaiClient,
				MaxTranscriptChars: cfg.OpenAI.MaxTranscriptChars,
				SentenceCount:      cfg.OpenAI.SentenceCount,
			})

			p, err := service.Regenerate(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, lesson.ErrNoScript) {
					return fmt.Errorf("project %s has no transcript to analyze", args[0])
				}
				return fmt.Errorf("service.Regenerate() > %w", err)
			}

			cli.NewLessonDisplay(os.Stdout).Show(p)
			return nil
		},
	}

	return command
}

func newLessonExportCommand() *cobra.Command {
	var outputPath string

	command := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Export a lesson project as a PDF document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, repo, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			p, err := repo.FindByID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("repo.FindByID() > %w", err)
			}
			if p == nil {
				return fmt.Errorf("project %s not found", args[0])
			}

			if outputPath == "" {
				outputPath = p.ID + ".pdf"
			}
			pdfPath, err := pdf.ExportProject(p, outputPath)
			if err != nil {
				return fmt.Errorf("pdf.ExportProject() > %w", err)
			}

			fmt.Printf("Exported %s\n", pdfPath)
			return nil
		},
	}

	command.Flags().StringVar(&outputPath, "output", "", "Output PDF path (defaults to <project-id>.pdf)")

	return command
}
