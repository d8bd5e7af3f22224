package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knishimura/lingotube/internal/transcript"
	"github.com/knishimura/lingotube/internal/youtube"
)

func newTranscriptCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "transcript <video-url>",
		Short: "Fetch the transcript of a YouTube video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			videoID, err := youtube.ExtractVideoID(args[0])
			if err != nil {
				return fmt.Errorf("youtube.ExtractVideoID() > %w", err)
			}

			result, err := newOrchestrator(cfg).Acquire(cmd.Context(), videoID)
			if err != nil {
				return fmt.Errorf("failed to acquire transcript: %w", err)
			}

			if result.Status == transcript.StatusPending {
				fmt.Printf("Transcription job %s is running. Re-run this command later.\n", result.JobID)
				return nil
			}

			if result.VideoTitle != "" {
				fmt.Println(result.VideoTitle)
				fmt.Println()
			}
			fmt.Println(result.Transcript)
			return nil
		},
	}

	return command
}
