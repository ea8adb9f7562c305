package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"dubflow/internal/janitor"
	"dubflow/internal/timecode"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session's progress through the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.loadSession(cmd.Context(), cmd); err != nil {
				return err
			}

			status, err := a.pipeline.Status()
			if err != nil {
				return err
			}

			cmd.Printf("video:        %s (%s)\n", status.OriginalName, status.VideoID)
			cmd.Printf("duration:     %s\n", timecode.FormatDisplayTime(status.DurationMS))
			cmd.Printf("trimmed:      %v\n", status.Trimmed)
			cmd.Printf("segments:     %d (source language %s)\n", status.SegmentCount, fmtOrDash(status.SourceLanguage))
			cmd.Printf("translations: %v\n", status.Translations)
			cmd.Printf("audio:        %v\n", status.AudioKeys)
			for key, path := range status.Results {
				cmd.Printf("result %s: %s\n", key, path)
			}
			return nil
		},
	}
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop all derived artifacts, keeping the uploaded video",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.loadSession(cmd.Context(), cmd); err != nil {
				return err
			}
			if err := a.pipeline.Reset(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("session reset")
			return nil
		},
	}
}

func newCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the session's temporary files (results are kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.loadSession(cmd.Context(), cmd); err != nil {
				return err
			}
			if err := a.pipeline.Clean(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("temporary files removed")
			return nil
		},
	}
}

func newSweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove stale temp artifacts across all sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			maxAge := time.Duration(a.cfg.Janitor.MaxAgeHours) * time.Hour
			dirs := []string{a.cfg.Storage.UploadDir, a.cfg.Storage.ProcessedDir}
			cronEngine := cron.New()
			j := janitor.New(cronEngine, dirs, maxAge)

			watch, _ := cmd.Flags().GetBool("watch")
			if !watch {
				removed := j.Sweep()
				cmd.Printf("removed %d stale files\n", removed)
				return nil
			}

			if err := j.Schedule(a.cfg.Janitor.CronExpr); err != nil {
				return err
			}
			cronEngine.Start()
			defer cronEngine.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.Printf("sweeping on schedule %q, ctrl-c to stop\n", a.cfg.Janitor.CronExpr)
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().Bool("watch", false, "Keep running and sweep on the configured cron schedule")
	return cmd
}
