package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "dubflow",
		Short:         "Batch video dubbing: transcribe, translate, synthesize, compose",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	root.PersistentFlags().String("video", "", "Video id to operate on (default: the last uploaded)")

	root.AddCommand(
		newUploadCommand(),
		newTrimCommand(),
		newTranscribeCommand(),
		newSubtitleCommand(),
		newTranslateCommand(),
		newTTSCommand(),
		newComposeCommand(),
		newStatusCommand(),
		newResetCommand(),
		newCleanCommand(),
		newSweepCommand(),
	)
	return root
}
