package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"dubflow/internal/timecode"
	"dubflow/internal/transcribe"
)

// fileUpload adapts a local file to the pipeline's upload capability.
type fileUpload struct {
	*os.File
	name string
	size int64
}

func (f *fileUpload) Name() string { return f.name }
func (f *fileUpload) Size() int64  { return f.size }

func newUploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <video-file>",
		Short: "Register a source video and start a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			src, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			info, err := src.Stat()
			if err != nil {
				return err
			}

			asset, err := a.pipeline.UploadVideo(cmd.Context(), &fileUpload{
				File: src,
				name: filepath.Base(args[0]),
				size: info.Size(),
			})
			if err != nil {
				return err
			}

			cmd.Printf("uploaded %s\n", asset.OriginalName)
			cmd.Printf("  id:       %s\n", asset.ID)
			cmd.Printf("  duration: %s\n", timecode.FormatDisplayTime(asset.DurationMS))
			return nil
		},
	}
}

func newTrimCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trim",
		Short: "Cut the video to a time range (MM:SS, empty end = to the end)",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")

			if err := timecode.ValidateRange(start, end); err != nil {
				return err
			}
			startMS, err := timecode.ParseDisplayTime(start)
			if err != nil {
				return err
			}
			var endMS *int64
			if end != "" {
				ms, err := timecode.ParseDisplayTime(end)
				if err != nil {
					return err
				}
				endMS = &ms
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.loadSession(cmd.Context(), cmd); err != nil {
				return err
			}

			if err := a.pipeline.Trim(cmd.Context(), startMS, endMS); err != nil {
				return err
			}
			cmd.Printf("video: %s\n", a.pipeline.Session().Video.EffectivePath())
			return nil
		},
	}
	cmd.Flags().String("start", "", "Start time (MM:SS, empty = 00:00)")
	cmd.Flags().String("end", "", "End time (MM:SS, empty = to the end)")
	return cmd
}

func newTranscribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Extract subtitles through the speech-to-text service",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.loadSession(cmd.Context(), cmd); err != nil {
				return err
			}

			language, _ := cmd.Flags().GetString("language")
			modelSize, _ := cmd.Flags().GetString("model-size")
			temperature, _ := cmd.Flags().GetFloat64("temperature")
			prompt, _ := cmd.Flags().GetString("prompt")
			granularity, _ := cmd.Flags().GetString("granularity")
			overwrite, _ := cmd.Flags().GetBool("overwrite")

			if modelSize == "" {
				modelSize = a.cfg.Whisper.ModelSize
			}

			opts := transcribe.Options{
				Language:      language,
				ModelSize:     modelSize,
				Temperature:   temperature,
				InitialPrompt: prompt,
				Granularity:   transcribe.Granularity(granularity),
			}
			if err := a.pipeline.Transcribe(cmd.Context(), opts, overwrite); err != nil {
				return err
			}

			sess := a.pipeline.Session()
			cmd.Printf("extracted %d segments (language=%s)\n", len(sess.Segments), sess.SourceLanguage)
			return nil
		},
	}
	cmd.Flags().String("language", "auto", "Source language hint, auto = autodetect")
	cmd.Flags().String("model-size", "", "Transcription model size")
	cmd.Flags().Float64("temperature", 0, "Sampling temperature within [0, 1]")
	cmd.Flags().String("prompt", "", "Initial prompt guiding transcription")
	cmd.Flags().String("granularity", "segment", "Timestamp granularity: segment or word")
	cmd.Flags().Bool("overwrite", false, "Replace previously extracted subtitles")
	return cmd
}

func newSubtitleCommand() *cobra.Command {
	subtitleCmd := &cobra.Command{
		Use:   "subtitle",
		Short: "Import or export the subtitle set",
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the subtitle set from an .srt or .txt file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.loadSession(cmd.Context(), cmd); err != nil {
				return err
			}

			overwrite, _ := cmd.Flags().GetBool("overwrite")
			if err := a.pipeline.ImportSubtitles(cmd.Context(), args[0], overwrite); err != nil {
				return err
			}
			cmd.Printf("imported %d segments\n", len(a.pipeline.Session().Segments))
			return nil
		},
	}
	importCmd.Flags().Bool("overwrite", false, "Replace the existing subtitle set")

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the subtitle set to an .srt or .txt file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.loadSession(cmd.Context(), cmd); err != nil {
				return err
			}

			language, _ := cmd.Flags().GetString("language")
			if err := a.pipeline.ExportSubtitles(args[0], language); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	exportCmd.Flags().String("language", "", "Render this language's translation instead of the source text")

	subtitleCmd.AddCommand(importCmd, exportCmd)
	return subtitleCmd
}

func newTranslateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate <target-language>",
		Short: "Translate the subtitle set to a target language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.loadSession(cmd.Context(), cmd); err != nil {
				return err
			}

			overwrite, _ := cmd.Flags().GetBool("overwrite")
			result, err := a.pipeline.Translate(cmd.Context(), args[0], overwrite)
			if err != nil {
				return err
			}

			cmd.Printf("translated %d/%d segments to %s\n", result.Translated, result.Requested, args[0])
			if len(result.MissingIDs) > 0 {
				cmd.Printf("untranslated segment ids: %v\n", result.MissingIDs)
			}
			return nil
		},
	}
	cmd.Flags().Bool("overwrite", false, "Redo a cached translation")
	return cmd
}

func newTTSCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tts <target-language>",
		Short: "Synthesize the dubbed audio track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.loadSession(cmd.Context(), cmd); err != nil {
				return err
			}

			gender, _ := cmd.Flags().GetString("gender")
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			if err := a.pipeline.Synthesize(cmd.Context(), args[0], gender, overwrite); err != nil {
				return err
			}

			audio, _ := a.pipeline.Session().AudioFor(args[0], gender)
			cmd.Printf("audio: %s\n", audio.Path)
			return nil
		},
	}
	cmd.Flags().String("gender", "female", "Voice gender: female or male")
	cmd.Flags().Bool("overwrite", false, "Redo cached audio")
	return cmd
}

func newComposeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose <target-language>",
		Short: "Produce the final dubbed video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.loadSession(cmd.Context(), cmd); err != nil {
				return err
			}

			gender, _ := cmd.Flags().GetString("gender")
			subtitles, _ := cmd.Flags().GetBool("subtitles")
			overwrite, _ := cmd.Flags().GetBool("overwrite")

			resultPath, err := a.pipeline.Compose(cmd.Context(), args[0], gender, subtitles, overwrite)
			if err != nil {
				return err
			}
			cmd.Printf("result: %s\n", resultPath)
			return nil
		},
	}
	cmd.Flags().String("gender", "female", "Voice gender: female or male")
	cmd.Flags().Bool("subtitles", false, "Burn the translated subtitles into the video")
	cmd.Flags().Bool("overwrite", false, "Redo a cached result")
	return cmd
}

func fmtOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
