package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"mediaforge/internal/config"
	"mediaforge/internal/fileutil"
	"mediaforge/internal/logging"
	"mediaforge/internal/tempfiles"
	"mediaforge/internal/transcode"
)

var intentNames = []transcode.Intent{
	transcode.PlaybackNormalize,
	transcode.ForceNormalize,
	transcode.ExtractAudio,
	transcode.ExtractFrameImage,
	transcode.ToAnimatedContainer,
	transcode.AnimatedToVideo,
	transcode.ToGIF,
}

func intentList() string {
	names := make([]string, len(intentNames))
	for i, intent := range intentNames {
		names[i] = string(intent)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var op string
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a media file with one transcode operation",
		Long:  "Convert a media file. Operations: " + intentList() + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			intent, ok := transcode.ParseIntent(strings.TrimSpace(op))
			if !ok {
				return fmt.Errorf("unknown operation %q (valid: %s)", op, intentList())
			}
			if intent == transcode.ExtractFrameImage && format != "" && !transcode.SupportedImageFormat(format) {
				return fmt.Errorf("unsupported image format %q", format)
			}
			return ctx.withToolchain(cmd, func(runCtx context.Context, tc *toolchain) error {
				session := tc.ledger.Session()
				defer session.Close()

				in, err := importInput(session, args[0])
				if err != nil {
					return err
				}
				out, err := tc.engine.WithFiles(session).Convert(runCtx, in, intent, format)
				if err != nil {
					return err
				}
				return deliver(cmd, tc, in, out, args[0], string(intent), output)
			})
		},
	}

	cmd.Flags().StringVar(&op, "op", string(transcode.PlaybackNormalize), "Operation to apply")
	cmd.Flags().StringVar(&format, "format", "", "Image format for extract_frame_image (default png)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path (default: next to the input)")
	return cmd
}

func newFrameCommand(ctx *commandContext) *cobra.Command {
	var index int
	var output string

	cmd := &cobra.Command{
		Use:   "frame <file>",
		Short: "Extract one frame into a lossless mkv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withToolchain(cmd, func(runCtx context.Context, tc *toolchain) error {
				session := tc.ledger.Session()
				defer session.Close()

				in, err := importInput(session, args[0])
				if err != nil {
					return err
				}
				out, err := tc.engine.WithFiles(session).FrameAt(runCtx, in, index)
				if err != nil {
					return err
				}
				return deliver(cmd, tc, in, out, args[0], fmt.Sprintf("frame%d", index), output)
			})
		},
	}

	cmd.Flags().IntVar(&index, "index", -1, "Frame number to extract (-1 for the last frame)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path (default: next to the input)")
	return cmd
}

func importInput(session *tempfiles.Session, arg string) (*tempfiles.File, error) {
	path, err := config.ExpandPath(arg)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspect input %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("input %q is a directory", path)
	}
	return session.Import(path)
}

// deliver copies the managed result out of the ledger before the session
// releases it.
func deliver(cmd *cobra.Command, tc *toolchain, in, out *tempfiles.File, source, suffix, output string) error {
	target := strings.TrimSpace(output)
	if target == "" {
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		target = filepath.Join(filepath.Dir(source), fmt.Sprintf("%s-%s.%s", base, suffix, out.Ext()))
	} else {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return err
		}
		target = expanded
	}
	if err := fileutil.CopyFile(out.Path(), target); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	stdout := cmd.OutOrStdout()
	if out == in {
		fmt.Fprintf(stdout, "Already compliant, copied unchanged to %s\n", target)
	} else {
		fmt.Fprintf(stdout, "Wrote %s\n", target)
	}
	tc.logger.Info("conversion delivered",
		logging.String("output", target),
		logging.Bool("pass_through", out == in),
		logging.Bool("codec_locked", out.CodecLocked()),
	)
	return nil
}
