package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"mediaforge/internal/config"
	"mediaforge/internal/media/ffprobe"
	"mediaforge/internal/media/mediakind"
)

type probeView struct {
	Path       string  `json:"path"`
	Kind       string  `json:"kind"`
	VideoCodec string  `json:"video_codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	FrameRate  float64 `json:"frame_rate,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	Frames     int     `json:"frames,omitempty"`
	LoopCount  int     `json:"loop_count"`
	Error      string  `json:"error,omitempty"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var countFrames bool

	cmd := &cobra.Command{
		Use:   "probe <file>...",
		Short: "Inspect media files and show how they classify",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withToolchain(cmd, func(runCtx context.Context, tc *toolchain) error {
				views := make([]probeView, 0, len(args))
				failed := 0
				for _, arg := range args {
					view := probeOne(runCtx, tc.prober, arg, countFrames)
					if view.Error != "" {
						failed++
					}
					views = append(views, view)
				}

				if jsonOutput {
					if err := writeJSON(cmd, views); err != nil {
						return err
					}
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), renderProbeTable(views))
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d files could not be probed", failed, len(args))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&countFrames, "count-frames", false, "Count packets when the container does not report a frame count")
	return cmd
}

func probeOne(ctx context.Context, prober *ffprobe.Prober, arg string, countFrames bool) probeView {
	path, err := config.ExpandPath(arg)
	if err != nil {
		return probeView{Path: arg, Kind: mediakind.Unknown.Label(), Error: err.Error()}
	}
	view := probeView{Path: path}
	info, err := prober.Probe(ctx, path)
	if err != nil {
		view.Kind = mediakind.Unknown.Label()
		view.Error = err.Error()
		return view
	}
	view.Kind = mediakind.Classify(info).Label()
	view.VideoCodec = info.VideoCodec
	view.AudioCodec = info.AudioCodec
	view.Width, view.Height = info.Width, info.Height
	view.FrameRate = info.FrameRate
	view.Duration = info.Duration
	view.Frames = info.FrameCount
	view.LoopCount = info.LoopCount
	if countFrames && view.Frames == 0 && info.HasVideo() {
		if n, err := prober.CountFrames(ctx, path); err == nil {
			view.Frames = n
		}
	}
	return view
}

func renderProbeTable(views []probeView) string {
	headers := []string{"File", "Kind", "Video", "Audio", "Size", "FPS", "Duration", "Frames", "Loop"}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		if v.Error != "" {
			rows = append(rows, []string{filepath.Base(v.Path), v.Kind, "error: " + v.Error})
			continue
		}
		size := ""
		if v.Width > 0 && v.Height > 0 {
			size = fmt.Sprintf("%dx%d", v.Width, v.Height)
		}
		rows = append(rows, []string{
			filepath.Base(v.Path),
			v.Kind,
			dashIfEmpty(v.VideoCodec),
			dashIfEmpty(v.AudioCodec),
			dashIfEmpty(size),
			formatFloat(v.FrameRate),
			formatFloat(v.Duration),
			formatCount(v.Frames),
			loopLabel(v.LoopCount),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
	return renderTable(headers, rows, aligns)
}

func dashIfEmpty(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func formatFloat(value float64) string {
	if value <= 0 {
		return "-"
	}
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func formatCount(value int) string {
	if value <= 0 {
		return "-"
	}
	return strconv.Itoa(value)
}

// loopLabel renders ffmpeg -loop semantics.
func loopLabel(loop int) string {
	switch {
	case loop == 0:
		return "forever"
	case loop < 0:
		return "once"
	default:
		return fmt.Sprintf("%d extra", loop)
	}
}
