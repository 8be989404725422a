package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/reposcope/internal/config"
	"github.com/Sumatoshi-tech/reposcope/internal/session"
	"github.com/Sumatoshi-tech/reposcope/pkg/miner"
	"github.com/Sumatoshi-tech/reposcope/pkg/plotpage"
	"github.com/Sumatoshi-tech/reposcope/pkg/render"
)

const (
	renderCmdUse    = "render <repo-url-or-path>"
	renderCmdShort  = "Render a one-shot dashboard, summary, or report"
	renderArgCount  = 1
	outputFlag      = "output"
	outputFlagUsage = "output file (defaults to stdout)"
	formatFlag      = "format"
	formatFlagUsage = "output format: html, text, json, yaml"
	outputFilePerm  = 0o600
	formatHTML      = "html"
	formatText      = "text"
)

// ErrUnknownFormat is returned for a --format value the command cannot produce.
var ErrUnknownFormat = errors.New("unknown output format")

// NewRenderCommand creates the render subcommand.
func NewRenderCommand() *cobra.Command {
	var (
		configPath string
		outputPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   renderCmdUse,
		Short: renderCmdShort,
		Args:  cobra.ExactArgs(renderArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			return runRender(cmd.Context(), cfg, args[0], outputPath, format)
		},
	}

	cmd.Flags().StringVarP(&configPath, configFlag, "c", "", configFlagUsage)
	cmd.Flags().StringVarP(&outputPath, outputFlag, "o", "", outputFlagUsage)
	cmd.Flags().StringVarP(&format, formatFlag, "f", formatHTML, formatFlagUsage)

	return cmd
}

func runRender(ctx context.Context, cfg *config.Config, repoURL, outputPath, format string) error {
	m := miner.New(
		miner.WithCacheDir(cfg.Miner.CacheDir),
		miner.WithHistoryLimit(cfg.Miner.HistoryLimit),
	)

	sess := session.NewSession(m, session.WithPollInterval(0))
	defer sess.Close()

	if err := sess.Load(ctx, repoURL); err != nil {
		return err
	}

	snap, err := sess.Snapshot()
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	return writeSnapshot(out, snap, format, cfg.Render.Theme)
}

func writeSnapshot(w io.Writer, snap session.Snapshot, format, theme string) error {
	in := render.Input{
		Meta:   snap.Meta,
		Tree:   snap.Hierarchy,
		Series: snap.Series,
		Graph:  snap.Graph,
	}

	switch format {
	case formatHTML:
		return render.RenderHTML(w, in, plotpage.Theme(theme))
	case formatText:
		return render.WriteSummary(w, in)
	case render.FormatJSON, render.FormatYAML:
		return render.WriteReport(w, in, format)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputFilePerm)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}

	return file, func() { file.Close() }, nil
}
