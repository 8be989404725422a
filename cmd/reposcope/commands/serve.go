// Package commands implements the reposcope CLI subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/reposcope/internal/config"
	"github.com/Sumatoshi-tech/reposcope/internal/server"
	"github.com/Sumatoshi-tech/reposcope/internal/session"
	"github.com/Sumatoshi-tech/reposcope/internal/watch"
	"github.com/Sumatoshi-tech/reposcope/pkg/miner"
)

const (
	serveCmdUse      = "serve <repo-url-or-path>"
	serveCmdShort    = "Serve the live dashboard for a repository"
	serveArgCount    = 1
	configFlag       = "config"
	configFlagUsage  = "path to config file"
	addrFlag         = "addr"
	addrFlagUsage    = "listen address (overrides config)"
	noWatchFlag      = "no-watch"
	noWatchFlagUsage = "disable filesystem watching for local repos"
)

// NewServeCommand creates the serve subcommand.
func NewServeCommand() *cobra.Command {
	var (
		configPath string
		addr       string
		noWatch    bool
	)

	cmd := &cobra.Command{
		Use:   serveCmdUse,
		Short: serveCmdShort,
		Args:  cobra.ExactArgs(serveArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if addr != "" {
				cfg.Server.Addr = addr
			}

			return runServe(cmd.Context(), cfg, args[0], noWatch)
		},
	}

	cmd.Flags().StringVarP(&configPath, configFlag, "c", "", configFlagUsage)
	cmd.Flags().StringVar(&addr, addrFlag, "", addrFlagUsage)
	cmd.Flags().BoolVar(&noWatch, noWatchFlag, false, noWatchFlagUsage)

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, repoURL string, noWatch bool) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := miner.New(
		miner.WithCacheDir(cfg.Miner.CacheDir),
		miner.WithHistoryLimit(cfg.Miner.HistoryLimit),
	)

	sess := session.NewSession(m, session.WithPollInterval(cfg.Poll.Interval))
	defer sess.Close()

	// The hook is installed before Load so the poller never observes a
	// half-wired server.
	srv := server.New(sess, cfg.Server.Addr)
	sess.SetRefreshHook(srv.BroadcastSnapshot)

	logger.Info("loading repository", "repo", repoURL)

	if err := sess.Load(ctx, repoURL); err != nil {
		return err
	}

	// After Load so the linkage relay subscription survives the bus reset.
	srv.AttachLinkage()

	if watcher := startWatcher(logger, sess, repoURL, noWatch); watcher != nil {
		defer watcher.Close()
	}

	return srv.Run(ctx)
}

// startWatcher attaches a filesystem watcher for local repositories so a
// commit made outside the dashboard triggers an immediate poll. Remote URLs
// rely on the interval poller alone.
func startWatcher(logger *slog.Logger, sess *session.Session, repoURL string, noWatch bool) *watch.Watcher {
	if noWatch {
		return nil
	}

	gitDir := filepath.Join(repoURL, ".git")

	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	watcher, err := watch.New(gitDir, sess.PollNow)
	if err != nil {
		logger.Warn("filesystem watch unavailable, falling back to polling", "error", err)

		return nil
	}

	logger.Info("watching repository", "dir", gitDir)

	return watcher
}
