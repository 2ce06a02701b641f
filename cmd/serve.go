package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kamusis/tagsuggest/internal/config"
	"github.com/kamusis/tagsuggest/internal/logger"
	"github.com/kamusis/tagsuggest/internal/server"
	"github.com/kamusis/tagsuggest/internal/snapshot"
)

var (
	flagServeAllowEmpty bool
	flagServeReadOnly   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer msgpack requests on stdin/stdout",
	Long: `Load the tag index and answer msgpack-encoded requests read from stdin.
Responses are written to stdout; logs go to stderr.

The server emits {"status":"ready"} once loaded and exits on EOF or SIGINT.
Tags added through the "add" action are saved to the index on exit.

Unless --read-only is given, the server holds the index writer lock for its
whole lifetime, so 'tagsuggest add' and 'tagsuggest populate' wait for it.
A read-only server takes no lock and rejects "add" requests.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagServeAllowEmpty, "allow-empty", false, "Start with an empty index when none exists")
	serveCmd.Flags().BoolVar(&flagServeReadOnly, "read-only", false, "Reject add requests and leave the index unlocked")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serveSession(ctx, cfg, os.Stdin, os.Stdout, flagServeAllowEmpty, flagServeReadOnly)
}

// serveSession runs one IPC session. A writable session holds the snapshot lock
// from load until its additions are saved.
func serveSession(ctx context.Context, cfg *config.Config, r io.Reader, w io.Writer, allowEmpty, readOnly bool) error {
	if !readOnly {
		unlock, err := snapshot.Lock(cfg.IndexPath, lockTimeout)
		if err != nil {
			return err
		}
		defer unlock()
	}

	e, err := openEngine(cfg, allowEmpty, false)
	if err != nil {
		return err
	}

	l := logger.New("serve")
	srv := server.New(e.suggester, e.provider.ModelID(), r, w, l)
	srv.SetReadOnly(readOnly)
	l.Info("serving", "tags", e.suggester.Len(), "model", e.provider.ModelID(), "read_only", readOnly)
	serveErr := srv.Serve(ctx)

	if srv.Added() > 0 {
		if err := e.save(); err != nil {
			return fmt.Errorf("save added tags: %w", err)
		}
		l.Info("index saved", "dir", cfg.IndexPath, "added", srv.Added())
	}
	return serveErr
}
