package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// logFlags are shared by every subcommand.
type logFlags struct {
	json    bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	var lf logFlags

	cmd := &cobra.Command{
		Use:   "steward",
		Short: "WhatsApp assistant for property inspectors",
		Long:  "Steward answers inspectors over WhatsApp, records their site work, and keeps the office informed.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is normal outside development.
			_ = godotenv.Load()
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), lf))
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&lf.json, "log-json", false, "emit JSON logs")
	cmd.PersistentFlags().BoolVarP(&lf.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newNotifyCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newInspectorCmd())
	cmd.AddCommand(newSimulateCmd())
	return cmd
}

func newLogger(w io.Writer, lf logFlags) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if lf.verbose {
		opts.Level = slog.LevelDebug
	}
	if lf.json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "steward %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// addConfigFlag registers the -c/--config flag on cmd.
func addConfigFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, "config", "c", "steward.yaml", "path to Steward config file")
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
