// Command sugar inspects sugar stores, storage backends, dictionaries and
// directory trees from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sugar/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "sugar",
		Short: "Tools for sugar stores, dictionaries and file trees",
		Long: `Sugar is a thin ergonomics layer over the vango reactive core.

This CLI works with the pieces that live outside a running program:

  • Persisted store state in memory, file, sqlite or s3 backends
  • Live store inspection over HTTP and websockets
  • i18n dictionary lookups
  • Filtered directory walks, optionally watched`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to sugar.json (default: nearest sugar.json)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override: debug, info, warn or error")

	rootCmd.AddCommand(
		walkCmd(a),
		storeCmd(a),
		i18nCmd(a),
		serveCmd(a),
		versionCmd(),
	)
	return rootCmd
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
