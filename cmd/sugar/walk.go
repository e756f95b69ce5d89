package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sugar/internal/errors"
	"github.com/vango-dev/sugar/pkg/watch"
	"github.com/vango-dev/sugar/pkg/webfs"
)

type walkFlags struct {
	exts    []string
	skip    []string
	pattern string
	asJSON  bool
	addTime bool
	watch   bool
}

func walkCmd(a *app) *cobra.Command {
	var f walkFlags

	cmd := &cobra.Command{
		Use:   "walk [DIR]",
		Short: "List the files under a directory",
		Long: `Walk DIR (default: the current directory) and list its files.

Directories are read eight at a time. Filters apply to file names only;
--skip leaves whole directories out.

Examples:
  sugar walk src --ext ts --ext tsx
  sugar walk --pattern '^app' --json
  sugar walk . --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if !cmd.Flags().Changed("ext") {
				f.exts = a.cfg.Walk.Extensions
			}
			if !cmd.Flags().Changed("skip") {
				f.skip = a.cfg.Walk.Skip
			}
			if !cmd.Flags().Changed("pattern") {
				f.pattern = a.cfg.Walk.Pattern
			}
			return runWalk(cmd, a, dir, f)
		},
	}

	cmd.Flags().StringSliceVarP(&f.exts, "ext", "e", nil, "Keep only files with these extensions, without the dot")
	cmd.Flags().StringSliceVar(&f.skip, "skip", nil, "Directory names not to descend into")
	cmd.Flags().StringVarP(&f.pattern, "pattern", "p", "", "Keep only files whose name matches this regular expression")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print files as JSON")
	cmd.Flags().BoolVar(&f.addTime, "add-time", false, "Stamp files with the walk time")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Walk again whenever the tree changes")

	return cmd
}

func (f walkFlags) options() ([]webfs.Option, error) {
	var opts []webfs.Option
	if len(f.exts) > 0 {
		opts = append(opts, webfs.Extensions(f.exts...))
	}
	if len(f.skip) > 0 {
		opts = append(opts, webfs.SkipDirs(f.skip...))
	}
	if f.pattern != "" {
		re, err := regexp.Compile(f.pattern)
		if err != nil {
			return nil, errors.New("S301").WithSubject("--pattern").Wrap(err)
		}
		opts = append(opts, webfs.Pattern(re))
	}
	if f.addTime {
		opts = append(opts, webfs.WithAddTime())
	}
	return opts, nil
}

func runWalk(cmd *cobra.Command, a *app, dir string, f walkFlags) error {
	opts, err := f.options()
	if err != nil {
		return err
	}
	root, err := webfs.OpenDir(dir)
	if err != nil {
		return errors.New("S302").WithSubject(dir).Wrap(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ex := webfs.NewExplorer(opts...)
	if _, err := ex.FetchTree(ctx, root); err != nil {
		return errors.New("S302").WithSubject(dir).Wrap(err)
	}

	out := cmd.OutOrStdout()
	if err := printFiles(out, ex.Files.Peek(), f.asJSON); err != nil {
		return err
	}
	if !f.watch {
		return nil
	}

	// Files only changes when a walk finds a different listing.
	w := watch.New(ex.Files.Get, func(files, _ []webfs.File) {
		fmt.Fprintln(out)
		if err := printFiles(out, files, f.asJSON); err != nil {
			a.logger.Warn("print failed", "error", err)
		}
	}, watch.Defer[[]webfs.File]())
	defer w.Stop()

	return watchTree(ctx, a.logger, ex, dir)
}

func printFiles(w io.Writer, files []webfs.File, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, file := range files {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", file.Path(), file.Size, file.ModifiedTime.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
