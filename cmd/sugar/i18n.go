package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sugar/internal/errors"
	"github.com/vango-dev/sugar/pkg/i18n"
)

func i18nCmd(a *app) *cobra.Command {
	var (
		dir    string
		locale string
	)

	cmd := &cobra.Command{
		Use:   "i18n [PATH]",
		Short: "Look up a message in the i18n dictionaries",
		Long: `Look up the message at a dot-separated PATH, for example
"home.title" or "menu.items.0". Without PATH, list the locales.

Dictionaries are the .yaml, .yml and .json files in the locales
directory; each file name is a locale.

Examples:
  sugar i18n
  sugar i18n home.title --locale fr`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.LocalesPath()
			}
			messages, err := i18n.Load(os.DirFS(dir), ".")
			if err != nil {
				return errors.New("S304").WithSubject(dir).Wrap(err)
			}

			var opts []i18n.Option
			if l := firstNonEmpty(locale, a.cfg.I18n.DefaultLocale); l != "" {
				opts = append(opts, i18n.WithDefaultLocale(l))
			}
			t, err := i18n.New(messages, opts...)
			if err != nil {
				return errors.New("S301").
					WithSubject(locale).
					WithSuggestion("Available locales: " + strings.Join(slices.Sorted(maps.Keys(messages)), ", ")).
					Wrap(err)
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, l := range t.Locales() {
					mark := " "
					if l == t.Locale() {
						mark = "*"
					}
					fmt.Fprintf(out, "%s %s\n", mark, l)
				}
				return nil
			}

			v, ok := t.T(args[0])
			if !ok {
				return errors.New("S305").WithSubject(t.Locale() + ":" + args[0])
			}
			if s, ok := v.(string); ok {
				fmt.Fprintln(out, s)
				return nil
			}
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Dictionary directory (default from sugar.json)")
	cmd.Flags().StringVarP(&locale, "locale", "l", "", "Locale to look up (default from sugar.json or the environment)")

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
