// Package i18n looks messages up by dot path in per-locale dictionaries.
//
//	tr, err := i18n.New(i18n.Messages{
//	    "en": {"nav": map[string]any{"home": "Home"}},
//	    "fr": {"nav": map[string]any{"home": "Accueil"}},
//	}, i18n.WithDefaultLocale("en"))
//
//	tr.Tr("nav.home") // "Home"
//	tr.SetLocale("fr")
//	tr.Tr("nav.home") // "Accueil"
//
// The current locale is a signal, so effects that call T or Tr re-run when
// it changes.
package i18n

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/vango-dev/sugar/pkg/provider"
	"github.com/vango-dev/sugar/pkg/vango"
	"golang.org/x/text/language"
)

// ErrUnknownLocale is returned when selecting a locale with no dictionary.
var ErrUnknownLocale = errors.New("i18n: unknown locale")

// Messages maps a locale to its dictionary.
type Messages map[string]map[string]any

// Option configures New.
type Option func(*options)

type options struct {
	defaultLocale string
	preferred     []string
	getenv        func(string) string
}

// WithDefaultLocale selects the initial locale. It must be one of the
// message locales.
func WithDefaultLocale(locale string) Option {
	return func(o *options) { o.defaultLocale = locale }
}

// WithPreferred sets the preferred languages, best first, as BCP 47 tags
// or Accept-Language style lists. They replace the environment.
func WithPreferred(tags ...string) Option {
	return func(o *options) { o.preferred = tags }
}

// I18n holds the dictionaries and the current locale.
type I18n struct {
	messages Messages
	locales  []string
	locale   *vango.Signal[string]
	ctx      *vango.Context[*I18n]
}

// New creates an I18n. The initial locale is the default locale if given,
// else the best match for the preferred languages (or $LC_ALL,
// $LC_MESSAGES, $LANG), else the first locale in sorted order.
func New(messages Messages, opts ...Option) (*I18n, error) {
	o := options{getenv: os.Getenv}
	for _, opt := range opts {
		opt(&o)
	}

	locales := make([]string, 0, len(messages))
	for l := range messages {
		locales = append(locales, l)
	}
	slices.Sort(locales)

	initial := ""
	switch {
	case o.defaultLocale != "":
		if _, ok := messages[o.defaultLocale]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, o.defaultLocale)
		}
		initial = o.defaultLocale
	default:
		prefs := o.preferred
		if len(prefs) == 0 {
			prefs = envLocales(o.getenv)
		}
		initial = match(locales, prefs)
	}

	t := &I18n{
		messages: messages,
		locales:  locales,
		locale:   vango.NewSignal(initial),
	}
	t.ctx = vango.CreateContext(t)
	return t, nil
}

// Locales returns the available locales, sorted.
func (t *I18n) Locales() []string {
	return slices.Clone(t.locales)
}

// Locale returns the current locale and tracks it.
func (t *I18n) Locale() string {
	return t.locale.Get()
}

// SetLocale switches the current locale.
func (t *I18n) SetLocale(locale string) error {
	if _, ok := t.messages[locale]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLocale, locale)
	}
	t.locale.Set(locale)
	return nil
}

// T returns the value at path in the current locale's dictionary. Path
// segments are separated by dots; numeric segments index into lists.
func (t *I18n) T(path string) (any, bool) {
	dict, ok := t.messages[t.Locale()]
	if !ok {
		return nil, false
	}
	return lookup(dict, path)
}

// Tr returns the value at path formatted as a string, or path itself when
// there is none.
func (t *I18n) Tr(path string) string {
	v, ok := t.T(path)
	if !ok {
		return path
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Provider provides t to code run inside it, for use with Use.
func (t *I18n) Provider() provider.Provider {
	return provider.Value(t.ctx, t)
}

// Use returns the nearest provided I18n, or t itself.
func (t *I18n) Use() *I18n {
	return t.ctx.Use()
}

func lookup(dict map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = dict
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// envLocales reads POSIX locale variables in priority order.
func envLocales(getenv func(string) string) []string {
	var out []string
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		// fr_FR.UTF-8@euro -> fr-FR
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		out = append(out, strings.ReplaceAll(v, "_", "-"))
	}
	return out
}

// match picks the locale that best serves prefs. Locales that are not
// valid language tags can only be chosen as the fallback.
func match(locales []string, prefs []string) string {
	if len(locales) == 0 {
		return ""
	}

	var (
		tags  []language.Tag
		names []string
	)
	for _, l := range locales {
		tag, err := language.Parse(l)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		names = append(names, l)
	}

	var want []language.Tag
	for _, p := range prefs {
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		want = append(want, parsed...)
	}

	if len(tags) > 0 && len(want) > 0 {
		_, index, conf := language.NewMatcher(tags).Match(want...)
		if conf != language.No {
			return names[index]
		}
	}
	return locales[0]
}
