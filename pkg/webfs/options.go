package webfs

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/vango-dev/sugar/internal/telemetry"
)

// BatchSize is the number of handles read concurrently.
const BatchSize = 8

// Option configures a walk or an Explorer.
type Option func(*config)

type config struct {
	extensions []string
	pattern    *regexp.Regexp
	skip       []string
	addTime    bool
	picker     Picker
	metrics    *telemetry.Metrics
	now        func() time.Time
}

// Extensions keeps only files whose name ends in one of exts. Extensions
// are given without the dot and compared case-sensitively.
func Extensions(exts ...string) Option {
	return func(c *config) { c.extensions = slices.Clone(exts) }
}

// Pattern keeps only files whose name matches re.
func Pattern(re *regexp.Regexp) Option {
	return func(c *config) { c.pattern = re }
}

// SkipDirs leaves directories with one of these names out of the tree.
func SkipDirs(names ...string) Option {
	return func(c *config) { c.skip = slices.Clone(names) }
}

// WithAddTime stamps every file with the walk time as AddTime.
func WithAddTime() Option {
	return func(c *config) { c.addTime = true }
}

// WithPicker sets the function an Explorer calls for a root when FetchTree
// gets none and none was picked before.
func WithPicker(p Picker) Option {
	return func(c *config) { c.picker = p }
}

// WithMetrics sets the collectors walks are recorded in.
// Default: telemetry.Default().
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

func newConfig(opts []Option) config {
	c := config{now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	if c.metrics == nil {
		c.metrics = telemetry.Default()
	}
	return c
}

// keep reports whether entry h belongs in the tree.
func (c *config) keep(h Handle) bool {
	if h.Kind() == KindDirectory {
		return !slices.Contains(c.skip, h.Name())
	}
	return c.match(h.Name())
}

// match reports whether a file named name passes the filters.
func (c *config) match(name string) bool {
	if len(c.extensions) > 0 {
		ok := false
		for _, ext := range c.extensions {
			if strings.HasSuffix(name, "."+ext) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if c.pattern != nil && !c.pattern.MatchString(name) {
		return false
	}
	return true
}
