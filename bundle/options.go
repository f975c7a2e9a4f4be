package bundle

import (
	"github.com/sirupsen/logrus"

	"github.com/joshuapare/bundlekit/internal/logger"
)

// ReadStrategy decides how file bytes are produced.
type ReadStrategy int

const (
	// OnDemand reopens the source and decodes only the chunks a file spans.
	OnDemand ReadStrategy = iota
	// Cached decodes the whole payload once at open time.
	Cached
)

func (s ReadStrategy) String() string {
	switch s {
	case OnDemand:
		return "on-demand"
	case Cached:
		return "cached"
	}
	return "unknown"
}

// Option configures how a bundle is opened.
type Option func(*config)

type config struct {
	strategy ReadStrategy
	handler  Handler
	mmap     bool
	log      *logrus.Logger
}

func newConfig(opts []Option) *config {
	c := &config{strategy: OnDemand}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = logger.L
	}
	return c
}

// handlerFor picks the handler for a path-backed source.
func (c *config) handlerFor(path string) Handler {
	switch {
	case c.handler != nil:
		return c.handler
	case c.mmap:
		return NewMmapHandler(path)
	default:
		return &FileHandler{Path: path}
	}
}

// WithReadStrategy selects cached or on-demand reads.
func WithReadStrategy(s ReadStrategy) Option {
	return func(c *config) { c.strategy = s }
}

// WithHandler supplies the handler used to reopen the source.
func WithHandler(h Handler) Option {
	return func(c *config) { c.handler = h }
}

// WithMmap maps path-backed sources instead of reopening the file.
func WithMmap() Option {
	return func(c *config) { c.mmap = true }
}

// WithLogger logs through l instead of the package logger.
func WithLogger(l *logrus.Logger) Option {
	return func(c *config) { c.log = l }
}
