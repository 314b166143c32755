package chart

import (
	"github.com/mythra/keymates/pkg/logger"
)

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithWidth overrides the image width in pixels.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
	}
}

// WithLogger sets a custom logger for the renderer.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}
