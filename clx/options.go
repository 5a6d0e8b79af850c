package clx

import "go.uber.org/zap"

// An Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used for skipped records and kept-opaque
// byte arrays.
func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l.Sugar()
		}
	}
}

// WithStripPrefix removes the lowercase type prefix of record names, so
// that uiWidth decodes as Width.
func WithStripPrefix(strip bool) Option {
	return func(d *Decoder) {
		d.stripPrefix = strip
	}
}
