package nd2

import "go.uber.org/zap"

// An Option configures a File.
type Option func(*File)

// WithLogger sets the logger of the file and of its metadata decoder.
// Nothing is logged by default.
func WithLogger(l *zap.Logger) Option {
	return func(f *File) {
		if l != nil {
			f.logger = l
		}
	}
}
