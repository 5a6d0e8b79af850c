package nd2

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Verify reads every chunk, decodes the metadata and every frame, and
// returns all the failures found.
func (f *File) Verify() error {
	var result *multierror.Error

	for _, name := range f.ChunkNames() {
		if _, err := f.ReadRawChunk(name); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "chunk %s", name))
		}
	}

	if _, err := f.TextInfo(); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := f.Experiment(); err != nil {
		result = multierror.Append(result, err)
	}

	a, err := f.Attributes()
	if err != nil {
		return multierror.Append(result, err).ErrorOrNil()
	}
	for seq := 0; seq < a.SequenceCount; seq++ {
		if _, err := f.ReadFrame(seq); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if result != nil {
		f.logger.Debug("verification failed", zap.Int("chunks", len(f.chunks)), zap.Int("errors", len(result.Errors)))
	}
	return result.ErrorOrNil()
}
