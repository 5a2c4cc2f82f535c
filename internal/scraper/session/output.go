package session

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Output receives raw response bodies for diagnostic replay.
type Output interface {
	Write(name string, contents []byte)
}

type FilesystemOutput struct {
	directory string
	log       zerolog.Logger
}

// NewFilesystemOutput writes dumps under dir, creating it when missing.
func NewFilesystemOutput(dir string, log zerolog.Logger) (FilesystemOutput, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir, log: log}, nil
}

func (o FilesystemOutput) Write(name string, contents []byte) {
	path := filepath.Join(o.directory, name)
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		o.log.Warn().Str("file", path).Err(err).Msg("failed to write response dump")
		return
	}
	o.log.Debug().Str("file", path).Msg("response dumped")
}
