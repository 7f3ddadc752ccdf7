package columnmap

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importmapping"
)

var ErrUnavailable = errors.New("column mapping definition not found")

// FileLoader reads the mapping definition from a YAML file on every call, so
// an edited definition is picked up by the next request.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) Path() string {
	return l.path
}

func (l *FileLoader) Definition(ctx context.Context) (importmapping.Definition, error) {
	if err := ctx.Err(); err != nil {
		return importmapping.Definition{}, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return importmapping.Definition{}, errors.Wrapf(ErrUnavailable, "%s", l.path)
		}
		return importmapping.Definition{}, errors.Wrapf(err, "read %s", l.path)
	}
	def, err := Parse(bytes.NewReader(data))
	if err != nil {
		return importmapping.Definition{}, errors.Wrapf(err, "parse %s", l.path)
	}
	return def, nil
}

// Parse decodes and validates a definition. Unknown keys are rejected.
func Parse(r io.Reader) (importmapping.Definition, error) {
	var def importmapping.Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return importmapping.Definition{}, ErrUnavailable
		}
		return importmapping.Definition{}, errors.Wrap(err, "decode mapping definition")
	}
	if err := def.Validate(); err != nil {
		return importmapping.Definition{}, err
	}
	return def, nil
}
