package service

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	yamlv3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/yaml"
)

const configFilePattern = "kittengrid-config-*.yml"

// Materializer writes agent configuration documents to temporary files.
type Materializer struct {
	fs  afero.Fs
	dir string
}

// NewMaterializer creates a Materializer writing into dir on fs.
// An empty dir selects the OS temporary directory.
func NewMaterializer(fs afero.Fs, dir string) *Materializer {
	return &Materializer{fs: fs, dir: dir}
}

// MaterializeRaw writes yamlText verbatim and returns the file path.
// Blank input produces no file and ok=false.
func (materializer *Materializer) MaterializeRaw(yamlText string) (path string, ok bool, err error) {
	if strings.TrimSpace(yamlText) == "" {
		return "", false, nil
	}

	var node yamlv3.Node
	if err := yamlv3.Unmarshal([]byte(yamlText), &node); err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	path, err = materializer.write([]byte(yamlText))
	if err != nil {
		return "", false, err
	}

	return path, true, nil
}

// Materialize serializes document as YAML and returns the file path.
func (materializer *Materializer) Materialize(document Document) (string, error) {
	data, err := yaml.Marshal(document)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	return materializer.write(data)
}

func (materializer *Materializer) write(data []byte) (string, error) {
	file, err := afero.TempFile(materializer.fs, materializer.dir, configFilePattern)
	if err != nil {
		return "", fmt.Errorf("create config file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("write config file: %w", err)
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close config file: %w", err)
	}

	return file.Name(), nil
}
