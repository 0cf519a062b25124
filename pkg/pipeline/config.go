package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/refyne-dataflow/internal/output"
	"github.com/jmylchreest/refyne-dataflow/pkg/storage"
)

// Config describes a pipeline run: where the data lives and which operators
// refine it, in order.
type Config struct {
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Workers shards each operator's column across this many goroutines.
	// Zero or one processes columns sequentially.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty" validate:"gte=0"`

	Steps []Step `json:"steps" yaml:"steps" validate:"required,min=1,dive"`
}

// StorageConfig configures the file storage a pipeline runs against.
type StorageConfig struct {
	FirstEntry string `json:"first_entry" yaml:"first_entry" validate:"required"`
	CacheDir   string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
	Prefix     string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Format     string `json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,oneof=json jsonl yaml"`
	Pretty     bool   `json:"pretty,omitempty" yaml:"pretty,omitempty"`
	Indent     string `json:"indent,omitempty" yaml:"indent,omitempty"`
}

// Step names one operator invocation.
type Step struct {
	Operator string `json:"operator" yaml:"operator" validate:"required"`

	// InputKey is the column to refine. When empty the step reads the first
	// key returned by the previous step.
	InputKey string `json:"input_key,omitempty" yaml:"input_key,omitempty"`
}

// FromFile loads a pipeline config from a JSON or YAML file and validates it.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FromJSON(data)
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return nil, fmt.Errorf("unsupported pipeline file format: %s", ext)
	}
}

// FromJSON parses and validates a JSON pipeline config.
func FromJSON(data []byte) (*Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse JSON pipeline: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromYAML parses and validates a YAML pipeline config.
func FromYAML(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML pipeline: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks field constraints and that the first step names its input.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid pipeline: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid pipeline: %w", err)
	}
	if c.Steps[0].InputKey == "" {
		return errors.New("invalid pipeline: first step must set input_key")
	}
	return nil
}

// Open creates the file storage described by the config.
func (s StorageConfig) Open() (*storage.File, error) {
	return storage.NewFile(storage.FileConfig{
		FirstEntry: s.FirstEntry,
		CacheDir:   s.CacheDir,
		Prefix:     s.Prefix,
		Format:     output.Format(s.Format),
		Pretty:     s.Pretty,
		Indent:     s.Indent,
	})
}
