package cfntheory

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/theory-cloud/cfntheory/pkg/template"
)

const (
	DefaultOutDir      = "cdk.out"
	DefaultContextFile = "cfntheory.yaml"

	EnvContextFile = "CFNTHEORY_CONTEXT_FILE"
	EnvOutDir      = "CFNTHEORY_OUTDIR"
	EnvFormat      = "CFNTHEORY_FORMAT"
)

// Config controls where and how an app writes its assembly. An empty OutDir
// means Synth returns the assembly without writing it.
type Config struct {
	OutDir  string          `yaml:"outdir"`
	Format  template.Format `yaml:"format"`
	Context map[string]any  `yaml:"context"`
}

// DefaultConfig writes JSON templates to cdk.out.
func DefaultConfig() Config {
	return Config{OutDir: DefaultOutDir, Format: template.FormatJSON}
}

// LoadConfig starts from DefaultConfig, applies the YAML context file and
// then the CFNTHEORY_OUTDIR and CFNTHEORY_FORMAT environment variables.
//
// The context file is CFNTHEORY_CONTEXT_FILE when set, otherwise
// cfntheory.yaml in the working directory if it exists.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	path, explicit := os.LookupEnv(EnvContextFile)
	if !explicit || strings.TrimSpace(path) == "" {
		path, explicit = DefaultContextFile, false
	}
	if err := cfg.applyFile(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
		if err != nil {
			return Config{}, newError(ErrorCodeConfigInvalid, "read "+path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvOutDir)); v != "" {
		cfg.OutDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFormat)); v != "" {
		cfg.Format = template.Format(v)
	}
	return cfg.normalize()
}

// LoadConfigFile reads a YAML context file over DefaultConfig.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := cfg.applyFile(path); err != nil {
		return Config{}, newError(ErrorCodeConfigInvalid, "read "+path, err)
	}
	return cfg.normalize()
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c Config) normalize() (Config, error) {
	if c.Format == "" {
		c.Format = template.FormatJSON
		return c, nil
	}
	f, err := template.ParseFormat(string(c.Format))
	if err != nil {
		return Config{}, newError(ErrorCodeConfigInvalid, "format", err)
	}
	c.Format = f
	return c, nil
}
