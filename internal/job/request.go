package job

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Request describes one job: which pipeline to run, concrete paths for its
// declared inputs and outputs, and parameter overrides addressed as
// "<instance>.<parameter>".
type Request struct {
	Pipeline   string            `yaml:"pipeline"`
	Inputs     map[string]string `yaml:"inputs"`
	Outputs    map[string]string `yaml:"outputs"`
	Parameters map[string]any    `yaml:"parameters"`
	// WorkingDir is the job-scoped scratch directory for intermediate
	// artifacts. When empty, the engine picks a fresh one.
	WorkingDir string `yaml:"working_dir"`
}

// ParseRequest decodes a YAML job request document.
func ParseRequest(data []byte) (*Request, error) {
	var r Request
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing job request: %w", err)
	}
	if r.Pipeline == "" {
		return nil, fmt.Errorf("job request names no pipeline")
	}
	return &r, nil
}

// LoadRequest reads and parses a YAML job request file.
func LoadRequest(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job request: %w", err)
	}
	return ParseRequest(data)
}

// Overrides splits the flat "<instance>.<parameter>" override map into a
// per-instance map. Malformed keys are an error.
func (r *Request) Overrides() (map[string]map[string]any, error) {
	out := make(map[string]map[string]any)
	for key, val := range r.Parameters {
		instance, param, ok := strings.Cut(key, ".")
		if !ok || instance == "" || param == "" {
			return nil, fmt.Errorf("invalid parameter override key %q: want \"instance.parameter\"", key)
		}
		if out[instance] == nil {
			out[instance] = make(map[string]any)
		}
		out[instance][param] = val
	}
	return out, nil
}

// EnsureWorkingDir returns the job's working directory, assigning a fresh
// one under the system temp directory if the request left it empty.
func (r *Request) EnsureWorkingDir() string {
	if r.WorkingDir == "" {
		r.WorkingDir = filepath.Join(os.TempDir(), "flowgrid-"+uuid.NewString())
	}
	return r.WorkingDir
}
