package workitem

import (
	"errors"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// girConfig holds the few Gir.toml keys the orchestrator looks at. Unknown
// keys are ignored; gir itself is the authority on the file's contents.
type girConfig struct {
	Options struct {
		Library  string `toml:"library"`
		Version  string `toml:"version"`
		WorkMode string `toml:"work_mode"`
	} `toml:"options"`
}

// ConfigError reports a Gir*.toml file that is not well-formed TOML.
type ConfigError struct {
	Path   string
	Err    error  // short, single-line error
	Detail string // multi-line excerpt with the offending line, if any
}

// Error returns a short error message.
func (e *ConfigError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// String returns the full multi-line error string.
func (e *ConfigError) String() string {
	if e.Detail != "" {
		return "Error in file " + strconv.Quote(e.Path) + ":\n" + e.Detail
	}
	return e.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// readGirConfig parses path as TOML so malformed configurations are rejected
// before any process is launched.
func readGirConfig(path string) (*girConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := &girConfig{}
	if err := toml.Unmarshal(data, c); err != nil {
		if dErr := (&toml.DecodeError{}); errors.As(err, &dErr) {
			return nil, &ConfigError{Path: path, Err: err, Detail: dErr.String()}
		}
		return nil, &ConfigError{Path: path, Err: err}
	}
	return c, nil
}
