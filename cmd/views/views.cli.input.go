package main

import (
	"encoding/json"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/itsatony/go-views"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, FilePermissions)
}

// loadData parses render data from a JSON string or a JSON file.
func loadData(jsonStr, filePath string, stdin io.Reader) (map[string]any, error) {
	var jsonData []byte

	if filePath != "" {
		data, err := readInput(filePath, stdin)
		if err != nil {
			return nil, err
		}
		jsonData = data
	} else if jsonStr != "" {
		jsonData = []byte(jsonStr)
	} else {
		// No data provided, return empty map
		return make(map[string]any), nil
	}

	var result map[string]any
	if err := json.Unmarshal(jsonData, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// managerFlags are the flags shared by commands that build a manager.
type managerFlags struct {
	path       string
	configPath string
	verbose    bool
}

// loadConfig reads the YAML configuration when given and applies the
// template directory flag over it.
func (f managerFlags) loadConfig() (views.Config, error) {
	cfg := views.Config{}
	if f.configPath != "" {
		loaded, err := views.LoadConfig(f.configPath)
		if err != nil {
			return views.Config{}, err
		}
		cfg = *loaded
	}
	if f.path != FlagDefaultPath || cfg.Path == "" {
		cfg.Path = f.path
	}
	return cfg, nil
}

// logger returns a development logger on stderr when verbose, else a no-op.
func (f managerFlags) logger(stderr io.Writer) *zap.Logger {
	if !f.verbose {
		return zap.NewNop()
	}
	return newStderrLogger(stderr)
}

func newStderrLogger(stderr io.Writer) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(stderr),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}
