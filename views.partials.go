package views

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/itsatony/go-views/internal"
)

// loadPartials registers every file below dir with every engine that
// accepts partials. The partial name is the file's slash-separated path
// relative to dir without its extension. Engines without partial support
// are skipped. Returns the number of files registered.
func loadPartials(dir string, registry *Registry, logger *zap.Logger) (int, error) {
	root := internal.NormalizeDir(dir)

	var capable []*EngineEntry
	for _, entry := range registry.Entries() {
		if !entry.Capabilities.Partials {
			logger.Debug(LogMsgPartialSkipped, zap.String(LogFieldExtension, entry.Config.Extension))
			continue
		}
		capable = append(capable, entry)
	}

	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// skip hidden files and directories.
		if internal.IsHidden(d.Name()) && path != root {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		name, err := internal.PartialName(root, path)
		if err != nil {
			return err
		}
		source, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		for _, entry := range capable {
			registrar := entry.Config.Module.(PartialRegistrar)
			if err := registrar.RegisterPartial(name, string(source)); err != nil {
				return &ConfigError{Message: ErrMsgPartialsFailed, Field: name, Cause: err}
			}
			logger.Debug(LogMsgPartialRegistered,
				zap.String(LogFieldPartial, name),
				zap.String(LogFieldExtension, entry.Config.Extension),
			)
		}
		count++
		return nil
	})
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			return count, cfgErr
		}
		return count, &ConfigError{Message: ErrMsgPartialsFailed, Field: root, Cause: err}
	}

	logger.Debug(LogMsgPartialsLoaded, zap.Int(LogFieldCount, count), zap.String(LogFieldPath, root))
	return count, nil
}
