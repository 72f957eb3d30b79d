package views

import (
	"context"
	"io/fs"
	"os"
)

// Source reads template source for a resolved template. Any failure is
// reported as a *TemplateNotFoundError so the pipeline classifies it as a
// compile failure.
type Source interface {
	ReadTemplate(ctx context.Context, rt *ResolvedTemplate) ([]byte, error)
}

// FileSource reads templates from the operating system's file system.
type FileSource struct{}

// ReadTemplate reads rt.AbsPath.
func (FileSource) ReadTemplate(ctx context.Context, rt *ResolvedTemplate) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(rt.AbsPath)
	if err != nil {
		return nil, &TemplateNotFoundError{Path: rt.RelPath, Cause: err}
	}
	return data, nil
}

// FSSource reads templates from an fs.FS, such as an embed.FS. Paths are
// relative to the manager's base path inside the file system.
type FSSource struct {
	FS   fs.FS
	Root string
}

// NewFSSource creates a source over fsys rooted at root ("" or "." for the top).
func NewFSSource(fsys fs.FS, root string) *FSSource {
	return &FSSource{FS: fsys, Root: root}
}

// ReadTemplate reads rt.RelPath below Root.
func (s *FSSource) ReadTemplate(ctx context.Context, rt *ResolvedTemplate) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := rt.RelPath
	if s.Root != "" && s.Root != "." {
		name = s.Root + "/" + rt.RelPath
	}
	data, err := fs.ReadFile(s.FS, name)
	if err != nil {
		return nil, &TemplateNotFoundError{Path: rt.RelPath, Cause: err}
	}
	return data, nil
}
