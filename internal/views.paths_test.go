package internal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDir(t *testing.T) {
	assert.Equal(t, "", NormalizeDir(""))
	assert.Equal(t, filepath.Join("a", "b"), NormalizeDir("a/b/"))
	assert.Equal(t, NormalizeDir("a/b"), NormalizeDir("a/b/"))
}

func TestPartialName(t *testing.T) {
	tests := []struct {
		root string
		file string
		want string
	}{
		{"partials", filepath.Join("partials", "header.html"), "header"},
		{"partials/", filepath.Join("partials", "nav", "menu.html"), "nav/menu"},
		{"partials", filepath.Join("partials", "noext"), "noext"},
		{"partials", filepath.Join("partials", "a.b.html"), "a.b"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := PartialName(tt.root, tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden(".git"))
	assert.True(t, IsHidden(".hidden.html"))
	assert.False(t, IsHidden("."))
	assert.False(t, IsHidden(".."))
	assert.False(t, IsHidden("visible.html"))
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("a/b.html", []string{"html"}))
	assert.True(t, HasExtension("a/b.tmpl", []string{".html", ".tmpl"}))
	assert.False(t, HasExtension("a/b", []string{"html"}))
	assert.False(t, HasExtension("a/b.txt", []string{"html"}))
}
