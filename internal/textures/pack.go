package textures

import (
	"archive/zip"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// RequiredPackFormat is the pack_format the loaders were written against.
const RequiredPackFormat = 6

const (
	metadataFile = "pack.mcmeta"
	assetsRoot   = "assets/minecraft"
	textureRoot  = assetsRoot + "/textures"
)

// PackInfo is the decoded pack.mcmeta plus where the pack came from.
type PackInfo struct {
	Name        string
	Path        string
	Format      int
	Description string
}

// Pack is an opened resource pack, backed by a directory or a zip archive.
type Pack struct {
	Info   PackInfo
	root   fs.FS
	closer io.Closer
}

type packMetadata struct {
	Pack struct {
		PackFormat  int             `json:"pack_format"`
		Description json.RawMessage `json:"description"`
	} `json:"pack"`
}

// OpenPack opens a resource pack directory or .zip file.
func OpenPack(path string) (*Pack, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat pack %s", path)
	}

	name := filepath.Base(path)
	if st.IsDir() {
		return NewPack(name, path, os.DirFS(path), nil)
	}
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return nil, errors.Errorf("pack %s is neither a directory nor a zip archive", path)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open pack archive %s", path)
	}
	p, err := NewPack(strings.TrimSuffix(name, filepath.Ext(name)), path, zr, zr)
	if err != nil {
		zr.Close()
		return nil, err
	}
	return p, nil
}

// NewPack validates fsys as a resource pack root. closer may be nil.
func NewPack(name, path string, fsys fs.FS, closer io.Closer) (*Pack, error) {
	data, err := fs.ReadFile(fsys, metadataFile)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s: read %s", name, metadataFile)
	}
	if st, err := fs.Stat(fsys, textureRoot); err != nil || !st.IsDir() {
		return nil, errors.Errorf("pack %s: missing %s directory", name, textureRoot)
	}

	var meta packMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "pack %s: parse %s", name, metadataFile)
	}

	return &Pack{
		Info: PackInfo{
			Name:        name,
			Path:        path,
			Format:      meta.Pack.PackFormat,
			Description: descriptionText(meta.Pack.Description),
		},
		root:   fsys,
		closer: closer,
	}, nil
}

// IsValidPack reports whether path holds a pack.mcmeta and a texture root.
func IsValidPack(path string) bool {
	p, err := OpenPack(path)
	if err != nil {
		return false
	}
	p.Close()
	return true
}

// Assets returns the pack rooted at assets/minecraft.
func (p *Pack) Assets() fs.FS {
	sub, err := fs.Sub(p.root, assetsRoot)
	if err != nil {
		// only fails for an invalid path literal
		panic(err)
	}
	return sub
}

// Close releases the underlying archive, if any.
func (p *Pack) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	err := p.closer.Close()
	p.closer = nil
	return err
}

// description may be a plain string or a text component.
func descriptionText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var component struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &component); err == nil {
		return component.Text
	}
	return string(raw)
}
