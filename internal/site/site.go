// Package site reads and rewrites the documents of a static site checkout.
package site

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Site locates the watermarked documents. File names are relative to Root.
type Site struct {
	Root        string
	IndexFile   string
	SitemapFile string
	FeedFile    string
}

// New returns a Site rooted at root with the default file names.
func New(root string) Site {
	return Site{
		Root:        root,
		IndexFile:   "index.html",
		SitemapFile: "sitemap.xml",
		FeedFile:    "feed.json",
	}
}

// Path joins name onto the site root.
func (s Site) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.Root, name)
}

// Read returns the full text of name.
func (s Site) Read(name string) (string, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}

// Rewrite reads name, passes its text through fn and writes the result back
// whole. The file's permissions are preserved. Nothing is written if the read
// fails.
func (s Site) Rewrite(name string, fn func(string) string) error {
	path := s.Path(name)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}

	out := fn(string(data))
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// RewriteOptional is Rewrite for a document that may not exist. It reports
// whether the file was present.
func (s Site) RewriteOptional(name string, fn func(string) string) (bool, error) {
	if _, err := os.Stat(s.Path(name)); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := s.Rewrite(name, fn); err != nil {
		return true, err
	}
	return true, nil
}
