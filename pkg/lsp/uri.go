package lsp

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// URIToPath converts a file:// URI to a filesystem path. This system only
// ever runs indexing workloads on POSIX-style layouts, so Windows
// drive-letter handling is intentionally left out.
func URIToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse URI %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("not a file URI: %s", uri)
	}
	return u.Path, nil
}

// PathToURI converts a filesystem path to a file:// URI.
func PathToURI(path string) string {
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
