package background

import (
	"io/fs"
	"path/filepath"
)

// sourceExtensions are the file extensions the Worker can parse.
var sourceExtensions = map[string]bool{
	".ts":  true,
	".tsx": true,
	".js":  true,
	".jsx": true,
}

// DiscoverWorkspaceFiles walks root and returns every candidate URI the
// initial workspace scan should hand to EnsureUpToDate. Exclusion is
// applied during the walk itself — an excluded directory is never
// descended into rather than filtered out after the fact.
func DiscoverWorkspaceFiles(root string, exclude ExcludeFunc) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if exclude != nil && exclude(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if sourceExtensions[filepath.Ext(path)] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
