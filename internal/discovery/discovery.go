// Package discovery lists the result files of every owner/repo directory
// under the results root.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNoResultsDir is returned when the results root does not exist.
var ErrNoResultsDir = errors.New("results directory not found")

var resultSuffixes = []string{".json", ".json.lz4"}

// Repo is one analyzed repository and its result files.
type Repo struct {
	Owner string
	Name  string
	Path  string
	// Files are the paths of the repo's result files, sorted.
	Files []string
}

// Discover walks root/<owner>/<repo>/ and returns up to limit repositories
// ordered by owner then name; limit 0 returns all. Hidden entries and files
// that are not result files are ignored.
func Discover(root string, limit int) ([]Repo, error) {
	owners, err := subdirs(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoResultsDir, root)
		}

		return nil, fmt.Errorf("list owners: %w", err)
	}

	var repos []Repo

	for _, owner := range owners {
		ownerPath := filepath.Join(root, owner)

		names, err := subdirs(ownerPath)
		if err != nil {
			return nil, fmt.Errorf("list repos of %s: %w", owner, err)
		}

		for _, name := range names {
			if limit > 0 && len(repos) == limit {
				return repos, nil
			}

			repoPath := filepath.Join(ownerPath, name)

			files, err := resultFiles(repoPath)
			if err != nil {
				return nil, fmt.Errorf("list files of %s/%s: %w", owner, name, err)
			}

			repos = append(repos, Repo{Owner: owner, Name: name, Path: repoPath, Files: files})
		}
	}

	return repos, nil
}

// Files flattens the result files of repos in order.
func Files(repos []Repo) []string {
	var files []string

	for _, repo := range repos {
		files = append(files, repo.Files...)
	}

	return files
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string

	for _, entry := range entries {
		if entry.IsDir() && !hidden(entry.Name()) {
			names = append(names, entry.Name())
		}
	}

	slices.Sort(names)

	return names, nil
}

func resultFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string

	for _, entry := range entries {
		if !entry.Type().IsRegular() || hidden(entry.Name()) || !isResultFile(entry.Name()) {
			continue
		}

		files = append(files, filepath.Join(dir, entry.Name()))
	}

	slices.Sort(files)

	return files, nil
}

func isResultFile(name string) bool {
	for _, suffix := range resultSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}

	return false
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
