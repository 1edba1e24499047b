package background

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// GitHeadHint reads workspaceRoot's current HEAD commit hash without
// shelling out to `git`. Callers store it in metadata.json through
// MarkFullIndex; EnsureUpToDate does not read it, and the mtime/content
// check alone decides what is reindexed.
//
// Returns ("", nil) when workspaceRoot is not a git repository — the hint
// is optional, never a hard dependency.
func GitHeadHint(workspaceRoot string) (string, error) {
	repo, err := git.PlainOpen(workspaceRoot)
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return "", nil
		}
		return "", fmt.Errorf("opening repository at %q: %w", workspaceRoot, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", nil
	}
	return head.Hash().String(), nil
}
