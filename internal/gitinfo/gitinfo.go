// Package gitinfo reads last-commit timestamps for page sources from the enclosing git
// repository.
package gitinfo

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/docsite/internal/content"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// ErrNoRepository is returned by Open when dir is not inside a git work tree.
var ErrNoRepository = errors.New("not a git repository")

// Repo is an opened work tree.
type Repo struct {
	repo *git.Repository
	root string
}

// Open finds the repository containing dir.
func Open(dir string) (*Repo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "resolve path").WithContext("path", dir).Build()
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNoRepository
		}
		return nil, derrors.WrapError(err, derrors.CategoryGit, "open repository").WithContext("path", dir).Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryGit, "open work tree").WithContext("path", dir).Build()
	}
	return &Repo{repo: repo, root: wt.Filesystem.Root()}, nil
}

// LastModified returns the committer time of the newest commit touching each file.
// Paths are file system paths; files without history are absent from the result.
func (r *Repo) LastModified(ctx context.Context, files []string) (map[string]time.Time, error) {
	wanted := make(map[string]string, len(files)) // repo-relative -> caller path
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(r.root, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		wanted[filepath.ToSlash(rel)] = f
	}
	out := make(map[string]time.Time, len(wanted))
	if len(wanted) == 0 {
		return out, nil
	}

	head, err := r.repo.Head()
	if err != nil {
		// empty repository
		return out, nil //nolint:nilerr // no history yet
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryGit, "read history").Build()
	}
	defer iter.Close()

	for len(out) < len(wanted) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryGit, "read history").Build()
		}
		changed, err := changedFiles(c)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryGit, "diff commit").
				WithContext("commit", c.Hash.String()).Build()
		}
		for _, name := range changed {
			caller, ok := wanted[name]
			if !ok {
				continue
			}
			if _, seen := out[caller]; !seen {
				out[caller] = c.Committer.When
			}
		}
	}
	return out, nil
}

// changedFiles lists paths that differ between c and its first parent.
func changedFiles(c *object.Commit) ([]string, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, err
		}
	}
	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(changes))
	for _, ch := range changes {
		if ch.To.Name != "" {
			names = append(names, ch.To.Name)
		}
	}
	return names, nil
}

// Stamp sets LastUpdated on every page of site whose source under pagesDir has history.
func (r *Repo) Stamp(ctx context.Context, site *content.Site, pagesDir string) error {
	files := make([]string, 0, len(site.Pages))
	for _, p := range site.Pages {
		files = append(files, filepath.Join(pagesDir, filepath.FromSlash(p.SourcePath)))
	}
	times, err := r.LastModified(ctx, files)
	if err != nil {
		return err
	}
	for i, p := range site.Pages {
		if t, ok := times[files[i]]; ok {
			p.LastUpdated = t
		}
	}
	return nil
}
