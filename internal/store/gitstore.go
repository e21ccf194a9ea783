package store

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/gitconddb/gitconddb/internal/iov"
)

// GitBackend is the versioned content store back-end: a local repository
// opened by path, object ids resolved as "<tag>:<path>" against
// refs/tags, refs/heads, or a raw commit SHA, using go-git/v5 (a pure
// Go implementation, so unlike the C++ original's libgit2 binding there's
// no global init/shutdown reference count to balance — only the lazy
// repository handle itself has a lifecycle).
//
// Connection is lazy: the *git.Repository is created on first use and on
// any call after Disconnect; access is serialized by the LazyHandle's
// mutex.
type GitBackend struct {
	path   string
	handle *LazyHandle[*git.Repository]
}

// NewGitBackend returns a back-end for the repository at path. Opening is
// deferred until the first Get/Exists/CommitTime call.
func NewGitBackend(path string) *GitBackend {
	b := &GitBackend{path: path}
	b.handle = NewLazyHandle(func() (*git.Repository, error) {
		repo, err := git.PlainOpen(path)
		if err != nil {
			return nil, &initError{root: path, err: err}
		}
		return repo, nil
	})
	return b
}

func (g *GitBackend) repo() (*git.Repository, error) {
	return g.handle.Get()
}

// resolveCommit turns a tag (a ref name, short/long SHA, or empty string
// for HEAD) into a commit object.
func (g *GitBackend) resolveCommit(repo *git.Repository, tag string) (*object.Commit, error) {
	rev := tag
	if rev == "" {
		rev = "HEAD"
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		// Fall back to treating tag as a raw object hash.
		h := plumbing.NewHash(tag)
		hash = &h
	}
	return repo.CommitObject(*hash)
}

func (g *GitBackend) resolve(objectID string) (*object.Commit, *object.Tree, string, error) {
	tag, path := SplitObjectID(objectID)

	repo, err := g.repo()
	if err != nil {
		return nil, nil, "", err
	}
	commit, err := g.resolveCommit(repo, tag)
	if err != nil {
		return nil, nil, "", unresolvable(objectID)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, nil, "", unresolvable(objectID)
	}
	return commit, tree, path, nil
}

// Exists reports whether objectID resolves to a tree or blob.
func (g *GitBackend) Exists(_ context.Context, objectID string) bool {
	_, tree, path, err := g.resolve(objectID)
	if err != nil {
		return false
	}
	if path == "" {
		return true
	}
	if _, err := tree.Tree(path); err == nil {
		return true
	}
	if _, err := tree.File(path); err == nil {
		return true
	}
	return false
}

// Get resolves objectID against the repository tree at tag.
func (g *GitBackend) Get(_ context.Context, objectID string) (Object, error) {
	_, tree, path, err := g.resolve(objectID)
	if err != nil {
		return Object{}, err
	}

	if path == "" {
		return dirFromTree(path, tree), nil
	}

	if sub, err := tree.Tree(path); err == nil {
		return dirFromTree(path, sub), nil
	}

	file, err := tree.File(path)
	if err != nil {
		return Object{}, unresolvable(objectID)
	}
	content, err := file.Contents()
	if err != nil {
		return Object{}, unresolvable(objectID)
	}
	return Object{Blob: content}, nil
}

func dirFromTree(root string, tree *object.Tree) Object {
	dir := Directory{Root: root}
	for _, entry := range tree.Entries {
		if entry.Mode == filemode.Dir {
			dir.Dirs = append(dir.Dirs, entry.Name)
		} else {
			dir.Files = append(dir.Files, entry.Name)
		}
	}
	return Object{IsDir: true, Dir: dir}
}

// CommitTime resolves ref to a commit and returns its author time.
func (g *GitBackend) CommitTime(_ context.Context, ref string) (iov.TimePoint, error) {
	repo, err := g.repo()
	if err != nil {
		return 0, err
	}
	commit, err := g.resolveCommit(repo, ref)
	if err != nil {
		return 0, fmt.Errorf("%w: commit %s", ErrUnresolvableObject, ref)
	}
	when := commit.Author.When
	if when.Unix() < 0 {
		return 0, nil
	}
	return iov.TimePoint(when.Unix()), nil
}

// Disconnect drops the held repository handle; the next call transparently
// reopens it.
func (g *GitBackend) Disconnect() error {
	g.handle.Reset(nil)
	return nil
}

// Connected reports whether a repository handle is currently held.
func (g *GitBackend) Connected() bool {
	return g.handle.Connected()
}
