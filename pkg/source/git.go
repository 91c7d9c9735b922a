// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/ereborstudios/smaug/pkg/dependency"
)

type (
	// Checkout is the version control capability used by GitSource.
	Checkout interface {
		// Clone clones repo into dest. A non-empty branch limits the clone
		// to that branch.
		Clone(ctx context.Context, repo, dest, branch string) error
		// ResetHard resets the worktree at dest to ref, which may be a
		// commit id or a tag name.
		ResetHard(dest, ref string) error
	}

	// GoGit implements Checkout with go-git.
	GoGit struct {
		sshKeyPaths []string
		getenv      func(string) string
	}

	// GitSource clones a git repository.
	GitSource struct {
		presence

		Repo   string
		Branch string
		Rev    string
		Tag    string
		env    Env
	}
)

// Install clones Repo into the cache slot for dep, applies Rev or Tag, drops
// the .git directory and copies the tree into destination/<dep.Name>.
func (s GitSource) Install(ctx context.Context, dep dependency.Dependency, destination string) error {
	return fetchError(dependency.KindGit, dep, s.install(ctx, dep, destination))
}

// Kind returns dependency.KindGit.
func (GitSource) Kind() dependency.Kind { return dependency.KindGit }

// Clone returns a copy of s.
func (s GitSource) Clone() Source { return s }

func (s GitSource) install(ctx context.Context, dep dependency.Dependency, destination string) error {
	slot := s.env.slot(dep.Name)
	if err := resetSlot(s.env.Logger, slot); err != nil {
		return err
	}

	s.env.Logger.Debug("cloning repository", "repo", s.Repo, "branch", s.Branch, "to", slot)
	if err := s.env.Checkout.Clone(ctx, s.Repo, slot, s.Branch); err != nil {
		return fmt.Errorf("%w %s: %w", ErrCheckout, s.Repo, err)
	}

	// At most one of Rev and Tag is set; New rejects both.
	ref := s.Rev
	if ref == "" {
		ref = s.Tag
	}
	if ref != "" {
		s.env.Logger.Debug("resetting repository", "ref", ref)
		if err := s.env.Checkout.ResetHard(slot, ref); err != nil {
			return fmt.Errorf("%w %s at %s: %w", ErrCheckout, s.Repo, ref, err)
		}
	}

	if err := os.RemoveAll(filepath.Join(slot, ".git")); err != nil {
		return fmt.Errorf("failed to remove git metadata: %w", err)
	}

	return DirSource{Path: slot, env: s.env}.install(ctx, dep, destination)
}

// NewGoGit returns a Checkout that authenticates with the first SSH key
// found in ~/.ssh for SSH remotes, and with GITHUB_TOKEN, GITLAB_TOKEN or
// GIT_TOKEN for HTTPS remotes.
func NewGoGit() *GoGit {
	g := &GoGit{getenv: os.Getenv}
	if homeDir, err := os.UserHomeDir(); err == nil {
		g.sshKeyPaths = []string{
			filepath.Join(homeDir, ".ssh", "id_ed25519"),
			filepath.Join(homeDir, ".ssh", "id_rsa"),
			filepath.Join(homeDir, ".ssh", "id_ecdsa"),
		}
	}
	return g
}

// Clone implements Checkout.
func (g *GoGit) Clone(ctx context.Context, repo, dest, branch string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	opts := &git.CloneOptions{
		URL:  repo,
		Auth: g.auth(repo),
		Tags: git.AllTags,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, dest, false, opts); err != nil {
		_ = os.RemoveAll(dest) // Best-effort cleanup of a partial clone
		return err
	}
	return nil
}

// ResetHard implements Checkout. Annotated tags are peeled to their commit.
func (g *GoGit) ResetHard(dest, ref string) error {
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return err
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return fmt.Errorf("reference %q not found: %w", ref, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	return worktree.Reset(&git.ResetOptions{Commit: *hash, Mode: git.HardReset})
}

// auth picks credentials by remote scheme. Local paths get none.
func (g *GoGit) auth(repo string) transport.AuthMethod {
	switch {
	case strings.HasPrefix(repo, "git@") || strings.HasPrefix(repo, "ssh://"):
		for _, keyPath := range g.sshKeyPaths {
			if _, err := os.Stat(keyPath); err != nil {
				continue
			}
			if auth, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
				return auth
			}
		}
	case strings.HasPrefix(repo, "https://") || strings.HasPrefix(repo, "http://"):
		if token := g.getenv("GITHUB_TOKEN"); token != "" {
			return &http.BasicAuth{Username: "x-access-token", Password: token}
		}
		if token := g.getenv("GITLAB_TOKEN"); token != "" {
			return &http.BasicAuth{Username: "gitlab-ci-token", Password: token}
		}
		if token := g.getenv("GIT_TOKEN"); token != "" {
			return &http.BasicAuth{Username: "git", Password: token}
		}
	}
	return nil
}
