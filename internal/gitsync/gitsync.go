// SPDX-License-Identifier: MPL-2.0

// Package gitsync moves extracted batch archives to and from a branch of a
// remote git repository.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/go-git/go-git/v5/storage/memory"
)

const (
	remoteName = "origin"

	defaultAuthorName  = "pkgport"
	defaultAuthorEmail = "pkgport@localhost"
)

// ErrBranchNotFound is returned by Pull when the remote has no such branch.
var ErrBranchNotFound = errors.New("branch not found")

type (
	// Options configures a Syncer.
	Options struct {
		// Repository is the remote URL (https, ssh or a local path).
		Repository string
		// Username is sent with Token for HTTPS basic auth.
		Username string
		// Token is the HTTPS password or access token. SSH keys from ~/.ssh
		// are used for ssh URLs when no token is set.
		Token       string
		AuthorName  string
		AuthorEmail string
	}

	// Syncer pulls and publishes branches of one remote repository.
	Syncer struct {
		opts Options
		auth transport.AuthMethod
	}

	// PublishResult describes a Publish call.
	PublishResult struct {
		// Commit is the hash the branch points to after the call.
		Commit string
		// Created is true when the branch did not exist on the remote.
		Created bool
		// Changed is false when the tree matched the branch and nothing was pushed.
		Changed bool
	}
)

// New creates a Syncer.
func New(opts Options) *Syncer {
	return &Syncer{opts: opts, auth: authFor(opts)}
}

// Repository returns the remote URL.
func (s *Syncer) Repository() string {
	return s.opts.Repository
}

// Pull clones branch into dest, which must not exist or be empty.
func (s *Syncer) Pull(ctx context.Context, branch, dest string) error {
	exists, err := s.branchExists(ctx, branch)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrBranchNotFound, branch)
	}

	slog.Debug("cloning branch", "repository", s.opts.Repository, "branch", branch)
	if _, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:           s.opts.Repository,
		Auth:          s.auth,
		RemoteName:    remoteName,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Progress:      nil,
	}); err != nil {
		return fmt.Errorf("failed to clone branch %s: %w", branch, err)
	}
	return nil
}

// Publish replaces the content of branch with the tree produced by write and
// pushes the result as a single commit. write receives the worktree root,
// already emptied of everything but .git. A missing branch is created as an
// orphan branch.
func (s *Syncer) Publish(ctx context.Context, branch, message string, write func(dir string) error) (*PublishResult, error) {
	exists, err := s.branchExists(ctx, branch)
	if err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp("", "pkgport-git-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }() // Best-effort cleanup of temp dir

	var repo *git.Repository
	if exists {
		repo, err = git.PlainCloneContext(ctx, workDir, false, &git.CloneOptions{
			URL:           s.opts.Repository,
			Auth:          s.auth,
			RemoteName:    remoteName,
			ReferenceName: plumbing.NewBranchReferenceName(branch),
			SingleBranch:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to clone branch %s: %w", branch, err)
		}
	} else {
		slog.Debug("creating orphan branch", "branch", branch)
		repo, err = initOrphan(workDir, s.opts.Repository, branch)
		if err != nil {
			return nil, err
		}
	}

	if err := clearWorktree(workDir); err != nil {
		return nil, err
	}
	if err := write(workDir); err != nil {
		return nil, err
	}

	hash, changed, err := commitAll(repo, message, s.signature())
	if err != nil {
		return nil, err
	}
	result := &PublishResult{Commit: hash, Created: !exists, Changed: changed}
	if !changed {
		slog.Info("branch already up to date", "branch", branch)
		return result, nil
	}

	refSpec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       s.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("failed to push branch %s: %w", branch, err)
	}

	slog.Info("pushed branch", "branch", branch, "commit", hash)
	return result, nil
}

func (s *Syncer) branchExists(ctx context.Context, branch string) (bool, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: remoteName,
		URLs: []string{s.opts.Repository},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: s.auth})
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return false, nil
		}
		return false, fmt.Errorf("failed to list remote refs: %w", err)
	}

	want := plumbing.NewBranchReferenceName(branch)
	for _, ref := range refs {
		if ref.Name() == want {
			return true, nil
		}
	}
	return false, nil
}

func (s *Syncer) signature() *object.Signature {
	sig := &object.Signature{
		Name:  s.opts.AuthorName,
		Email: s.opts.AuthorEmail,
		When:  time.Now(),
	}
	if sig.Name == "" {
		sig.Name = defaultAuthorName
	}
	if sig.Email == "" {
		sig.Email = defaultAuthorEmail
	}
	return sig
}

// initOrphan creates a repository in dir whose HEAD points at an unborn branch.
func initOrphan(dir, url, branch string) (*git.Repository, error) {
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to init repository: %w", err)
	}
	if _, err := repo.CreateRemote(&config.RemoteConfig{Name: remoteName, URLs: []string{url}}); err != nil {
		return nil, fmt.Errorf("failed to add remote: %w", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, fmt.Errorf("failed to point HEAD at %s: %w", branch, err)
	}
	return repo, nil
}

// clearWorktree removes everything below dir except the .git directory.
func clearWorktree(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read worktree: %w", err)
	}
	for _, e := range entries {
		if e.Name() == git.GitDirName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to clear worktree: %w", err)
		}
	}
	return nil
}

// commitAll stages every change, deletions included, and commits it. It
// reports changed=false without committing when the worktree is clean.
func commitAll(repo *git.Repository, message string, author *object.Signature) (hash string, changed bool, err error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", false, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return "", false, fmt.Errorf("failed to get worktree status: %w", err)
	}
	if status.IsClean() {
		head, headErr := repo.Head()
		if headErr != nil {
			return "", false, fmt.Errorf("nothing to commit: %w", headErr)
		}
		return head.Hash().String(), false, nil
	}

	for path, st := range status {
		if st.Worktree == git.Deleted {
			if _, err := wt.Remove(path); err != nil {
				return "", false, fmt.Errorf("failed to stage removal of %s: %w", path, err)
			}
			continue
		}
		if _, err := wt.Add(path); err != nil {
			return "", false, fmt.Errorf("failed to stage %s: %w", path, err)
		}
	}

	commit, err := wt.Commit(message, &git.CommitOptions{Author: author})
	if err != nil {
		return "", false, fmt.Errorf("failed to commit: %w", err)
	}
	return commit.String(), true, nil
}

// authFor picks the authentication method for the configured remote: basic
// auth when a token is set, SSH keys for ssh URLs, none otherwise.
func authFor(opts Options) transport.AuthMethod {
	if opts.Token != "" {
		username := opts.Username
		if username == "" {
			username = "git"
		}
		return &http.BasicAuth{Username: username, Password: opts.Token}
	}
	if isSSHURL(opts.Repository) {
		return trySSHAuth(opts.Username)
	}
	return nil
}

func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "ssh://") || (strings.Contains(url, "@") && strings.Contains(url, ":") && !strings.Contains(url, "://"))
}

// trySSHAuth loads the first usable key from the common SSH key locations.
func trySSHAuth(username string) transport.AuthMethod {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	if username == "" {
		username = "git"
	}

	keyPaths := []string{
		filepath.Join(homeDir, ".ssh", "id_ed25519"),
		filepath.Join(homeDir, ".ssh", "id_rsa"),
		filepath.Join(homeDir, ".ssh", "id_ecdsa"),
	}
	for _, keyPath := range keyPaths {
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile(username, keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}
