package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ghapi "github.com/google/go-github/v72/github"
)

var (
	// ErrNotGitHub is returned for repositories that aren't hosted on GitHub.
	ErrNotGitHub = errors.New("repository isn't hosted on GitHub")

	// ErrRemoteUnavailable is returned when GitHub rate limits the lookup.
	ErrRemoteUnavailable = errors.New("GitHub API is currently unavailable")
)

// Remote looks up the latest upstream commit of GitHub hosted repositories.
type Remote struct {
	gh *ghapi.Client
}

// NewRemote returns a Remote using the given client, or an anonymous one if nil.
func NewRemote(gh *ghapi.Client) *Remote {
	if gh == nil {
		gh = ghapi.NewClient(nil)
	}

	return &Remote{gh: gh}
}

// Commit returns the short hash of the head of branch, or of the default
// branch when branch is empty.
func (r *Remote) Commit(ctx context.Context, url string, branch string) (string, error) {
	if !strings.Contains(url, "github.com/") {
		return "", fmt.Errorf("%w: %s", ErrNotGitHub, url)
	}

	owner, repo, ok := strings.Cut(RepoName(url), "/")
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotGitHub, url)
	}

	if branch == "" {
		info, _, err := r.gh.Repositories.Get(ctx, owner, repo)
		if err != nil {
			return "", checkLimit(err)
		}

		branch = info.GetDefaultBranch()
	}

	b, _, err := r.gh.Repositories.GetBranch(ctx, owner, repo, branch, 1)
	if err != nil {
		return "", checkLimit(err)
	}

	sha := b.GetCommit().GetSHA()
	if len(sha) > 7 {
		sha = sha[:7]
	}

	return sha, nil
}

func checkLimit(err error) error {
	_, ok := err.(*ghapi.RateLimitError) //nolint:errorlint
	if ok {
		return ErrRemoteUnavailable
	}

	return err
}
