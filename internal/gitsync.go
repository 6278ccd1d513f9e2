package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DefaultGitTimeout bounds every git subprocess invocation.
const DefaultGitTimeout = 60 * time.Second

// ProbeResult classifies a remote before any import decision.
type ProbeResult string

const (
	ProbeEmpty        ProbeResult = "empty"
	ProbeNonEmpty     ProbeResult = "nonEmpty"
	ProbeNotFound     ProbeResult = "notFound"
	ProbeUnauthorized ProbeResult = "unauthorized"
	ProbeUnreachable  ProbeResult = "unreachable"
)

// SubprocessError carries the argument vector, exit code and a trimmed
// stderr excerpt of a failed git invocation. Credentials embedded in remote
// URLs are masked before the error ever renders.
type SubprocessError struct {
	Args     []string
	Code     int
	Stderr   string
	TimedOut bool
}

func (e *SubprocessError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("git %s timed out: %s",
			MaskCredentials(strings.Join(e.Args, " ")), MaskCredentials(e.Stderr))
	}
	return fmt.Sprintf("git %s failed (exit %d): %s",
		MaskCredentials(strings.Join(e.Args, " ")), e.Code, MaskCredentials(e.Stderr))
}

// Timeout reports whether the invocation was killed by its deadline.
func (e *SubprocessError) Timeout() bool {
	return e.TimedOut
}

var credentialRe = regexp.MustCompile(`(https?://)[^/@\s]+@`)

// MaskCredentials hides userinfo embedded in http(s) URLs.
func MaskCredentials(s string) string {
	return credentialRe.ReplaceAllString(s, "${1}***@")
}

// Syncer wraps the git binary against a fixed storage directory. All
// invocations use explicit argument vectors, never a shell string, and every
// call carries a timeout.
type Syncer struct {
	root    string
	timeout time.Duration
	logger  *slog.Logger
}

func NewSyncer(root string, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{root: root, timeout: DefaultGitTimeout, logger: logger}
}

// run executes git with the given argument vector and returns trimmed
// stdout. Failures come back as *SubprocessError.
func (s *Syncer) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.root

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	s.logger.Debug("git", "args", MaskCredentials(strings.Join(args, " ")),
		"ok", err == nil)
	if err != nil {
		code := -1
		if exit, ok := err.(*exec.ExitError); ok {
			code = exit.ExitCode()
		}
		excerpt := strings.TrimSpace(stderr.String())
		if excerpt == "" {
			excerpt = err.Error()
		}
		if len(excerpt) > 500 {
			excerpt = excerpt[:500]
		}
		return stdout.String(), &SubprocessError{
			Args:     args,
			Code:     code,
			Stderr:   excerpt,
			TimedOut: ctx.Err() == context.DeadlineExceeded,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// tryRun is run with the failure downgraded to a debug log line. Used for
// steps that are allowed to fail, like refreshing the remote HEAD pointer.
func (s *Syncer) tryRun(ctx context.Context, args ...string) string {
	out, err := s.run(ctx, args...)
	if err != nil {
		s.logger.Debug("git step failed, continuing", "error", err)
	}
	return out
}

// IsRepository reports whether the storage root is itself a git work tree.
func (s *Syncer) IsRepository(ctx context.Context) bool {
	_, err := os.Stat(filepath.Join(s.root, ".git"))
	if err != nil {
		return false
	}
	out, err := s.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// EnsureRepository initializes a repository in the storage root if absent.
func (s *Syncer) EnsureRepository(ctx context.Context) error {
	if s.IsRepository(ctx) {
		return nil
	}
	if _, err := s.run(ctx, "init"); err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	s.logger.Info("initialized repository", "path", s.root)
	return nil
}

// OriginURL returns the configured origin URL, or "" when unset.
func (s *Syncer) OriginURL(ctx context.Context) string {
	out, err := s.run(ctx, "remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	return out
}

// SetOriginURL points origin at url, adding the remote if necessary.
func (s *Syncer) SetOriginURL(ctx context.Context, url string) error {
	if s.OriginURL(ctx) == "" {
		if _, err := s.run(ctx, "remote", "add", "origin", url); err != nil {
			return fmt.Errorf("add origin: %w", err)
		}
		return nil
	}
	if _, err := s.run(ctx, "remote", "set-url", "origin", url); err != nil {
		return fmt.Errorf("set origin url: %w", err)
	}
	return nil
}

// CommitAll stages everything and commits with the expanded message
// template. A clean tree is success, not failure.
func (s *Syncer) CommitAll(ctx context.Context, template string) error {
	if _, err := s.run(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}
	status, err := s.run(ctx, "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("check status: %w", err)
	}
	if status == "" {
		s.logger.Debug("nothing to commit")
		return nil
	}
	msg := ExpandCommitMessage(template, time.Now())
	if _, err := s.run(ctx, "commit", "-m", msg); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ExpandCommitMessage substitutes the {datetime} token.
func ExpandCommitMessage(template string, t time.Time) string {
	if strings.TrimSpace(template) == "" {
		template = "chore: sync records {datetime}"
	}
	return strings.ReplaceAll(template, "{datetime}", t.Format("2006-01-02 15:04:05"))
}

func (s *Syncer) PullRebase(ctx context.Context) error {
	if _, err := s.run(ctx, "pull", "--rebase"); err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	return nil
}

func (s *Syncer) Push(ctx context.Context) error {
	if _, err := s.run(ctx, "push"); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

// Probe classifies a remote with a read-only reference listing. It never
// mutates anything and is the required first step before ImportFromRemote.
func (s *Syncer) Probe(ctx context.Context, url string) (ProbeResult, error) {
	out, err := s.run(ctx, "ls-remote", "--heads", url)
	if err == nil {
		if strings.TrimSpace(out) == "" {
			return ProbeEmpty, nil
		}
		return ProbeNonEmpty, nil
	}
	sub, ok := err.(*SubprocessError)
	if !ok {
		return ProbeUnreachable, err
	}
	// A timed-out probe says nothing about auth or existence.
	if sub.Timeout() {
		return ProbeUnreachable, err
	}
	return ClassifyProbeFailure(sub.Stderr), err
}

// ClassifyProbeFailure maps git's stderr text onto a probe classification.
// The not-found patterns are checked first because some hosts phrase missing
// repositories as auth failures only after the repository check.
func ClassifyProbeFailure(stderr string) ProbeResult {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "repository not found"),
		strings.Contains(lower, "not found"),
		strings.Contains(lower, "does not exist"),
		strings.Contains(lower, "no such"):
		return ProbeNotFound
	case strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "could not read username"),
		strings.Contains(lower, "access denied"),
		strings.Contains(lower, "403"):
		return ProbeUnauthorized
	default:
		return ProbeUnreachable
	}
}

// DetectDefaultBranch finds the remote's default branch after a fetch, in
// priority order: the symbolic origin/HEAD ref, a text scan of remote show,
// then existence probes for main and master.
func (s *Syncer) DetectDefaultBranch(ctx context.Context) string {
	if out, err := s.run(ctx, "symbolic-ref", "refs/remotes/origin/HEAD"); err == nil {
		if name := strings.TrimPrefix(out, "refs/remotes/origin/"); name != out && name != "" {
			return name
		}
	}
	if out := s.tryRun(ctx, "remote", "show", "origin"); out != "" {
		for _, line := range strings.Split(out, "\n") {
			line = strings.TrimSpace(line)
			if rest, ok := strings.CutPrefix(line, "HEAD branch:"); ok {
				if name := strings.TrimSpace(rest); name != "" && name != "(unknown)" {
					return name
				}
			}
		}
	}
	for _, name := range []string{"main", "master"} {
		if _, err := s.run(ctx, "rev-parse", "--verify", "refs/remotes/origin/"+name); err == nil {
			return name
		}
	}
	return "main"
}

// ImportFromRemote makes the storage root track the remote's default branch,
// overwriting local content. When untracked local files block the checkout
// they are moved into a timestamped backup subdirectory first, never
// deleted. The backup directory path is returned so the caller can point the
// user at it; it is "" when no backup was needed.
func (s *Syncer) ImportFromRemote(ctx context.Context, url string) (string, error) {
	if err := s.EnsureRepository(ctx); err != nil {
		return "", err
	}
	if err := s.SetOriginURL(ctx, url); err != nil {
		return "", err
	}
	if _, err := s.run(ctx, "fetch", "--prune", "origin"); err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	s.tryRun(ctx, "remote", "set-head", "-a", "origin")

	branch := s.DetectDefaultBranch(ctx)
	_, err := s.run(ctx, "checkout", "-B", branch, "origin/"+branch)
	if err == nil {
		return "", nil
	}
	sub, ok := err.(*SubprocessError)
	if !ok || !strings.Contains(strings.ToLower(sub.Stderr), "would be overwritten") {
		return "", fmt.Errorf("checkout %s: %w", branch, err)
	}

	backup, berr := s.backupWorkTree()
	if berr != nil {
		return "", fmt.Errorf("backup before import: %w", berr)
	}
	s.logger.Info("moved local files to backup before import", "dir", backup)
	if _, err := s.run(ctx, "checkout", "-B", branch, "origin/"+branch); err != nil {
		return backup, fmt.Errorf("checkout %s after backup: %w", branch, err)
	}
	return backup, nil
}

// backupWorkTree moves every top-level entry except version-control
// metadata into a fresh timestamped subdirectory.
func (s *Syncer) backupWorkTree() (string, error) {
	stamp := time.Now().Format("20060102-150405")
	backup := filepath.Join(s.root, BackupDirPrefix+stamp)
	if err := os.MkdirAll(backup, 0755); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		name := e.Name()
		if SkipDir(name) || strings.HasPrefix(name, BackupDirPrefix) {
			continue
		}
		if err := os.Rename(filepath.Join(s.root, name), filepath.Join(backup, name)); err != nil {
			return "", err
		}
	}
	return backup, nil
}

// InitAndPush publishes the local storage root as the remote's first
// content: commit everything, name the branch main, and push with upstream.
func (s *Syncer) InitAndPush(ctx context.Context, url, messageTemplate string) error {
	if err := s.EnsureRepository(ctx); err != nil {
		return err
	}
	if err := s.SetOriginURL(ctx, url); err != nil {
		return err
	}
	if err := s.CommitAll(ctx, messageTemplate); err != nil {
		return err
	}
	// An empty storage root still needs a commit to push.
	if _, err := s.run(ctx, "rev-parse", "--verify", "HEAD"); err != nil {
		if _, err := s.run(ctx, "commit", "--allow-empty", "-m", "initial commit"); err != nil {
			return fmt.Errorf("initial commit: %w", err)
		}
	}
	if _, err := s.run(ctx, "branch", "-M", "main"); err != nil {
		return fmt.Errorf("rename branch: %w", err)
	}
	if _, err := s.run(ctx, "push", "-u", "origin", "main"); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

// Sync runs the full local-to-remote cycle: commit everything, then, when
// remote sync is enabled and an origin exists, pull with rebase and push.
func (s *Syncer) Sync(ctx context.Context, cfg GitConfig) error {
	if err := s.EnsureRepository(ctx); err != nil {
		return err
	}
	if err := s.CommitAll(ctx, cfg.CommitMessageTemplate); err != nil {
		return err
	}
	if !cfg.SyncEnabled {
		return nil
	}
	if s.OriginURL(ctx) == "" {
		if cfg.RemoteURL == "" {
			s.logger.Debug("no remote configured, commit only")
			return nil
		}
		if err := s.SetOriginURL(ctx, cfg.RemoteURL); err != nil {
			return err
		}
	}
	if err := s.PullRebase(ctx); err != nil {
		return err
	}
	return s.Push(ctx)
}
