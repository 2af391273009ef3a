package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when a revision does not resolve.
var ErrNotFound = errors.New("git: revision not found")

// Signature identifies the author and committer of generated commits.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Ref is a reference name and the object it points to.
type Ref struct {
	Name   string
	Target string
}

// Object is one result line of a batch object lookup.
type Object struct {
	// Rev is the revision expression that was looked up.
	Rev string
	// ID is the object id, empty when Missing.
	ID string
	// Type is the object type (commit, tree, blob, tag).
	Type string
	// Missing is set when the revision does not resolve.
	Missing bool
	// Content holds the object body for content lookups.
	Content []byte
}

// RefUpdate is one step of an atomic reference transaction.
type RefUpdate struct {
	Ref string
	// New is the target object id. Ignored when Delete is set.
	New string
	// Old, when set, must match the current value for the update to apply.
	Old string
	// Create requires the reference not to exist yet.
	Create bool
	// Delete removes the reference.
	Delete bool
}

// Repository runs git commands against one working tree by shelling out to
// the git binary.
type Repository struct {
	dir string
}

// Open returns a Repository for dir without checking that it exists.
func Open(dir string) *Repository {
	return &Repository{dir: dir}
}

// Exists reports whether dir holds a git working tree.
func Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

// Init creates a new repository whose unborn HEAD points at branch.
func Init(ctx context.Context, dir, branch string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create repository directory: %w", err)
	}
	cmd := exec.CommandContext(ctx, "git", "init", "--quiet", "--initial-branch="+branch, dir)
	if err := runCommand(cmd); err != nil {
		return nil, fmt.Errorf("git init failed: %w", err)
	}
	return Open(dir), nil
}

// Dir returns the working tree path.
func (r *Repository) Dir() string {
	return r.dir
}

// ResolveCommit resolves rev to a commit id. It returns ErrNotFound when
// the revision does not exist or does not peel to a commit.
func (r *Repository) ResolveCommit(ctx context.Context, rev string) (string, error) {
	cmd := r.command(ctx, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("git rev-parse %s failed: %w", rev, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ListRefs lists references under prefix (e.g. "refs/tags/").
func (r *Repository) ListRefs(ctx context.Context, prefix string) ([]Ref, error) {
	out, err := r.output(ctx, nil, nil, "for-each-ref", "--format=%(objectname) %(refname)", prefix)
	if err != nil {
		return nil, fmt.Errorf("git for-each-ref failed: %w", err)
	}

	var refs []Ref
	for _, line := range splitLines(out) {
		target, name, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unexpected for-each-ref line %q", line)
		}
		refs = append(refs, Ref{Name: name, Target: target})
	}
	return refs, nil
}

// FirstParentHistory lists the commits reachable from rev by following
// first parents, newest first.
func (r *Repository) FirstParentHistory(ctx context.Context, rev string) ([]string, error) {
	out, err := r.output(ctx, nil, nil, "rev-list", "--first-parent", rev, "--")
	if err != nil {
		return nil, fmt.Errorf("git rev-list failed: %w", err)
	}
	return splitLines(out), nil
}

// CheckObjects looks up many revisions with a single git process.
// Results are returned in input order.
func (r *Repository) CheckObjects(ctx context.Context, revs []string) ([]Object, error) {
	if len(revs) == 0 {
		return nil, nil
	}
	out, err := r.output(ctx, strings.NewReader(strings.Join(revs, "\n")+"\n"), nil,
		"cat-file", "--batch-check=%(objectname) %(objecttype)")
	if err != nil {
		return nil, fmt.Errorf("git cat-file --batch-check failed: %w", err)
	}

	lines := splitLines(out)
	if len(lines) != len(revs) {
		return nil, fmt.Errorf("git cat-file returned %d results for %d revisions", len(lines), len(revs))
	}

	objects := make([]Object, len(revs))
	for i, line := range lines {
		objects[i] = Object{Rev: revs[i]}
		if strings.HasSuffix(line, " missing") || strings.HasSuffix(line, " ambiguous") {
			objects[i].Missing = true
			continue
		}
		id, typ, _ := strings.Cut(line, " ")
		objects[i].ID = id
		objects[i].Type = typ
	}
	return objects, nil
}

// ReadObjects returns the content of many revisions (e.g. "<commit>:<path>")
// with a single git process. Results are returned in input order.
func (r *Repository) ReadObjects(ctx context.Context, revs []string) ([]Object, error) {
	if len(revs) == 0 {
		return nil, nil
	}
	out, err := r.output(ctx, strings.NewReader(strings.Join(revs, "\n")+"\n"), nil, "cat-file", "--batch")
	if err != nil {
		return nil, fmt.Errorf("git cat-file --batch failed: %w", err)
	}
	return parseBatch(revs, out)
}

// parseBatch decodes `git cat-file --batch` output.
func parseBatch(revs []string, out []byte) ([]Object, error) {
	reader := bufio.NewReader(bytes.NewReader(out))
	objects := make([]Object, len(revs))
	for i, rev := range revs {
		header, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("truncated cat-file output at %q: %w", rev, err)
		}
		header = strings.TrimSuffix(header, "\n")
		objects[i] = Object{Rev: rev}

		if strings.HasSuffix(header, " missing") || strings.HasSuffix(header, " ambiguous") {
			objects[i].Missing = true
			continue
		}

		fields := strings.Fields(header)
		if len(fields) != 3 {
			return nil, fmt.Errorf("unexpected cat-file header %q", header)
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("unexpected cat-file size in %q: %w", header, err)
		}

		content := make([]byte, size+1) // trailing LF
		if _, err := io.ReadFull(reader, content); err != nil {
			return nil, fmt.Errorf("truncated cat-file content for %q: %w", rev, err)
		}
		objects[i].ID = fields[0]
		objects[i].Type = fields[1]
		objects[i].Content = content[:size]
	}
	return objects, nil
}

// StageAll records the full working tree state in the index, including
// deletions, and returns the resulting tree id.
func (r *Repository) StageAll(ctx context.Context) (string, error) {
	if _, err := r.output(ctx, nil, nil, "add", "--all", "--force", "."); err != nil {
		return "", fmt.Errorf("git add failed: %w", err)
	}
	out, err := r.output(ctx, nil, nil, "write-tree")
	if err != nil {
		return "", fmt.Errorf("git write-tree failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CommitTree creates a commit object for tree without touching any
// reference. An empty parent creates a root commit.
func (r *Repository) CommitTree(ctx context.Context, tree, parent, message string, sig Signature) (string, error) {
	args := []string{"commit-tree", tree}
	if parent != "" {
		args = append(args, "-p", parent)
	}

	date := fmt.Sprintf("%d +0000", sig.When.Unix())
	env := []string{
		"GIT_AUTHOR_NAME=" + sig.Name,
		"GIT_AUTHOR_EMAIL=" + sig.Email,
		"GIT_AUTHOR_DATE=" + date,
		"GIT_COMMITTER_NAME=" + sig.Name,
		"GIT_COMMITTER_EMAIL=" + sig.Email,
		"GIT_COMMITTER_DATE=" + date,
	}

	out, err := r.output(ctx, strings.NewReader(message), env, args...)
	if err != nil {
		return "", fmt.Errorf("git commit-tree failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// UpdateRef points ref at id.
func (r *Repository) UpdateRef(ctx context.Context, ref, id string) error {
	if _, err := r.output(ctx, nil, nil, "update-ref", ref, id); err != nil {
		return fmt.Errorf("git update-ref %s failed: %w", ref, err)
	}
	return nil
}

// DeleteRef removes ref. Deleting a missing ref is not an error.
func (r *Repository) DeleteRef(ctx context.Context, ref string) error {
	if _, err := r.ResolveCommit(ctx, ref); errors.Is(err, ErrNotFound) {
		return nil
	}
	if _, err := r.output(ctx, nil, nil, "update-ref", "-d", ref); err != nil {
		return fmt.Errorf("git update-ref -d %s failed: %w", ref, err)
	}
	return nil
}

// UpdateRefs applies all updates in one transaction: either every
// reference moves or none does.
func (r *Repository) UpdateRefs(ctx context.Context, updates []RefUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	var script strings.Builder
	script.WriteString("start\n")
	for _, u := range updates {
		switch {
		case u.Delete && u.Old != "":
			fmt.Fprintf(&script, "delete %s %s\n", u.Ref, u.Old)
		case u.Delete:
			fmt.Fprintf(&script, "delete %s\n", u.Ref)
		case u.Old != "":
			fmt.Fprintf(&script, "update %s %s %s\n", u.Ref, u.New, u.Old)
		case u.Create:
			// The all-zero id of the same hash length means "must not exist".
			fmt.Fprintf(&script, "update %s %s %s\n", u.Ref, u.New, strings.Repeat("0", len(u.New)))
		default:
			fmt.Fprintf(&script, "update %s %s\n", u.Ref, u.New)
		}
	}
	script.WriteString("prepare\ncommit\n")

	if _, err := r.output(ctx, strings.NewReader(script.String()), nil, "update-ref", "--stdin"); err != nil {
		return fmt.Errorf("git reference transaction failed: %w", err)
	}
	return nil
}

// SetHead points HEAD at ref without touching the index or working tree.
func (r *Repository) SetHead(ctx context.Context, ref string) error {
	if _, err := r.output(ctx, nil, nil, "symbolic-ref", "HEAD", ref); err != nil {
		return fmt.Errorf("git symbolic-ref failed: %w", err)
	}
	return nil
}

// ResetHard makes the index and working tree match rev.
func (r *Repository) ResetHard(ctx context.Context, rev string) error {
	if _, err := r.output(ctx, nil, nil, "reset", "--hard", "--quiet", rev); err != nil {
		return fmt.Errorf("git reset failed: %w", err)
	}
	return nil
}

// ClearIndex empties the index, as for an unborn branch.
func (r *Repository) ClearIndex(ctx context.Context) error {
	if _, err := r.output(ctx, nil, nil, "read-tree", "--empty"); err != nil {
		return fmt.Errorf("git read-tree failed: %w", err)
	}
	return nil
}

// Clean removes untracked and ignored files from the working tree.
func (r *Repository) Clean(ctx context.Context) error {
	if _, err := r.output(ctx, nil, nil, "clean", "-ffdxq"); err != nil {
		return fmt.Errorf("git clean failed: %w", err)
	}
	return nil
}

// IsDirty reports whether the index or working tree differs from HEAD.
func (r *Repository) IsDirty(ctx context.Context) (bool, error) {
	out, err := r.output(ctx, nil, nil, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return false, fmt.Errorf("git status failed: %w", err)
	}
	return len(bytes.TrimSpace(out)) > 0, nil
}

func (r *Repository) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", r.dir}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")
	return cmd
}

// output runs a git command and returns stdout. Stderr is included in the
// returned error on failure.
func (r *Repository) output(ctx context.Context, stdin io.Reader, env []string, args ...string) ([]byte, error) {
	cmd := r.command(ctx, args...)
	cmd.Env = append(cmd.Env, env...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// runCommand executes a command and returns an error with its output on failure
func runCommand(cmd *exec.Cmd) error {
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func splitLines(out []byte) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
