package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"decomp-history/core/apperr"
	"decomp-history/core/git"
	"decomp-history/core/reconcile"
)

// Entry is one version commit found in the repository.
type Entry struct {
	// Version is the version identifier, equal to the tag name.
	Version string `json:"version"`
	// Tag is the full tag reference.
	Tag      string   `json:"tag"`
	Commit   string   `json:"commit"`
	Tree     string   `json:"tree"`
	Position int      `json:"position"`
	Sentinel Sentinel `json:"sentinel"`
	// Stale is set when the entry was built by another toolchain or an
	// older sentinel format.
	Stale bool `json:"stale"`
}

// Snapshot is the repository state read at the start of a run.
type Snapshot struct {
	// Fresh is set when no repository exists yet.
	Fresh  bool   `json:"fresh"`
	Branch string `json:"branch"`
	// Head is the primary branch tip, empty for an unborn branch.
	Head string `json:"head"`
	// Entries are ordered by Position, oldest first.
	Entries []Entry `json:"entries"`
	// Foreign lists tags that do not carry a sentinel.
	Foreign []string `json:"foreign,omitempty"`
}

// Existing converts the entries for the planner.
func (s *Snapshot) Existing() []reconcile.Entry {
	out := make([]reconcile.Entry, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = reconcile.Entry{ID: e.Version, Commit: e.Commit, Tree: e.Tree, Stale: e.Stale}
	}
	return out
}

// Newest returns the entry at the branch tip.
func (s *Snapshot) Newest() (Entry, bool) {
	if len(s.Entries) == 0 {
		return Entry{}, false
	}
	return s.Entries[len(s.Entries)-1], true
}

// InspectOptions selects what Inspect compares against.
type InspectOptions struct {
	Branch    string
	Toolchain string
}

// candidate is a tag that peels to a commit.
type candidate struct {
	tag    string
	commit string
}

// Inspect reads the repository at repo into a Snapshot.
func Inspect(ctx context.Context, repo *git.Repository, opts InspectOptions) (*Snapshot, error) {
	snap := &Snapshot{Branch: opts.Branch}
	if !git.Exists(repo.Dir()) {
		snap.Fresh = true
		return snap, nil
	}

	head, err := repo.ResolveCommit(ctx, git.BranchRef(opts.Branch))
	if err != nil && !errors.Is(err, git.ErrNotFound) {
		return nil, err
	}
	snap.Head = head

	candidates, err := peelTags(ctx, repo)
	if err != nil {
		return nil, err
	}

	entries, foreign, err := readSentinels(ctx, repo, candidates, opts.Toolchain)
	if err != nil {
		return nil, err
	}
	snap.Foreign = foreign

	if err := placeEntries(ctx, repo, snap, entries); err != nil {
		return nil, err
	}
	return snap, nil
}

// peelTags resolves every tag to a commit. Tags whose object is missing make
// the repository corrupt; tags on non-commit objects are skipped.
func peelTags(ctx context.Context, repo *git.Repository) ([]candidate, error) {
	refs, err := repo.ListRefs(ctx, "refs/tags/")
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}

	revs := make([]string, 0, len(refs)*2)
	for _, ref := range refs {
		revs = append(revs, ref.Target, ref.Name+"^{commit}")
	}
	objects, err := repo.CheckObjects(ctx, revs)
	if err != nil {
		return nil, err
	}

	var out []candidate
	for i, ref := range refs {
		tag, _ := git.TagName(ref.Name)
		target, peeled := objects[2*i], objects[2*i+1]
		if target.Missing {
			return nil, apperr.Corrupt("tag %s points at missing object %s", tag, ref.Target)
		}
		if peeled.Missing || peeled.Type != "commit" {
			continue
		}
		out = append(out, candidate{tag: tag, commit: peeled.ID})
	}
	return out, nil
}

// readSentinels loads the sentinel and tree of every candidate commit.
func readSentinels(ctx context.Context, repo *git.Repository, candidates []candidate, toolchain string) ([]Entry, []string, error) {
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	blobs := make([]string, len(candidates))
	trees := make([]string, len(candidates))
	for i, c := range candidates {
		blobs[i] = c.commit + ":" + SentinelFile
		trees[i] = c.commit + "^{tree}"
	}
	contents, err := repo.ReadObjects(ctx, blobs)
	if err != nil {
		return nil, nil, err
	}
	treeObjects, err := repo.CheckObjects(ctx, trees)
	if err != nil {
		return nil, nil, err
	}

	var entries []Entry
	var foreign []string
	for i, c := range candidates {
		if contents[i].Missing || contents[i].Type != "blob" {
			foreign = append(foreign, c.tag)
			continue
		}
		if treeObjects[i].Missing {
			return nil, nil, apperr.Corrupt("commit %s of tag %s has no tree", c.commit, c.tag)
		}

		sentinel, err := DecodeSentinel(contents[i].Content)
		if err != nil {
			return nil, nil, apperr.Corrupt("tag %s: %v", c.tag, err)
		}
		if sentinel.Version != c.tag {
			return nil, nil, apperr.Corrupt("tag %s points at the commit of version %s", c.tag, sentinel.Version)
		}
		if sentinel.Format > FormatVersion {
			return nil, nil, apperr.Corrupt("tag %s uses sentinel format %d, newest supported is %d", c.tag, sentinel.Format, FormatVersion)
		}

		entries = append(entries, Entry{
			Version:  c.tag,
			Tag:      git.TagRef(c.tag),
			Commit:   c.commit,
			Tree:     treeObjects[i].ID,
			Sentinel: sentinel,
			Stale:    !sentinel.Current(toolchain),
		})
	}
	return entries, foreign, nil
}

// placeEntries orders entries along the branch's first-parent chain and
// checks that the branch ends at the newest one.
func placeEntries(ctx context.Context, repo *git.Repository, snap *Snapshot, entries []Entry) error {
	var history []string
	if snap.Head != "" {
		var err error
		history, err = repo.FirstParentHistory(ctx, snap.Head)
		if err != nil {
			return err
		}
	}

	// rev-list lists newest first.
	position := make(map[string]int, len(history))
	for i, commit := range history {
		position[commit] = len(history) - 1 - i
	}

	for i := range entries {
		pos, ok := position[entries[i].Commit]
		if !ok {
			return apperr.Corrupt("version %s (commit %s) is not on the history of branch %s", entries[i].Version, short(entries[i].Commit), snap.Branch)
		}
		entries[i].Position = pos
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })

	switch {
	case len(entries) == 0 && snap.Head != "":
		return apperr.Corrupt("branch %s has commits but no version entries", snap.Branch)
	case len(entries) > 0 && entries[len(entries)-1].Commit != snap.Head:
		return apperr.Corrupt("branch %s is at %s, not at the newest version %s", snap.Branch, short(snap.Head), entries[len(entries)-1].Version)
	}

	snap.Entries = entries
	return nil
}

func short(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// String summarises the snapshot for logs.
func (s *Snapshot) String() string {
	if s.Fresh {
		return "no repository"
	}
	newest, ok := s.Newest()
	if !ok {
		return fmt.Sprintf("branch %s is empty", s.Branch)
	}
	return fmt.Sprintf("%d versions on %s, head %s (%s)", len(s.Entries), s.Branch, newest.Version, short(s.Head))
}
