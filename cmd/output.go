package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"decomp-history/core/reconcile"
	"decomp-history/core/version"
	"decomp-history/feature/history"
	"decomp-history/feature/journal"
	"decomp-history/feature/repository"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var jsonOutput bool

// styles colour the terminal output. The renderer drops colours when w is
// not a terminal.
type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	add    lipgloss.Style
	keep   lipgloss.Style
	remove lipgloss.Style
	warn   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:  r.NewStyle().Bold(true),
		muted:  r.NewStyle().Foreground(lipgloss.Color("240")),
		add:    r.NewStyle().Foreground(lipgloss.Color("2")),
		keep:   r.NewStyle().Foreground(lipgloss.Color("245")),
		remove: r.NewStyle().Foreground(lipgloss.Color("1")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPlan(w io.Writer, rep *history.Report) error {
	if jsonOutput {
		return printJSON(w, rep)
	}
	s := newStyles(w)
	plan := rep.Plan

	fmt.Fprintf(w, "%s %s\n", s.title.Render("Strategy:"), plan.Strategy)
	for _, reason := range plan.Reasons {
		fmt.Fprintf(w, "  %s\n", s.warn.Render(reason))
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("ACTION", "VERSION", "KIND", "RELEASED", "NOTE")
	for _, a := range plan.Actions {
		style := s.keep
		note := ""
		switch a.Type {
		case reconcile.ActionAdd:
			style = s.add
			if a.ReuseTree != "" {
				note = "reuses tree " + a.ReuseTree[:min(len(a.ReuseTree), 12)]
			}
		case reconcile.ActionRemove:
			style = s.remove
		}
		t.Row(style.Render(string(a.Type)), a.Version.ID, string(a.Version.Kind), formatTime(a.Version.ReleaseTime), note)
	}
	for _, tag := range plan.Prune {
		t.Row(s.remove.Render("prune"), tag, "", "", "tag deleted")
	}
	fmt.Fprintln(w, t.Render())

	sum := plan.Summary
	fmt.Fprintln(w, s.muted.Render(fmt.Sprintf("%d target, %d existing, %d new, %d removed, %d kept, %d reused",
		sum.Target, sum.Existing, sum.New, sum.Removed, sum.Kept, sum.Reused)))
	return nil
}

func printSnapshot(w io.Writer, snap *repository.Snapshot) error {
	if jsonOutput {
		return printJSON(w, snap)
	}
	s := newStyles(w)

	if snap.Fresh {
		fmt.Fprintln(w, s.muted.Render("No repository yet."))
		return nil
	}
	head := snap.Head
	if head == "" {
		head = "(unborn)"
	}
	fmt.Fprintf(w, "%s %s at %s\n", s.title.Render("Branch:"), snap.Branch, head)

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("#", "VERSION", "KIND", "COMMIT", "TOOLCHAIN")
	for _, e := range snap.Entries {
		toolchain := e.Sentinel.Toolchain
		if e.Stale {
			toolchain = s.warn.Render(toolchain + " (stale)")
		}
		t.Row(strconv.Itoa(e.Position), e.Version, string(e.Sentinel.Kind), e.Commit[:min(len(e.Commit), 12)], toolchain)
	}
	fmt.Fprintln(w, t.Render())

	if len(snap.Foreign) > 0 {
		fmt.Fprintln(w, s.muted.Render(fmt.Sprintf("%d foreign tag(s) ignored", len(snap.Foreign))))
	}
	return nil
}

func printVersions(w io.Writer, set version.Set) error {
	if jsonOutput {
		return printJSON(w, set)
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("VERSION", "KIND", "RELEASED")
	for _, v := range set {
		t.Row(v.ID, string(v.Kind), formatTime(v.ReleaseTime))
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

func printRuns(w io.Writer, runs []journal.Run) error {
	if jsonOutput {
		return printJSON(w, runs)
	}
	s := newStyles(w)
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("STARTED", "STATUS", "STRATEGY", "BUILT", "REUSED", "PRUNED", "ERROR")
	for _, r := range runs {
		status := string(r.Status)
		switch r.Status {
		case journal.StatusFailed:
			status = s.remove.Render(status)
		case journal.StatusSucceeded:
			status = s.add.Render(status)
		}
		if r.DryRun {
			status += s.muted.Render(" (dry run)")
		}
		t.Row(formatTime(r.StartedAt), status, r.Strategy,
			strconv.Itoa(r.Built), strconv.Itoa(r.Reused), strconv.Itoa(r.Pruned), r.Error)
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
