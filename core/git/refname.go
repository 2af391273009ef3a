package git

import (
	"fmt"
	"strings"
)

const (
	tagPrefix    = "refs/tags/"
	branchPrefix = "refs/heads/"
)

// TagRef returns the full reference name of tag.
func TagRef(tag string) string {
	return tagPrefix + tag
}

// BranchRef returns the full reference name of branch.
func BranchRef(branch string) string {
	return branchPrefix + branch
}

// TagName strips the tag prefix from a full reference name. ok is false for
// references outside refs/tags/.
func TagName(ref string) (string, bool) {
	return strings.CutPrefix(ref, tagPrefix)
}

// CheckRefComponent reports why name cannot be used as a single tag or
// branch name, following the rules of git check-ref-format.
func CheckRefComponent(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty reference name")
	case name == "@":
		return fmt.Errorf("reference name %q is reserved", name)
	case strings.HasPrefix(name, "-"), strings.HasPrefix(name, "."), strings.HasPrefix(name, "/"):
		return fmt.Errorf("reference name %q has an invalid leading character", name)
	case strings.HasSuffix(name, "."), strings.HasSuffix(name, "/"), strings.HasSuffix(name, ".lock"):
		return fmt.Errorf("reference name %q has an invalid suffix", name)
	case strings.Contains(name, ".."), strings.Contains(name, "@{"), strings.Contains(name, "//"), strings.Contains(name, "/."):
		return fmt.Errorf("reference name %q contains an invalid sequence", name)
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(" ~^:?*[\\", r) {
			return fmt.Errorf("reference name %q contains invalid character %q", name, r)
		}
	}
	return nil
}
