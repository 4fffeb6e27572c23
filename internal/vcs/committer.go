package vcs

import (
	"fmt"
	"log"
	"os/exec"
)

// Committer records document mutations in a git repository rooted at the
// document directory. The hook is strictly fire-and-forget: a failed or
// missing git never fails the mutation that triggered it.
type Committer struct {
	dir     string
	enabled bool

	// run is swappable for tests.
	run func(dir string, args ...string) error
}

// NewCommitter creates a Committer over dir. When enabled is false every
// Record call is a no-op.
func NewCommitter(dir string, enabled bool) *Committer {
	return &Committer{
		dir:     dir,
		enabled: enabled,
		run:     runGit,
	}
}

// Record stages the named file and commits it with a one-line message such
// as "Update about.txt". Errors are logged, never returned.
func (c *Committer) Record(action, name string) {
	if !c.enabled {
		return
	}

	if err := c.run(c.dir, "add", "--", name); err != nil {
		log.Printf("vcs: git add %s failed: %v", name, err)
		return
	}
	msg := fmt.Sprintf("%s %s", action, name)
	if err := c.run(c.dir, "commit", "-m", msg); err != nil {
		log.Printf("vcs: git commit failed: %v", err)
	}
}

// Actions passed to Record.
const (
	ActionCreate    = "Create"
	ActionUpdate    = "Update"
	ActionDuplicate = "Duplicate"
	ActionDelete    = "Delete"
)

func runGit(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %v: %v: %s", args, err, out)
	}
	return nil
}
