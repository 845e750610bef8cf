package gitops

import (
	"fmt"
	"os/exec"
	"strings"
)

// Describe returns `git describe --always --dirty` for the repository at dir,
// used to stamp generated files with the revision they came from.
func Describe(dir string) (string, error) {
	cmd := exec.Command("git", "describe", "--always", "--dirty")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git describe: %s: %w", strings.TrimSpace(string(exitErr.Stderr)), err)
		}
		return "", fmt.Errorf("git describe: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
