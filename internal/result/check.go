package result

import (
	"fmt"
	"strings"

	"github.com/signalnine/fedexps/internal/experiment"
)

// unsafeChars break make rules, shell words or paths when they appear in a
// log file name.
const unsafeChars = ":%#/\\ \t\n'\"$*?[]"

// CheckDescription reports whether d can be used as a log file name: every
// field is free of unsafeChars and the name decodes back to d.
func CheckDescription(f experiment.Family, d experiment.Description) error {
	for _, v := range []string{d.Dataset, d.Model, d.Skewness} {
		if v == "" {
			return fmt.Errorf("%w: empty field in %s", ErrBadLogName, d)
		}
		if i := strings.IndexAny(v, unsafeChars); i >= 0 {
			return fmt.Errorf("%w: %q contains %q", ErrBadLogName, v, v[i])
		}
	}
	name := LogName(f, d, Completed)
	gotFam, got, _, err := ParseLogName(name)
	if err != nil {
		return err
	}
	if gotFam != f || got != d {
		return fmt.Errorf("%w: %s would be read back as %s", ErrBadLogName, d, got)
	}
	return nil
}

// CheckDescriptions runs CheckDescription over descs and returns the first
// failure.
func CheckDescriptions(f experiment.Family, descs []experiment.Description) error {
	for _, d := range descs {
		if err := CheckDescription(f, d); err != nil {
			return err
		}
	}
	return nil
}
