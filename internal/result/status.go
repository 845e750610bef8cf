package result

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/signalnine/fedexps/internal/experiment"
)

// LaunchedStats globs the log directory for each of the three status
// extensions of the family and decodes every match. A matching file whose
// name cannot be decoded aborts the scan.
func LaunchedStats(dir string, f experiment.Family) (LaunchStats, error) {
	var stats LaunchStats
	for _, st := range statuses {
		matches, err := filepath.Glob(filepath.Join(dir, Prefix(f)+"*."+st.Ext()))
		if err != nil {
			return LaunchStats{}, fmt.Errorf("globbing %s logs: %w", st, err)
		}
		sort.Strings(matches)
		for _, path := range matches {
			fam, desc, _, err := ParseLogName(path)
			if err != nil {
				return LaunchStats{}, err
			}
			e := Entry{Path: path, Family: fam, Description: desc, Status: st}
			if info, err := os.Stat(path); err == nil {
				e.ModTime = info.ModTime()
			}
			stats.Entries = append(stats.Entries, e)
		}
		switch st {
		case Completed:
			stats.Completed = len(matches)
		case Failed:
			stats.Failed = len(matches)
		case Running:
			stats.Running = len(matches)
		}
	}
	return stats, nil
}

// Exists reports whether the status file for the description is present.
func Exists(dir string, f experiment.Family, d experiment.Description, st Status) bool {
	_, err := os.Stat(LogPath(dir, f, d, st))
	return err == nil
}

// Done reports whether the experiment has a completed log.
func Done(dir string, f experiment.Family, d experiment.Description) bool {
	return Exists(dir, f, d, Completed)
}
