// Package plan decides which experiments still need to be launched.
package plan

import (
	"os"
	"time"

	"github.com/signalnine/fedexps/internal/experiment"
	"github.com/signalnine/fedexps/internal/result"
)

// Summary explains how Missing split the descriptions.
type Summary struct {
	Total     int
	Completed int
	Running   int
	Stale     int
	Failed    int
	Missing   int
}

// Missing returns the descriptions that have neither a completed log nor a
// live .run file. Failed jobs are relaunched. A .run file older than
// staleAfter is treated as abandoned and relaunched too.
func Missing(dir string, fam experiment.Family, descs []experiment.Description, staleAfter time.Duration, now time.Time) ([]experiment.Description, Summary) {
	sum := Summary{Total: len(descs)}
	var missing []experiment.Description
	for _, d := range descs {
		if result.Done(dir, fam, d) {
			sum.Completed++
			continue
		}
		if info, err := os.Stat(result.LogPath(dir, fam, d, result.Running)); err == nil {
			e := result.Entry{Status: result.Running, ModTime: info.ModTime()}
			if !e.Stale(now, staleAfter) {
				sum.Running++
				continue
			}
			sum.Stale++
		}
		if result.Exists(dir, fam, d, result.Failed) {
			sum.Failed++
		}
		missing = append(missing, d)
	}
	sum.Missing = len(missing)
	return missing, sum
}
