// Package result owns the on-disk contract between launched jobs and this
// tool: the log file naming scheme and the status it encodes.
package result

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/signalnine/fedexps/internal/experiment"
)

// ErrBadLogName is returned when a file name does not follow the log naming
// scheme.
var ErrBadLogName = errors.New("malformed log file name")

var logNameRE = regexp.MustCompile(`^ijcnn(local)?exps_ds_(.+?)_model_(.+)_noniid_(.+?)_seed_(\d+)\.(log|err|run)$`)

// Prefix returns the file name prefix shared by every log of the family.
func Prefix(f experiment.Family) string {
	if f == experiment.Local {
		return "ijcnnlocalexps_"
	}
	return "ijcnnexps_"
}

// LogName encodes a description into the base name of its status file.
func LogName(f experiment.Family, d experiment.Description, st Status) string {
	return fmt.Sprintf("%sds_%s_model_%s_noniid_%s_seed_%d.%s",
		Prefix(f), d.Dataset, d.Model, d.Skewness, d.Seed, st.Ext())
}

// LogPath joins LogName onto the log directory.
func LogPath(dir string, f experiment.Family, d experiment.Description, st Status) string {
	return filepath.Join(dir, LogName(f, d, st))
}

// ParseLogName decodes the base name of path. Anything that does not match
// the naming scheme exactly is rejected with ErrBadLogName.
func ParseLogName(path string) (experiment.Family, experiment.Description, Status, error) {
	name := filepath.Base(path)
	m := logNameRE.FindStringSubmatch(name)
	if m == nil {
		return 0, experiment.Description{}, 0, fmt.Errorf("%w: %q", ErrBadLogName, name)
	}
	seed, err := strconv.Atoi(m[5])
	if err != nil {
		// only reachable on overflow
		return 0, experiment.Description{}, 0, fmt.Errorf("%w: %q: seed: %v", ErrBadLogName, name, err)
	}
	st, _ := statusFromExt(m[6])
	fam := experiment.Regular
	if m[1] != "" {
		fam = experiment.Local
	}
	return fam, experiment.Description{
		Dataset:  m[2],
		Seed:     seed,
		Model:    m[3],
		Skewness: m[4],
	}, st, nil
}
