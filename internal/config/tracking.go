package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TrackingFile is the wandb config file passed with --wandb-config-file. It
// is forwarded verbatim to the experiment runner and also selects the
// project the reporting commands read from.
type TrackingFile struct {
	Entity  string   `yaml:"entity"`
	Project string   `yaml:"project"`
	Tags    []string `yaml:"tags"`
}

func LoadTrackingFile(path string) (*TrackingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wandb config %s: %w", path, err)
	}
	var tf TrackingFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing wandb config %s: %w", path, err)
	}
	return &tf, nil
}

// Apply overrides the tracking section with the non-empty fields of tf.
func (tf *TrackingFile) Apply(t *Tracking) {
	if tf.Entity != "" {
		t.Entity = tf.Entity
	}
	if tf.Project != "" {
		t.Project = tf.Project
	}
	if len(tf.Tags) > 0 {
		t.Tags = tf.Tags
	}
}
