package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/signalnine/fedexps/internal/experiment"
	"github.com/signalnine/fedexps/internal/result"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Experiments Experiments `yaml:"experiments"`
	Runner      Runner      `yaml:"runner"`
	Docker      Docker      `yaml:"docker"`
	Tracking    Tracking    `yaml:"tracking"`
}

type Experiments struct {
	Datasets     []string `yaml:"datasets"`
	Models       []string `yaml:"models"`
	Skewness     []string `yaml:"skewness"`
	Seeds        []int    `yaml:"seeds"`
	LocalModels  []string `yaml:"local_models"`
	LocalDataset string   `yaml:"local_dataset"`
}

type Runner struct {
	Command     []string `yaml:"command"`
	PlotCommand []string `yaml:"plot_command"`
	LogDir      string   `yaml:"log_dir"`
	StaleAfter  Duration `yaml:"stale_after"`
	Parallel    int      `yaml:"parallel"`
	Timeout     Duration `yaml:"timeout"`
}

type Docker struct {
	Image    string            `yaml:"image"`
	CPUs     float64           `yaml:"cpus"`
	MemoryMB int64             `yaml:"memory_mb"`
	Env      map[string]string `yaml:"env"`
}

type Tracking struct {
	BaseURL     string   `yaml:"base_url"`
	Entity      string   `yaml:"entity"`
	Project     string   `yaml:"project"`
	Tags        []string `yaml:"tags"`
	F1Key       string   `yaml:"f1_key"`
	DatasetKey  string   `yaml:"dataset_key"`
	ModelKey    string   `yaml:"model_key"`
	SkewnessKey string   `yaml:"skewness_key"`
	PageSize    int      `yaml:"page_size"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	EnvFile     string   `yaml:"env_file"`
}

// Duration accepts Go duration strings ("6h", "90m") in YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Space returns the experiment space of the regular family.
func (e Experiments) Space() experiment.Space {
	return experiment.Space{
		Datasets: e.Datasets,
		Models:   e.Models,
		Skewness: e.Skewness,
		Seeds:    e.Seeds,
	}
}

// LocalSpace returns the space of the local family; the dataset axis is
// chosen at enumeration time.
func (e Experiments) LocalSpace() experiment.Space {
	s := e.Space()
	s.Models = e.LocalModels
	return s
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// separators that would make a log file name ambiguous to decode
var separators = []string{"_model_", "_noniid_", "_seed_", "/", " "}

func checkAxis(name string, values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("experiments.%s: at least one value is required", name)
	}
	seen := map[string]bool{}
	for _, v := range values {
		if v == "" {
			return fmt.Errorf("experiments.%s: empty value", name)
		}
		for _, sep := range separators {
			if strings.Contains(v, sep) {
				return fmt.Errorf("experiments.%s: %q must not contain %q", name, v, sep)
			}
		}
		if seen[v] {
			return fmt.Errorf("experiments.%s: duplicate value %q", name, v)
		}
		seen[v] = true
	}
	return nil
}

func validate(cfg *Config) error {
	e := &cfg.Experiments
	if err := checkAxis("datasets", e.Datasets); err != nil {
		return err
	}
	if err := checkAxis("models", e.Models); err != nil {
		return err
	}
	if err := checkAxis("skewness", e.Skewness); err != nil {
		return err
	}
	if len(e.Seeds) == 0 {
		return fmt.Errorf("experiments.seeds: at least one seed is required")
	}
	for _, s := range e.Seeds {
		if s < 0 {
			return fmt.Errorf("experiments.seeds: seed %d is negative", s)
		}
	}
	if len(e.LocalModels) == 0 {
		e.LocalModels = e.Models
	} else if err := checkAxis("local_models", e.LocalModels); err != nil {
		return err
	}
	if e.LocalDataset == "" {
		e.LocalDataset = e.Datasets[0]
	}
	if err := result.CheckDescriptions(experiment.Regular, experiment.Enumerate(e.Space())); err != nil {
		return fmt.Errorf("experiments: %w", err)
	}
	if err := result.CheckDescriptions(experiment.Local, experiment.EnumerateLocal(e.LocalDataset, e.LocalSpace())); err != nil {
		return fmt.Errorf("experiments.local_dataset: %w", err)
	}

	r := &cfg.Runner
	if len(r.Command) == 0 {
		r.Command = []string{"python3", "ijcnn_exps.py"}
	}
	if len(r.PlotCommand) == 0 {
		r.PlotCommand = []string{"python3", "ijcnn_plots.py"}
	}
	if r.LogDir == "" {
		r.LogDir = "logs"
	}
	if r.StaleAfter.Duration == 0 {
		r.StaleAfter.Duration = 6 * time.Hour
	}
	if r.Parallel < 1 {
		r.Parallel = 1
	}
	if r.Timeout.Duration < 0 {
		return fmt.Errorf("runner.timeout must not be negative")
	}

	if cfg.Docker.CPUs < 0 || cfg.Docker.MemoryMB < 0 {
		return fmt.Errorf("docker: resource limits must not be negative")
	}

	t := &cfg.Tracking
	if t.BaseURL == "" {
		t.BaseURL = "https://api.wandb.ai"
	}
	t.BaseURL = strings.TrimRight(t.BaseURL, "/")
	if t.F1Key == "" {
		t.F1Key = "test/f1"
	}
	if t.DatasetKey == "" {
		t.DatasetKey = "dataset"
	}
	if t.ModelKey == "" {
		t.ModelKey = "model"
	}
	if t.SkewnessKey == "" {
		t.SkewnessKey = "non_iidness"
	}
	if t.PageSize < 1 {
		t.PageSize = 100
	}
	if t.APIKeyEnv == "" {
		t.APIKeyEnv = "WANDB_API_KEY"
	}
	return nil
}
