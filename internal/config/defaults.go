package config

// Default returns the built-in experiment space used when no config file is
// present.
func Default() *Config {
	cfg := &Config{
		Experiments: Experiments{
			Datasets: []string{
				"adult", "forestcover", "kr-vs-kp", "splice", "vehicle",
				"segmentation", "sat", "pendigits", "vowel", "letter",
			},
			Models: []string{
				"distboost.F", "preweak.F", "adaboost.F", "samme.F", "local-adaboost",
			},
			Skewness: []string{
				"uniform", "num_examples_skw", "lbl_skw", "dirichlet_lbl", "pathological", "covariate_shift",
			},
			Seeds:        []int{0, 1, 2, 3, 4},
			LocalModels:  []string{"local-adaboost", "local-samme"},
			LocalDataset: "adult",
		},
		Tracking: Tracking{
			Project: "ijcnn-exps",
			Tags:    []string{"ijcnn"},
		},
	}
	if err := validate(cfg); err != nil {
		panic("config: invalid defaults: " + err.Error())
	}
	return cfg
}
