package result_test

import (
	"testing"

	"github.com/signalnine/fedexps/internal/experiment"
	"github.com/signalnine/fedexps/internal/result"
	"github.com/stretchr/testify/assert"
)

func TestCheckDescription(t *testing.T) {
	tests := []struct {
		name string
		d    experiment.Description
		ok   bool
	}{
		{"plain", experiment.Description{Dataset: "kr-vs-kp", Model: "distboost.F", Skewness: "num_examples_skw", Seed: 4}, true},
		{"dataset ends like a separator", experiment.Description{Dataset: "adult_model", Model: "m", Skewness: "uniform"}, false},
		{"skewness starts like a separator", experiment.Description{Dataset: "adult", Model: "m", Skewness: "noniid_x"}, false},
		{"both", experiment.Description{Dataset: "adult_model", Model: "m", Skewness: "noniid_x"}, false},
		{"separator inside dataset", experiment.Description{Dataset: "x_model_y", Model: "m", Skewness: "uniform"}, false},
		{"space", experiment.Description{Dataset: "a b", Model: "m", Skewness: "uniform"}, false},
		{"colon", experiment.Description{Dataset: "adult", Model: "m:1", Skewness: "uniform"}, false},
		{"percent", experiment.Description{Dataset: "adult", Model: "m", Skewness: "50%"}, false},
		{"hash", experiment.Description{Dataset: "adult#2", Model: "m", Skewness: "uniform"}, false},
		{"empty model", experiment.Description{Dataset: "adult", Skewness: "uniform"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, fam := range []experiment.Family{experiment.Regular, experiment.Local} {
				err := result.CheckDescription(fam, tt.d)
				if tt.ok {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, result.ErrBadLogName)
				}
			}
		})
	}
}

func TestCheckDescriptions(t *testing.T) {
	descs := experiment.Enumerate(experiment.Space{
		Datasets: []string{"adult", "adult_model"},
		Models:   []string{"m"},
		Skewness: []string{"noniid_x"},
		Seeds:    []int{0},
	})
	assert.ErrorIs(t, result.CheckDescriptions(experiment.Regular, descs), result.ErrBadLogName)
	assert.NoError(t, result.CheckDescriptions(experiment.Regular, descs[:0]))
}
