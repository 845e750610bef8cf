// Package experiment describes the combinatorial space of federated boosting
// experiments and enumerates it.
package experiment

import "fmt"

// Description identifies one configured experiment. Two descriptions with the
// same fields are the same experiment.
type Description struct {
	Dataset  string
	Seed     int
	Model    string
	Skewness string
}

func (d Description) String() string {
	return fmt.Sprintf("%s/%s/%s/seed=%d", d.Dataset, d.Skewness, d.Model, d.Seed)
}

// Family selects between the regular comparison runs and the local-training
// runs, which live side by side in the same log directory.
type Family int

const (
	Regular Family = iota
	Local
)

func (f Family) String() string {
	if f == Local {
		return "local"
	}
	return "regular"
}

// Space is the set of values each experiment axis ranges over.
type Space struct {
	Datasets []string
	Models   []string
	Skewness []string
	Seeds    []int
}

// Size returns the number of descriptions Enumerate produces.
func (s Space) Size() int {
	return len(s.Datasets) * len(s.Models) * len(s.Skewness) * len(s.Seeds)
}

// Enumerate returns the cartesian product of the space, ordered by dataset,
// skewness, model and seed.
func Enumerate(s Space) []Description {
	descs := make([]Description, 0, s.Size())
	for _, ds := range s.Datasets {
		for _, skew := range s.Skewness {
			for _, model := range s.Models {
				for _, seed := range s.Seeds {
					descs = append(descs, Description{
						Dataset:  ds,
						Seed:     seed,
						Model:    model,
						Skewness: skew,
					})
				}
			}
		}
	}
	return descs
}

// EnumerateLocal restricts the space to a single dataset, as local runs are
// only performed on one dataset at a time.
func EnumerateLocal(dataset string, s Space) []Description {
	s.Datasets = []string{dataset}
	return Enumerate(s)
}

// Groups returns the distinct (dataset, skewness) pairs of the space in
// enumeration order.
func Groups(s Space) [][2]string {
	var groups [][2]string
	for _, ds := range s.Datasets {
		for _, skew := range s.Skewness {
			groups = append(groups, [2]string{ds, skew})
		}
	}
	return groups
}
