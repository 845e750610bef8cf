package report

import (
	"math"
	"sort"
)

// Average is the mean F1 of one model on one (dataset, skewness) group.
type Average struct {
	Dataset  string  `json:"dataset"`
	Skewness string  `json:"skewness"`
	Model    string  `json:"model"`
	MeanF1   float64 `json:"mean_f1"`
	StdF1    float64 `json:"std_f1"`
	Runs     int     `json:"runs"`
}

type groupKey struct {
	dataset, skewness string
}

type modelKey struct {
	groupKey
	model string
}

// Averages computes mean and sample standard deviation of F1 per (dataset,
// skewness, model), ordered by dataset, skewness, then mean F1 descending.
func Averages(records []Record) []Average {
	type accum struct {
		n          int
		sum, sumSq float64
	}
	acc := map[modelKey]*accum{}
	for _, r := range records {
		k := modelKey{groupKey{r.Dataset, r.Skewness}, r.Model}
		a, ok := acc[k]
		if !ok {
			a = &accum{}
			acc[k] = a
		}
		a.n++
		a.sum += r.F1
		a.sumSq += r.F1 * r.F1
	}

	avgs := make([]Average, 0, len(acc))
	for k, a := range acc {
		mean := a.sum / float64(a.n)
		var std float64
		if a.n > 1 {
			v := (a.sumSq - float64(a.n)*mean*mean) / float64(a.n-1)
			std = math.Sqrt(math.Max(v, 0))
		}
		avgs = append(avgs, Average{
			Dataset:  k.dataset,
			Skewness: k.skewness,
			Model:    k.model,
			MeanF1:   mean,
			StdF1:    std,
			Runs:     a.n,
		})
	}
	sort.Slice(avgs, func(i, j int) bool {
		a, b := avgs[i], avgs[j]
		if a.Dataset != b.Dataset {
			return a.Dataset < b.Dataset
		}
		if a.Skewness != b.Skewness {
			return a.Skewness < b.Skewness
		}
		if a.MeanF1 != b.MeanF1 {
			return a.MeanF1 > b.MeanF1
		}
		return a.Model < b.Model
	})
	return avgs
}

// Rank is the position of a model within its (dataset, skewness) group.
type Rank struct {
	Dataset  string  `json:"dataset"`
	Skewness string  `json:"skewness"`
	Model    string  `json:"model"`
	MeanF1   float64 `json:"mean_f1"`
	Position int     `json:"position"`
}

// Ranks assigns positions within each (dataset, skewness) group by mean F1,
// best first. Equal means share the better position and the next position is
// skipped (1, 2, 2, 4).
func Ranks(avgs []Average) []Rank {
	sorted := append([]Average(nil), avgs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Dataset != b.Dataset {
			return a.Dataset < b.Dataset
		}
		if a.Skewness != b.Skewness {
			return a.Skewness < b.Skewness
		}
		if a.MeanF1 != b.MeanF1 {
			return a.MeanF1 > b.MeanF1
		}
		return a.Model < b.Model
	})

	ranks := make([]Rank, 0, len(sorted))
	var prev Average
	pos, inGroup := 0, 0
	for i, a := range sorted {
		sameGroup := i > 0 && a.Dataset == prev.Dataset && a.Skewness == prev.Skewness
		if !sameGroup {
			inGroup = 0
		}
		inGroup++
		if !sameGroup || a.MeanF1 != prev.MeanF1 {
			pos = inGroup
		}
		ranks = append(ranks, Rank{
			Dataset:  a.Dataset,
			Skewness: a.Skewness,
			Model:    a.Model,
			MeanF1:   a.MeanF1,
			Position: pos,
		})
		prev = a
	}
	return ranks
}

// GroupBy selects how rank counts are split.
type GroupBy int

const (
	ByAll GroupBy = iota
	BySkewness
	ByDataset
)

// RankCount tells how often a model reached each position.
type RankCount struct {
	Group    string  `json:"group,omitempty"`
	Model    string  `json:"model"`
	Counts   []int   `json:"counts"`
	Groups   int     `json:"groups"`
	MeanRank float64 `json:"mean_rank"`
}

// CountRanks tallies positions per model. Counts[i] is the number of groups
// in which the model ranked i+1; every Counts slice has the length of the
// largest position seen within its split.
func CountRanks(ranks []Rank, by GroupBy) []RankCount {
	type key struct{ group, model string }
	counts := map[key]*RankCount{}
	maxPos := map[string]int{}
	for _, r := range ranks {
		g := ""
		switch by {
		case BySkewness:
			g = r.Skewness
		case ByDataset:
			g = r.Dataset
		}
		k := key{g, r.Model}
		rc, ok := counts[k]
		if !ok {
			rc = &RankCount{Group: g, Model: r.Model}
			counts[k] = rc
		}
		for len(rc.Counts) < r.Position {
			rc.Counts = append(rc.Counts, 0)
		}
		rc.Counts[r.Position-1]++
		rc.Groups++
		rc.MeanRank += float64(r.Position)
		if r.Position > maxPos[g] {
			maxPos[g] = r.Position
		}
	}

	out := make([]RankCount, 0, len(counts))
	for _, rc := range counts {
		for len(rc.Counts) < maxPos[rc.Group] {
			rc.Counts = append(rc.Counts, 0)
		}
		rc.MeanRank /= float64(rc.Groups)
		out = append(out, *rc)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		if a.MeanRank != b.MeanRank {
			return a.MeanRank < b.MeanRank
		}
		return a.Model < b.Model
	})
	return out
}

// AlgorithmRanks lays out, for every model, its position in each group.
type AlgorithmRanks struct {
	// Groups are the (dataset, skewness) columns in sorted order.
	Groups [][2]string    `json:"groups"`
	Rows   []AlgorithmRow `json:"rows"`
}

type AlgorithmRow struct {
	Model     string  `json:"model"`
	Positions []int   `json:"positions"` // 0 where the model has no runs
	MeanRank  float64 `json:"mean_rank"`
}

// ByAlgorithm builds the per-model rank matrix.
func ByAlgorithm(ranks []Rank) AlgorithmRanks {
	seen := map[groupKey]bool{}
	var groups []groupKey
	rowsByModel := map[string]map[groupKey]int{}
	for _, r := range ranks {
		g := groupKey{r.Dataset, r.Skewness}
		if !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
		if rowsByModel[r.Model] == nil {
			rowsByModel[r.Model] = map[groupKey]int{}
		}
		rowsByModel[r.Model][g] = r.Position
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].dataset != groups[j].dataset {
			return groups[i].dataset < groups[j].dataset
		}
		return groups[i].skewness < groups[j].skewness
	})

	var out AlgorithmRanks
	for _, g := range groups {
		out.Groups = append(out.Groups, [2]string{g.dataset, g.skewness})
	}
	for model, byGroup := range rowsByModel {
		row := AlgorithmRow{Model: model, Positions: make([]int, len(groups))}
		for i, g := range groups {
			row.Positions[i] = byGroup[g]
		}
		var sum float64
		for _, p := range byGroup {
			sum += float64(p)
		}
		row.MeanRank = sum / float64(len(byGroup))
		out.Rows = append(out.Rows, row)
	}
	sort.Slice(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i], out.Rows[j]
		if a.MeanRank != b.MeanRank {
			return a.MeanRank < b.MeanRank
		}
		return a.Model < b.Model
	})
	return out
}
