package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Formats lists the accepted output formats.
var Formats = []string{"table", "markdown", "csv", "json"}

// Table is a titled grid of already formatted cells.
type Table struct {
	Title  string     `json:"title"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Write renders tables in the given format.
func Write(w io.Writer, format string, tables []Table) error {
	switch format {
	case "markdown":
		return writeMarkdown(tables, w)
	case "csv":
		return writeCSV(tables, w)
	case "json":
		return writeJSON(tables, w)
	case "table", "":
		return writeTable(tables, w)
	}
	return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

func writeTable(tables []Table, w io.Writer) error {
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if t.Title != "" {
			fmt.Fprintln(w, t.Title)
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.ToUpper(strings.Join(t.Header, "\t")))
		fmt.Fprintln(tw, strings.Repeat("-", ruleWidth(t)))
		for _, row := range t.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func ruleWidth(t Table) int {
	width := 0
	for c, h := range t.Header {
		cw := len(h)
		for _, row := range t.Rows {
			if c < len(row) && len(row[c]) > cw {
				cw = len(row[c])
			}
		}
		width += cw + 2
	}
	return width
}

func writeMarkdown(tables []Table, w io.Writer) error {
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if t.Title != "" {
			fmt.Fprintf(w, "### %s\n\n", t.Title)
		}
		fmt.Fprintf(w, "| %s |\n", markdownRow(t.Header))
		fmt.Fprintf(w, "|%s\n", strings.Repeat("---|", len(t.Header)))
		for _, row := range t.Rows {
			fmt.Fprintf(w, "| %s |\n", markdownRow(row))
		}
	}
	return nil
}

func markdownRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return strings.Join(escaped, " | ")
}

// writeCSV prefixes every row with the table title so several tables can
// share one file. A header row is written whenever the columns change, and
// rows are padded to the widest table so the file stays rectangular.
func writeCSV(tables []Table, w io.Writer) error {
	width := 0
	for _, t := range tables {
		width = max(width, len(t.Header))
		for _, row := range t.Rows {
			width = max(width, len(row))
		}
	}
	pad := func(first string, cells []string) []string {
		rec := make([]string, width+1)
		rec[0] = first
		copy(rec[1:], cells)
		return rec
	}

	cw := csv.NewWriter(w)
	var prev []string
	for i, t := range tables {
		if i == 0 || !slices.Equal(prev, t.Header) {
			if err := cw.Write(pad("table", t.Header)); err != nil {
				return err
			}
			prev = t.Header
		}
		for _, row := range t.Rows {
			if err := cw.Write(pad(t.Title, row)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(tables []Table, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tables)
}

func f3(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// AveragesTables renders one table per dataset.
func AveragesTables(avgs []Average) []Table {
	var tables []Table
	for _, a := range avgs {
		if len(tables) == 0 || tables[len(tables)-1].Title != "Dataset: "+a.Dataset {
			tables = append(tables, Table{
				Title:  "Dataset: " + a.Dataset,
				Header: []string{"Skewness", "Model", "Mean F1", "Std", "Runs"},
			})
		}
		t := &tables[len(tables)-1]
		t.Rows = append(t.Rows, []string{a.Skewness, a.Model, f3(a.MeanF1), f3(a.StdF1), strconv.Itoa(a.Runs)})
	}
	return tables
}

// RankCountTables renders one table per split of CountRanks.
func RankCountTables(counts []RankCount, title string) []Table {
	var tables []Table
	var cur string
	for i, rc := range counts {
		if i == 0 || rc.Group != cur {
			cur = rc.Group
			header := []string{"Model"}
			for p := 1; p <= len(rc.Counts); p++ {
				header = append(header, "#"+strconv.Itoa(p))
			}
			header = append(header, "Groups", "Mean rank")
			name := title
			if rc.Group != "" {
				name = fmt.Sprintf("%s: %s", title, rc.Group)
			}
			tables = append(tables, Table{Title: name, Header: header})
		}
		row := []string{rc.Model}
		for _, c := range rc.Counts {
			row = append(row, strconv.Itoa(c))
		}
		row = append(row, strconv.Itoa(rc.Groups), f3(rc.MeanRank))
		t := &tables[len(tables)-1]
		t.Rows = append(t.Rows, row)
	}
	return tables
}

// AlgorithmTable renders the per-model rank matrix; columns are
// dataset/skewness pairs.
func AlgorithmTable(ar AlgorithmRanks) Table {
	t := Table{Title: "Ranks by algorithm", Header: []string{"Model"}}
	for _, g := range ar.Groups {
		t.Header = append(t.Header, g[0]+"/"+g[1])
	}
	t.Header = append(t.Header, "Mean rank")
	for _, r := range ar.Rows {
		row := []string{r.Model}
		for _, p := range r.Positions {
			if p == 0 {
				row = append(row, "-")
			} else {
				row = append(row, strconv.Itoa(p))
			}
		}
		row = append(row, f3(r.MeanRank))
		t.Rows = append(t.Rows, row)
	}
	return t
}
