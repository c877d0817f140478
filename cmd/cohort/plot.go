package main

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/mriCohort/cohort"
	"github.com/Noofbiz/mriCohort/split"
)

var roleColors = map[split.Role]color.Color{
	split.Train: color.RGBA{R: 20, G: 80, B: 200, A: 255},
	split.Valid: color.RGBA{R: 200, G: 30, B: 30, A: 255},
	split.Test:  color.RGBA{R: 40, G: 120, B: 40, A: 255},
}

func plotCmd() *cobra.Command {
	var outDir string
	var iteration int

	cmd := &cobra.Command{
		Use:   "plot <tsv>",
		Short: "Chart the baseline diagnosis distribution of each split set",
		Long: `Write a PNG bar chart with, for every diagnosis, the number of subjects
of each set of the configured split. Stratification keeps the bars of one set
proportional to the others.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeCache, err := openCache()
			if err != nil {
				return err
			}
			defer closeCache()

			nSplits := viper.GetInt("split.n_splits")
			valSize := viper.GetFloat64("split.val_size")
			var paths split.Paths
			if nSplits == 0 {
				paths, err = cache.Resolve(cmd.Context(), args[0], valSize)
			} else {
				paths, err = cache.ResolveFold(cmd.Context(), args[0], nSplits, valSize, iteration)
			}
			if err != nil {
				return err
			}
			tables, err := loadRoles(paths)
			if err != nil {
				return err
			}

			outPath := filepath.Join(outDir, fmt.Sprintf("split_distribution_iteration-%d.png", iteration))
			if err := plotDistribution(outPath, tables); err != nil {
				return err
			}
			slog.Info("Wrote split distribution", "path", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "output", "output directory")
	cmd.Flags().IntVar(&iteration, "fold", 0, "fold to plot (with --n-splits)")
	return cmd
}

// baselineCounts returns, per role, the number of baseline subjects of each
// diagnosis in the order of diagnoses, and the sorted diagnoses seen.
func baselineCounts(tables map[split.Role]*cohort.Table) (map[split.Role]plotter.Values, []string, error) {
	perRole := make(map[split.Role]map[string]int)
	var diagnoses []string
	for role, t := range tables {
		baseline, err := t.Baseline()
		if err != nil {
			return nil, nil, err
		}
		counts := baseline.DiagnosisCounts()
		perRole[role] = counts
		for d := range counts {
			if !slices.Contains(diagnoses, d) {
				diagnoses = append(diagnoses, d)
			}
		}
	}
	slices.Sort(diagnoses)

	values := make(map[split.Role]plotter.Values, len(perRole))
	for role, counts := range perRole {
		v := make(plotter.Values, len(diagnoses))
		for i, d := range diagnoses {
			v[i] = float64(counts[d])
		}
		values[role] = v
	}
	return values, diagnoses, nil
}

// plotDistribution writes a grouped bar chart of baseline diagnosis counts.
func plotDistribution(outPath string, tables map[split.Role]*cohort.Table) error {
	values, diagnoses, err := baselineCounts(tables)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Baseline diagnoses per set"
	p.Y.Label.Text = "subjects"

	width := vg.Points(14)
	var present []split.Role
	for _, role := range roles {
		if _, ok := values[role]; ok {
			present = append(present, role)
		}
	}
	for i, role := range present {
		bars, err := plotter.NewBarChart(values[role], width)
		if err != nil {
			return err
		}
		bars.Color = roleColors[role]
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(float64(i)-float64(len(present)-1)/2) * width
		p.Add(bars)
		p.Legend.Add(string(role), bars)
	}
	p.Legend.Top = true
	p.NominalX(diagnoses...)
	p.Add(plotter.NewGrid())

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, outPath)
}
