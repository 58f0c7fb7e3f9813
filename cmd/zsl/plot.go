package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/zeroshoteval/dataset"
	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot per-class sample counts of every split",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader(cmd)
		if err != nil {
			return err
		}
		if err := plotClassCounts(loader, globalConfig.PlotOut); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "class distribution written to %s\n", globalConfig.PlotOut)
		return nil
	},
}

func initPlot() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.PersistentFlags().StringVarP(&globalConfig.PlotOut,
		"out", "o", "classes.png", "output image, format from the extension")
}

// plotClassCounts draws one bar group per class with a bar per split.
func plotClassCounts(loader *dataset.Loader, out string) error {
	classes := slices.Concat(loader.SeenClasses(), loader.NovelClasses())
	slices.Sort(classes)
	classes = slices.Compact(classes)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s samples per class", loader.Name())
	p.Y.Label.Text = "samples"
	p.X.Label.Text = "class"

	splits := []dataset.SplitName{dataset.TrainSeen, dataset.TestSeen, dataset.TestUnseen}
	width := vg.Points(18) / vg.Length(len(splits))
	for i, name := range splits {
		s, err := loader.Split(name)
		if err != nil {
			return err
		}
		counts := s.ClassCounts()
		values := make(plotter.Values, len(classes))
		for j, c := range classes {
			values[j] = float64(counts[c])
		}

		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return errors.Wrapf(err, "bar chart for %s", name)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = width * vg.Length(i-len(splits)/2)
		p.Add(bars)
		p.Legend.Add(string(name), bars)
	}
	p.Legend.Top = true

	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = strconv.Itoa(c)
	}
	p.NominalX(names...)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, out); err != nil {
		return errors.NewIOError("write", out, err)
	}
	return nil
}
