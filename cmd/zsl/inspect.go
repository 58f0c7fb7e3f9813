package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/zeroshoteval/dataset"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load a benchmark and print its splits",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader(cmd)
		if err != nil {
			return err
		}
		renderSplits(cmd, loader)
		renderClasses(cmd, loader)
		return nil
	},
}

func initInspect() {
	rootCmd.AddCommand(inspectCmd)
}

func renderSplits(cmd *cobra.Command, loader *dataset.Loader) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetTitle(fmt.Sprintf("%s splits (%s)", loader.Name(), loader.Dir()))
	t.AppendHeader(table.Row{"Split", "Samples", "Features", "Classes", "Auxiliary"})
	for _, name := range dataset.SplitNames() {
		s, err := loader.Split(name)
		if err != nil {
			continue
		}
		aux := "-"
		if s.HasAuxiliary() {
			_, c := s.Auxiliary.Dims()
			aux = fmt.Sprintf("%d", c)
		}
		t.AppendRow(table.Row{name, s.Len(), s.FeatureDim(), len(s.ClassCounts()), aux})
	}
	t.Render()
}

func renderClasses(cmd *cobra.Command, loader *dataset.Loader) {
	_, auxDim := loader.AuxData().Dims()
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetTitle("Classes")
	t.AppendRows([]table.Row{
		{"Seen classes", loader.NTrainClass()},
		{"Unseen classes", loader.NTestClass()},
		{"Auxiliary source", loader.Config().AuxiliarySource},
		{"Auxiliary dimension", auxDim},
		{"train_loc / val_loc", fmt.Sprintf("%d / %d", len(loader.TrainLoc()), len(loader.ValLoc()))},
		{"Device", loader.Device().Name()},
		{"Seed", loader.Seed()},
	})
	t.Render()
}
