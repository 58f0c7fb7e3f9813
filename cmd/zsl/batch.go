package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Draw one training batch and check its auxiliary rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader(cmd)
		if err != nil {
			return err
		}
		b, err := loader.NextBatch(globalConfig.BatchSize)
		if err != nil {
			return err
		}

		aux := loader.AuxData()
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetTitle(fmt.Sprintf("Batch of %d from %s", b.Len(), loader.Name()))
		t.AppendHeader(table.Row{"#", "Sample", "Label", "Auxiliary matches"})
		for i, label := range b.Labels {
			ok := floats.Equal(b.Auxiliary.RawRowView(i), aux.RawRowView(label))
			t.AppendRow(table.Row{i, b.Indices[i], label, ok})
		}
		t.Render()

		if globalConfig.Tensors {
			p, err := loader.NextBatchTensors(globalConfig.BatchSize)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "placed batch on %s: features %T, auxiliary %T\n",
				p.Device, p.Features, p.Auxiliary)
		}
		return nil
	},
}

func initBatch() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.PersistentFlags().IntVarP(&globalConfig.BatchSize,
		"size", "n", 64, "batch size")
	batchCmd.PersistentFlags().BoolVar(&globalConfig.Tensors,
		"tensors", false, "also draw a batch placed on --device")
}
