package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"logfactory/internal/config"
	"logfactory/internal/sink"
	"logfactory/pkg/logx"
)

func newCheckCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config and list the outputs it produces",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewManager(*configPath).Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logx.NewFactory(sink.Defaults()).New(*cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			fmt.Fprintln(cmd.OutOrStdout(), renderOutputs(log.Outputs()))
			return nil
		},
	}
}

func renderOutputs(outputs []logx.Output) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Output", "Min level"})
	for i, o := range outputs {
		tw.AppendRow(table.Row{i + 1, o.Name(), strings.ToUpper(o.Level().String())})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
