package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"subgen/internal/services/separator"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var stemFilter string
	var limit int

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available vocal separation models ranked by quality",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			svc := separator.NewService(logger)
			models, err := svc.ListModels(cmd.Context(), strings.TrimSpace(stemFilter), limit)
			if err != nil {
				return err
			}
			if len(models) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No separation models available")
				return nil
			}

			sort.SliceStable(models, func(i, j int) bool {
				if models[i].HasSDR != models[j].HasSDR {
					return models[i].HasSDR
				}
				return models[i].SDR > models[j].SDR
			})

			rows := make([]table.Row, 0, len(models))
			for _, model := range models {
				sdr := "-"
				if model.HasSDR {
					sdr = fmt.Sprintf("%.2f", model.SDR)
				}
				rows = append(rows, table.Row{
					model.Name,
					model.Filename,
					strings.Join(model.Stems, ", "),
					sdr,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				table.Row{"Model", "Filename", "Stems", "SDR"}, rows, 4))
			return nil
		},
	}

	cmd.Flags().StringVar(&stemFilter, "stem", "", "Only list models serving this stem (e.g. vocals)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of models to request")
	return cmd
}
