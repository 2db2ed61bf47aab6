package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the period catalog",
	}

	var (
		file   string
		slots  string
		output string
	)
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the catalog the API would load",
		Long: `Resolve the catalog the same way the API does: --file wins over --slots,
and with neither the built-in nine-period day is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := config.TimetableConfig{CatalogFile: file, TimeSlots: slots}.Catalog()
			if err != nil {
				return err
			}
			return writeCatalog(cmd.OutOrStdout(), catalog, output)
		},
	}
	show.Flags().StringVar(&file, "file", "", "YAML catalog file")
	show.Flags().StringVar(&slots, "slots", "", `comma separated periods, e.g. "08:00-08:35,08:40-09:15"`)
	show.Flags().StringVarP(&output, "output", "o", "table", "table, json or yaml")

	var plan timetable.CatalogPlan
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a catalog from a start time and period lengths",
		Example: `  timetablectl catalog plan --start 07:30 --lectures 8 --minutes 40 --gap 5 \
    --long-break-after 4 --long-break 20 -o yaml > catalog.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := plan.Build()
			if err != nil {
				return err
			}
			return writeCatalog(cmd.OutOrStdout(), catalog, output)
		},
	}
	planCmd.Flags().StringVar(&plan.Start, "start", "08:00", "first lecture start, HH:MM")
	planCmd.Flags().IntVar(&plan.Lectures, "lectures", 9, "number of lectures")
	planCmd.Flags().IntVar(&plan.LectureMinutes, "minutes", 35, "lecture length in minutes")
	planCmd.Flags().IntVar(&plan.GapMinutes, "gap", 5, "gap between lectures in minutes")
	planCmd.Flags().IntVar(&plan.LongBreakAfter, "long-break-after", 0, "lecture followed by the long break")
	planCmd.Flags().IntVar(&plan.LongBreakMinutes, "long-break", 0, "long break length in minutes")
	planCmd.Flags().StringVarP(&output, "output", "o", "table", "table, json or yaml")

	cmd.AddCommand(show, planCmd)
	return cmd
}

func writeCatalog(w io.Writer, catalog timetable.Catalog, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]timetable.Catalog{"slots": catalog}); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LECTURE\tSTART\tEND")
		for _, slot := range catalog {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", slot.LectureNumber, slot.StartTime, slot.EndTime)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output %q", output)
	}
}
