package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "timetablectl",
		Short: "Operator tooling for the SMA timetable",
		Long: `Inspect the period catalog, encode and decode grid slot ids and render
timetable exports straight from the database.`,
		SilenceUsage: true,
	}
	root.AddCommand(newSlotCmd(), newCatalogCmd(), newExportCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
