package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-timetable-api/pkg/timetable"
)

func newSlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Encode and decode grid slot ids",
	}

	var (
		day     string
		lecture int
		classID string
	)
	encode := &cobra.Command{
		Use:   "encode",
		Short: "Build the slot id of a grid cell",
		Example: `  timetablectl slot encode --day monday --lecture 3 --class 7B
  Monday-3-7B`,
		RunE: func(cmd *cobra.Command, args []string) error {
			weekday, ok := timetable.ParseWeekday(day)
			if !ok {
				return fmt.Errorf("unknown day %q", day)
			}
			id, err := timetable.EncodeSlotID(weekday, lecture, classID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	encode.Flags().StringVar(&day, "day", "", "weekday, Monday to Saturday")
	encode.Flags().IntVar(&lecture, "lecture", 0, "lecture number")
	encode.Flags().StringVar(&classID, "class", "", "class id")
	_ = encode.MarkFlagRequired("day")
	_ = encode.MarkFlagRequired("lecture")
	_ = encode.MarkFlagRequired("class")

	decode := &cobra.Command{
		Use:   "decode <slot-id>...",
		Short: "Split slot ids into day, lecture and class",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				key, err := timetable.DecodeSlotID(raw)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tday=%s lecture=%d class=%s\n", raw, key.Day, key.LectureNumber, key.ClassID)
			}
			return nil
		},
	}

	cmd.AddCommand(encode, decode)
	return cmd
}
