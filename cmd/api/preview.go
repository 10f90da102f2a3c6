package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cimillas/interview-slots/internal/app"
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Slot table utilities",
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the slots a schedule would generate without storing them",
	Example: "  api slots preview --from 2025-03-03 --to 2025-03-07 --day-start 09:00 --day-end 10:00 \\\n" +
		"    --weekdays monday,wednesday,friday --duration 30",
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		tz, _ := flags.GetString("timezone")
		fromValue, _ := flags.GetString("from")
		toValue, _ := flags.GetString("to")

		from, err := app.ParseScheduleDay(fromValue, tz)
		if err != nil {
			return err
		}
		to, err := app.ParseScheduleDay(toValue, tz)
		if err != nil {
			return err
		}
		dayStart, _ := flags.GetString("day-start")
		dayEnd, _ := flags.GetString("day-end")
		weekdays, _ := flags.GetStringSlice("weekdays")
		duration, _ := flags.GetInt("duration")
		capacity, _ := flags.GetInt("capacity")

		slots, err := app.PreviewSlots(app.PreviewSlotsInput{
			From:            from,
			To:              to,
			DayStart:        dayStart,
			DayEnd:          dayEnd,
			Weekdays:        weekdays,
			DurationMinutes: duration,
			Capacity:        capacity,
			Timezone:        tz,
		})
		if err != nil {
			return err
		}

		if asJSON, _ := flags.GetBool("output-json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"slots": slots})
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tSTART\tEND\tCAPACITY")
		for i, slot := range slots {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i, slot.Start.Format("2006-01-02 15:04 MST"), slot.End.Format("15:04 MST"), slot.Capacity)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(slotsCmd)
	slotsCmd.AddCommand(previewCmd)

	previewCmd.Flags().String("from", "", "first day, YYYY-MM-DD")
	previewCmd.Flags().String("to", "", "last day, YYYY-MM-DD (inclusive)")
	previewCmd.Flags().String("day-start", "09:00", "daily window start, HH:MM")
	previewCmd.Flags().String("day-end", "17:00", "daily window end, HH:MM")
	previewCmd.Flags().StringSlice("weekdays", []string{"monday", "tuesday", "wednesday", "thursday", "friday"}, "working weekdays")
	previewCmd.Flags().Int("duration", 30, "interview length in minutes; slots add a 5 minute buffer")
	previewCmd.Flags().Int("capacity", 0, "candidates per slot (0 means the default)")
	previewCmd.Flags().String("timezone", "", "IANA zone of the schedule (default UTC)")
	previewCmd.Flags().Bool("output-json", false, "print JSON instead of a table")

	_ = previewCmd.MarkFlagRequired("from")
	_ = previewCmd.MarkFlagRequired("to")
}
