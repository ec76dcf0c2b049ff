package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/infrastructure/clients/backendapi"
	"github.com/medly/scheduleconsole/pkg/config"
)

// snapshotCmd fetches one schedule snapshot and prints it as JSON
func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch a schedule snapshot from the backend and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			rangeName, _ := cmd.Flags().GetString("range")
			hospitalID, _ := cmd.Flags().GetInt64("hospital")
			backendURL, _ := cmd.Flags().GetString("backend")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if backendURL == "" {
				backendURL = cfg.Backend.BackendOrigin()
			}
			if date == "" {
				date = time.Now().In(cfg.Schedule.Location()).Format(entities.DateLayout)
			}

			q := entities.ScheduleQuery{Date: date, Range: entities.ScheduleRange(rangeName)}
			if hospitalID > 0 {
				q.HospitalID = &hospitalID
			}
			if err := q.Validate(); err != nil {
				return err
			}

			client := backendapi.NewClient(backendURL, cfg.Backend.Timeout)
			snap, err := client.FetchSchedule(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("fetch schedule: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
	cmd.Flags().String("date", "", "Day to fetch (YYYY-MM-DD), defaults to today")
	cmd.Flags().String("range", string(entities.ScheduleRangeDay), "Snapshot range: day or week")
	cmd.Flags().Int64("hospital", 0, "Restrict to one hospital id")
	cmd.Flags().String("backend", "", "Backend origin, overrides BACKEND_URL")
	return cmd
}
