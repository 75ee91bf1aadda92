package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/DukeRupert/relance/internal"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one cadence batch and print its summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		w, err := a.worker()
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}

		summary, err := w.RunOnce(cmd.Context())
		if summary != nil {
			if encErr := printJSON(cmd, summary); encErr != nil {
				return encErr
			}
		}
		return err
	},
}

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Release cadence events whose claim has timed out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		w, err := a.worker()
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}

		n, err := w.ReapOrphans(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "released %d orphaned events\n", n)
		return nil
	},
}

var entitlementsCmd = &cobra.Command{
	Use:   "entitlements <organization-id>",
	Short: "Print the resolved entitlements of an organization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid organization id %q: %w", args[0], err)
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ent, err := a.entitlements().ForOrganization(cmd.Context(), orgID)
		if err != nil {
			return err
		}
		return printJSON(cmd, ent)
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events <quote-id>",
	Short: "List the cadence events of a quote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quoteID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid quote id %q: %w", args[0], err)
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.repo.ListCadenceEventsByQuote(cmd.Context(), quoteID)
		if err != nil {
			return err
		}
		writeEvents(cmd.OutOrStdout(), events)
		return nil
	},
}

// writeEvents prints one line per event with the reason it stopped, if any.
func writeEvents(out io.Writer, events []repository.CadenceEvent) {
	if len(events) == 0 {
		fmt.Fprintln(out, "no cadence events")
		return
	}
	for _, ev := range events {
		reason := ev.SkipReason.String
		if ev.CancelReason.Valid {
			reason = ev.CancelReason.String
		}
		if ev.ErrorMessage.Valid {
			reason = ev.ErrorMessage.String
		}
		fmt.Fprintf(out, "%-10s %-10s %s  %s\n", ev.EventType, ev.Status, ev.ScheduledFor.UTC().Format(time.RFC3339), reason)
	}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if statusOnly, _ := cmd.Flags().GetBool("status"); statusOnly {
			statuses, err := internal.MigrationStatus(cmd.Context(), a.db)
			if err != nil {
				return err
			}
			for _, st := range statuses {
				applied := ""
				if !st.AppliedAt.IsZero() {
					applied = st.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%5d  %-8s %-25s %s\n", st.Source.Version, st.State, applied, st.Source.Path)
			}
			return nil
		}

		version, err := internal.RunMigrations(cmd.Context(), a.db, a.logger)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("status", false, "list migrations and their state instead of applying them")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
