package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bft-labs/lifepad/internal/cliconfig"
	"github.com/bft-labs/lifepad/internal/peripheral"
	"github.com/bft-labs/lifepad/plugins/journal"
)

func newPeripheralsCmd(cfg *cliconfig.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "peripherals",
		Short: "Print the effective peripheral table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadPeripherals(cfg.TablePath)
			if err != nil {
				return err
			}
			out, err := peripheral.Marshal(table)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newJournalCmd(cfg *cliconfig.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recent connection events from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.JournalPath == "" {
				return fmt.Errorf("journal path is required (--journal or journal in the config file)")
			}
			if !cliconfig.FileExists(cfg.JournalPath) {
				return fmt.Errorf("journal %s not found", cfg.JournalPath)
			}
			store, err := journal.Open(cfg.JournalPath)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, e := range entries {
				line := fmt.Sprintf("%s  %-17s  %-5s  %-7s  %s -> %s",
					e.At.Format("2006-01-02T15:04:05.000Z07:00"), e.Address, e.Direction, e.Kind, e.Previous, e.Current)
				if e.Retries > 0 {
					line += fmt.Sprintf("  retries=%d", e.Retries)
				}
				if e.Error != "" {
					line += "  error=" + e.Error
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")
	return cmd
}
