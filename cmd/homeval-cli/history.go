package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-homeval/pkg/renderers/tui"
	"github.com/goliatone/go-homeval/pkg/report"
)

func newHistoryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, delete and export saved predictions",
	}
	cmd.AddCommand(
		newHistoryListCmd(c),
		newHistoryDeleteCmd(c),
		newHistoryExportCmd(c),
	)
	return cmd
}

func newHistoryListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show saved predictions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			records := app.History.Records()
			if len(records) == 0 {
				fmt.Fprintln(out, "No predictions yet.")
				return nil
			}
			for _, rec := range records {
				id := rec.ID
				if id == "" {
					id = "-"
				}
				fmt.Fprintf(out, "%s  %s\n", id, tui.RecordSummary(rec))
			}
			return nil
		},
	}
}

func newHistoryDeleteCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a saved prediction, or pick one interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if len(args) == 0 {
				return c.session(cmd.OutOrStdout()).ReviewHistory(ctx, app.History)
			}

			id := args[0]
			rec, ok := app.History.Get(id)
			if !ok {
				return fmt.Errorf("no prediction with id %q", id)
			}
			if err := app.History.MarkForDelete(id); err != nil {
				return err
			}
			if !yes {
				confirmed, err := c.prompts(cmd.OutOrStdout()).Confirm(ctx, tui.ConfirmConfig{
					Message: fmt.Sprintf("Delete %s?", tui.RecordSummary(rec)),
				})
				if err != nil || !confirmed {
					app.History.CancelDelete()
					return err
				}
			}
			if _, err := app.History.ConfirmDelete(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking for confirmation")
	return cmd
}

func newHistoryExportCmd(c *cli) *cobra.Command {
	var (
		format string
		output string
		title  string
		note   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the prediction history as text, HTML or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			app, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			engine, err := report.NewEngine(report.WithTemplateDir(c.cfg.Report.TemplateDir))
			if err != nil {
				return err
			}
			exporter, err := report.NewExporter(engine)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer file.Close()
				w = file
			}
			return exporter.Export(w, app.History.Records(), report.Options{
				Format: f,
				Title:  strings.TrimSpace(title),
				Note:   note,
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, html or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().StringVar(&title, "title", "", "report title")
	cmd.Flags().StringVar(&note, "note", "", "note placed under the title; basic HTML is kept in html output")
	return cmd
}
