package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-homeval/pkg/renderers/tui"
	"github.com/goliatone/go-homeval/pkg/wizard"
)

func newPredictCmd(c *cli) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Fill in the property form and request a price estimate",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			var opts []wizard.Option
			if from != "" {
				rec, ok := app.History.Get(from)
				if !ok {
					return fmt.Errorf("no prediction with id %q", from)
				}
				opts = append(opts, wizard.WithPrefill(app.Prefill(rec)))
			}

			ctrl, err := app.NewWizard(opts...)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			_, err = c.session(cmd.OutOrStdout()).RunWizard(ctx, ctrl)
			if errors.Is(err, tui.ErrCancelled) || errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start from the inputs of a saved prediction")
	return cmd
}
