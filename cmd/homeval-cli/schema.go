package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-homeval/pkg/formschema"
	"github.com/goliatone/go-homeval/pkg/validation"
)

func newSchemaCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect and check form schemas",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List bundled schemas",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := formschema.LoadDefault()
				if err != nil {
					return err
				}
				for _, name := range store.Names() {
					schema, _ := store.Schema(name)
					line := name
					if schema.Deprecated {
						line += " (deprecated)"
					}
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show [name]",
			Short: "Print a schema as YAML; defaults to the configured one",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ref := c.cfg.Form.Schema
				if len(args) == 1 {
					ref = args[0]
				}
				schema, err := formschema.Resolve(ref)
				if err != nil {
					return err
				}
				out, err := yaml.Marshal(schema)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			},
		},
		&cobra.Command{
			Use:   "check <file>",
			Short: "Check that a schema file can drive the form",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				raw, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				result := validation.CheckSchema(raw, args[0])
				out := cmd.OutOrStdout()
				for _, issue := range result.Issues {
					if issue.Field != "" {
						fmt.Fprintf(out, "%s: %s\n", issue.Field, issue.Message)
						continue
					}
					fmt.Fprintln(out, issue.Message)
				}
				if !result.Valid {
					return fmt.Errorf("%s is not a usable schema", args[0])
				}
				fmt.Fprintf(out, "%s: ok (%s)\n", args[0], result.Name)
				return nil
			},
		},
	)
	return cmd
}
