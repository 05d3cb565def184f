package commands

import (
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create or drop the Postgres version tables",
}

var schemaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the version tables if they do not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, store, err := openPostgres(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := store.CreateSchema(ctx); err != nil {
			return printError("Cannot create schema", err.Error(), nil)
		}
		printSuccess(cmd.OutOrStdout(), "schema created")
		return nil
	},
}

var schemaDropYes bool

var schemaDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the version tables and every published version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !schemaDropYes {
			return printError("Refusing to drop schema", "This deletes every published version.", []string{"Pass --yes to confirm"})
		}
		ctx := cmd.Context()
		pool, store, err := openPostgres(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := store.DropSchema(ctx); err != nil {
			return printError("Cannot drop schema", err.Error(), nil)
		}
		printSuccess(cmd.OutOrStdout(), "schema dropped")
		return nil
	},
}

func init() {
	schemaDropCmd.Flags().BoolVar(&schemaDropYes, "yes", false, "Confirm dropping all tables")
	schemaCmd.AddCommand(schemaCreateCmd, schemaDropCmd)
	rootCmd.AddCommand(schemaCmd)
}
