package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zzl/go-mdparam/sqlstore"
)

func newExportCommand(root *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy the source module into a SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			module, closeSource, err := openSource(cfg, logger)
			if err != nil {
				return err
			}
			defer closeSource()

			store, err := sqlstore.Open(out, sqlstore.WithLogger(logger))
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.WriteModule(module); err != nil {
				return err
			}
			logger.Info("exported", zap.String("module", module.Name), zap.String("out", out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "mdparam.db", "sqlite database to write")
	return cmd
}
