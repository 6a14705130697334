package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zzl/go-mdparam/printer"
)

func newDumpCommand(root *rootOptions) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print methods and their parameters in IL syntax",
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

			p := printer.NewPrinter()
			p.ShowTokens = cfg.Output.Tokens
			out := cmd.OutOrStdout()
			if method == "" {
				code, err := p.PrintModule(module)
				if err != nil {
					return err
				}
				fmt.Fprint(out, code)
				return nil
			}
			var found int
			for _, m := range module.Methods() {
				if m.Name != method && m.FullName() != method {
					continue
				}
				code, err := p.PrintMethod(m)
				if err != nil {
					return err
				}
				fmt.Fprint(out, code)
				found++
			}
			logger.Debug("methods printed", zap.String("method", method), zap.Int("count", found))
			if found == 0 {
				return errors.Errorf("method %q not found in %s", method, module.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "print only methods with this name or full name")
	cmd.Flags().Bool("tokens", false, "show metadata tokens")
	bind(root.v, cmd.Flags().Lookup("tokens"), "output.tokens")
	return cmd
}
