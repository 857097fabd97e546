package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/sidecar/internal/sidecar"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Print the executable a sidecar name resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		l := sidecar.ExecLauncher{
			SearchDirs: append(append([]string{}, runDirs...), cfg.GetSearchDirs()...),
		}
		path, err := l.Resolve(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringArrayVar(&runDirs, "dir", nil, "directory to search for the worker binary (repeatable)")
	rootCmd.AddCommand(resolveCmd)
}
