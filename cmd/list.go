package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wiredom/wiredom/pkg/wiredom"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List registered components",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		c, err := buildContainer(newLogger(cfg))
		if err != nil {
			return err
		}

		reg, err := wiredom.Registry(c)
		if err != nil {
			return err
		}

		names := reg.GetAllNames()
		sort.Strings(names)

		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No components registered.")
			return nil
		}

		for _, name := range names {
			entry, ok := reg.GetType(name)
			if !ok {
				continue
			}
			mode := "sync"
			if entry.Async {
				mode = "async"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-8s %-6s %s\n", name, entry.Kind, mode, entry.Type)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
