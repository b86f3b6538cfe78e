package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the repository cache",
	}
	cmd.AddCommand(newCacheClearCmd(flags))
	return cmd
}

func newCacheClearCmd(flags *rootFlags) *cobra.Command {
	var revision string

	cmd := &cobra.Command{
		Use:   "clear [reference]",
		Short: "Remove cache entries",
		Long: `Remove cache entries.

With no arguments the entire cache is cleared. With a reference, every
cached revision of that reference is removed; add --revision to remove a
single entry.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHub(flags)
			if err != nil {
				return err
			}

			reference := ""
			if len(args) == 1 {
				reference = args[0]
			}

			if err := h.Loader().Invalidate(reference, revision); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	}

	cmd.Flags().StringVarP(&revision, "revision", "r", "",
		"remove only this revision of the reference")
	return cmd
}
