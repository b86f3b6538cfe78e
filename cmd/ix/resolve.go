package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/interaxions/interaxions/hub"
)

func newResolveCmd(flags *rootFlags) *cobra.Command {
	var revision string
	var force bool

	cmd := &cobra.Command{
		Use:   "resolve <reference>",
		Short: "Resolve a repository into the cache and print its path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHub(flags)
			if err != nil {
				return err
			}

			var opts []hub.ResolveOption
			if force {
				opts = append(opts, hub.WithForceReload())
			}

			dir, err := h.Cache().Resolve(cmd.Context(), args[0], revision, opts...)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), dir)
			if md, err := h.Cache().Metadata(args[0], revision); err == nil && md != nil && md.Commit != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "commit:", md.Commit)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&revision, "revision", "r", "",
		"revision to materialize (default: the repository's default branch)")
	cmd.Flags().BoolVar(&force, "force", false,
		"discard any cached entry and materialize again")
	return cmd
}
