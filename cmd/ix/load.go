package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/interaxions/interaxions/hub"
)

func newLoadCmd(flags *rootFlags) *cobra.Command {
	var revision string
	var force bool

	cmd := &cobra.Command{
		Use:   "load <reference> <module>",
		Short: "Load a module manifest from a repository and print its components",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHub(flags)
			if err != nil {
				return err
			}

			var opts []hub.ResolveOption
			if force {
				opts = append(opts, hub.WithForceReload())
			}

			unit, err := h.Loader().Load(cmd.Context(), args[0], args[1], revision, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "identity:", unit.Identity)
			fmt.Fprintln(out, "manifest:", unit.Path)
			for _, doc := range unit.Components() {
				fmt.Fprintf(out, "component: kind=%s name=%s\n", doc.Kind, doc.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&revision, "revision", "r", "",
		"revision to load from (default: the repository's default branch)")
	cmd.Flags().BoolVar(&force, "force", false,
		"discard cached state and load again")
	return cmd
}
