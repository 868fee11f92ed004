package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newCollectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List collections with their stored record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, closeFn, err := openContainer()
			if err != nil {
				return err
			}
			defer closeFn()

			cols, err := container.CollectionService.List(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Type", "Count", "Creator", "Created"})
			for _, c := range cols {
				t.AppendRow(table.Row{c.Id, c.Name, c.Meta.DataType, c.Count, c.Creator, c.CreatedAt.Format("2006-01-02")})
			}
			t.Render()
			return nil
		},
	}
}

func newRecountCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "recount [collection-id...]",
		Short: "Repair stored record counts from the collection tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("pass collection ids or --all")
			}

			container, closeFn, err := openContainer()
			if err != nil {
				return err
			}
			defer closeFn()

			var ids []uuid.UUID
			if all {
				cols, err := container.CollectionService.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range cols {
					ids = append(ids, c.Id)
				}
			} else {
				for _, arg := range args {
					id, err := uuid.Parse(arg)
					if err != nil {
						return fmt.Errorf("invalid collection id %q: %w", arg, err)
					}
					ids = append(ids, id)
				}
			}

			for _, id := range ids {
				res, err := container.CollectionService.Recount(cmd.Context(), id)
				if err != nil {
					color.Red("%s: %v", id, err)
					continue
				}
				if res.Previous == res.Count {
					color.Green("%s: %d (unchanged)", id, res.Count)
				} else {
					color.Yellow("%s: %d -> %d", id, res.Previous, res.Count)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Recount every collection")
	return cmd
}
