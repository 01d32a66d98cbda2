package main

import (
	"github.com/spf13/cobra"

	"vellum/internal/config"
	"vellum/internal/models"
	"vellum/internal/store"
)

func newCollectionCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{Use: "collection", Short: "Manage collections"}
	cmd.AddCommand(
		newCollectionCreateCmd(cfg, jsonOutput),
		newCollectionListCmd(cfg, jsonOutput),
		newCollectionDeleteCmd(cfg),
	)
	return cmd
}

func newCollectionCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		description string
		color       string
		icon        string
		sortOrder   int
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection",
		Args:  requireExactlyArgs(1, "collection name is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(deps *appDeps) error {
				id, err := store.GenerateCollectionID(deps.Store.CollectionExists)
				if err != nil {
					return err
				}
				collection := &models.Collection{
					ID:          id,
					Name:        args[0],
					Description: description,
					Color:       color,
					Icon:        icon,
					SortOrder:   sortOrder,
				}
				if err := deps.Store.CreateCollection(cmd.Context(), collection); err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(collection)
				}
				return writePlain("%s  %s\n", collection.ID, collection.Name)
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "collection description")
	cmd.Flags().StringVar(&color, "color", "#6b7280", "display color")
	cmd.Flags().StringVar(&icon, "icon", "", "display icon")
	cmd.Flags().IntVar(&sortOrder, "sort-order", 0, "sort position")
	return cmd
}

func newCollectionListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(deps *appDeps) error {
				collections, err := deps.Store.ListCollections(cmd.Context())
				if err != nil {
					return err
				}
				return writeCollectionList(collections, *jsonOutput)
			})
		},
	}
}

func newCollectionDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a collection, detaching its notes",
		Args:  requireExactlyArgs(1, "collection id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(deps *appDeps) error {
				if err := deps.Store.DeleteCollection(cmd.Context(), args[0]); err != nil {
					return err
				}
				return writePlain("deleted %s\n", args[0])
			})
		},
	}
}
