package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vellum/internal/config"
	"vellum/internal/models"
	"vellum/internal/store"
)

type noteCreateOptions struct {
	content      string
	collectionID string
}

func newNoteCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{Use: "note", Short: "Manage notes"}
	cmd.AddCommand(
		newNoteCreateCmd(cfg, jsonOutput),
		newNoteListCmd(cfg, jsonOutput),
		newNoteShowCmd(cfg, jsonOutput),
		newNoteUpdateCmd(cfg, jsonOutput),
		newNoteDeleteCmd(cfg),
	)
	return cmd
}

func newNoteCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &noteCreateOptions{}
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a note",
		Args:  requireExactlyArgs(1, "title is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(deps *appDeps) error {
				id, err := store.GenerateNoteID(deps.Store.NoteExists)
				if err != nil {
					return err
				}
				note := &models.Note{
					ID:           id,
					Title:        args[0],
					ContentJSON:  opts.content,
					CollectionID: opts.collectionID,
				}
				if err := deps.Store.CreateNote(cmd.Context(), note); err != nil {
					return err
				}
				return writeNote(note, *jsonOutput)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.content, "content", "c", "", "note content as JSON document")
	cmd.Flags().StringVar(&opts.collectionID, "collection", "", "collection id")
	return cmd
}

func newNoteListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var collectionID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(deps *appDeps) error {
				notes, err := deps.Store.ListNotes(cmd.Context(), collectionID)
				if err != nil {
					return err
				}
				return writeNoteList(notes, *jsonOutput)
			})
		},
	}
	cmd.Flags().StringVar(&collectionID, "collection", "", "filter by collection id")
	return cmd
}

func newNoteShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a note",
		Args:  requireExactlyArgs(1, "note id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(deps *appDeps) error {
				note, err := deps.Store.GetNote(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeNote(note, *jsonOutput)
			})
		},
	}
}

func newNoteUpdateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		title        string
		content      string
		collectionID string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a note",
		Args:  requireExactlyArgs(1, "note id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := store.NoteUpdate{}
			if cmd.Flags().Changed("title") {
				if strings.TrimSpace(title) == "" {
					return fmt.Errorf("title cannot be empty")
				}
				update.Title = &title
				modified := true
				update.TitleModified = &modified
			}
			if cmd.Flags().Changed("content") {
				update.ContentJSON = &content
			}
			if cmd.Flags().Changed("collection") {
				update.CollectionID = &collectionID
			}

			return withStore(cfg, func(deps *appDeps) error {
				if err := deps.Store.UpdateNote(cmd.Context(), args[0], update); err != nil {
					return err
				}
				note, err := deps.Store.GetNote(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeNote(note, *jsonOutput)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "new content as JSON document")
	cmd.Flags().StringVar(&collectionID, "collection", "", "new collection id (empty detaches)")
	return cmd
}

func newNoteDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note",
		Args:  requireExactlyArgs(1, "note id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(deps *appDeps) error {
				if err := deps.Store.DeleteNote(cmd.Context(), args[0]); err != nil {
					return err
				}
				return writePlain("deleted %s\n", args[0])
			})
		},
	}
}
