package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"vellum/internal/config"
	"vellum/internal/models"
	"vellum/internal/store"
)

func newImportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var collectionID string
	cmd := &cobra.Command{
		Use:   "import <file.md>...",
		Short: "Import markdown files as notes",
		Long: `Import markdown files as notes.

Each file may start with a YAML front matter block setting "title" and
"collection". Without one, the title falls back to the first level-one
heading and then the filename.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(deps *appDeps) error {
				imported := make([]models.Note, 0, len(args))
				for _, path := range args {
					note, err := importMarkdownFile(cmd, deps, path, collectionID)
					if err != nil {
						return fmt.Errorf("import %s: %w", path, err)
					}
					imported = append(imported, *note)
				}
				return writeNoteList(imported, *jsonOutput)
			})
		},
	}
	cmd.Flags().StringVar(&collectionID, "collection", "", "collection id for all imported notes")
	return cmd
}

func importMarkdownFile(cmd *cobra.Command, deps *appDeps, path, collectionID string) (*models.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	front, body, err := parseMarkdown(string(data))
	if err != nil {
		return nil, err
	}

	// An explicit front-matter title is user-chosen; a title derived from
	// the heading or filename is not.
	title := front.Title
	titleModified := title != ""
	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	// The flag wins over per-file front matter.
	if collectionID == "" {
		collectionID = front.Collection
	}

	content, err := markdownContentJSON(body)
	if err != nil {
		return nil, err
	}

	id, err := store.GenerateNoteID(deps.Store.NoteExists)
	if err != nil {
		return nil, err
	}
	note := &models.Note{
		ID:            id,
		Title:         title,
		ContentJSON:   content,
		TitleModified: titleModified,
		CollectionID:  collectionID,
	}
	if err := deps.Store.CreateNote(cmd.Context(), note); err != nil {
		return nil, err
	}
	return note, nil
}
