package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vellum/internal/config"
	"vellum/internal/models"
	"vellum/internal/store"
)

func newAttachCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{Use: "attach", Short: "Manage note attachments"}
	cmd.AddCommand(
		newAttachAddCmd(cfg, jsonOutput),
		newAttachListCmd(cfg, jsonOutput),
		newAttachGetCmd(cfg),
		newAttachRemoveCmd(cfg),
	)
	return cmd
}

func newAttachAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var mimeType string
	cmd := &cobra.Command{
		Use:   "add <note-id> <file>",
		Short: "Attach a file to a note",
		Args:  requireExactlyArgs(2, "note id and file path are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			noteID, path := args[0], args[1]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read attachment: %w", err)
			}
			if mimeType == "" {
				mimeType = mime.TypeByExtension(filepath.Ext(path))
				if mimeType == "" {
					mimeType = "application/octet-stream"
				}
			}

			return withStore(cfg, func(deps *appDeps) error {
				// Fail before writing the blob if the note is missing.
				if _, err := deps.Store.GetNote(cmd.Context(), noteID); err != nil {
					return err
				}
				hash, err := deps.Blobs.Write(cmd.Context(), data)
				if err != nil {
					return err
				}
				id, err := store.GenerateAttachmentID(deps.Store.AttachmentExists)
				if err != nil {
					return err
				}
				attachment := &models.Attachment{
					ID:        id,
					NoteID:    noteID,
					BlobHash:  hash,
					Filename:  filepath.Base(path),
					MimeType:  mimeType,
					SizeBytes: int64(len(data)),
				}
				if err := deps.Store.CreateAttachment(cmd.Context(), attachment); err != nil {
					return err
				}
				return writeAttachment(attachment, *jsonOutput)
			})
		},
	}
	cmd.Flags().StringVar(&mimeType, "mime", "", "override the detected MIME type")
	return cmd
}

func newAttachListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list <note-id>",
		Short: "List attachments on a note",
		Args:  requireExactlyArgs(1, "note id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(deps *appDeps) error {
				attachments, err := deps.Store.ListAttachmentsByNote(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeAttachmentList(attachments, *jsonOutput)
			})
		},
	}
}

func newAttachGetCmd(cfg *config.Config) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "get <attachment-id>",
		Short: "Write an attachment's content to a file",
		Args:  requireExactlyArgs(1, "attachment id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(deps *appDeps) error {
				attachment, err := deps.Store.GetAttachment(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				data, err := deps.Blobs.Read(cmd.Context(), attachment.BlobHash)
				if err != nil {
					return err
				}
				dest := outPath
				if dest == "" {
					dest = attachment.Filename
				}
				if err := os.WriteFile(dest, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", dest, err)
				}
				return writePlain("wrote %s (%d bytes)\n", dest, len(data))
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "destination path (defaults to the stored filename)")
	return cmd
}

func newAttachRemoveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <attachment-id>",
		Short: "Remove an attachment record",
		Long:  "Remove an attachment record. The underlying blob is kept; other attachments or backups may still reference it.",
		Args:  requireExactlyArgs(1, "attachment id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(deps *appDeps) error {
				if err := deps.Store.DeleteAttachment(cmd.Context(), args[0]); err != nil {
					return err
				}
				return writePlain("removed %s\n", args[0])
			})
		},
	}
}
