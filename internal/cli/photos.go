package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pantrycore/internal/adapters/photos"
	"pantrycore/internal/blob"
)

// NewPhotosCommand creates the photos command group.
func NewPhotosCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Manage photos attached to recipes",
	}
	cmd.AddCommand(newPhotosAttachCommand(rootOpts))
	cmd.AddCommand(newPhotosListCommand(rootOpts))
	cmd.AddCommand(newPhotosRemoveCommand(rootOpts))
	cmd.AddCommand(newPhotosURLCommand(rootOpts))
	return cmd
}

func openPhotoService(cmd *cobra.Command, rootOpts *RootOptions) (*photos.Service, func(), error) {
	svc, cfg, closeStore, err := openService(rootOpts)
	if err != nil {
		return nil, nil, err
	}
	blobs, err := blob.Open(cmd.Context(), cfg.Blob)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return photos.NewService(svc.Store(), blobs), closeStore, nil
}

func newPhotosAttachCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "attach <recipe-id> <file>",
		Short:         "Attach an image file to a recipe",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecipeID(args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer file.Close()

			svc, closeStore, err := openPhotoService(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer closeStore()

			name := filepath.Base(args[1])
			info, err := svc.Attach(cmd.Context(), id, name, file, blob.PutOptions{
				ContentType: mime.TypeByExtension(filepath.Ext(name)),
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "attached %s (%d bytes)\n", info.Key, info.Size)
			return err
		},
	}
}

func newPhotosListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list <recipe-id>",
		Short:         "List photos attached to a recipe",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecipeID(args[0])
			if err != nil {
				return err
			}
			svc, closeStore, err := openPhotoService(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer closeStore()

			infos, err := svc.List(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\t%s\n", info.Key, info.Size, info.ContentType)
			}
			return nil
		},
	}
}

func newPhotosRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <recipe-id> <name>",
		Short:         "Remove a photo from a recipe",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecipeID(args[0])
			if err != nil {
				return err
			}
			svc, closeStore, err := openPhotoService(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer closeStore()

			existed, err := svc.Remove(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			if !existed {
				return fmt.Errorf("photo %s not found on recipe %d", args[1], id)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[1])
			return err
		},
	}
}

func newPhotosURLCommand(rootOpts *RootOptions) *cobra.Command {
	var expiry time.Duration

	cmd := &cobra.Command{
		Use:           "url <recipe-id> <name>",
		Short:         "Print a time-limited download URL for a photo",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecipeID(args[0])
			if err != nil {
				return err
			}
			svc, closeStore, err := openPhotoService(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer closeStore()

			url, err := svc.PresignURL(cmd.Context(), id, args[1], blob.SignedURLOptions{Expiry: expiry})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
			return err
		},
	}

	cmd.Flags().DurationVar(&expiry, "expiry", 15*time.Minute, "how long the URL stays valid")

	return cmd
}
