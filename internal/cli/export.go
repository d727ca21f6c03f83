package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pantrycore/internal/adapters/exports"
	"pantrycore/internal/blob"
)

// NewExportCommand creates the export command. It runs the export worker
// in-process and waits for the artifacts to land in the blob store.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		formats     []string
		requestedBy string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:           "export",
		Short:         "Export all recipes to the configured blob store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, closeStore, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore()

			blobs, err := blob.Open(cmd.Context(), cfg.Blob)
			if err != nil {
				return err
			}

			worker := exports.NewWorker(svc.Store(), exports.NewBlobObjectStore(blobs), nil)
			worker.Start()
			defer func() { _ = worker.Stop(context.Background()) }()

			input := exports.Input{RequestedBy: requestedBy}
			for _, f := range formats {
				input.Formats = append(input.Formats, exports.Format(f))
			}
			queued, err := worker.Enqueue(cmd.Context(), input)
			if err != nil {
				return err
			}

			deadline := time.Now().Add(timeout)
			for {
				record, ok := worker.Get(queued.ID)
				if !ok {
					return fmt.Errorf("export %s disappeared", queued.ID)
				}
				switch record.Status {
				case exports.StatusSucceeded:
					for _, artifact := range record.Artifacts {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d bytes\t%s\n",
							artifact.Format, artifact.Key, artifact.SizeBytes, artifact.URL)
					}
					return nil
				case exports.StatusFailed:
					return fmt.Errorf("export failed: %s", record.Error)
				}
				if time.Now().After(deadline) {
					return fmt.Errorf("export %s timed out", queued.ID)
				}
				time.Sleep(20 * time.Millisecond)
			}
		},
	}

	cmd.Flags().StringSliceVar(&formats, "formats", nil, "artifact formats (json, csv; default both)")
	cmd.Flags().StringVar(&requestedBy, "requested-by", "", "actor recorded on the export")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for the export")

	return cmd
}
