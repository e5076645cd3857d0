package fileset

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func (a *app) newUploadCmd() *cobra.Command {
	var (
		key    string
		yes    bool
		bucket string
		list   bool
	)
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload staged archives or manifests to the configured S3 bucket",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			if key != "" && len(args) != 1 {
				return fmt.Errorf("--key needs exactly one file, got %d", len(args))
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s3cfg := a.cfg.S3
			if bucket != "" {
				s3cfg.Bucket = bucket
			}
			client, err := NewS3Client(ctx, s3cfg)
			if err != nil {
				return err
			}

			if list {
				objects, err := client.ListObjects(ctx)
				if err != nil {
					return fmt.Errorf("failed to list s3://%s: %w", client.Bucket, err)
				}
				for _, obj := range objects {
					fmt.Fprintf(out, "%12d  %s\n", obj.Size, obj.Key)
				}
				return nil
			}

			for _, file := range args {
				name := key
				if name == "" {
					name = filepath.Base(file)
				}
				if !yes && !askForConfirmation(a.stdin, out, "Upload %s to s3://%s/%s?", file, client.Bucket, client.objectKey(name)) {
					continue
				}
				uploaded, err := client.UploadLocalFile(ctx, name, file)
				if err != nil {
					return err
				}
				step(out, "Uploaded s3://%s/%s", client.Bucket, uploaded)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "object name (default: the file's base name), joined to FILESET_S3_PREFIX")
	cmd.Flags().StringVar(&bucket, "bucket", "", "override FILESET_S3_BUCKET")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().BoolVar(&list, "list", false, "list the objects under the prefix instead of uploading")
	return cmd
}
