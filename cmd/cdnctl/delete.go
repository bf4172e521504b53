package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var errNotConfirmed = errors.New("the CDN did not confirm the deletion")

// DeleteCmd deletes a file using the token and edit key from its upload.
func DeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file-token> <edit-key>",
		Short: "Delete a file from the CDN",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}

			deleted, err := client.DeleteFile(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			if err := printJSON(cmd.OutOrStdout(), map[string]any{
				"file_token": args[0],
				"deleted":    deleted,
			}); err != nil {
				return err
			}

			if !deleted {
				return errNotConfirmed
			}
			return nil
		},
	}
}
