package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"godsendjoseph.dev/cdn-client/cdn"
)

// UploadCmd groups the upload subcommands, one per CDN upload action.
func UploadCmd(opts *options) *cobra.Command {
	upload := &cobra.Command{
		Use:   "upload",
		Short: "Upload a file to the CDN",
	}

	for _, field := range []string{cdn.FieldPDF, cdn.FieldImage, cdn.FieldVideo, cdn.FieldFile} {
		upload.AddCommand(uploadFileCmd(opts, field))
	}
	upload.AddCommand(uploadRemoteCmd(opts))

	return upload
}

func uploadFileCmd(opts *options, field string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   field + " <path>",
		Short: "Upload a local file as " + field,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}

			asset, err := client.UploadFile(cmd.Context(), args[0], name, field)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), asset)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "File name stored on the CDN (defaults to the base name of <path>)")

	return cmd
}

func uploadRemoteCmd(opts *options) *cobra.Command {
	var (
		name     string
		insecure bool
	)

	cmd := &cobra.Command{
		Use:   "remote <url>",
		Short: "Have the CDN fetch a remote file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}

			asset, err := client.UploadRemoteFile(cmd.Context(), args[0], name, !insecure)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), asset)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "File name stored on the CDN")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "Let the CDN skip TLS verification of the remote host")

	return cmd
}

func printJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
