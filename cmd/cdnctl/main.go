package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"godsendjoseph.dev/cdn-client/cdn"
	"godsendjoseph.dev/cdn-client/internal/env"
)

// options are shared by every subcommand through the root's persistent flags.
type options struct {
	envFile string
	timeout time.Duration
	verbose bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "cdnctl",
		Short: "CDN command line client",
		Long: `A command line client for the CDN HTTP API.
Uploads local or remote files and deletes them again using the file token
and edit key returned by an upload.

Reads CDN_ENDPOINT_URL and CDN_API_TOKEN from the environment.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile == "" {
				return nil
			}
			if err := godotenv.Load(opts.envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", opts.envFile, err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "HTTP timeout for CDN calls")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log CDN requests to stderr")

	root.AddCommand(UploadCmd(opts))
	root.AddCommand(DeleteCmd(opts))

	return root
}

// client builds a CDN client from the environment.
func (opts *options) client() (*cdn.Client, error) {
	endpointURL := env.GetString("CDN_ENDPOINT_URL", "")
	if endpointURL == "" {
		return nil, errors.New("CDN_ENDPOINT_URL is not set")
	}

	apiToken := env.GetSecret("CDN_API_TOKEN", "")
	if apiToken == "" {
		return nil, errors.New("CDN_API_TOKEN is not set")
	}

	logger := zap.NewNop().Sugar()
	if opts.verbose {
		logger = zap.Must(zap.NewDevelopment()).Sugar()
	}

	return cdn.NewClient(endpointURL, apiToken,
		cdn.WithHTTPClient(&http.Client{Timeout: opts.timeout}),
		cdn.WithLogger(logger),
	), nil
}
