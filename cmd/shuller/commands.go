package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/muratoffalex/shuller/internal/app"
	"github.com/muratoffalex/shuller/internal/booru"
	"github.com/muratoffalex/shuller/internal/config"
	"github.com/spf13/cobra"
)

const (
	outputURLs    = "urls"
	outputDetails = "details"
	outputJSON    = "json"
)

type appFactory func(configPath string, overrides map[string]any) (*app.Application, error)

func newApplication(configPath string, overrides map[string]any) (*app.Application, error) {
	return app.New(configPath, overrides)
}

type rootOptions struct {
	configPath string
	verbose    bool
	endpoint   string

	tags    []string
	exclude []string
	limit   int
	page    int
	id      uint64
	sample  int
	output  string
}

func (o *rootOptions) query(cmd *cobra.Command) app.Query {
	return app.Query{
		Tags:     o.tags,
		Exclude:  o.exclude,
		Limit:    o.limit,
		HasLimit: cmd.Flags().Changed("limit"),
		Page:     o.page,
		HasPage:  cmd.Flags().Changed("page"),
		ID:       o.id,
		HasID:    cmd.Flags().Changed("id"),
	}
}

func (o *rootOptions) overrides() map[string]any {
	overrides := make(map[string]any)
	if o.verbose {
		overrides[config.LOGGING_LEVEL] = "debug"
	}
	if o.endpoint != "" {
		overrides[config.API_ENDPOINT] = o.endpoint
	}
	return overrides
}

func newRootCmd(factory appFactory) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "shuller command [options]",
		Short:         "Query and download posts from rule34-style imageboards",
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf("shuller {{.Version}} (built at: %s)\n", buildTime))

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to config")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.endpoint, "endpoint", "", "API endpoint, overrides config")
	flags.StringSliceVarP(&opts.tags, "tag", "t", nil, "Tag a post must have (repeatable)")
	flags.StringSliceVarP(&opts.exclude, "exclude", "e", nil, "Tag a post must not have (repeatable)")
	flags.IntVarP(&opts.limit, "limit", "l", booru.DefaultLimit, fmt.Sprintf("Posts per page, at most %d", booru.MaxLimit))
	flags.IntVarP(&opts.page, "page", "p", booru.DefaultPage, "Page id")
	flags.Uint64Var(&opts.id, "id", 0, "Look up a single post id")

	rootCmd.AddCommand(
		newURLCmd(factory, opts),
		newSearchCmd(factory, opts),
		newRandomCmd(factory, opts),
		newDownloadCmd(factory, opts),
	)
	return rootCmd
}

func newURLCmd(factory appFactory, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the request url without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := factory(opts.configPath, opts.overrides())
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.URL(opts.query(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
}

func newSearchCmd(factory appFactory, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search posts and print them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := factory(opts.configPath, opts.overrides())
			if err != nil {
				return err
			}
			defer a.Close()

			posts, err := a.Search(cmd.Context(), opts.query(cmd), opts.sample)
			if err != nil {
				return err
			}
			return printPosts(cmd.OutOrStdout(), posts, opts.output)
		},
	}
	cmd.Flags().IntVarP(&opts.sample, "sample", "n", 0, "Keep this many random posts")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputURLs, "Output format: urls, details or json")
	return cmd
}

func newRandomCmd(factory appFactory, opts *rootOptions) *cobra.Command {
	var maxID uint64
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Fetch a post with a random id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := factory(opts.configPath, opts.overrides())
			if err != nil {
				return err
			}
			defer a.Close()

			post, err := a.Random(cmd.Context(), maxID)
			if err != nil {
				return err
			}
			return printPosts(cmd.OutOrStdout(), booru.Posts{post}, opts.output)
		},
	}
	cmd.Flags().Uint64Var(&maxID, "max-id", app.DefaultMaxRandomID, "Upper bound (exclusive) for the random id")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputURLs, "Output format: urls, details or json")
	return cmd
}

func newDownloadCmd(factory appFactory, opts *rootOptions) *cobra.Command {
	var (
		directory string
		threads   int
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Search posts and download their files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := opts.overrides()
			if cmd.Flags().Changed("directory") {
				overrides[config.DOWNLOAD_DIRECTORY] = directory
			}
			if cmd.Flags().Changed("threads") {
				overrides[config.DOWNLOAD_THREADS] = threads
			}
			if cmd.Flags().Changed("overwrite") {
				overrides[config.DOWNLOAD_OVERWRITE] = overwrite
			}

			a, err := factory(opts.configPath, overrides)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Download(cmd.Context(), opts.query(cmd), opts.sample)
			if result.RunID != "" {
				fmt.Fprintln(cmd.OutOrStdout(), result)
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&opts.sample, "sample", "n", 0, "Download only this many random posts")
	cmd.Flags().StringVarP(&directory, "directory", "d", "", "Output directory, overrides config")
	cmd.Flags().IntVar(&threads, "threads", 0, "Concurrent downloads, overrides config")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Download again even if already fetched")
	return cmd
}

func printPosts(w io.Writer, posts booru.Posts, output string) error {
	switch strings.ToLower(output) {
	case outputURLs, "":
		for _, u := range posts.FileURLs() {
			fmt.Fprintln(w, u)
		}
	case outputDetails:
		for _, line := range posts.CompactViews().DetailList() {
			fmt.Fprintln(w, line)
		}
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(posts)
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
	return nil
}
