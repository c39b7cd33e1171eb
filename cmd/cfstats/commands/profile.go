package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cf_stats/internal/app/render"
	"cf_stats/internal/app/service"
	"cf_stats/internal/common"
	"cf_stats/internal/platform/codeforces"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "CFSTATS"

const (
	formatTable = "table"
	formatJSON  = "json"
	formatHTML  = "html"
)

type profileOptions struct {
	Format   string
	Output   string
	PageSize int
	APIBase  string
	Timeout  time.Duration
	MaxTags  int
	NoColor  bool
}

// NewProfileCommand creates the "profile" command. Every flag can also be set
// through a CFSTATS_ environment variable, e.g. CFSTATS_API_BASE.
func NewProfileCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "profile <handle>",
		Short: "Aggregate a handle's submissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := profileOptions{
				Format:   v.GetString("format"),
				Output:   v.GetString("output"),
				PageSize: v.GetInt("page-size"),
				APIBase:  v.GetString("api-base"),
				Timeout:  v.GetDuration("timeout"),
				MaxTags:  v.GetInt("max-tags"),
				NoColor:  v.GetBool("no-color"),
			}
			return runProfile(cmd.Context(), args[0], opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringP("format", "f", formatTable, "output format: table, json or html")
	flags.StringP("output", "o", "-", "output file, - for stdout")
	flags.Int("page-size", service.DefaultPageSize, "submissions requested per page")
	flags.String("api-base", "https://codeforces.com/api", "Codeforces API base URL (https only)")
	flags.Duration("timeout", 15*time.Second, "timeout of each API request")
	flags.Int("max-tags", 0, "limit the tag table, 0 for all")
	flags.Bool("no-color", false, "disable colored output")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("bind profile flags: %v", err))
	}
	return cmd
}

func runProfile(ctx context.Context, handle string, opts profileOptions, stdout io.Writer, clientOpts ...codeforces.Option) error {
	switch opts.Format {
	case formatTable, formatJSON, formatHTML:
	default:
		return fmt.Errorf("unknown format %q", opts.Format)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	clientOpts = append([]codeforces.Option{codeforces.WithTimeout(opts.Timeout)}, clientOpts...)
	client, err := codeforces.NewClient(opts.APIBase, clientOpts...)
	if err != nil {
		return err
	}

	aggregator := service.NewSubmissionAggregator(client, opts.PageSize, nil)
	profiles := service.NewProfileService(client, aggregator, nil, nil, nil, nil)

	profile, err := profiles.Lookup(ctx, handle)
	if err != nil {
		return fmt.Errorf("%s (%w)", common.UserMessage(err), err)
	}

	out := stdout
	if opts.Output != "" && opts.Output != "-" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch opts.Format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(render.NewProfileView(*profile))
	case formatHTML:
		renderer, err := render.NewHTMLRenderer()
		if err != nil {
			return err
		}
		card := render.BuildCard(*profile)
		return renderer.RenderPage(out, render.Page{Query: profile.User.Handle, Card: &card})
	default:
		return render.TerminalRenderer{NoColor: opts.NoColor, MaxTags: opts.MaxTags}.Render(out, *profile)
	}
}
