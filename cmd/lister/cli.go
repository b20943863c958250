package main

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/feedlark/lister/internal/alert"
	"github.com/feedlark/lister/internal/config"
	"github.com/feedlark/lister/internal/errors"
	"github.com/feedlark/lister/internal/feed"
	"github.com/feedlark/lister/internal/mcp"
	"github.com/feedlark/lister/internal/ops"
	"github.com/feedlark/lister/internal/tracker"
	"github.com/feedlark/lister/internal/ui"
	"github.com/feedlark/lister/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "lister",
		Usage:   "Poll named feed lists into a searchable local store with trigger alerting",
		Version: Version,
		Commands: []*cli.Command{
			runCmd(db, cfg),
			searchCmd(db),
			latestCmd(db),
			feedsCmd(db),
			alertsCmd(db),
			serveCmd(db, cfg),
			mcpCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// runCmd creates the run command: the polling daemon.
func runCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Attach the configured feed lists and poll them forever",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "feeds", Usage: "Comma-separated list names (overrides config)"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		},
		Action: func(c *cli.Context) error {
			level := slog.LevelInfo
			if c.Bool("debug") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			runCfg := *cfg
			if names := c.String("feeds"); names != "" {
				runCfg.Feeds = splitNames(names)
			}
			if len(runCfg.Feeds) == 0 {
				return errors.NewInvalidRequest("no feeds configured; set feeds in config.json or pass --feeds")
			}
			if runCfg.APIBaseURL == "" {
				return errors.NewInvalidRequest("api_base_url is not configured")
			}

			filter, err := alert.NewFilter(runCfg.TriggerPattern, runCfg.IgnorePattern)
			if err != nil {
				return errors.NewInvalidRequest(err.Error())
			}

			slog.Info("starting",
				"feeds", strings.Join(runCfg.Feeds, ","),
				"trigger", runCfg.TriggerPattern,
				"ignore", runCfg.IgnorePattern,
				"refresh_seconds", runCfg.RefreshSeconds,
			)

			client := feed.NewHTTPClient(runCfg.APIBaseURL, runCfg.APIToken)
			notifier := alert.Multi{alert.LogNotifier{}, &alert.Recorder{DB: db}}
			tr := tracker.New(client, db, &runCfg, filter, notifier)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := tr.Attach(ctx); err != nil {
				if stderrors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}

			if err := tr.Run(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
				return err
			}
			slog.Info("goodbye")
			return nil
		},
	}
}

// searchCmd creates the search command.
func searchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search over stored posts",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum results"},
			&cli.IntFlag{Name: "offset", Usage: "Results to skip"},
			&cli.BoolFlag{Name: "json", Usage: "Output JSON instead of styled text"},
		},
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")

			output, err := ops.Search(db, ops.SearchInput{
				Query:  query,
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return outputJSON(output)
			}

			fmt.Println(ui.HeaderStyle.Render(fmt.Sprintf("%d matches for %q", output.Pagination.Total, query)))
			for _, item := range output.Items {
				printPostLine(item.Feed, item.AuthorHandle, item.CreatedAt,
					ui.ScoreStyle.Render(fmt.Sprintf("%.2f", item.Score)))
				fmt.Println(renderSnippet(item.Snippet))
			}
			if output.Pagination.HasMore {
				fmt.Println(ui.DimStyle.Render("(more available, use --offset)"))
			}
			return nil
		},
	}
}

// latestCmd creates the latest command.
func latestCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "Show the newest stored posts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "feed", Aliases: []string{"f"}, Usage: "Restrict to one feed"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum results"},
			&cli.IntFlag{Name: "offset", Usage: "Results to skip"},
			&cli.BoolFlag{Name: "json", Usage: "Output JSON instead of styled text"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Latest(db, ops.LatestInput{
				Feed:   c.String("feed"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return outputJSON(output)
			}

			for _, p := range output.Items {
				printPostLine(p.Feed, p.AuthorHandle, p.CreatedAt,
					ui.DimStyle.Render(fmt.Sprintf("#%d", p.ID)))
				fmt.Println(p.Text)
			}
			fmt.Println(ui.DimStyle.Render(fmt.Sprintf("%d posts total", output.Pagination.Total)))
			return nil
		},
	}
}

// feedsCmd creates the feeds command.
func feedsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "feeds",
		Usage: "Show per-feed ingest totals and the resume position",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output JSON instead of styled text"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Inventory(db)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return outputJSON(output)
			}

			for _, fc := range output.Feeds {
				fmt.Printf("%s %s %s\n",
					ui.FeedStyle.Render(fc.Feed),
					fmt.Sprintf("%d posts", fc.Posts),
					ui.DateStyle.Render("newest "+formatEpoch(fc.NewestAt)),
				)
			}
			fmt.Println(ui.DimStyle.Render(fmt.Sprintf("%d posts total, resume position %d",
				output.TotalPosts, output.ResumeID)))
			return nil
		},
	}
}

// alertsCmd creates the alerts command.
func alertsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "alerts",
		Usage: "Show recent trigger-filter alerts",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum alerts"},
			&cli.BoolFlag{Name: "json", Usage: "Output JSON instead of styled text"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Alerts(db, ops.AlertsInput{Limit: c.Int("limit")})
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return outputJSON(output)
			}

			for _, a := range output.Items {
				fmt.Printf("%s %s %s\n",
					ui.FeedStyle.Render("["+a.Feed+"]"),
					ui.DateStyle.Render(formatEpoch(a.CreatedAt)),
					ui.DimStyle.Render(fmt.Sprintf("post #%d", a.PostID)),
				)
				fmt.Println(a.Content)
			}
			return nil
		},
	}
}

// serveCmd creates the serve command: the operator web UI.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the operator web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Bind address (defaults to config)"},
			&cli.IntFlag{Name: "port", Usage: "Port (defaults to config)"},
		},
		Action: func(c *cli.Context) error {
			bind := cfg.WebBind
			if v := c.String("bind"); v != "" {
				bind = v
			}
			port := cfg.WebPort
			if v := c.Int("port"); v != 0 {
				port = v
			}

			srv, err := web.NewServer(db, cfg, Version, bind, port)
			if err != nil {
				return err
			}
			return web.Run(srv)
		},
	}
}

// mcpCmd creates the mcp command: read-only tools over stdio.
func mcpCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the store's read path as MCP tools on stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(db, cfg, Version)
		},
	}
}

// Output helpers

// outputJSON writes indented JSON to stdout.
func outputJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.NewInternal(err)
	}
	fmt.Println(string(data))
	return nil
}

// printPostLine prints the styled metadata line above a post body.
func printPostLine(feedName, handle string, createdAt int64, trailer string) {
	fmt.Printf("%s %s %s %s\n",
		ui.FeedStyle.Render("["+feedName+"]"),
		ui.HandleStyle.Render("@"+handle),
		ui.DateStyle.Render(formatEpoch(createdAt)),
		trailer,
	)
}

// renderSnippet converts the ops snippet to terminal form: highlight tags
// become styled spans and the HTML escaping is undone.
func renderSnippet(s string) string {
	return html.UnescapeString(replaceHighlights(s))
}

// replaceHighlights rewrites <b>...</b> pairs with styled text.
func replaceHighlights(s string) string {
	var out strings.Builder
	for {
		start := strings.Index(s, "<b>")
		if start < 0 {
			out.WriteString(s)
			break
		}
		end := strings.Index(s[start:], "</b>")
		if end < 0 {
			out.WriteString(s)
			break
		}
		out.WriteString(s[:start])
		out.WriteString(ui.HighlightStyle.Render(s[start+len("<b>") : start+end]))
		s = s[start+end+len("</b>"):]
	}
	return out.String()
}

// formatEpoch renders epoch seconds as a compact UTC stamp.
func formatEpoch(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04")
}

// splitNames splits a comma-separated list, trimming blanks.
func splitNames(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}
