// Command csearch is the CLI surface over the sparse n-gram code
// search engine: clone, index, and search, each mapping to a single
// API call per spec.md §6, following the teacher's own cmd/lci
// urfave/cli/v2 app shape.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/csearch/internal/apperr"
	"github.com/standardbeagle/csearch/internal/config"
	"github.com/standardbeagle/csearch/internal/indexing"
	"github.com/standardbeagle/csearch/internal/query"
	"github.com/standardbeagle/csearch/internal/render"
	"github.com/standardbeagle/csearch/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	app := &cli.App{
		Name:  "csearch",
		Usage: "sparse n-gram source code search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "project-file",
				Value: ".csearch.kdl",
				Usage: "optional project config overlay",
			},
		},
		Commands: []*cli.Command{
			cloneCommand(),
			indexCommand(),
			searchCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := config.ApplyProjectFile(cfg, c.String("project-file")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	cache := store.NewCache(cfg.CacheAddr())
	st, err := store.Open(ctx, cfg.DSN(), cache)
	if err != nil {
		cache.Close()
		return nil, err
	}
	return st, nil
}

func cloneCommand() *cli.Command {
	return &cli.Command{
		Name:      "clone",
		Usage:     "clone a repository into REPO_DIR",
		ArgsUsage: "<url>",
		Action: func(c *cli.Context) error {
			url := c.Args().First()
			if url == "" {
				return cli.Exit("clone requires a repository url", 2)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			dest := filepath.Join(cfg.RepoDir, repoNameFromURL(url))
			if _, err := os.Stat(dest); err == nil {
				return apperr.New("cmd.clone", apperr.KindRepoAlreadyExists, fmt.Errorf("%s already exists", dest))
			}
			cmd := exec.CommandContext(c.Context, "git", "clone", url, dest)
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
			return cmd.Run()
		},
	}
}

func repoNameFromURL(url string) string {
	base := filepath.Base(url)
	return base[:len(base)-len(filepath.Ext(base))]
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "reconcile the index against REPO_DIR",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "watch", Usage: "keep reconciling as files change"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			st, err := openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ix := indexing.New(cfg, st, slog.Default())
			if c.Bool("watch") {
				return ix.Watch(c.Context, cfg.RepoDir)
			}
			stats, err := ix.Reconcile(c.Context, cfg.RepoDir)
			if err != nil {
				return err
			}
			fmt.Printf("scanned=%d admitted=%d reindexed=%d deleted=%d skipped=%d\n",
				stats.Scanned, stats.Admitted, stats.Reindexed, stats.Deleted, stats.Skipped)
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "search the index with a regex",
		ArgsUsage: "<regex>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "skip", Value: 0},
			&cli.IntFlag{Name: "limit", Value: 50},
			&cli.BoolFlag{Name: "case-sensitive", Value: true},
			&cli.Int64Flag{Name: "size-lt"},
			&cli.Int64Flag{Name: "size-gt"},
			&cli.StringFlag{Name: "path-like"},
			&cli.BoolFlag{Name: "pretty"},
		},
		Action: func(c *cli.Context) error {
			regex := c.Args().First()
			if regex == "" {
				return cli.Exit("search requires a regex argument", 2)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			st, err := openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			req := query.Request{
				Regex:         regex,
				CaseSensitive: c.Bool("case-sensitive"),
				Skip:          c.Int("skip"),
				Limit:         c.Int("limit"),
				PathRegex:     c.String("path-like"),
			}
			if c.IsSet("size-lt") {
				v := c.Int64("size-lt")
				req.SizeLT = &v
			}
			if c.IsSet("size-gt") {
				v := c.Int64("size-gt")
				req.SizeGT = &v
			}

			executor := query.New(cfg, st)
			result, err := executor.Search(c.Context, req)
			if err != nil {
				return err
			}

			if c.Bool("pretty") {
				fmt.Println(render.Format(result, render.Options{Pretty: true}))
				return nil
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
