package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/urfave/cli/v2"

	"github.com/mjbernaski/word-card/internal/card"
	"github.com/mjbernaski/word-card/internal/clock"
	"github.com/mjbernaski/word-card/internal/config"
	"github.com/mjbernaski/word-card/internal/dedupe"
	"github.com/mjbernaski/word-card/internal/errors"
	"github.com/mjbernaski/word-card/internal/hub"
	"github.com/mjbernaski/word-card/internal/logging"
	"github.com/mjbernaski/word-card/internal/merge"
	"github.com/mjbernaski/word-card/internal/snapshot"
	"github.com/mjbernaski/word-card/internal/store"
	"github.com/mjbernaski/word-card/internal/syncer"
	"github.com/mjbernaski/word-card/internal/watch"
	"github.com/mjbernaski/word-card/internal/web"
)

// env is the composition root: every command operates on one explicitly
// constructed set of services, no ambient globals.
type env struct {
	baseDir string
	cfg     *config.Config
	log     logging.Logger

	clk    clock.Clock
	events *hub.Hub
	store  *store.Store
}

// localPath is where this replica persists its own collection, distinct
// from the shared snapshot it syncs through.
func (e *env) localPath() string {
	return filepath.Join(e.baseDir, "cards.json")
}

// open loads the local collection into a fresh store.
func (e *env) open() error {
	e.clk = clock.System()
	e.events = hub.New()
	e.store = store.New(e.clk, e.events, store.WithMaxNotesChars(e.cfg.MaxNotesChars))

	snap, exists, err := snapshot.ReadFile(e.localPath())
	if err != nil {
		return err
	}
	if exists {
		e.store.ReplaceAll(snap.Cards)
	}
	return nil
}

// save persists the local collection.
func (e *env) save() error {
	return snapshot.WriteFile(e.localPath(), snapshot.New(e.store.All(), e.cfg.AppName, e.clk.Now()))
}

// buildTransport assembles the configured sync transport and its change
// sources. Both are nil when no transport is configured.
func (e *env) buildTransport(ctx context.Context) (syncer.Transport, []watch.Source, error) {
	if s3cfg := e.cfg.S3; s3cfg != nil && s3cfg.Bucket != "" && s3cfg.Key != "" {
		var opts []func(*awsconfig.LoadOptions) error
		if s3cfg.Region != "" {
			opts = append(opts, awsconfig.WithRegion(s3cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if s3cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			}
		})
		tr := &syncer.S3Transport{Client: client, Bucket: s3cfg.Bucket, Key: s3cfg.Key}
		sources := []watch.Source{
			watch.NewS3Watcher(client, s3cfg.Bucket, s3cfg.Key, e.cfg.PollInterval(), e.clk, e.log),
		}
		return tr, sources, nil
	}

	if e.cfg.SharedPath != "" {
		tr := &syncer.FileTransport{Path: e.cfg.SharedPath}
		// Kernel notifications plus polling: cloud-synced folders do not
		// always deliver the former reliably.
		sources := []watch.Source{
			watch.NewFileWatcher(e.cfg.SharedPath, e.log),
			watch.NewPoller(e.cfg.SharedPath, e.cfg.PollInterval(), e.clk),
		}
		return tr, sources, nil
	}

	return nil, nil, nil
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "wordcard",
		Usage:   "Card collection with shared-file replication",
		Version: Version,
		Before: func(_ *cli.Context) error {
			return e.open()
		},
		Commands: []*cli.Command{
			createCmd(e),
			listCmd(e),
			updateCmd(e),
			archiveCmd(e),
			restoreCmd(e),
			deleteCmd(e),
			dedupeCmd(e),
			exportCmd(e),
			importCmd(e),
			syncCmd(e),
			serveCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func createCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a card",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Value: "idea", Usage: "Category: idea|readings|miscellaneous"},
			&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "Markdown notes"},
		},
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			out, err := e.store.Create(store.CreateInput{
				Text:     text,
				Category: card.Category(c.String("category")),
				Notes:    c.String("notes"),
			})
			if err != nil {
				return outputError(err)
			}
			if err := e.save(); err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List cards",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Value: "created", Usage: "Order: created|updated|alpha"},
			&cli.StringFlag{Name: "archived", Aliases: []string{"a"}, Value: "active", Usage: "Filter: active|archived|all"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Substring match over text and notes"},
		},
		Action: func(c *cli.Context) error {
			cards, err := e.store.List(store.ListInput{
				Sort:     store.SortOrder(c.String("sort")),
				Archived: store.ArchiveFilter(c.String("archived")),
				Query:    c.String("query"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"cards": cards, "count": len(cards)})
		},
	}
}

func updateCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update fields of a card",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "New text"},
			&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "New notes"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "New category"},
			&cli.StringFlag{Name: "background", Usage: "Background color (#RRGGBB)"},
			&cli.StringFlag{Name: "text-color", Usage: "Text color (#RRGGBB)"},
			&cli.StringFlag{Name: "font", Usage: "Font style: elegant|book|apple"},
			&cli.IntFlag{Name: "corner-radius", Usage: "Corner radius"},
			&cli.StringFlag{Name: "border-color", Usage: "Border color (#RRGGBB)"},
			&cli.IntFlag{Name: "border-width", Usage: "Border width"},
			&cli.BoolFlag{Name: "remove-border", Usage: "Clear the border"},
			&cli.IntFlag{Name: "dpi", Usage: "Render DPI"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("card id is required"))
			}

			in := store.UpdateInput{RemoveBorder: c.Bool("remove-border")}
			if c.IsSet("text") {
				v := c.String("text")
				in.Text = &v
			}
			if c.IsSet("notes") {
				v := c.String("notes")
				in.Notes = &v
			}
			if c.IsSet("category") {
				v := card.Category(c.String("category"))
				in.Category = &v
			}
			if c.IsSet("background") {
				v := c.String("background")
				in.BackgroundColor = &v
			}
			if c.IsSet("text-color") {
				v := c.String("text-color")
				in.TextColor = &v
			}
			if c.IsSet("font") {
				v := card.FontStyle(c.String("font"))
				in.FontStyle = &v
			}
			if c.IsSet("corner-radius") {
				v := c.Int("corner-radius")
				in.CornerRadius = &v
			}
			if c.IsSet("border-color") {
				v := c.String("border-color")
				in.BorderColor = &v
			}
			if c.IsSet("border-width") {
				v := c.Int("border-width")
				in.BorderWidth = &v
			}
			if c.IsSet("dpi") {
				v := c.Int("dpi")
				in.DPI = &v
			}

			out, err := e.store.Update(c.Args().First(), in)
			if err != nil {
				return outputError(err)
			}
			if err := e.save(); err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

func archiveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "archive",
		Usage:     "Archive a card (reversible)",
		ArgsUsage: "<id>",
		Action:    idAction(e, e.archive),
	}
}

func restoreCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Restore an archived card",
		ArgsUsage: "<id>",
		Action:    idAction(e, e.restore),
	}
}

func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a card permanently",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("card id is required"))
			}
			id := c.Args().First()
			if err := e.store.Delete(id); err != nil {
				return outputError(err)
			}
			if err := e.save(); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"deleted": true, "id": id})
		},
	}
}

func (e *env) archive(id string) (card.Card, error) { return e.store.Archive(id) }
func (e *env) restore(id string) (card.Card, error) { return e.store.Restore(id) }

// idAction wraps the single-id card operations sharing the same shape.
func idAction(e *env, op func(string) (card.Card, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() != 1 {
			return outputError(errors.NewInvalidRequest("card id is required"))
		}
		out, err := op(c.Args().First())
		if err != nil {
			return outputError(err)
		}
		if err := e.save(); err != nil {
			return outputError(err)
		}
		return outputJSON(out)
	}
}

func dedupeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "dedupe",
		Usage: "Remove duplicate cards",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "content", Usage: "Duplicate key: id|content"},
		},
		Action: func(c *cli.Context) error {
			var kept []card.Card
			var result dedupe.Result

			switch c.String("mode") {
			case "content":
				kept, result = dedupe.ByContent(e.store.All())
			case "id":
				kept, result = dedupe.ByID(e.store.All())
			default:
				return outputError(errors.NewInvalidRequest("mode must be one of: id, content"))
			}

			if result.Removed > 0 {
				e.store.ReplaceAll(kept)
				if err := e.save(); err != nil {
					return outputError(err)
				}
			}
			return outputJSON(result)
		},
	}
}

func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the collection as a snapshot file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Destination (default: the configured shared path)"},
		},
		Action: func(c *cli.Context) error {
			path := c.String("path")
			if path == "" {
				path = e.cfg.SharedPath
			}
			if path == "" {
				return outputError(errors.NewInvalidRequest("no path given and no shared_path configured"))
			}

			snap := snapshot.New(e.store.All(), e.cfg.AppName, e.clk.Now())
			if err := snapshot.WriteFile(path, snap); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"path": path, "cards": len(snap.Cards)})
		},
	}
}

func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import cards from a snapshot file (manual, no merge heuristics)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Snapshot file to import"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "skip", Usage: "Collision mode: skip|update|duplicate"},
		},
		Action: func(c *cli.Context) error {
			result, err := merge.ImportFile(e.store, e.clk, merge.ImportInput{
				Path: c.String("path"),
				Mode: merge.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			if err := e.save(); err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

func syncCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Run one import+export cycle against the shared snapshot",
		Action: func(c *cli.Context) error {
			ctx := c.Context
			tr, _, err := e.buildTransport(ctx)
			if err != nil {
				return outputError(err)
			}
			if tr == nil {
				return outputError(errors.NewInvalidRequest("no shared_path or s3 transport configured"))
			}

			snap, exists, err := tr.Load(ctx)
			if err != nil {
				return outputError(err)
			}
			var counts merge.Counts
			if exists {
				counts = merge.MergeSnapshot(e.store, snap)
			}

			out := snapshot.New(e.store.All(), e.cfg.AppName, e.clk.Now())
			if err := tr.Store(ctx, out); err != nil {
				return outputError(err)
			}
			if err := e.save(); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"imported": counts.Imported,
				"updated":  counts.Updated,
				"deleted":  counts.Deleted,
				"cards":    len(out.Cards),
			})
		},
	}
}

func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web UI and replicate continuously",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Bind address (default: from config)"},
			&cli.IntFlag{Name: "port", Usage: "Port (default: from config)"},
		},
		Action: func(c *cli.Context) error {
			bind, port := e.cfg.Bind, e.cfg.Port
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			var sy *syncer.Syncer
			tr, sources, err := e.buildTransport(ctx)
			if err != nil {
				return outputError(err)
			}
			if tr != nil {
				changes, err := watch.Merge(ctx, sources...)
				if err != nil {
					return outputError(err)
				}
				sy = syncer.New(e.store, e.events, tr, e.clk, e.log, syncer.Options{
					AppName:    e.cfg.AppName,
					Debounce:   e.cfg.Debounce(),
					EchoWindow: e.cfg.EchoWindow(),
				})
				go sy.Run(ctx, changes)
			} else {
				e.log.Warn(ctx, "no sync transport configured; serving local collection only")
			}

			// Persist the local collection whenever it changes.
			sub := e.events.Subscribe()
			defer sub.Close()
			go func() {
				for {
					ev, ok := sub.Next()
					if !ok {
						return
					}
					if ev.Name != hub.EventCardsUpdated {
						continue
					}
					if err := e.save(); err != nil {
						e.log.Error(ctx, "failed to persist collection", "error", err)
					}
				}
			}()

			srv := web.NewServer(e.store, e.events, sy, e.log, Version, bind, port)
			return web.Run(srv, e.log)
		},
	}
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var cErr *errors.CardError
	if stderrors.As(err, &cErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
