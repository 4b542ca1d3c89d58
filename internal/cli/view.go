package cli

import (
	"path/filepath"

	"feedwin/internal/logging"
	"feedwin/internal/model"
	"feedwin/internal/store"
	"feedwin/internal/tui"

	"github.com/spf13/cobra"
)

const (
	viewFeed   = "feed"
	viewThread = "thread"
)

type viewFlags struct {
	pageSize int
	markdown *bool
}

func newViewCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Interactive viewers",
	}
	for _, mode := range []struct{ name, short string }{
		{viewFeed, "Browse a flat feed file, paging more rows in as you scroll"},
		{viewThread, "Browse a nested comment thread with expand/collapse"},
	} {
		var (
			pageSize   int
			noMarkdown bool
		)
		name := mode.name
		sub := &cobra.Command{
			Use:   name + " <file>",
			Short: mode.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				vf := viewFlags{pageSize: pageSize}
				if cmd.Flags().Changed("no-markdown") {
					md := !noMarkdown
					vf.markdown = &md
				}
				return runView(cmd, app, name, args[0], vf)
			},
		}
		sub.Flags().BoolVar(&noMarkdown, "no-markdown", false, "Render bodies as plain text")
		if name == viewFeed {
			sub.Flags().IntVar(&pageSize, "page-size", 0, "Rows per page (default from config)")
		}
		cmd.AddCommand(sub)
	}
	return cmd
}

func runView(cmd *cobra.Command, app *App, mode, path string, vf viewFlags) error {
	items, err := loadItems(path)
	if err != nil {
		return writeErr(cmd, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return writeErr(cmd, err)
	}

	cfg := app.cfg
	st := store.Store{Dir: app.StateDir}
	if err := st.Ensure(); err != nil {
		return writeErr(cmd, err)
	}
	log, closer, err := logging.OpenFile(cfg.LogFile(app.StateDir), logging.ParseLevel(app.LogLevel))
	if err != nil {
		return writeErr(cmd, err)
	}
	defer closer.Close()

	ttl, err := cfg.ScrollTTL()
	if err != nil {
		return writeErr(cmd, err)
	}
	session, err := store.SessionID()
	if err != nil {
		return writeErr(cmd, err)
	}
	scroll, err := store.OpenScroll(st, store.ScrollOptions{Backend: cfg.Scroll.Backend, Session: session, TTL: ttl})
	if err != nil {
		return writeErr(cmd, err)
	}
	defer scroll.Close()

	opts := tui.Options{
		Mode:     tui.ModeFeed,
		Title:    filepath.Base(path),
		Key:      mode + ":" + abs,
		Items:    items,
		Reload:   func() ([]model.Item, error) { return loadItems(path) },
		Engine:   cfg.Engine,
		PageSize: cfg.PageSize(),
		Markdown: cfg.MarkdownEnabled(),
		Theme:    cfg.TUI.Theme,
		Glyphs:   cfg.TUI.Glyphs,
		Scroll:   scroll,
		State:    st,
		Logger:   log,
	}
	if mode == viewThread {
		opts.Mode = tui.ModeThread
	}
	if vf.pageSize > 0 {
		opts.PageSize = vf.pageSize
	}
	if vf.markdown != nil {
		opts.Markdown = *vf.markdown
	}
	log.Info("viewer start", logging.F("file", abs), logging.F("items", len(items)), logging.F("session", session))
	if err := tui.Run(opts); err != nil {
		log.Error("viewer exited", logging.F("err", err))
		return writeErr(cmd, err)
	}
	return nil
}
