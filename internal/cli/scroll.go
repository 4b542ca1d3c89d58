package cli

import (
	"errors"
	"strconv"
	"strings"

	"feedwin/internal/format"
	"feedwin/internal/store"

	"github.com/spf13/cobra"
)

type scrollFlags struct {
	backend string
	session string
}

func (f *scrollFlags) open(app *App) (store.ScrollStore, error) {
	session := strings.TrimSpace(f.session)
	if session == "" {
		return nil, errors.New("no scroll session; pass --session or set FEEDWIN_SESSION")
	}
	backend := f.backend
	if backend == "" {
		backend = app.cfg.Scroll.Backend
	}
	ttl, err := app.cfg.ScrollTTL()
	if err != nil {
		return nil, err
	}
	return store.OpenScroll(store.Store{Dir: app.StateDir}, store.ScrollOptions{
		Backend: backend,
		Session: session,
		TTL:     ttl,
	})
}

type scrollPosition struct {
	Session string `json:"session"`
	Key     string `json:"key"`
	Offset  int    `json:"offset"`
}

func newScrollCmd(app *App) *cobra.Command {
	f := &scrollFlags{}
	cmd := &cobra.Command{
		Use:   "scroll",
		Short: "Inspect or edit saved scroll positions",
	}
	cmd.PersistentFlags().StringVar(&f.backend, "backend", "", "Scroll store backend (memory|file|sqlite; default from config)")
	cmd.PersistentFlags().StringVar(&f.session, "session", envOr("FEEDWIN_SESSION", ""), "Session id")

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the saved offset for a list key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ss, err := f.open(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ss.Close()
			v, ok, err := ss.Restore(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if !ok {
				return writeErr(cmd, errNotFound("scroll position", args[0]))
			}
			return writeOut(cmd, app, format.Envelope{Data: scrollPosition{Session: f.session, Key: args[0], Offset: v}})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <offset>",
		Short: "Save an offset for a list key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return writeErr(cmd, errInvalidArg("offset", args[1], "an integer"))
			}
			ss, err := f.open(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ss.Close()
			if err := ss.Save(args[0], v); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{Data: scrollPosition{Session: f.session, Key: args[0], Offset: v}})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget every saved offset of the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ss, err := f.open(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ss.Close()
			if err := ss.Reset(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{Data: map[string]any{"session": f.session, "reset": true}})
		},
	})
	return cmd
}
