package cli

import (
	"errors"
	"os"

	"feedwin/internal/feed"
	"feedwin/internal/format"
	"feedwin/internal/model"
	"feedwin/internal/tree"

	"github.com/spf13/cobra"
)

type flatRow struct {
	model.Row
	Author string `json:"author,omitempty"`
	Title  string `json:"title,omitempty"`
}

func loadItems(path string) ([]model.Item, error) {
	items, err := feed.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errNotFound("file", path)
	}
	return items, err
}

func newFlattenCmd(app *App) *cobra.Command {
	var (
		expand    []string
		toggles   []string
		expandAll bool
		maxDepth  int
	)

	cmd := &cobra.Command{
		Use:   "flatten <file>",
		Short: "Flatten a comment thread into the row sequence the viewer renders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max-depth") {
				maxDepth = app.cfg.Engine.MaxDepth
			}
			items, err := loadItems(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			roots := tree.BuildForest(items)

			expanded := map[string]bool{}
			for _, id := range expand {
				expanded[id] = true
			}
			a, err := tree.New(roots, tree.Options{MaxDepth: maxDepth, Expanded: expanded})
			if err != nil {
				return writeErr(cmd, err)
			}
			if expandAll {
				a.ExpandAll()
			}
			var ignored []string
			for _, id := range toggles {
				if !a.ToggleExpand(id) {
					ignored = append(ignored, id)
				}
			}

			rows := make([]flatRow, 0, a.Len())
			for _, r := range a.Rows() {
				fr := flatRow{Row: r}
				if it, ok := r.Payload.(model.Item); ok {
					fr.Author = it.Author
					fr.Title = it.Title
				}
				rows = append(rows, fr)
			}
			meta := map[string]any{
				"rows":     len(rows),
				"nodes":    tree.CountNodes(roots),
				"maxDepth": maxDepth,
			}
			if len(ignored) > 0 {
				meta["ignoredToggles"] = ignored
			}
			return writeOut(cmd, app, format.Envelope{Data: rows, Meta: meta})
		},
	}

	cmd.Flags().StringArrayVar(&expand, "expand", nil, "Expand node id (repeatable)")
	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "Expand every node down to --max-depth")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Deepest level whose children are shown (default from config)")
	cmd.Flags().StringArrayVar(&toggles, "toggle", nil, "Toggle node id after expansion (repeatable)")
	return cmd
}
