package cli

import (
	"strconv"
	"strings"

	"feedwin/internal/format"
	"feedwin/internal/heights"
	"feedwin/internal/model"
	"feedwin/internal/window"

	"github.com/spf13/cobra"
)

// countSeq is a sequence of n anonymous rows.
type countSeq int

func (n countSeq) Len() int { return int(n) }

func (n countSeq) Row(i int) model.Row {
	return model.Row{Index: i, ID: "#" + strconv.Itoa(i)}
}

type rangeResult struct {
	First     int   `json:"first"`
	Last      int   `json:"last"`
	TotalSize int   `json:"totalSize"`
	Offsets   []int `json:"offsets"`
	Sizes     []int `json:"sizes"`
}

type measurement struct {
	index int
	size  int
}

func parseMeasurement(raw string) (measurement, error) {
	i, s, ok := strings.Cut(strings.TrimSpace(raw), "=")
	if !ok {
		return measurement{}, errInvalidArg("--measure", raw, "index=size")
	}
	idx, err := strconv.Atoi(strings.TrimSpace(i))
	if err != nil {
		return measurement{}, errInvalidArg("--measure", raw, "index=size")
	}
	size, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return measurement{}, errInvalidArg("--measure", raw, "index=size")
	}
	return measurement{index: idx, size: size}, nil
}

func newRangeCmd(app *App) *cobra.Command {
	var (
		count     int
		estimate  int
		viewport  int
		offset    int
		overscan  int
		threshold int
		strict    bool
		measures  []string
	)

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Compute the visible row range for a scroll offset and viewport",
		Long: strings.TrimSpace(`
Builds a list of --count rows sized by --estimate, reports each --measure through the
row's measurement observer, and prints the rows a viewport at --offset would render
(including overscan) with their offsets on the scroll track.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := app.cfg.Engine
			if !cmd.Flags().Changed("estimate") {
				estimate = e.Estimate
			}
			if !cmd.Flags().Changed("overscan") {
				overscan = e.Overscan
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = e.Threshold
			}
			if !cmd.Flags().Changed("strict") {
				strict = e.Strict
			}
			if count < 0 {
				return writeErr(cmd, errInvalidArg("--count", strconv.Itoa(count), ">= 0"))
			}
			if estimate < 0 {
				return writeErr(cmd, errInvalidArg("--estimate", strconv.Itoa(estimate), ">= 0"))
			}

			cache := heights.New(count, heights.Options{
				Estimate:          heights.EstimateConst(estimate),
				Threshold:         threshold,
				RelativeThreshold: e.RelativeThreshold,
			})
			list, err := window.New(countSeq(count), cache, window.Options{
				Overscan: overscan,
				Strict:   strict,
				Logger:   app.log,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			var ignored []string
			recorded := 0
			for _, raw := range measures {
				ms, err := parseMeasurement(raw)
				if err != nil {
					return writeErr(cmd, err)
				}
				obs := list.Observe(ms.index)
				if obs == nil {
					ignored = append(ignored, raw)
					continue
				}
				changed, err := obs.Report(ms.size)
				if err != nil {
					return writeErr(cmd, err)
				}
				if changed {
					recorded++
				} else {
					ignored = append(ignored, raw)
				}
			}

			r, err := list.VisibleRange(offset, viewport)
			if err != nil {
				return writeErr(cmd, err)
			}
			res := rangeResult{First: r.First, Last: r.Last, TotalSize: list.TotalSize(), Offsets: []int{}, Sizes: []int{}}
			for i := r.First; i <= r.Last; i++ {
				res.Offsets = append(res.Offsets, list.OffsetOf(i))
				res.Sizes = append(res.Sizes, list.SizeOf(i))
			}
			meta := map[string]any{"count": count, "measured": recorded}
			if len(ignored) > 0 {
				meta["ignored"] = ignored
			}
			return writeOut(cmd, app, format.Envelope{Data: res, Meta: meta})
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Number of rows")
	cmd.Flags().IntVar(&estimate, "estimate", 0, "Estimated row size (default from config)")
	cmd.Flags().IntVar(&viewport, "viewport", 0, "Viewport size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Scroll offset")
	cmd.Flags().IntVar(&overscan, "overscan", 0, "Rows rendered beyond each viewport edge (default from config)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Ignore measurements closer than this to the current size (default from config)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on contract violations instead of clamping")
	cmd.Flags().StringArrayVar(&measures, "measure", nil, "Measured size as index=size (repeatable)")
	_ = cmd.MarkFlagRequired("count")
	_ = cmd.MarkFlagRequired("viewport")
	return cmd
}
