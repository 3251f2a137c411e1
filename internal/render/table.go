// Package render turns a DataView/ViewportManager pair into the plain-text
// table the CLI prints. The interactive terminal renderer (raw-mode key
// capture, ANSI cursor positioning) is an external collaborator the engine
// hands fresh state to; this package covers the non-interactive surface
// (--query output, status lines) that cmd/gridwalk drives directly.
package render

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/gridwalk-cli/gridwalk/internal/view"
)

// Table writes v's visible rows and columns to w as an aligned, tab-stopped
// grid, mirroring what a results-mode viewport would show for one screen's
// worth of rows (the caller chooses first/count).
func Table(ctx context.Context, w io.Writer, v *view.DataView, lineNumbers bool, first, count int) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)

	names := v.ColumnNames()
	if lineNumbers {
		fmt.Fprint(tw, "#\t")
	}
	for i, name := range names {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, name)
	}
	fmt.Fprintln(tw)

	rowCount := v.RowCount()
	last := first + count
	if last > rowCount {
		last = rowCount
	}
	for i := first; i < last; i++ {
		row, err := v.GetRow(ctx, i)
		if err != nil {
			return err
		}
		if lineNumbers {
			fmt.Fprint(tw, strconv.Itoa(i)+"\t")
		}
		for c, val := range row.Values {
			if c > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, val.String())
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// Status formats a one-line "N rows" summary.
func Status(v *view.DataView) string {
	return fmt.Sprintf("%d rows", v.RowCount())
}
