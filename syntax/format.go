package syntax

import (
	"bytes"
	"fmt"

	"github.com/benbjohnson/schedval"
)

// Format returns fn in the textual block format. The output parses back to
// an equal function.
func Format(fn *schedval.Function) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "(function %s", fn.Name)
	for _, n := range fn.Nodes() {
		fmt.Fprintf(&buf, "\n  (block %d", n)
		if seq := fn.Seq[n]; seq != nil {
			fmt.Fprintf(&buf, "\n    %s", seq)
		}
		if par := fn.Par[n]; par != nil {
			fmt.Fprintf(&buf, "\n    %s", par)
		}
		buf.WriteString(")")
	}
	buf.WriteString(")\n")
	return buf.String()
}
