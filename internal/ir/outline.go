package ir

import (
	"fmt"
	"strings"
)

// Outline renders the workspace as an indented tree without node ids, so
// the output is stable across id generators. Overridden property keys are
// listed in brackets.
//
//	board button (element)
//	  defaultVariant button
//	    instance label [text]
func Outline(ws *Workspace) string {
	var b strings.Builder
	for _, bid := range ws.BoardIDs() {
		board := ws.Boards[bid]
		level := Level("")
		if dv, ok := ws.DefaultVariant(bid); ok {
			level = dv.Level
		}
		fmt.Fprintf(&b, "board %s (%s)", bid, level)
		if board.Theme != "" {
			fmt.Fprintf(&b, " theme=%s", board.Theme)
		}
		b.WriteByte('\n')
		for _, vid := range board.Variants {
			outlineNode(&b, ws, vid, 1)
		}
	}
	return b.String()
}

func outlineNode(b *strings.Builder, ws *Workspace, id NodeID, depth int) {
	n, ok := ws.ByID[id]
	if !ok {
		fmt.Fprintf(b, "%s<missing %s>\n", strings.Repeat("  ", depth), id)
		return
	}
	fmt.Fprintf(b, "%s%s %s", strings.Repeat("  ", depth), n.Kind, n.Component)
	if n.Name != "" {
		fmt.Fprintf(b, " %q", n.Name)
	}
	if len(n.Properties) > 0 {
		fmt.Fprintf(b, " [%s]", strings.Join(n.Properties.Keys(), ","))
	}
	if n.Theme != "" {
		fmt.Fprintf(b, " theme=%s", n.Theme)
	}
	if n.Hidden {
		b.WriteString(" hidden")
	}
	b.WriteByte('\n')
	for _, cid := range n.Children {
		outlineNode(b, ws, cid, depth+1)
	}
}
