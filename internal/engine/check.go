package engine

import (
	"fmt"
	"sort"

	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/resolve"
)

// Finding is one invariant violation reported by Check.
type Finding struct {
	Code    ErrorCode      `json:"code"`
	NodeID  ir.NodeID      `json:"node,omitempty"`
	Board   ir.ComponentID `json:"board,omitempty"`
	Message string         `json:"message"`
}

func (f Finding) String() string {
	switch {
	case f.NodeID != "":
		return fmt.Sprintf("%s node=%s: %s", f.Code, f.NodeID, f.Message)
	case f.Board != "":
		return fmt.Sprintf("%s board=%s: %s", f.Code, f.Board, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// Check audits a snapshot for structural invariants:
//   - every board has exactly one default Variant, and lists only Variants
//     of its own component
//   - child and instanceOf references resolve
//   - instanceOf chains terminate
//   - only levels above primitive hold children
//   - no node has two parents
//
// Findings are sorted by board, then node, then code.
func Check(ws *ir.Workspace) []Finding {
	var out []Finding

	for _, bid := range ws.BoardIDs() {
		b := ws.Boards[bid]
		defaults := 0
		for _, vid := range b.Variants {
			n, ok := ws.Node(vid)
			if !ok {
				out = append(out, Finding{Code: ErrCodeMissingNode, Board: bid, NodeID: vid, Message: "board lists a missing variant"})
				continue
			}
			if !n.IsVariant() || n.Component != bid {
				out = append(out, Finding{Code: ErrCodeInvalidMutation, Board: bid, NodeID: vid, Message: "board lists a node that is not one of its variants"})
			}
			if n.Kind == ir.KindDefaultVariant {
				defaults++
			}
		}
		if defaults != 1 {
			out = append(out, Finding{Code: ErrCodeInvalidMutation, Board: bid, Message: fmt.Sprintf("board has %d default variants", defaults)})
		}
	}

	parents := make(map[ir.NodeID]ir.NodeID)
	for _, id := range ws.NodeIDs() {
		n := ws.ByID[id]
		if len(n.Children) > 0 && !n.Level.AllowsChildren() {
			out = append(out, Finding{Code: ErrCodeInvalidMutation, NodeID: id, Message: fmt.Sprintf("level %s holds children", n.Level)})
		}
		for _, c := range n.Children {
			if _, ok := ws.Node(c); !ok {
				out = append(out, Finding{Code: ErrCodeMissingNode, NodeID: id, Message: fmt.Sprintf("child %s does not exist", c)})
				continue
			}
			if prev, dup := parents[c]; dup {
				out = append(out, Finding{Code: ErrCodeInvalidMutation, NodeID: c, Message: fmt.Sprintf("node has two parents: %s and %s", prev, id)})
				continue
			}
			parents[c] = id
		}
		if _, err := resolve.Chain(ws, id); err != nil {
			out = append(out, Finding{Code: chainCode(err), NodeID: id, Message: err.Error()})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Board != out[j].Board {
			return out[i].Board < out[j].Board
		}
		if out[i].NodeID != out[j].NodeID {
			return out[i].NodeID < out[j].NodeID
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func chainCode(err error) ErrorCode {
	if ie, ok := chainError("", err).(*InvariantError); ok {
		return ie.Code
	}
	return ErrCodeInvalidMutation
}
