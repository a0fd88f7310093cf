package engine

import (
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/protoboard/internal/ir"
)

// Ref resolves a node reference used by scripts and scenarios.
//
//	"$button"      default Variant of the button board
//	"$button.0.1"  second child of the first child of that Variant
//	"$button@2.0"  first child of the board's third Variant
//	"n42"          a literal node id
func Ref(ws *ir.Workspace, ref string) (ir.NodeID, error) {
	rest, ok := strings.CutPrefix(ref, "$")
	if !ok {
		if _, ok := ws.Node(ir.NodeID(ref)); !ok {
			return "", missingNode(ir.NodeID(ref))
		}
		return ir.NodeID(ref), nil
	}

	parts := strings.Split(rest, ".")
	root, err := refRoot(ws, ref, parts[0])
	if err != nil {
		return "", err
	}
	path := make(Path, 0, len(parts)-1)
	for _, p := range parts[1:] {
		idx, err := strconv.Atoi(p)
		if err != nil {
			return "", invalid("reference %q: child index %q is not a number", ref, p)
		}
		path = append(path, idx)
	}
	id, ok := FindByPath(ws, root, path)
	if !ok {
		return "", &InvariantError{Code: ErrCodeMissingNode, Message: "reference " + ref + " does not resolve"}
	}
	return id, nil
}

// refRoot resolves the "component" or "component@k" head of a reference.
func refRoot(ws *ir.Workspace, ref, head string) (ir.NodeID, error) {
	name, at, indexed := strings.Cut(head, "@")
	comp := ir.ComponentID(name)
	if !indexed {
		dv, ok := ws.DefaultVariant(comp)
		if !ok {
			return "", missingBoard(comp)
		}
		return dv.ID, nil
	}
	b, ok := ws.Board(comp)
	if !ok {
		return "", missingBoard(comp)
	}
	k, err := strconv.Atoi(at)
	if err != nil {
		return "", invalid("reference %q: variant index %q is not a number", ref, at)
	}
	if k < 0 || k >= len(b.Variants) {
		return "", &InvariantError{Code: ErrCodeMissingNode, Message: "reference " + ref + " does not resolve", Component: comp}
	}
	return b.Variants[k], nil
}

// RefOf is the inverse of Ref: it names id by its path below the Variant
// that contains it. The default Variant is written without an index. Nodes
// outside every Variant keep their literal id.
func RefOf(ws *ir.Workspace, id ir.NodeID) string {
	root, path, err := PathOf(ws, id)
	if err != nil {
		return string(id)
	}
	n, ok := ws.Node(root)
	if !ok || !n.IsVariant() {
		return string(id)
	}
	var b strings.Builder
	b.WriteString("$")
	b.WriteString(string(n.Component))
	if n.Kind != ir.KindDefaultVariant {
		board, ok := ws.Board(n.Component)
		if !ok {
			return string(id)
		}
		k := slices.Index(board.Variants, root)
		if k < 0 {
			return string(id)
		}
		b.WriteString("@")
		b.WriteString(strconv.Itoa(k))
	}
	for _, idx := range path {
		b.WriteString(".")
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

// Resolve returns a copy of env with its node, source and parent
// references replaced by literal ids.
func (e Envelope) Resolve(ws *ir.Workspace) (Envelope, error) {
	for _, field := range []*string{&e.Node, &e.Source, &e.Parent} {
		if *field == "" {
			continue
		}
		id, err := Ref(ws, *field)
		if err != nil {
			return Envelope{}, err
		}
		*field = string(id)
	}
	return e, nil
}

// Portable returns a copy of env with literal ids rewritten as path
// references, so the envelope can be replayed against a workspace built
// with a different id generator.
func (e Envelope) Portable(ws *ir.Workspace) Envelope {
	for _, field := range []*string{&e.Node, &e.Source, &e.Parent} {
		if *field == "" || strings.HasPrefix(*field, "$") {
			continue
		}
		*field = RefOf(ws, ir.NodeID(*field))
	}
	return e
}
