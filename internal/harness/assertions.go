package harness

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/protoboard/internal/engine"
	"github.com/roach88/protoboard/internal/ir"
)

// AssertionError describes one failed assertion.
type AssertionError struct {
	Type     string
	Node     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Node != "" {
		fmt.Fprintf(&buf, " %s", e.Node)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against ws and returns the
// failure messages.
func EvaluateAssertions(eng *engine.Engine, ws *ir.Workspace, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(eng, ws, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(eng *engine.Engine, ws *ir.Workspace, a Assertion) error {
	switch a.Type {
	case AssertChildren:
		return assertChildren(ws, a)
	case AssertProperty:
		return assertProperty(eng, ws, a)
	case AssertAbsent:
		return assertAbsent(eng, ws, a)
	case AssertBoards:
		return assertBoards(ws, a)
	case AssertBoardCount:
		return assertCount(a, len(ws.Boards))
	case AssertNodeCount:
		return assertCount(a, len(ws.ByID))
	case AssertHidden:
		return assertHidden(ws, a)
	case AssertTheme:
		return assertTheme(ws, a)
	case AssertMissing:
		if id, err := engine.Ref(ws, a.Node); err == nil {
			return &AssertionError{Type: a.Type, Node: a.Node, Expected: "no such node", Actual: string(id)}
		}
		return nil
	case AssertClean:
		if findings := engine.Check(ws); len(findings) > 0 {
			lines := make([]string, len(findings))
			for i, f := range findings {
				lines[i] = f.String()
			}
			return &AssertionError{Type: a.Type, Expected: "no findings", Actual: strings.Join(lines, "; ")}
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func lookup(ws *ir.Workspace, a Assertion) (*ir.Node, error) {
	id, err := engine.Ref(ws, a.Node)
	if err != nil {
		return nil, &AssertionError{Type: a.Type, Node: a.Node, Expected: "node exists", Actual: err.Error()}
	}
	n, _ := ws.Node(id)
	return n, nil
}

func assertChildren(ws *ir.Workspace, a Assertion) error {
	n, err := lookup(ws, a)
	if err != nil {
		return err
	}
	var want []string
	for _, c := range a.Expect.([]any) {
		want = append(want, fmt.Sprint(c))
	}
	var got []string
	for _, c := range n.Children {
		if child, ok := ws.Node(c); ok {
			got = append(got, string(child.Component))
		} else {
			got = append(got, "<missing "+string(c)+">")
		}
	}
	if !slices.Equal(want, got) {
		return &AssertionError{Type: a.Type, Node: a.Node, Expected: fmt.Sprint(want), Actual: fmt.Sprint(got)}
	}
	return nil
}

func resolved(eng *engine.Engine, ws *ir.Workspace, a Assertion) (ir.Value, bool, error) {
	n, err := lookup(ws, a)
	if err != nil {
		return nil, false, err
	}
	props, err := eng.Resolver().Node(ws, n.ID)
	if err != nil {
		return nil, false, err
	}
	v, ok := props.Get(a.Key)
	return v, ok, nil
}

// assertProperty compares a resolved value. A scalar expectation matches
// the payload of an atomic value of any type; a {type, value} mapping must
// match both.
func assertProperty(eng *engine.Engine, ws *ir.Workspace, a Assertion) error {
	v, ok, err := resolved(eng, ws, a)
	if err != nil {
		return err
	}
	fail := func(actual string) error {
		return &AssertionError{Type: a.Type, Node: a.Node + " " + a.Key, Expected: fmt.Sprint(a.Expect), Actual: actual}
	}
	if !ok {
		return fail("unset")
	}
	atomic, isAtomic := v.(ir.Atomic)
	if !isAtomic {
		return fail(fmt.Sprintf("compound %v", v))
	}

	if m, ok := a.Expect.(map[string]any); ok {
		want, err := decodeAtomic(m)
		if err != nil {
			return err
		}
		if want.Type != atomic.Type || !ir.LitEqual(want.Value, atomic.Value) {
			return fail(describe(atomic))
		}
		return nil
	}

	want, err := ir.FromGo(a.Expect)
	if err != nil {
		return err
	}
	if !ir.LitEqual(want, atomic.Value) {
		return fail(describe(atomic))
	}
	return nil
}

func assertAbsent(eng *engine.Engine, ws *ir.Workspace, a Assertion) error {
	v, ok, err := resolved(eng, ws, a)
	if err != nil {
		return err
	}
	if ok {
		return &AssertionError{Type: a.Type, Node: a.Node + " " + a.Key, Expected: "unset", Actual: fmt.Sprint(v)}
	}
	return nil
}

func assertBoards(ws *ir.Workspace, a Assertion) error {
	var want []string
	for _, b := range a.Expect.([]any) {
		want = append(want, fmt.Sprint(b))
	}
	var got []string
	for _, id := range ws.BoardIDs() {
		got = append(got, string(id))
	}
	if !slices.Equal(want, got) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(want), Actual: fmt.Sprint(got)}
	}
	return nil
}

func assertCount(a Assertion, got int) error {
	if got != *a.Count {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(*a.Count), Actual: fmt.Sprint(got)}
	}
	return nil
}

func assertHidden(ws *ir.Workspace, a Assertion) error {
	n, err := lookup(ws, a)
	if err != nil {
		return err
	}
	if !n.Hidden || n.InstanceOf != "" {
		return &AssertionError{Type: a.Type, Node: a.Node, Expected: "hidden and detached",
			Actual: fmt.Sprintf("hidden=%t instance_of=%q", n.Hidden, n.InstanceOf)}
	}
	return nil
}

func assertTheme(ws *ir.Workspace, a Assertion) error {
	n, err := lookup(ws, a)
	if err != nil {
		return err
	}
	if want := a.Expect.(string); n.Theme != want {
		return &AssertionError{Type: a.Type, Node: a.Node, Expected: want, Actual: n.Theme}
	}
	return nil
}

func decodeAtomic(m map[string]any) (ir.Atomic, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return ir.Atomic{}, err
	}
	var want ir.Atomic
	if err := json.Unmarshal(data, &want); err != nil {
		return ir.Atomic{}, fmt.Errorf("expected value: %w", err)
	}
	return want, nil
}

func describe(a ir.Atomic) string {
	payload, err := ir.MarshalCanonical(a.Value)
	if err != nil {
		return string(a.Type)
	}
	return fmt.Sprintf("%s %s", a.Type, payload)
}
