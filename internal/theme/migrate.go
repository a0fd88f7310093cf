package theme

import (
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/protoboard/internal/ir"
)

// Tier records how a single token reference was remapped.
type Tier int

const (
	// TierUnchanged means the reference was left as is: the value was not
	// a token, the old option was missing, or detaching was skipped.
	TierUnchanged Tier = iota
	// TierSameSlot kept the reference because the new theme has the slot.
	TierSameSlot
	// TierDisplayName matched a custom slot by display name.
	TierDisplayName
	// TierValue matched a slot with an equal underlying value.
	TierValue
	// TierDetached replaced the reference with a literal snapshot.
	TierDetached
)

func (t Tier) String() string {
	switch t {
	case TierSameSlot:
		return "same-slot"
	case TierDisplayName:
		return "display-name"
	case TierValue:
		return "value"
	case TierDetached:
		return "detached"
	default:
		return "unchanged"
	}
}

func (t Tier) rewrites() bool {
	return t == TierDisplayName || t == TierValue || t == TierDetached
}

const customPrefix = "custom"

// Migrator remaps token references from one theme to another.
type Migrator struct {
	logger *slog.Logger
	fold   cases.Caser
}

// NewMigrator creates a Migrator. A nil logger uses slog.Default().
func NewMigrator(logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{logger: logger, fold: cases.Fold()}
}

// Properties returns props with every token reference remapped from
// oldTheme to newTheme, and whether anything changed. Each property is
// migrated independently: a lookup miss leaves that property untouched.
func (m *Migrator) Properties(props ir.Properties, oldTheme, newTheme *ir.Theme) (ir.Properties, bool) {
	if len(props) == 0 {
		return props, false
	}
	out := props.Clone()
	changed := false
	for _, key := range props.Keys() {
		switch v := props[key].(type) {
		case ir.Atomic:
			if next, tier := m.Atomic(v, oldTheme, newTheme); tier.rewrites() {
				out[key] = next
				changed = true
			}
		case ir.Compound:
			c := out[key].(ir.Compound)
			for sub, a := range v {
				if next, tier := m.Atomic(a, oldTheme, newTheme); tier.rewrites() {
					c[sub] = next
					changed = true
				}
			}
		}
	}
	if !changed {
		return props, false
	}
	return out, true
}

// Atomic migrates a single value and reports the tier that matched.
func (m *Migrator) Atomic(a ir.Atomic, oldTheme, newTheme *ir.Theme) (ir.Atomic, Tier) {
	raw, ok := a.TokenRef()
	if !ok {
		return a, TierUnchanged
	}
	ref, err := ir.ParseTokenRef(raw)
	if err != nil {
		m.logger.Warn("malformed token reference left in place", "ref", raw, "error", err)
		return a, TierUnchanged
	}
	oldOpt, ok := oldTheme.Option(ref)
	if !ok {
		m.logger.Warn("theme option not found, property left unchanged",
			"theme", oldTheme.ID,
			"ref", raw)
		return a, TierUnchanged
	}

	if _, ok := newTheme.Option(ref); ok {
		return a, TierSameSlot
	}

	if strings.HasPrefix(ref.Key, customPrefix) {
		want := m.fold.String(oldOpt.Name)
		for _, key := range newTheme.SlotKeys(ref.Section) {
			opt := newTheme.Sections[ref.Section][key]
			if m.fold.String(opt.Name) == want {
				return repoint(a, ref.Section, key), TierDisplayName
			}
		}
	}

	for _, key := range newTheme.SlotKeys(ref.Section) {
		if ir.LitEqual(newTheme.Sections[ref.Section][key].Value, oldOpt.Value) {
			return repoint(a, ref.Section, key), TierValue
		}
	}

	if oldOpt.Derived {
		m.logger.Debug("derived token not detached", "ref", raw)
		return a, TierUnchanged
	}
	return ir.Exact(oldOpt.Value), TierDetached
}

func repoint(a ir.Atomic, section, key string) ir.Atomic {
	return ir.Atomic{Type: a.Type, Value: ir.String(ir.TokenRef{Section: section, Key: key}.String())}
}
