package catalog

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/protoboard/internal/ir"
)

// Load compiles every CUE file in dir into a validated catalog.
//
// The package is expected to declare two top-level structs:
//
//	component: button: {
//		label: "Button"
//		level: "element"
//		properties: radius: default: {type: "EXACT", value: 4}
//		children: [{component: "label"}]
//	}
//	theme: base: {
//		name: "Base"
//		sections: colors: primary: {name: "Primary", value: "#0af"}
//	}
func Load(dir string) (*Static, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog directory: not a directory: %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", formatCUEError(inst.Err))
	}
	return Build(ctx.BuildInstance(inst))
}

// Compile builds a catalog from CUE source text.
func Compile(src string) (*Static, error) {
	return Build(cuecontext.New().CompileString(src))
}

// Build extracts components and themes from a CUE value and validates the
// resulting catalog.
func Build(v cue.Value) (*Static, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	cat := New()

	if comps := v.LookupPath(cue.ParsePath("component")); comps.Exists() {
		iter, err := comps.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			schema, err := compileComponent(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			cat.schemas[schema.Component] = schema
		}
	}

	if themes := v.LookupPath(cue.ParsePath("theme")); themes.Exists() {
		iter, err := themes.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			th, err := compileTheme(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			cat.AddTheme(th)
		}
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func compileComponent(id string, v cue.Value) (*ir.ComponentSchema, error) {
	field := "component." + id
	s := &ir.ComponentSchema{
		Component:  ir.ComponentID(id),
		Label:      id,
		Properties: make(map[string]ir.SchemaProperty),
	}

	if label := v.LookupPath(cue.ParsePath("label")); label.Exists() {
		str, err := label.String()
		if err != nil {
			return nil, &CompileError{Field: field + ".label", Message: err.Error(), Pos: label.Pos()}
		}
		s.Label = str
	}

	levelVal := v.LookupPath(cue.ParsePath("level"))
	if !levelVal.Exists() {
		return nil, &CompileError{Field: field + ".level", Message: "level is required", Pos: v.Pos()}
	}
	level, err := levelVal.String()
	if err != nil {
		return nil, &CompileError{Field: field + ".level", Message: err.Error(), Pos: levelVal.Pos()}
	}
	s.Level = ir.Level(level)
	if !s.Level.Valid() {
		return nil, &CompileError{Field: field + ".level", Message: fmt.Sprintf("unknown level %q", level), Pos: levelVal.Pos()}
	}

	if props := v.LookupPath(cue.ParsePath("properties")); props.Exists() {
		iter, err := props.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			key := iter.Label()
			prop, err := compileSchemaProperty(field+".properties."+key, iter.Value())
			if err != nil {
				return nil, err
			}
			s.Properties[key] = prop
		}
	}

	if children := v.LookupPath(cue.ParsePath("children")); children.Exists() {
		iter, err := children.List()
		if err != nil {
			return nil, &CompileError{Field: field + ".children", Message: err.Error(), Pos: children.Pos()}
		}
		for i := 0; iter.Next(); i++ {
			child, err := compileChild(fmt.Sprintf("%s.children[%d]", field, i), iter.Value())
			if err != nil {
				return nil, err
			}
			s.Children = append(s.Children, child)
		}
	}

	return s, nil
}

func compileSchemaProperty(field string, v cue.Value) (ir.SchemaProperty, error) {
	var prop ir.SchemaProperty

	def := v.LookupPath(cue.ParsePath("default"))
	if !def.Exists() {
		return prop, &CompileError{Field: field + ".default", Message: "default is required", Pos: v.Pos()}
	}
	val, err := compileValue(field+".default", def)
	if err != nil {
		return prop, err
	}
	prop.Default = val

	if allowed := v.LookupPath(cue.ParsePath("allowed")); allowed.Exists() {
		l, err := litFromCUE(field+".allowed", allowed)
		if err != nil {
			return prop, err
		}
		list, ok := l.(ir.List)
		if !ok {
			return prop, &CompileError{Field: field + ".allowed", Message: "allowed must be a list", Pos: allowed.Pos()}
		}
		prop.Allowed = list
	}
	return prop, nil
}

func compileChild(field string, v cue.Value) (ir.ChildSpec, error) {
	var child ir.ChildSpec

	compVal := v.LookupPath(cue.ParsePath("component"))
	if !compVal.Exists() {
		return child, &CompileError{Field: field + ".component", Message: "component is required", Pos: v.Pos()}
	}
	comp, err := compVal.String()
	if err != nil {
		return child, &CompileError{Field: field + ".component", Message: err.Error(), Pos: compVal.Pos()}
	}
	child.Component = ir.ComponentID(comp)

	if props := v.LookupPath(cue.ParsePath("properties")); props.Exists() {
		child.Properties = ir.Properties{}
		iter, err := props.Fields()
		if err != nil {
			return child, formatCUEError(err)
		}
		for iter.Next() {
			val, err := compileValue(field+".properties."+iter.Label(), iter.Value())
			if err != nil {
				return child, err
			}
			child.Properties[iter.Label()] = val
		}
	}
	return child, nil
}

// compileValue reads an Atomic ({type, value}) or a Compound struct of
// atomics keyed by sub-property.
func compileValue(field string, v cue.Value) (ir.Value, error) {
	if typ := v.LookupPath(cue.ParsePath("type")); typ.Exists() {
		return compileAtomic(field, v)
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "value must be {type, value} or a struct of them", Pos: v.Pos()}
	}
	c := ir.Compound{}
	for iter.Next() {
		a, err := compileAtomic(field+"."+iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		c[iter.Label()] = a
	}
	return c, nil
}

func compileAtomic(field string, v cue.Value) (ir.Atomic, error) {
	typVal := v.LookupPath(cue.ParsePath("type"))
	typ, err := typVal.String()
	if err != nil {
		return ir.Atomic{}, &CompileError{Field: field + ".type", Message: "type must be a string", Pos: v.Pos()}
	}
	var payload ir.Lit = ir.Null{}
	if pv := v.LookupPath(cue.ParsePath("value")); pv.Exists() {
		payload, err = litFromCUE(field+".value", pv)
		if err != nil {
			return ir.Atomic{}, err
		}
	}
	a := ir.Atomic{Type: ir.ValueType(typ), Value: payload}
	if err := a.Validate(); err != nil {
		return ir.Atomic{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return a, nil
}

func compileTheme(id string, v cue.Value) (*ir.Theme, error) {
	field := "theme." + id
	th := &ir.Theme{ID: id, Name: id, Sections: make(map[string]map[string]ir.ThemeOption)}

	if name := v.LookupPath(cue.ParsePath("name")); name.Exists() {
		str, err := name.String()
		if err != nil {
			return nil, &CompileError{Field: field + ".name", Message: err.Error(), Pos: name.Pos()}
		}
		th.Name = str
	}

	sections := v.LookupPath(cue.ParsePath("sections"))
	if !sections.Exists() {
		return th, nil
	}
	secIter, err := sections.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for secIter.Next() {
		section := secIter.Label()
		slots := make(map[string]ir.ThemeOption)
		slotIter, err := secIter.Value().Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for slotIter.Next() {
			opt, err := compileOption(field+".sections."+section+"."+slotIter.Label(), slotIter.Label(), slotIter.Value())
			if err != nil {
				return nil, err
			}
			slots[slotIter.Label()] = opt
		}
		th.Sections[section] = slots
	}
	return th, nil
}

func compileOption(field, key string, v cue.Value) (ir.ThemeOption, error) {
	opt := ir.ThemeOption{Name: key, Value: ir.Null{}}
	if name := v.LookupPath(cue.ParsePath("name")); name.Exists() {
		str, err := name.String()
		if err != nil {
			return opt, &CompileError{Field: field + ".name", Message: err.Error(), Pos: name.Pos()}
		}
		opt.Name = str
	}
	valVal := v.LookupPath(cue.ParsePath("value"))
	if !valVal.Exists() {
		return opt, &CompileError{Field: field + ".value", Message: "value is required", Pos: v.Pos()}
	}
	lit, err := litFromCUE(field+".value", valVal)
	if err != nil {
		return opt, err
	}
	opt.Value = lit
	if d := v.LookupPath(cue.ParsePath("derived")); d.Exists() {
		b, err := d.Bool()
		if err != nil {
			return opt, &CompileError{Field: field + ".derived", Message: err.Error(), Pos: d.Pos()}
		}
		opt.Derived = b
	}
	return opt, nil
}

// litFromCUE converts a concrete CUE value into a Lit.
func litFromCUE(field string, v cue.Value) (ir.Lit, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.Int(i), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.Float(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.String(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var l ir.List
		for i := 0; iter.Next(); i++ {
			elem, err := litFromCUE(fmt.Sprintf("%s[%d]", field, i), iter.Value())
			if err != nil {
				return nil, err
			}
			l = append(l, elem)
		}
		if l == nil {
			l = ir.List{}
		}
		return l, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		m := ir.Map{}
		for iter.Next() {
			elem, err := litFromCUE(field+"."+iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			m[iter.Label()] = elem
		}
		return m, nil
	default:
		return nil, &CompileError{Field: field, Message: "value must be concrete", Pos: v.Pos()}
	}
}
