package testutil

import (
	"github.com/roach88/protoboard/internal/catalog"
	"github.com/roach88/protoboard/internal/theme"
)

// FixtureCUE is a small component catalog shared by package tests:
// screen > card > (label, button > (label, icon)).
const FixtureCUE = `
component: label: {
	label: "Label"
	level: "primitive"
	properties: {
		text: default: {type: "EXACT", value: "Label"}
		color: default: {type: "THEME_CATEGORICAL", value: "@colors.text"}
	}
}

component: icon: {
	label: "Icon"
	level: "primitive"
	properties: glyph: {
		default: {type: "PRESET", value: "star"}
		allowed: ["star", "heart", "check"]
	}
}

component: button: {
	label: "Button"
	level: "element"
	properties: {
		radius: default: {type: "EXACT", value: 4}
		border: default: {
			width: {type: "EXACT", value: 1}
			color: {type: "THEME_CATEGORICAL", value: "@colors.primary"}
		}
	}
	children: [
		{component: "label", properties: text: {type: "EXACT", value: "Button"}},
		{component: "icon"},
	]
}

component: card: {
	label: "Card"
	level: "part"
	properties: padding: default: {
		top: {type: "THEME_ORDINAL", value: "@spacing.md"}
		bottom: {type: "THEME_ORDINAL", value: "@spacing.md"}
	}
	children: [
		{component: "label", properties: text: {type: "EXACT", value: "Title"}},
		{component: "button"},
	]
}

component: screen: {
	label: "Screen"
	level: "screen"
	children: [{component: "card"}]
}

theme: light: {
	name: "Light"
	sections: {
		colors: {
			primary: {name: "Primary", value: "#0a84ff"}
			text: {name: "Text", value: "#1c1c1e"}
			customSea: {name: "Sea", value: "#2ec4b6"}
		}
		spacing: {
			md: {name: "Medium", value: 16}
			lg: {name: "Large", value: 24, derived: true}
		}
	}
}

theme: dark: {
	name: "Dark"
	sections: {
		colors: {
			primary: {name: "Primary", value: "#64d2ff"}
			text: {name: "Text", value: "#f2f2f7"}
			teal: {name: "Teal", value: "#2ec4b6"}
		}
		spacing: md: {name: "Medium", value: 16}
	}
}
`

// Catalog compiles FixtureCUE. It panics on error: the fixture is static.
func Catalog() *catalog.Static {
	cat, err := catalog.Compile(FixtureCUE)
	if err != nil {
		panic("testutil: fixture catalog: " + err.Error())
	}
	return cat
}

// Themes returns a provider over the fixture catalog's themes.
func Themes() *theme.Static {
	return theme.NewStatic(Catalog().Themes())
}
