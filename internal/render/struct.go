package render

import (
	"fmt"
	"strings"

	"github.com/phobologic/lolpig/internal/ctypes"
)

// RenderStruct renders a static aggregate initializer for layout. Every
// member is written in declaration order with a comment naming it and a
// cast to its declared type; members missing from values become NULL.
// firstLine, when set, is emitted before the members (e.g. a HEAD_INIT macro).
func RenderStruct(layout ctypes.Layout, name string, values map[string]string, firstLine string) string {
	nameWidth, typeWidth := 1, 1
	for _, m := range layout.Members {
		nameWidth = max(nameWidth, len(m.Name))
		typeWidth = max(typeWidth, len(m.Type))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "static %s %s =\n{\n", layout.Name, name)
	if firstLine != "" {
		b.WriteString(Indent + firstLine + "\n")
	}
	for i, m := range layout.Members {
		value, ok := values[m.Name]
		if !ok || value == "" {
			value = "NULL"
		}
		cast := "static_cast"
		if m.Name == "tp_new" {
			cast = "reinterpret_cast"
		}
		fmt.Fprintf(&b, "%s%-*s %-*s(%s)",
			Indent,
			nameWidth+6, "/* "+m.Name+" */",
			typeWidth+13, cast+"<"+m.Type+">",
			value)
		if i < len(layout.Members)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "}; /* %s */\n", name)
	return b.String()
}
