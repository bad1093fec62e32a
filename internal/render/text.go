package render

import (
	"regexp"
	"strings"
)

// Indent is one level of generated-code indentation.
const Indent = "    "

// ToCString escapes text for use inside a C string literal.
func ToCString(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, "\n", `\n`)
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, `"`, `\"`)
	return text
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

// StripNewlines removes leading blank lines and all trailing whitespace.
// Indentation directly preceding the first text is kept.
func StripNewlines(code string) string {
	if strings.TrimSpace(code) == "" {
		return ""
	}
	start := 0
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c == '\n' {
			start = i + 1
		}
		if c != ' ' && c != '\t' && c != '\n' {
			break
		}
	}
	end := len(code) - 1
	for end > 0 && isWhitespace(code[end]) {
		end--
	}
	if end < start {
		return ""
	}
	return code[start : end+1]
}

// ChangeTextIndent strips the common leading indentation of all non-blank
// lines and prefixes each of them with n spaces. Tabs count as one Indent.
// Runs of blank lines collapse into one and the trailing newline is dropped.
func ChangeTextIndent(code string, n int) string {
	lines := strings.Split(strings.ReplaceAll(code, "\t", Indent), "\n")
	minSpace := -1
	for _, line := range lines {
		i := strings.IndexFunc(line, func(r rune) bool { return r != ' ' && r != '\r' })
		if i < 0 {
			continue
		}
		if minSpace < 0 || i < minSpace {
			minSpace = i
		}
	}
	if minSpace < 0 {
		minSpace = 0
	}

	pre := strings.Repeat(" ", n)
	var b strings.Builder
	wasBlank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !wasBlank {
				b.WriteByte('\n')
			}
			wasBlank = true
			continue
		}
		b.WriteString(pre)
		b.WriteString(line[minSpace:])
		b.WriteByte('\n')
		wasBlank = false
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Var is one template substitution.
type Var struct {
	Key   string
	Value string
}

// ApplyStringDict replaces every %(key)s in code with its value. A key that
// is alone on its line (only whitespace before it) is replaced together
// with that whitespace by the value re-indented to the key's column; a key
// preceded by other text is replaced inline with the value at column zero.
// Vars are applied in order.
func ApplyStringDict(code string, vars []Var) string {
	for _, v := range vars {
		tag := "%(" + v.Key + ")s"
		from := 0
		for {
			rel := strings.Index(code[from:], tag)
			if rel < 0 {
				break
			}
			pos := from + rel
			lineStart := strings.LastIndexByte(code[:pos], '\n')
			indent := 0
			if lineStart < 0 {
				lineStart = pos
			} else {
				lineStart++
				for i := lineStart; i < pos; i++ {
					if !isWhitespace(code[i]) {
						lineStart = pos
						break
					}
				}
				indent = pos - lineStart
			}
			text := ChangeTextIndent(v.Value, indent)
			code = code[:lineStart] + text + code[pos+len(tag):]
			from = lineStart + len(text)
		}
	}
	return code
}

var cppAnnotationRe = regexp.MustCompile(`_CPP_(\([A-Za-z]*\))?:`)

// SplitDocCpp separates a doc string from its trailing _CPP_ annotations.
// "_CPP_:" starts the unnamed annotation, "_CPP_(NAME):" a named one; keys
// are upper-cased and the first annotation of a name wins.
func SplitDocCpp(text string) (string, map[string]string) {
	annotations := map[string]string{}
	if !strings.Contains(text, "_CPP_") {
		return text, annotations
	}
	matches := cppAnnotationRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, annotations
	}
	for i, m := range matches {
		key := ""
		if m[2] >= 0 {
			key = strings.ToUpper(strings.Trim(text[m[2]:m[3]], "()"))
		}
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		if _, ok := annotations[key]; !ok {
			annotations[key] = StripNewlines(text[m[1]:end])
		}
	}
	return strings.TrimSpace(text[:matches[0][0]]), annotations
}
