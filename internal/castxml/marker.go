package castxml

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/maypok86/otter"

	"github.com/phobologic/lolpig/internal/render"
)

// Marker is the annotation macro that exports a declaration.
const Marker = "LOLPIG_DEF"

var markerRe = regexp.MustCompile(Marker + `\(\s*([A-Za-z0-9_.@]+)\s*,`)

// Annotation is the target name and doc recovered from a marker.
type Annotation struct {
	PyName     string
	Doc        string
	IsProperty bool
	IsSetter   bool
}

// FindMarker looks for the marker invocation that belongs to the
// declaration at the 1-based line. Only whitespace may separate the end of
// the invocation from the declaration; ok is false when the declaration is
// not annotated.
func FindMarker(lines []string, line int) (ann Annotation, ok bool, err error) {
	if line < 1 || line > len(lines) {
		return Annotation{}, false, fmt.Errorf("line number %d out of range", line)
	}
	end := line - 1
	if strings.TrimSpace(lines[end]) == "{" && end > 0 {
		end--
	}
	m := end - 1
	for m >= 0 && !strings.Contains(lines[m], Marker+"(") {
		m--
	}
	if m < 0 || strings.HasPrefix(strings.TrimSpace(lines[m]), "#") {
		return Annotation{}, false, nil
	}

	txt := strings.Join(lines[m:end], "\n") + "\n"
	loc := markerRe.FindStringSubmatchIndex(txt)
	if loc == nil {
		return Annotation{}, false, nil
	}
	closing := matchParen(txt, loc[1])
	if closing < 0 {
		return Annotation{}, false, nil
	}
	for _, c := range txt[closing+1:] {
		if !strings.ContainsRune(" \t\r\n)", c) {
			return Annotation{}, false, nil
		}
	}

	ann = annotationFor(txt[loc[2]:loc[3]])
	ann.Doc = markerDoc(txt[loc[1]:closing])
	return ann, true, nil
}

// matchParen returns the index of the ")" closing an already open
// parenthesis, scanning from start, or -1.
func matchParen(s string, start int) int {
	depth := 1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func annotationFor(name string) Annotation {
	switch {
	case strings.HasSuffix(name, "@get"):
		return Annotation{PyName: strings.TrimSuffix(name, "@get"), IsProperty: true}
	case strings.HasSuffix(name, "@set"):
		return Annotation{PyName: strings.TrimSuffix(name, "@set"), IsProperty: true, IsSetter: true}
	}
	return Annotation{PyName: name}
}

// markerDoc normalizes the doc argument of a marker. One pair of
// parentheses enclosing the whole doc is removed.
func markerDoc(raw string) string {
	doc := render.StripNewlines(raw)
	if t := strings.TrimSpace(doc); strings.HasPrefix(t, "(") && matchParen(t, 1) == len(t)-1 {
		doc = render.StripNewlines(t[1 : len(t)-1])
	}
	return strings.TrimSpace(render.ChangeTextIndent(doc, 0))
}

// source is the cached content of one input file. lines is nil for files
// that contain no marker.
type source struct {
	lines []string
}

// Sources caches the lines of scanned source files. It is safe for
// concurrent use.
type Sources struct {
	cache otter.Cache[string, source]
}

// DefaultSourceCapacity is the number of files NewSources keeps when
// given a non-positive capacity.
const DefaultSourceCapacity = 512

// NewSources returns a cache holding up to capacity files.
func NewSources(capacity int) (*Sources, error) {
	if capacity <= 0 {
		capacity = DefaultSourceCapacity
	}
	c, err := otter.MustBuilder[string, source](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("building source cache: %w", err)
	}
	return &Sources{cache: c}, nil
}

// Lines returns the lines of path, or nil when the file is not scannable:
// pseudo files such as "<built-in>" and files without any marker.
func (s *Sources) Lines(path string) ([]string, error) {
	if strings.HasPrefix(path, "<") {
		return nil, nil
	}
	if src, ok := s.cache.Get(path); ok {
		return src.lines, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var src source
	if content := string(data); strings.Contains(content, Marker) {
		src.lines = strings.Split(content, "\n")
	}
	s.cache.Set(path, src)
	return src.lines, nil
}

// Close releases the cache.
func (s *Sources) Close() {
	s.cache.Close()
}
