package doxygen

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/lolpig/internal/diag"
	"github.com/phobologic/lolpig/internal/model"
)

const groupXML = `<?xml version='1.0' encoding='UTF-8' standalone='no'?>
<doxygen xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" version="1.9.1">
  <compounddef id="group__python" kind="group">
    <compoundname>python</compoundname>
    <innerclass refid="struct_m_o_1_1_vector3" prot="public">MO::Vector3</innerclass>
    <innerclass refid="struct_m_o_1_1_base" prot="public">MO::Base</innerclass>
    <sectiondef kind="func">
      <memberdef kind="function" id="group__python_1ga1" prot="public" static="no">
        <type><ref refid="struct__object" kindref="compound">PyObject</ref> *</type>
        <definition>PyObject * MO::add</definition>
        <argsstring>(PyObject *args)</argsstring>
        <name>add</name>
        <qualifiedname>MO::add</qualifiedname>
        <param>
          <type><ref refid="struct__object" kindref="compound">PyObject</ref> *</type>
          <declname>args</declname>
        </param>
        <briefdescription>
<para>Adds things. </para>
        </briefdescription>
        <detaileddescription>
<para><computeroutput>add</computeroutput> Returns the <bold>sum</bold> of args. </para>
<para>Second paragraph. </para>
        </detaileddescription>
        <location file="vec.cpp" line="25" column="11"/>
      </memberdef>
      <memberdef kind="function" id="group__python_1ga2" prot="public" static="no">
        <type>int</type>
        <name>vec3_init</name>
        <qualifiedname>MO::vec3_init</qualifiedname>
        <param><type>PyObject *</type><declname>self</declname></param>
        <param><type>PyObject *</type><declname>args</declname></param>
        <param><type>PyObject *</type><declname>kwargs</declname></param>
        <briefdescription></briefdescription>
        <detaileddescription>
<para><computeroutput>vec3.__init__</computeroutput></para>
        </detaileddescription>
        <location file="vec.cpp" line="19"/>
      </memberdef>
      <memberdef kind="function" id="group__python_1ga3" prot="public" static="no">
        <type>PyObject *</type>
        <name>vec3_x</name>
        <qualifiedname>MO::vec3_x</qualifiedname>
        <param><type>PyObject *</type><declname>self</declname></param>
        <param><type>void *</type><declname>closure</declname></param>
        <briefdescription></briefdescription>
        <detaileddescription>
<para><computeroutput>vec3.x@get</computeroutput> The x value. </para>
        </detaileddescription>
        <location file="vec.cpp" line="29"/>
      </memberdef>
      <memberdef kind="function" id="group__python_1ga4" prot="public" static="no">
        <type>PyObject *</type>
        <name>ghost_method</name>
        <param><type>PyObject *</type><declname>self</declname></param>
        <detaileddescription>
<para><computeroutput>ghost.method</computeroutput></para>
        </detaileddescription>
        <location file="vec.cpp" line="33"/>
      </memberdef>
      <memberdef kind="function" id="group__python_1ga5" prot="public" static="no">
        <type>const char *</type>
        <name>version</name>
        <param><type>void</type></param>
        <detaileddescription>
<para><computeroutput>version</computeroutput> Library version. </para>
        </detaileddescription>
        <location file="vec.cpp" line="40"/>
      </memberdef>
      <memberdef kind="variable" id="group__python_1ga6" prot="public" static="no">
        <type>int</type>
        <name>counter</name>
      </memberdef>
    </sectiondef>
  </compounddef>
</doxygen>
`

const vectorXML = `<?xml version='1.0' encoding='UTF-8' standalone='no'?>
<doxygen version="1.9.1">
  <compounddef id="struct_m_o_1_1_vector3" kind="struct" language="C++" prot="public">
    <compoundname>MO::Vector3</compoundname>
    <basecompoundref refid="struct_m_o_1_1_base" prot="public" virt="non-virtual">MO::Base</basecompoundref>
    <briefdescription></briefdescription>
    <detaileddescription>
<para><computeroutput>vec3</computeroutput> The vector class </para>
    </detaileddescription>
    <location file="vec.cpp" line="13" column="1" bodyfile="vec.cpp" bodystart="14" bodyend="16"/>
  </compounddef>
</doxygen>
`

const baseXML = `<?xml version='1.0' encoding='UTF-8' standalone='no'?>
<doxygen version="1.9.1">
  <compounddef id="struct_m_o_1_1_base" kind="struct" language="C++" prot="public">
    <compoundname>MO::Base</compoundname>
    <briefdescription><para>Base class </para></briefdescription>
    <detaileddescription>
<para><computeroutput>base</computeroutput></para>
    </detaileddescription>
    <location file="vec.cpp" line="8"/>
  </compounddef>
</doxygen>
`

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeSampleOutput(t *testing.T, dir string) {
	t.Helper()
	writeTestFile(t, dir, "group__python.xml", groupXML)
	writeTestFile(t, dir, "struct_m_o_1_1_vector3.xml", vectorXML)
	writeTestFile(t, dir, "struct_m_o_1_1_base.xml", baseXML)
}

func TestParseDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeSampleOutput(t, dir)

	var logs bytes.Buffer
	p := New(nil, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	ctx, err := p.ParseDir(dir, []string{"vec.cpp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"vec.cpp"}, ctx.Inputs)

	require.Len(t, ctx.Classes, 2)
	vec, base := ctx.Classes[0], ctx.Classes[1]

	assert.Equal(t, "Vector3", vec.CName)
	assert.Equal(t, "vec3", vec.PyName)
	assert.Equal(t, "The vector class", vec.Doc)
	assert.Equal(t, []string{"::", "MO"}, vec.Namespaces)
	assert.Equal(t, "vec.cpp", vec.File)
	assert.Equal(t, 13, vec.Line)
	require.Len(t, vec.Bases, 1)
	assert.Same(t, base, vec.Bases[0])

	assert.Equal(t, "base", base.PyName)
	assert.Equal(t, "Base class", base.Doc)

	require.Len(t, vec.Methods, 2)
	assert.Equal(t, "vec3.__init__", vec.Methods[0].PyName)
	assert.Equal(t, []string{"PyObject*", "PyObject*", "PyObject*"}, vec.Methods[0].ParamTypes())
	getter := vec.Methods[1]
	assert.Equal(t, "vec3.x", getter.PyName)
	assert.True(t, getter.IsProperty)
	assert.False(t, getter.IsSetter)
	assert.Equal(t, "The x value.", getter.Doc)
	assert.Equal(t, []string{"PyObject*", "void*"}, getter.ParamTypes())

	require.Len(t, ctx.Functions, 2)
	add, version := ctx.Functions[0], ctx.Functions[1]
	assert.Equal(t, "add", add.CName)
	assert.Equal(t, "group__python_1ga1", add.ID)
	assert.Equal(t, "PyObject*", add.ReturnType)
	assert.Equal(t, []model.Argument{{Type: "PyObject*", Name: "args"}}, add.Arguments)
	assert.Equal(t, []string{"::", "MO"}, add.Namespaces)
	assert.Equal(t, "Adds things.\nReturns the sum of args.\nSecond paragraph.", add.Doc)
	assert.Equal(t, 25, add.Line)

	assert.Equal(t, "version", version.PyName)
	assert.Equal(t, "const char*", version.ReturnType)
	assert.Empty(t, version.Arguments)
	assert.Equal(t, []string{"::"}, version.Namespaces)
	assert.Equal(t, "Library version.", version.Doc)

	assert.Contains(t, logs.String(), "dropping method of unknown class")
}

func TestParseDirMissingGroup(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeSampleOutput(t, dir)

	ctx, err := New(nil, WithGroups("lolpig")).ParseDir(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, ctx.Classes)
	assert.Empty(t, ctx.Functions)
}

func TestParseDirNoPythonName(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "group__python.xml", `<doxygen><compounddef id="group__python" kind="group">
  <sectiondef kind="func">
    <memberdef kind="function" id="f1">
      <type>int</type>
      <name>broken</name>
      <detaileddescription><para>Just prose.</para></detaileddescription>
      <location file="a.cpp" line="3"/>
    </memberdef>
  </sectiondef>
</compounddef></doxygen>`)

	_, err := New(nil).ParseDir(dir, nil)
	var pe *diag.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Msg, "no python name defined in documentation")
	assert.Contains(t, pe.Trace, "parsing function broken")
}

func TestParseDirMissingInnerClass(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "group__python.xml", `<doxygen><compounddef id="group__python" kind="group">
  <innerclass refid="struct_gone">Gone</innerclass>
</compounddef></doxygen>`)

	_, err := New(nil).ParseDir(dir, nil)
	var pe *diag.ParseError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseDirNoCompound(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "group__python.xml", `<doxygen></doxygen>`)

	_, err := New(nil).ParseDir(dir, nil)
	assert.ErrorContains(t, err, "no compounddef")
}

type fakeRunner struct {
	config string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	f.config = string(data)
	if f.err != nil {
		return f.err
	}
	out := filepath.Join(filepath.Dir(configPath), XMLOutput)
	for name, content := range map[string]string{
		"group__python.xml":          groupXML,
		"struct_m_o_1_1_vector3.xml": vectorXML,
		"struct_m_o_1_1_base.xml":    baseXML,
	} {
		if err := os.MkdirAll(out, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(out, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func TestParse(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	p := New(runner, WithTempDir(t.TempDir()))

	ctx, err := p.Parse(context.Background(), []string{"vec.cpp"})
	require.NoError(t, err)
	assert.Len(t, ctx.Classes, 2)
	assert.Len(t, ctx.Functions, 2)
	assert.Contains(t, runner.config, "vec.cpp")
}

func TestParseRunnerError(t *testing.T) {
	t.Parallel()
	toolErr := &diag.ToolError{Tool: "doxygen", Err: errors.New("exit status 1")}
	p := New(&fakeRunner{err: toolErr}, WithTempDir(t.TempDir()))

	_, err := p.Parse(context.Background(), []string{"vec.cpp"})
	var te *diag.ToolError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, err.Error(), "running doxygen")
}

func TestExecRunnerMissingTool(t *testing.T) {
	t.Parallel()
	conf := filepath.Join(t.TempDir(), "Doxyfile")
	writeTestFile(t, filepath.Dir(conf), "Doxyfile", Doxyfile(nil, filepath.Dir(conf)))

	err := (&ExecRunner{Executable: "lolpig-no-such-doxygen"}).Run(context.Background(), conf)
	var te *diag.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, []string{conf}, te.Args)
}

func TestDoxyfile(t *testing.T) {
	t.Parallel()
	conf := Doxyfile([]string{"a.cpp", "dir with space/b.h"}, "/tmp/out")

	settings := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(conf), "\n") {
		key, value, ok := strings.Cut(line, "=")
		require.True(t, ok, line)
		settings[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	assert.Equal(t, `a.cpp "dir with space/b.h"`, settings["INPUT"])
	assert.Equal(t, "/tmp/out", settings["OUTPUT_DIRECTORY"])
	assert.Equal(t, "YES", settings["GENERATE_XML"])
	assert.Equal(t, XMLOutput, settings["XML_OUTPUT"])
	assert.Equal(t, "NO", settings["GENERATE_HTML"])
	assert.Equal(t, "YES", settings["HIDE_UNDOC_MEMBERS"])
	assert.Equal(t, "YES", settings["SKIP_FUNCTION_MACROS"])
}

func TestNormalizeType(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"PyObject *":          "PyObject*",
		"  const   char *":    "const char*",
		"struct _object *":    "_object*",
		"int &":               "int&",
		"PyObject * *":        "PyObject**",
		"Py_ssize_t":          "Py_ssize_t",
		"struct PyMemberDef*": "PyMemberDef*",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeType(in), in)
	}
}

func TestEscapeName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "python", escapeName("python"))
	assert.Equal(t, "my___group", escapeName("my_Group"))
}

func TestParseTreeMixedContent(t *testing.T) {
	t.Parallel()
	root, err := parseTree(strings.NewReader(`<p>one <b>two</b> three <i>four</i></p>`))
	require.NoError(t, err)
	assert.Equal(t, "one ", root.text)
	require.Len(t, root.children, 2)
	assert.Equal(t, " three ", root.children[0].tail)
	assert.Equal(t, "one two three four", root.innerText())

	_, err = parseTree(strings.NewReader(""))
	assert.Error(t, err)
}
