package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phobologic/lolpig/internal/ctypes"
	"github.com/phobologic/lolpig/internal/model"
)

const defaultNewTemplate = `/* Creates new instance of %(name)s class. */
PyObject* %(func)s(struct _typeobject * type, PyObject *, PyObject *)
{
    return PyObject_New(PyObject, type);
}
`

const defaultDeallocTemplate = `/* Deletes a %(name)s instance */
void %(func)s(PyObject* self)
{
    self->ob_type->tp_free(self);
}
`

const classInitTemplate = `void %(func)s(PyObject* module)
{
    if (0 != PyType_Ready(&%(type_struct)s))
    {
        CPPY_ERROR("Failed to readify class %(py_name)s for Python module");
        return;
    }
    PyObject* object = reinterpret_cast<PyObject*>(&%(type_struct)s);
    Py_INCREF(object);
    if (0 != PyModule_AddObject(module, "%(py_name)s", object))
    {
        Py_DECREF(object);
        CPPY_ERROR("Failed to add class %(py_name)s to Python module");
    }
}
`

func (r *Renderer) classDef(cls *model.Class) string {
	n := cls.Names
	var b strings.Builder
	fmt.Fprintf(&b, "/* ---- class %s ---- */\n\n", cls.PyName)
	fmt.Fprintf(&b, "static const char* %s = \"%s\";\n", n.DocString, docString(cls.Doc))

	if len(cls.NormalMethods) > 0 {
		fmt.Fprintf(&b, "\n\n/* ---- %s methods ---- */\n", cls.PyName)
		b.WriteString(methodStruct(n.MethodStruct, cls.NormalMethods))
	}
	if cls.HasNumberMethods() {
		fmt.Fprintf(&b, "\n\n/* ---- %s number methods ---- */\n", cls.PyName)
		b.WriteString("/* https://docs.python.org/3/c-api/typeobj.html#number-object-structures */\n")
		b.WriteString(RenderStruct(ctypes.PyNumberMethods, n.NumberStruct, slotValues(cls, ctypes.NumberFuncs), ""))
	}
	if cls.HasSequenceMethods() {
		fmt.Fprintf(&b, "\n\n/* ---- %s sequence methods ---- */\n", cls.PyName)
		b.WriteString("/* https://docs.python.org/3/c-api/typeobj.html#sequence-object-structures */\n")
		b.WriteString(RenderStruct(ctypes.PySequenceMethods, n.SequenceStruct, slotValues(cls, ctypes.SequenceFuncs), ""))
	}
	props := cls.Properties()
	if len(props) > 0 {
		fmt.Fprintf(&b, "\n\n/* ---- %s properties ---- */\n", cls.PyName)
		b.WriteString(getSetStruct(n.GetSetStruct, props))
	}

	b.WriteString("\n")
	if !cls.HasMethod("__new__") {
		b.WriteString(ApplyStringDict(defaultNewTemplate, []Var{{"name", cls.PyName}, {"func", n.NewFunc}}))
		b.WriteString("\n")
	}
	if !cls.HasMethod("__dealloc__") {
		b.WriteString(ApplyStringDict(defaultDeallocTemplate, []Var{{"name", cls.PyName}, {"func", n.DeallocFunc}}))
		b.WriteString("\n")
	}

	b.WriteString("/* https://docs.python.org/3/c-api/typeobj.html */\n")
	b.WriteString(RenderStruct(ctypes.PyTypeObject, n.TypeStruct, r.typeValues(cls, props), "PyVarObject_HEAD_INIT(NULL, 0)"))
	b.WriteString("\n")
	b.WriteString(ApplyStringDict(classInitTemplate, []Var{
		{"func", n.InitFunc},
		{"type_struct", n.TypeStruct},
		{"py_name", cls.PyName},
	}))
	return b.String()
}

func (r *Renderer) typeValues(cls *model.Class, props []model.Property) map[string]string {
	n := cls.Names
	size := "sizeof(" + cls.FullCName() + ")"
	if cls.StructSize > 0 {
		size = strconv.Itoa(cls.StructSize)
	}
	values := map[string]string{
		"tp_name":      `"` + r.ctx.ModuleName + "." + cls.PyName + `"`,
		"tp_basicsize": size,
		"tp_dealloc":   n.DeallocFunc,
		"tp_flags":     "Py_TPFLAGS_DEFAULT | Py_TPFLAGS_BASETYPE",
		"tp_doc":       n.DocString,
		"tp_new":       n.NewFunc,
	}
	if len(cls.NormalMethods) > 0 {
		values["tp_methods"] = n.MethodStruct
	}
	if len(props) > 0 {
		values["tp_getset"] = n.GetSetStruct
	}
	// single inheritance: only the first base is wired
	if len(cls.Bases) > 0 {
		values["tp_base"] = "&" + cls.Bases[0].Names.TypeStruct
	}
	for k, v := range slotValues(cls, ctypes.TypeFuncs) {
		values[k] = v
	}
	if cls.HasSequenceMethods() {
		values["tp_as_sequence"] = "&" + n.SequenceStruct
	}
	if cls.HasNumberMethods() {
		values["tp_as_number"] = "&" + n.NumberStruct
	}
	return values
}

// slotValues maps descriptor members to the class methods implementing them.
// When several methods share a member the last in table order wins.
func slotValues(cls *model.Class, table []ctypes.Slot) map[string]string {
	values := map[string]string{}
	for _, s := range table {
		if m := cls.Method(s.Method); m != nil {
			values[s.Member] = m.FullCName()
		}
	}
	return values
}

func getSetStruct(name string, props []model.Property) string {
	var b strings.Builder
	fmt.Fprintf(&b, "static PyGetSetDef %s[] =\n{\n", name)
	for _, p := range props {
		get, set := "NULL", "NULL"
		if p.Getter != nil {
			get = "reinterpret_cast<getter>(" + p.Getter.FullCName() + ")"
		}
		if p.Setter != nil {
			set = "reinterpret_cast<setter>(" + p.Setter.FullCName() + ")"
		}
		fmt.Fprintf(&b, "%s{ \"%s\", %s, %s, \"%s\", NULL },\n", Indent, p.Name, get, set, docString(p.Doc()))
	}
	b.WriteString("\n" + Indent + "{ NULL, NULL, NULL, NULL, NULL }\n};\n")
	return b.String()
}
