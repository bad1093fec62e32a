package ctypes

// Slot binds a Python special method name to the descriptor member that
// holds its implementation.
type Slot struct {
	Method string
	Member string
}

// https://docs.python.org/3/c-api/typeobj.html#type-objects
var TypeFuncs = []Slot{
	{"__new__", "tp_new"},
	{"__init__", "tp_init"},
	{"__del__", "tp_del"},
	{"__str__", "tp_str"},
	{"__unicode__", "tp_str"},
	{"__repr__", "tp_repr"},
	{"__lt__", "tp_richcompare"},
	{"__le__", "tp_richcompare"},
	{"__eq__", "tp_richcompare"},
	{"__ne__", "tp_richcompare"},
	{"__gt__", "tp_richcompare"},
	{"__ge__", "tp_richcompare"},
	{"__hash__", "tp_hash"},
	{"__getattr__", "tp_getattr"},
	{"__setattr__", "tp_setattr"},
	{"__getattro__", "tp_getattro"},
	{"__setattro__", "tp_setattro"},
	{"__call__", "tp_call"},
	{"__iter__", "tp_iter"},
	{"__next__", "tp_iternext"},
	// unofficial
	{"__dealloc__", "tp_dealloc"},
	{"__finalize__", "tp_finalize"},
}

var SequenceFuncs = []Slot{
	{"__len__", "sq_length"},
	{"__concat__", "sq_concat"},
	{"__repeat__", "sq_repeat"},
	{"__getitem__", "sq_item"},
	{"__setitem__", "sq_ass_item"},
	{"__contains__", "sq_contains"},
	{"__iconcat__", "sq_inplace_concat"},
	{"__irepeat__", "sq_inplace_repeat"},
}

var NumberFuncs = []Slot{
	{"__add__", "nb_add"},
	{"__sub__", "nb_subtract"},
	{"__mul__", "nb_multiply"},
	{"__mod__", "nb_remainder"},
	{"__divmod__", "nb_divmod"},
	{"__pow__", "nb_power"},
	{"__neg__", "nb_negative"},
	{"__pos__", "nb_positive"},
	{"__abs__", "nb_absolute"},
	{"__bool__", "nb_bool"},
	{"__invert__", "nb_invert"},
	{"__lshift__", "nb_lshift"},
	{"__rshift__", "nb_rshift"},
	{"__and__", "nb_and"},
	{"__xor__", "nb_xor"},
	{"__or__", "nb_or"},
	{"__int__", "nb_int"},
	{"__float__", "nb_float"},
	{"__iadd__", "nb_inplace_add"},
	{"__isub__", "nb_inplace_subtract"},
	{"__imul__", "nb_inplace_multiply"},
	{"__imod__", "nb_inplace_remainder"},
	{"__ipow__", "nb_inplace_power"},
	{"__ilshift__", "nb_inplace_lshift"},
	{"__irshift__", "nb_inplace_rshift"},
	{"__iand__", "nb_inplace_and"},
	{"__ixor__", "nb_inplace_xor"},
	{"__ior__", "nb_inplace_or"},
	{"__floordiv__", "nb_floor_divide"},
	{"__truediv__", "nb_true_divide"},
	{"__ifloordiv__", "nb_inplace_floor_divide"},
	{"__itruediv__", "nb_inplace_true_divide"},
	{"__index__", "nb_index"},
}

// SpecialFuncs are dunder methods without a descriptor slot that still
// require a fixed shape. They are dispatched through the method table.
var SpecialFuncs = []struct {
	Method string
	Shape  string
}{
	{"__floor__", UnaryFunc},
	{"__ceil__", UnaryFunc},
	{"__complex__", UnaryFunc},
}

var (
	// method name -> descriptor member; first table entry wins
	methodToMember = map[string]string{}
	// descriptor member -> member type; first layout wins
	memberToType = map[string]string{}
	// method name -> shape name
	methodToShape = map[string]string{}

	typeMethods     = map[string]bool{}
	numberMethods   = map[string]bool{}
	sequenceMethods = map[string]bool{}
)

func init() {
	for _, table := range [][]Slot{TypeFuncs, SequenceFuncs, NumberFuncs} {
		for _, s := range table {
			if _, ok := methodToMember[s.Method]; !ok {
				methodToMember[s.Method] = s.Member
			}
		}
	}
	for _, l := range []Layout{PyModuleDef, PyBufferProcs, PyMappingMethods, PySequenceMethods, PyNumberMethods, PyTypeObject} {
		for _, m := range l.Members {
			if _, ok := memberToType[m.Name]; !ok {
				memberToType[m.Name] = m.Type
			}
		}
	}
	for method, member := range methodToMember {
		if t, ok := memberToType[member]; ok {
			if _, isShape := shapeByName[t]; isShape {
				methodToShape[method] = t
			}
		}
	}
	for _, s := range TypeFuncs {
		typeMethods[s.Method] = true
	}
	for _, s := range NumberFuncs {
		numberMethods[s.Method] = true
	}
	for _, s := range SequenceFuncs {
		sequenceMethods[s.Method] = true
	}
}

// MemberFor returns the descriptor member that holds the given special method.
func MemberFor(method string) (string, bool) {
	m, ok := methodToMember[method]
	return m, ok
}

// MemberType returns the declared type of a descriptor member.
func MemberType(member string) (string, bool) {
	t, ok := memberToType[member]
	return t, ok
}

// ShapeFor returns the shape required by a special method name. Slot-bound
// methods resolve through their descriptor member; SpecialFuncs are checked
// afterwards.
func ShapeFor(method string) (string, bool) {
	if s, ok := methodToShape[method]; ok {
		return s, true
	}
	for _, s := range SpecialFuncs {
		if s.Method == method {
			return s.Shape, true
		}
	}
	return "", false
}

// IsTypeMethod reports whether method lives in a PyTypeObject slot.
func IsTypeMethod(method string) bool { return typeMethods[method] }

// IsNumberMethod reports whether method lives in PyNumberMethods.
func IsNumberMethod(method string) bool { return numberMethods[method] }

// IsSequenceMethod reports whether method lives in PySequenceMethods.
func IsSequenceMethod(method string) bool { return sequenceMethods[method] }

// IsSlotMethod reports whether method is bound to any descriptor slot.
func IsSlotMethod(method string) bool {
	return typeMethods[method] || numberMethods[method] || sequenceMethods[method]
}
