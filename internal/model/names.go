package model

// NameSet holds every generated identifier derived from a class.
type NameSet struct {
	ClassStruct    string
	TypeStruct     string
	MethodStruct   string
	NumberStruct   string
	MappingStruct  string
	SequenceStruct string
	GetSetStruct   string
	NewFunc        string
	CopyFunc       string
	DeallocFunc    string
	InitFunc       string
	DocString      string
	UserNew        string
	UserIs         string
	UserType       string
	SizeOf         string
}

// DeriveNames computes the generated identifiers for a class.
func DeriveNames(cName, pyName string) NameSet {
	return NameSet{
		ClassStruct:    cName,
		TypeStruct:     cName + "_type_struct",
		MethodStruct:   cName + "_method_struct",
		NumberStruct:   cName + "_as_number_struct",
		MappingStruct:  cName + "_as_mapping_struct",
		SequenceStruct: cName + "_as_sequence_struct",
		GetSetStruct:   cName + "_getset_struct",
		NewFunc:        "create_" + cName,
		CopyFunc:       "copy_" + cName,
		DeallocFunc:    "destroy_" + cName,
		InitFunc:       "initialize_class_" + pyName,
		DocString:      cName + "_doc_string",
		UserNew:        "new_" + cName,
		UserIs:         "is_" + cName,
		UserType:       "type_" + cName,
		SizeOf:         "sizeof_" + cName,
	}
}
