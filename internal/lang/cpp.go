package lang

func init() {
	Languages["cpp"] = &Language{
		Name:       "cpp",
		Extensions: []string{".c", ".cc", ".cpp", ".cxx", ".h", ".hh", ".hpp", ".hxx"},
		FrontEnd:   FrontEndCastXML,
	}
}
