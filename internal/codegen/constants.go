// Package codegen provides code generation helpers and constants.
package codegen

// Variable names used in generated code
const (
	StateName  = "state"
	RuneName   = "r"
	EdgeName   = "e"
	LoField    = "lo"
	HiField    = "hi"
	NextField  = "next"
	AcceptName = "accept"
	FamilyName = "families"
	EdgesName  = "edges"
)

// StartName returns the name of the exported start-state constant.
func StartName(name string) string {
	return UpperFirst(name) + "Start"
}

// TableName returns the name of the generated state table.
func TableName(name string) string {
	return LowerFirst(name) + "States"
}

// StateTypeName returns the name of the generated state struct.
func StateTypeName(name string) string {
	return LowerFirst(name) + "State"
}

// EdgeTypeName returns the name of the generated edge struct.
func EdgeTypeName(name string) string {
	return LowerFirst(name) + "Edge"
}

// LowerFirst converts the first character of a string to lowercase.
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]|0x20) + s[1:]
}

// UpperFirst converts the first character of a string to uppercase.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]&^0x20) + s[1:]
}
