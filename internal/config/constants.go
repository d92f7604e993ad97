package config

// MetaPrefix distinguishes a metaclass entry in the registry from the class
// it describes: class "A" lives next to "Meta:A".
const MetaPrefix = "Meta:"

// Built-in class names
const (
	ObjectClassName = "Object"
	IntClassName    = "Int"
	FloatClassName  = "Float"
	BoolClassName   = "Bool"
	VoidClassName   = "Void"
	ArrayClassName  = "Array"
)

// LambdaClassPrefix is the base name of the anonymous-function classes
// (Fn0..Fn4). Arity is appended, so a two-argument lambda is an Fn2.
const LambdaClassPrefix = "Fn"

// MaxLambdaArity bounds how many parameters a lambda literal may declare.
const MaxLambdaArity = 4

// Well-known method names
const (
	InitializerName = "initialize"
	NewMethodName   = "new"
	LambdaCallName  = "call"
)

// ProgramFileExtensions are the recognized program-document extensions.
var ProgramFileExtensions = []string{".tree.yaml", ".tree.yml"}
