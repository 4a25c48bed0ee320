package parser

// Construct is a language-neutral syntactic role the analyzers care about
type Construct uint8

const (
	// Function marks function-like nodes
	Function Construct = iota
	// Class marks scope-entering type declarations
	Class
	// If marks conditionals that add a nesting penalty
	If
	// ElseIf marks dedicated continuation clauses (elif, elsif, else if)
	ElseIf
	// Loop marks loops that add a nesting penalty
	Loop
	// Switch marks multi-way branches
	Switch
	// Case marks a switch arm that adds its own cyclomatic path
	Case
	// Try marks try blocks counted as decisions
	Try
	// Catch marks exception handlers
	Catch
	// Return marks return-like nodes
	Return
	// Logical marks nodes that may carry a short-circuit operator
	Logical
	ParameterList
	Parameter
	Comment
	String
	Assignment
	Call
	Block

	numConstructs
)

var constructNames = [numConstructs]string{
	"function", "class", "if", "else_if", "loop", "switch", "case", "try",
	"catch", "return", "logical", "parameter_list", "parameter", "comment",
	"string", "assignment", "call", "block",
}

func (c Construct) String() string {
	if c < numConstructs {
		return constructNames[c]
	}
	return "unknown"
}

type kindNames map[Construct][]string

var pythonKinds = kindNames{
	Function:      {"function_definition"},
	Class:         {"class_definition"},
	If:            {"if_statement"},
	ElseIf:        {"elif_clause"},
	Loop:          {"for_statement", "while_statement"},
	Try:           {"try_statement"},
	Catch:         {"except_clause", "except_group_clause"},
	Return:        {"return_statement", "yield"},
	Logical:       {"boolean_operator"},
	ParameterList: {"parameters", "lambda_parameters"},
	Parameter: {"identifier", "typed_parameter", "default_parameter", "typed_default_parameter",
		"list_splat_pattern", "dictionary_splat_pattern"},
	Comment:    {"comment"},
	String:     {"string"},
	Assignment: {"assignment"},
	Call:       {"call"},
	Block:      {"block"},
}

var javascriptKinds = kindNames{
	Function: {"function_declaration", "function_expression", "generator_function_declaration",
		"generator_function", "method_definition", "arrow_function"},
	Class:         {"class_declaration", "class"},
	If:            {"if_statement"},
	Loop:          {"for_statement", "for_in_statement", "while_statement", "do_statement"},
	Switch:        {"switch_statement"},
	Case:          {"switch_case"},
	Catch:         {"catch_clause"},
	Return:        {"return_statement"},
	Logical:       {"binary_expression"},
	ParameterList: {"formal_parameters"},
	Parameter:     {"identifier", "assignment_pattern", "rest_pattern", "object_pattern", "array_pattern"},
	Comment:       {"comment"},
	String:        {"string", "template_string"},
	Assignment:    {"variable_declarator", "assignment_expression"},
	Call:          {"call_expression", "new_expression"},
	Block:         {"statement_block"},
}

var typescriptKinds = kindNames{
	Function: {"function_declaration", "function_expression", "generator_function_declaration",
		"generator_function", "method_definition", "arrow_function"},
	Class:         {"class_declaration", "abstract_class_declaration", "class", "interface_declaration"},
	If:            {"if_statement"},
	Loop:          {"for_statement", "for_in_statement", "while_statement", "do_statement"},
	Switch:        {"switch_statement"},
	Case:          {"switch_case"},
	Catch:         {"catch_clause"},
	Return:        {"return_statement"},
	Logical:       {"binary_expression"},
	ParameterList: {"formal_parameters"},
	Parameter: {"required_parameter", "optional_parameter", "rest_parameter", "identifier",
		"assignment_pattern", "object_pattern", "array_pattern"},
	Comment:    {"comment"},
	String:     {"string", "template_string"},
	Assignment: {"variable_declarator", "assignment_expression"},
	Call:       {"call_expression", "new_expression"},
	Block:      {"statement_block"},
}

var javaKinds = kindNames{
	Function:      {"method_declaration", "constructor_declaration"},
	Class:         {"class_declaration", "interface_declaration", "enum_declaration", "record_declaration"},
	If:            {"if_statement"},
	Loop:          {"for_statement", "enhanced_for_statement", "while_statement", "do_statement"},
	Switch:        {"switch_expression", "switch_statement"},
	Catch:         {"catch_clause"},
	Return:        {"return_statement"},
	Logical:       {"binary_expression"},
	ParameterList: {"formal_parameters"},
	Parameter:     {"formal_parameter", "spread_parameter"},
	Comment:       {"line_comment", "block_comment"},
	String:        {"string_literal"},
	Assignment:    {"variable_declarator", "assignment_expression"},
	Call:          {"method_invocation", "object_creation_expression"},
	Block:         {"block", "constructor_body"},
}

var csharpKinds = kindNames{
	Function: {"method_declaration", "constructor_declaration", "local_function_statement"},
	Class: {"class_declaration", "interface_declaration", "struct_declaration", "record_declaration",
		"enum_declaration"},
	If:            {"if_statement"},
	Loop:          {"for_statement", "foreach_statement", "while_statement", "do_statement"},
	Switch:        {"switch_statement", "switch_expression"},
	Catch:         {"catch_clause"},
	Return:        {"return_statement"},
	Logical:       {"binary_expression"},
	ParameterList: {"parameter_list"},
	Parameter:     {"parameter"},
	Comment:       {"comment"},
	String: {"string_literal", "verbatim_string_literal", "raw_string_literal",
		"interpolated_string_expression"},
	Assignment: {"variable_declarator", "assignment_expression"},
	Call:       {"invocation_expression", "object_creation_expression"},
	Block:      {"block"},
}

var goKinds = kindNames{
	Function:      {"function_declaration", "method_declaration", "func_literal"},
	If:            {"if_statement"},
	Loop:          {"for_statement"},
	Switch:        {"expression_switch_statement", "type_switch_statement", "select_statement"},
	Return:        {"return_statement"},
	Logical:       {"binary_expression"},
	ParameterList: {"parameter_list"},
	Parameter:     {"parameter_declaration", "variadic_parameter_declaration"},
	Comment:       {"comment"},
	String:        {"interpreted_string_literal", "raw_string_literal"},
	Assignment:    {"short_var_declaration", "assignment_statement", "var_spec", "const_spec"},
	Call:          {"call_expression"},
	Block:         {"block"},
}

// cppKinds also serves C, which is parsed with the C++ grammar
var cppKinds = kindNames{
	Function:      {"function_definition"},
	Class:         {"class_specifier", "struct_specifier"},
	If:            {"if_statement"},
	Loop:          {"for_statement", "for_range_loop", "while_statement", "do_statement"},
	Switch:        {"switch_statement"},
	Catch:         {"catch_clause"},
	Return:        {"return_statement"},
	Logical:       {"binary_expression"},
	ParameterList: {"parameter_list"},
	Parameter: {"parameter_declaration", "optional_parameter_declaration",
		"variadic_parameter_declaration"},
	Comment:    {"comment"},
	String:     {"string_literal", "raw_string_literal", "concatenated_string"},
	Assignment: {"init_declarator", "assignment_expression"},
	Call:       {"call_expression"},
	Block:      {"compound_statement"},
}

var phpKinds = kindNames{
	Function: {"function_definition", "method_declaration", "anonymous_function",
		"anonymous_function_creation_expression", "arrow_function"},
	Class:         {"class_declaration", "interface_declaration", "trait_declaration", "enum_declaration"},
	If:            {"if_statement"},
	ElseIf:        {"else_if_clause"},
	Loop:          {"for_statement", "foreach_statement", "while_statement", "do_statement"},
	Switch:        {"switch_statement"},
	Catch:         {"catch_clause"},
	Return:        {"return_statement"},
	Logical:       {"binary_expression"},
	ParameterList: {"formal_parameters"},
	Parameter:     {"simple_parameter", "variadic_parameter", "property_promotion_parameter"},
	Comment:       {"comment"},
	String:        {"string", "encapsed_string", "heredoc"},
	Assignment:    {"assignment_expression"},
	Call:          {"function_call_expression", "member_call_expression", "object_creation_expression"},
	Block:         {"compound_statement"},
}

var rubyKinds = kindNames{
	Function:      {"method", "singleton_method"},
	Class:         {"class", "module", "singleton_class"},
	If:            {"if", "unless", "if_modifier", "unless_modifier"},
	ElseIf:        {"elsif"},
	Loop:          {"while", "until", "for", "while_modifier", "until_modifier"},
	Switch:        {"case", "case_match"},
	Case:          {"when", "in_clause"},
	Catch:         {"rescue", "rescue_modifier"},
	Return:        {"return"},
	Logical:       {"binary"},
	ParameterList: {"method_parameters", "lambda_parameters", "block_parameters"},
	Parameter: {"identifier", "optional_parameter", "splat_parameter", "hash_splat_parameter",
		"block_parameter", "keyword_parameter"},
	Comment:    {"comment"},
	String:     {"string"},
	Assignment: {"assignment"},
	Call:       {"call"},
	Block:      {"body_statement", "do_block", "block"},
}

var zigKinds = kindNames{
	Function:      {"function_declaration"},
	Class:         {"struct_declaration", "union_declaration", "enum_declaration"},
	If:            {"if_statement", "if_expression"},
	Loop:          {"for_statement", "while_statement", "for_expression", "while_expression"},
	Switch:        {"switch_expression"},
	Case:          {"switch_case"},
	Return:        {"return_expression"},
	Logical:       {"binary_expression"},
	ParameterList: {"parameters"},
	Parameter:     {"parameter"},
	Comment:       {"comment"},
	String:        {"string"},
	Assignment:    {"variable_declaration", "assignment_expression"},
	Call:          {"call_expression"},
	Block:         {"block"},
}

var languageKinds = map[Language]kindNames{
	LanguagePython:     pythonKinds,
	LanguageJavaScript: javascriptKinds,
	LanguageTypeScript: typescriptKinds,
	LanguageJava:       javaKinds,
	LanguageCSharp:     csharpKinds,
	LanguageGo:         goKinds,
	LanguageC:          cppKinds,
	LanguageCpp:        cppKinds,
	LanguagePHP:        phpKinds,
	LanguageRuby:       rubyKinds,
	LanguageZig:        zigKinds,
}
