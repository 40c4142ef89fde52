package service

import (
	"strings"
	"unicode"
)

// normalizeFunctionName maps a function name onto the logical id prefix
// the host framework uses in stack outputs: first rune upper-cased, with
// "-" and "_" spelled out.
func normalizeFunctionName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '-':
			b.WriteString("Dash")
		case r == '_':
			b.WriteString("Underscore")
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// outputKey returns the stack output key under which the host framework
// publishes the function's deployed ARN.
func outputKey(functionName string) string {
	return normalizeFunctionName(functionName) + "LambdaFunctionQualifiedArn"
}
