// Package reporter implements the error reporter contracted by spec.md
// §6.3: diagnostics are recorded as (message-id, args...) tuples at the
// point of detection; rendering to text is deferred to a separate print
// step. This mirrors the teacher's errors.go convention of wrapping a
// message code plus arguments rather than formatting eagerly.
package reporter

import (
	"fmt"
	"strings"

	"github.com/turingcompl33t/tpl/internal/ast"
)

// MessageID is a closed set of diagnostic templates. Each ID's argument
// shape is fixed (by its format string in templates) so Reporter can
// render it without the caller building a string.
type MessageID int

const (
	// Lexical / syntactic (spec.md §7).
	MsgUnexpectedToken MessageID = iota
	MsgUnterminatedLiteral

	// Semantic.
	MsgUndeclaredIdentifier
	MsgRedeclaration
	MsgTypeMismatchBinary
	MsgTypeMismatchAssignment
	MsgTypeMismatchReturn
	MsgTypeMismatchCallArg
	MsgArityMismatch
	MsgNotAFunction
	MsgNonBooleanCondition
	MsgInvalidCast
	MsgInvalidBuiltinSignature
	MsgNegativeArrayLength
	MsgNonIntegerArrayLength
	MsgFieldNotInStruct
	MsgPointerIncompatibleComparison
	MsgUnknownBuiltin
	MsgUnaryRequiresBool
	MsgUnaryRequiresNumeric
	MsgUnaryRequiresPointer
	MsgIndexRequiresArrayOrMap
	MsgIndexRequiresInteger
	MsgMemberRequiresStruct
	MsgInvalidForInIterable
	MsgNotAnLValue

	// Code generation (internal-only; a failure here is a bug).
	MsgUnreachable

	// Runtime.
	MsgDivideByZero
	MsgFrameBoundViolation
)

var templates = map[MessageID]string{
	MsgUnexpectedToken:               "unexpected token %v",
	MsgUnterminatedLiteral:           "unterminated literal",
	MsgUndeclaredIdentifier:          "undeclared identifier %q",
	MsgRedeclaration:                 "%q redeclared in this scope",
	MsgTypeMismatchBinary:            "invalid operation: mismatched types %v and %v",
	MsgTypeMismatchAssignment:        "cannot assign value of type %v to variable of type %v",
	MsgTypeMismatchReturn:            "cannot return value of type %v from function returning %v",
	MsgTypeMismatchCallArg:           "cannot use value of type %v as argument %d of type %v",
	MsgArityMismatch:                 "expected %d argument(s), got %d",
	MsgNotAFunction:                  "cannot call non-function type %v",
	MsgNonBooleanCondition:           "non-boolean condition of type %v",
	MsgInvalidCast:                   "invalid cast from %v to %v",
	MsgInvalidBuiltinSignature:       "builtin %q: %s",
	MsgNegativeArrayLength:           "array length must not be negative, got %d",
	MsgNonIntegerArrayLength:         "array length must be an integer constant",
	MsgFieldNotInStruct:              "type %v has no field %q",
	MsgPointerIncompatibleComparison: "cannot compare incompatible pointer types %v and %v",
	MsgUnknownBuiltin:                "unknown builtin %q",
	MsgUnaryRequiresBool:             "operator ! requires bool, got %v",
	MsgUnaryRequiresNumeric:          "operator - requires a numeric operand, got %v",
	MsgUnaryRequiresPointer:          "operator * requires a pointer operand, got %v",
	MsgIndexRequiresArrayOrMap:       "cannot index type %v",
	MsgIndexRequiresInteger:         "array index must be an integer, got %v",
	MsgMemberRequiresStruct:          "cannot access field %q on non-struct type %v",
	MsgInvalidForInIterable:          "for-in requires a TableVectorIterator or JoinHashTable, got %v",
	MsgNotAnLValue:                   "left-hand side of assignment is not an l-value",
	MsgUnreachable:                   "internal error: unreachable (%s)",
	MsgDivideByZero:                  "division by zero",
	MsgFrameBoundViolation:           "frame bounds violation: offset %d size %d exceeds frame of %d bytes",
}

// Diagnostic is one recorded (message-id, args, position) tuple.
type Diagnostic struct {
	ID   MessageID
	Args []any
	Pos  ast.Pos
	File string
}

// Reporter accumulates diagnostics during a single compilation pass. It
// never panics or halts the pass itself; callers decide whether to stop
// after consulting HasErrors.
type Reporter struct {
	File        string
	diagnostics []Diagnostic
}

// New creates a Reporter for the named source file (used only when
// rendering positions; pass "" for in-memory/REPL sources).
func New(file string) *Reporter {
	return &Reporter{File: file}
}

// Report records a diagnostic. Arguments are stored by value; rendering
// happens later, in Render.
func (r *Reporter) Report(id MessageID, pos ast.Pos, args ...any) {
	r.diagnostics = append(r.diagnostics, Diagnostic{ID: id, Args: args, Pos: pos, File: r.File})
}

// HasErrors reports whether any diagnostic has been recorded.
func (r *Reporter) HasErrors() bool { return len(r.diagnostics) > 0 }

// Diagnostics returns the accumulated diagnostics in report order.
func (r *Reporter) Diagnostics() []Diagnostic { return r.diagnostics }

// Render formats a single diagnostic as "<file>:<line>:<col>: <message>",
// per spec.md §7's user-visible error format.
func Render(d Diagnostic) string {
	tmpl, ok := templates[d.ID]
	if !ok {
		tmpl = "unknown diagnostic"
	}
	msg := fmt.Sprintf(tmpl, d.Args...)
	file := d.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s", file, d.Pos.Line, d.Pos.Col, msg)
}

// RenderAll formats every accumulated diagnostic, one per line, matching
// spec.md §7's "printed en masse at the end of each phase."
func (r *Reporter) RenderAll() string {
	var b strings.Builder
	for _, d := range r.diagnostics {
		b.WriteString(Render(d))
		b.WriteByte('\n')
	}
	return b.String()
}
