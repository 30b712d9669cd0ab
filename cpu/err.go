package cpu

import (
	"errors"

	"github.com/ezrec/mvx/translate"
)

var f = translate.From

var (
	// Engine faults
	ErrInstructionInvalid = errors.New(f("invalid instruction"))
	ErrDivideByZero       = errors.New(f("division by zero"))
	ErrPhysicalAddress    = errors.New(f("invalid physical address"))
	ErrRegisterInvalid    = errors.New(f("invalid register"))
	ErrOperandInvalid     = errors.New(f("invalid operand"))
	ErrReadMode           = errors.New(f("invalid read mode"))
	ErrWriteMode          = errors.New(f("invalid write mode"))
	ErrReadFault          = errors.New(f("console read failed"))
	ErrLogicalAddress     = errors.New(f("invalid logical address"))
	ErrInsufficientMemory = errors.New(f("insufficient memory"))
	ErrOverflow           = errors.New(f("arithmetic overflow"))
	ErrStackOverflow      = errors.New(f("stack overflow"))
	ErrStackUnderflow     = errors.New(f("stack underflow"))
	ErrSegmentInvalid     = errors.New(f("invalid segment"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrConstSyntax        = errors.New(f(".const syntax"))
	ErrDirectiveInvalid   = errors.New(f("directive invalid"))
	ErrVersionInvalid     = errors.New(f("version invalid"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrImmediateRange     = errors.New(f("immediate out of range"))
	ErrTargetInvalid      = errors.New(f("target invalid"))
	ErrCodeTooLarge       = errors.New(f("code segment too large"))
)

// ErrAddress is a fault on a specific logical or physical address.
type ErrAddress struct {
	Err     error
	Address uint32
}

func (err *ErrAddress) Error() string {
	return f("%v 0x%08X", err.Err, err.Address)
}

func (err *ErrAddress) Unwrap() error {
	return err.Err
}

// ErrInstruction annotates a fault with the opcode that raised it.
type ErrInstruction struct {
	Opcode Opcode
	Err    error
}

func (err *ErrInstruction) Error() string {
	return f("%v (0x%02x): %v", err.Opcode, byte(err.Opcode), err.Err)
}

func (err *ErrInstruction) Unwrap() error {
	return err.Err
}

// ErrFatal marks a fault that stops the engine abnormally: an unknown
// opcode, or an instruction pointer that cannot be fetched.
type ErrFatal struct {
	Err error
}

func (err *ErrFatal) Error() string {
	return err.Err.Error()
}

func (err *ErrFatal) Unwrap() error {
	return err.Err
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseValue string

func (err ErrParseValue) Error() string {
	return f("'%v' is not a value or register", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
