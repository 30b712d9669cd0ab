// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/mvx/internal"
)

// ENTRY_LABEL is the label of the entry point of a version 2 program.
const ENTRY_LABEL = "_start"

// defines are the predefined equates of every program.
func defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(
		maps.All(_cpu_defines),
		maps.All(_syscall_defines),
	)
}

var (
	reIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reParen      = regexp.MustCompile(`\$\([^\$]*\)`)
)

// Assembler is a single pass assembler for the MV processor.
//
// Syntax, one statement per line:
//
//	label: MNEMONIC A, B   ; comment
//	.version 1|2
//	.data N, .extra N, .stack N
//	.equ NAME VALUE
//	.const NAME "text"
//
// Operands are registers (EAX, AL, AH, AX, ...), immediates (numbers,
// 'c' characters, labels, equates, $(expr) starlark expressions) and memory
// references ([EBX+4], w[ES], b[10]); a bare [N] is relative to DS.
type Assembler struct {
	Verbose   bool        // If set, verbosely logs the assembler actions.
	Statement []Statement // List of generated statements.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to code offsets.
	Equate    map[string]string // Map of equates.

	prog Program
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a number or equate.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	for range 8 {
		equ, ok := asm.Equate[word]
		if !ok {
			break
		}
		word = equ
	}

	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseValue(word)
		return
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key := range asm.Equate {
		var v64 int64
		v64, err = asm.valueOf(key)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or memory references.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// stripComment removes a ';' comment that is not inside quotes.
func stripComment(text string) string {
	var quote rune
	for n, c := range text {
		switch {
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
		case c == '"' || c == '\'':
			quote = c
		case c == ';':
			return text[:n]
		}
	}
	return text
}

// expand replaces character literals and $(...) expressions by numbers.
func (asm *Assembler) expand(line string) (out string, err error) {
	out = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\x00"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	out = reParen.ReplaceAllStringFunc(out, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})

	return
}

// currentIp gets the current code offset.
func (asm *Assembler) currentIp() int {
	if len(asm.Statement) == 0 {
		return 0
	}

	last := asm.Statement[len(asm.Statement)-1]

	return last.Ip + len(last.Code)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = map[string]int{}
	asm.Statement = asm.Statement[:0]
	asm.Equate = maps.Collect(defines())
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.prog = Program{
		Version: VERSION_2,
		Data:    -1,
		Stack:   -1,
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("asm: %v: %v", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))
		err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of labels.
	for n := range asm.Statement {
		st := &asm.Statement[n]

		if len(st.LinkLabel) == 0 {
			continue
		}
		ip, ok := asm.Label[st.LinkLabel]
		if !ok {
			line = st.Text
			lineno = st.LineNo
			err = ErrLabelMissing(st.LinkLabel)
			return
		}
		st.Code[1] = byte(ip >> 8)
		st.Code[2] = byte(ip)
	}

	if asm.currentIp() > 0xFFFF {
		err = ErrCodeTooLarge
		return
	}

	result := asm.prog
	prog = &result
	prog.Statements = slices.Clone(asm.Statement)
	if prog.Version >= VERSION_2 {
		if prog.Data < 0 {
			prog.Data = DATA_SIZE_DEFAULT
		}
		if prog.Stack < 0 {
			prog.Stack = STACK_SIZE_DEFAULT
		}
		prog.Entry = asm.Label[ENTRY_LABEL]
	} else {
		prog.Data = 0
		prog.Stack = 0
	}
	asm.prog = Program{}

	return
}

// parseLine parses a single line.
func (asm *Assembler) parseLine(line string, lineno int) (err error) {
	// Labels
	for {
		head, rest, found := strings.Cut(line, ":")
		if !found || !reIdentifier.MatchString(strings.TrimSpace(head)) {
			break
		}
		label := strings.TrimSpace(head)
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}
		asm.Label[label] = asm.currentIp()
		line = strings.TrimSpace(rest)
	}

	if len(line) == 0 {
		return
	}

	word, rest := line, ""
	if n := strings.IndexAny(line, " \t"); n >= 0 {
		word, rest = line[:n], strings.TrimSpace(line[n:])
	}

	if strings.HasPrefix(word, ".") {
		err = asm.parseDirective(strings.ToLower(word), rest)
		return
	}

	rest, err = asm.expand(rest)
	if err != nil {
		return
	}

	var args []string
	if len(rest) != 0 {
		args = strings.Split(rest, ",")
		for n := range args {
			args[n] = strings.TrimSpace(args[n])
		}
	}

	st, err := asm.parseInstruction(word, args)
	if err != nil {
		return
	}

	st.LineNo = lineno
	st.Ip = asm.currentIp()
	st.Text = line
	asm.Statement = append(asm.Statement, st)
	return
}

// segmentSize parses a segment size directive argument.
func (asm *Assembler) segmentSize(arg string) (size int, err error) {
	arg, err = asm.expand(arg)
	if err != nil {
		return
	}
	value, err := asm.valueOf(arg)
	if err != nil {
		return
	}
	if value < 0 || value > 0xFFFF {
		err = ErrImmediateRange
		return
	}
	size = int(value)
	return
}

// parseDirective handles a '.' directive.
func (asm *Assembler) parseDirective(directive string, rest string) (err error) {
	prog := &asm.prog

	switch directive {
	case ".equ":
		words := strings.Fields(rest)
		if len(words) != 2 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[0]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		var value string
		value, err = asm.expand(words[1])
		if err != nil {
			return
		}
		asm.Equate[words[0]] = value
	case ".version":
		var version int
		version, err = asm.segmentSize(rest)
		if err != nil {
			return
		}
		if version != VERSION_1 && version != VERSION_2 {
			err = ErrVersionInvalid
			return
		}
		if len(asm.Statement) != 0 || len(prog.Const) != 0 {
			err = ErrVersionInvalid
			return
		}
		prog.Version = version
	case ".data", ".extra", ".stack", ".const":
		if prog.Version < VERSION_2 {
			err = ErrDirectiveInvalid
			return
		}
		if directive == ".const" {
			err = asm.parseConst(rest)
			return
		}
		var size int
		size, err = asm.segmentSize(rest)
		if err != nil {
			return
		}
		switch directive {
		case ".data":
			prog.Data = size
		case ".extra":
			prog.Extra = size
		case ".stack":
			prog.Stack = size
		}
	default:
		err = ErrDirectiveInvalid
	}

	return
}

// parseConst handles '.const NAME "text"'.
func (asm *Assembler) parseConst(rest string) (err error) {
	name, text := rest, ""
	if n := strings.IndexAny(rest, " \t"); n >= 0 {
		name, text = rest[:n], strings.TrimSpace(rest[n:])
	}
	if !reIdentifier.MatchString(name) || len(text) == 0 {
		err = ErrConstSyntax
		return
	}

	str, err := strconv.Unquote(text)
	if err != nil {
		err = ErrConstSyntax
		return
	}

	_, ok := asm.Equate[name]
	if ok {
		err = ErrEquateDuplicate
		return
	}

	prog := &asm.prog
	if len(prog.Const)+len(str)+1 > 0xFFFF {
		err = ErrImmediateRange
		return
	}

	asm.Equate[name] = fmt.Sprintf("%d", len(prog.Const))
	prog.Const = append(prog.Const, str...)
	prog.Const = append(prog.Const, 0)
	return
}

// parseMemory parses a memory reference: [REG], [REG+N], [REG-N] or [N],
// with an optional b, w or l size prefix.
func (asm *Assembler) parseMemory(word string) (op Operand, err error) {
	open := strings.IndexByte(word, '[')
	if !strings.HasSuffix(word, "]") {
		err = ErrOperandInvalid
		return
	}

	size := 4
	switch strings.ToLower(word[:open]) {
	case "", "l":
	case "w":
		size = 2
	case "b":
		size = 1
	default:
		err = ErrOperandInvalid
		return
	}

	inner := strings.ReplaceAll(word[open+1:len(word)-1], " ", "")
	base := REG_DS
	var disp int64

	split := strings.IndexAny(inner, "+-")
	head := inner
	if split > 0 {
		head = inner[:split]
	}
	reg, sec, ok := ParseRegister(head)
	if ok {
		if sec != SECTOR_FULL {
			err = ErrRegisterInvalid
			return
		}
		base = reg
		if split > 0 {
			disp, err = asm.valueOf(strings.TrimPrefix(inner[split:], "+"))
		}
	} else {
		disp, err = asm.valueOf(inner)
	}
	if err != nil {
		return
	}

	if disp < -0x8000 || disp > 0xFFFF {
		err = ErrImmediateRange
		return
	}

	op = MakeOperandMemory(base, int16(disp), size)
	return
}

// parseOperand parses a single operand. label is set for an immediate that
// refers to a code label.
func (asm *Assembler) parseOperand(word string, jump bool) (op Operand, label string, err error) {
	if len(word) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	for range 8 {
		equ, ok := asm.Equate[word]
		if !ok {
			break
		}
		word = equ
	}

	if strings.Contains(word, "[") {
		op, err = asm.parseMemory(word)
		return
	}

	reg, sec, ok := ParseRegister(word)
	if ok {
		op = MakeOperandRegister(reg, sec)
		return
	}

	value, err := asm.valueOf(word)
	if err != nil {
		if !reIdentifier.MatchString(word) {
			return
		}
		err = nil
		label = word
		op = MakeOperandImmediate(0)
		return
	}

	low := int64(-0x8000)
	if jump {
		low = 0
	}
	if value < low || value > 0xFFFF {
		err = ErrImmediateRange
		return
	}

	op = MakeOperandImmediate(int32(value))
	return
}

// parseInstruction assembles a mnemonic and its operands.
func (asm *Assembler) parseInstruction(mnemonic string, args []string) (st Statement, err error) {
	opcode, ok := LookupOpcode(mnemonic)
	if !ok || !opcode.Supported(asm.prog.Version) {
		err = &ErrInstruction{Opcode: opcode, Err: ErrInstructionInvalid}
		if !ok {
			err = ErrParseValue(mnemonic)
		}
		return
	}

	info, _ := opcode.Info()
	if len(args) > info.Operands {
		err = ErrOpcodeExtraArgs
		return
	}
	if len(args) < info.Operands {
		err = ErrOpcodeValueMissing
		return
	}

	var ops [2]Operand
	for n, arg := range args {
		var label string
		ops[n], label, err = asm.parseOperand(arg, info.Jump)
		if err != nil {
			return
		}
		if len(label) != 0 {
			if info.Operands == 2 && n == 0 {
				err = ErrTargetInvalid
				return
			}
			st.LinkLabel = label
		}
	}

	if info.Operands == 2 {
		switch ops[0].Type {
		case OPERAND_REGISTER, OPERAND_MEMORY:
		default:
			err = ErrTargetInvalid
			return
		}
	}

	inst := MakeInstruction(opcode, ops[0], ops[1])
	st.Code = inst.Bytes()
	return
}
