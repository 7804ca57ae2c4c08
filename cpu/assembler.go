package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Opcode represents a line of assembled code with its source location and
// generated bytes.
type Opcode struct {
	LineNo    int      // Source line number.
	Addr      int      // Memory address of the first byte.
	Words     []string // Source words after expansion.
	Bytes     []byte   // Assembled bytes.
	LinkLabel string   // Label to patch into the low 12 bits.
}

// Assembler is a single pass macro assembler for the CHIP-8 instruction set.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to memory addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regOf parses a register name (v0..vf).
func regOf(word string) (reg uint8, ok bool) {
	if len(word) != 2 || (word[0] != 'v' && word[0] != 'V') {
		return
	}
	switch c := word[1]; {
	case c >= '0' && c <= '9':
		reg = c - '0'
	case c >= 'a' && c <= 'f':
		reg = c - 'a' + 10
	case c >= 'A' && c <= 'F':
		reg = c - 'A' + 10
	default:
		return
	}
	ok = true
	return
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseValue(word)
		return
	}
	v64, err := strconv.ParseInt(word, 0, 17)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 < 0 {
		value = uint16(0xffff + (v64 + 1))
	} else {
		value = uint16(v64)
	}

	if invert {
		value = ^value
	}

	return
}

// byteOf returns a byte-sized value.
func (asm *Assembler) byteOf(word string) (value uint8, err error) {
	v16, err := asm.valueOf(word)
	if err != nil {
		return
	}
	if v16 > 0xff {
		err = ErrTargetInvalid
		return
	}
	value = uint8(v16)
	return
}

// nibbleOf returns a nibble-sized value.
func (asm *Assembler) nibbleOf(word string) (value uint8, err error) {
	v16, err := asm.valueOf(word)
	if err != nil {
		return
	}
	if v16 > 0xf {
		err = ErrTargetInvalid
		return
	}
	value = uint8(v16)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value16 uint16
		value16, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
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
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
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

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if len(words) > 0 && words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		if len(word) == 0 {
			continue
		}

		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", fmt.Sprintf("%v_%v_", name, lineno))
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, macro.LineNo+n)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the memory address of the next assembled byte.
func (asm *Assembler) currentAddr() int {
	if len(asm.Opcode) == 0 {
		return PROGRAM_START
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + len(last.Bytes)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		line = strings.ReplaceAll(line, ",", " ")
		all_words := strings.Split(line, " ")

		var words []string
		for _, single := range all_words {
			if len(single) > 0 {
				words = append(words, single)
			}
		}

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		if len(op.Bytes) < 2 {
			log.Fatalf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
		}
		// Patch the address into the low 12 bits of the instruction word.
		op.Bytes[0] |= uint8((addr >> 8) & 0x0F)
		op.Bytes[1] |= uint8(addr & 0xFF)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// getAddr resolves an address operand. An unresolvable word is treated as
// a label to be linked after the full input has been parsed.
func (asm *Assembler) getAddr(word string) (addr uint16, label string, err error) {
	value, verr := asm.valueOf(word)
	if verr == nil {
		if value > 0x0FFF {
			err = ErrTargetInvalid
			return
		}
		addr = value
		return
	}

	label = word
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var assembled []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(assembled) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Addr: asm.currentAddr(), Words: initial_words, Bytes: assembled, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	emit := func(code Code) {
		assembled = append(assembled, uint8(code.Word>>8), uint8(code.Word))
	}

	// argN demands an exact operand count.
	argN := func(count int) (err error) {
		switch {
		case len(words) < count+1:
			err = ErrOpcodeValueMissing
		case len(words) > count+1:
			err = ErrOpcodeExtraArgs
		}
		return
	}

	switch words[0] {
	case "cls":
		if err = argN(0); err != nil {
			return
		}
		emit(MakeCodeBare(OP_CLS))
	case "ret":
		if err = argN(0); err != nil {
			return
		}
		emit(MakeCodeBare(OP_RET))
	case "exit":
		// End-of-program sentinel word.
		if err = argN(0); err != nil {
			return
		}
		assembled = append(assembled, 0x00, 0x00)
	case "sys":
		if err = argN(1); err != nil {
			return
		}
		var addr uint16
		addr, label, err = asm.getAddr(words[1])
		if err != nil {
			return
		}
		emit(MakeCodeAddr(OP_SYS, addr))
	case "jp":
		var op Op
		var target string
		switch len(words) {
		case 2:
			op = OP_JP
			target = words[1]
		case 3:
			if reg, ok := regOf(words[1]); !ok || reg != 0 {
				err = ErrRegisterInvalid
				return
			}
			op = OP_JP_V0
			target = words[2]
		default:
			err = ErrOpcodeValueMissing
			return
		}
		var addr uint16
		addr, label, err = asm.getAddr(target)
		if err != nil {
			return
		}
		emit(MakeCodeAddr(op, addr))
	case "call":
		if err = argN(1); err != nil {
			return
		}
		var addr uint16
		addr, label, err = asm.getAddr(words[1])
		if err != nil {
			return
		}
		emit(MakeCodeAddr(OP_CALL, addr))
	case "se", "sne":
		if err = argN(2); err != nil {
			return
		}
		x, ok := regOf(words[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		if y, is_reg := regOf(words[2]); is_reg {
			op := OP_SE_REG
			if words[0] == "sne" {
				op = OP_SNE_REG
			}
			emit(MakeCodeRegReg(op, x, y))
			return
		}
		var value uint8
		value, err = asm.byteOf(words[2])
		if err != nil {
			return
		}
		op := OP_SE_BYTE
		if words[0] == "sne" {
			op = OP_SNE_BYTE
		}
		emit(MakeCodeRegByte(op, x, value))
	case "ld":
		err = asm.parseLoad(words, emit, &label)
	case "add":
		if err = argN(2); err != nil {
			return
		}
		if words[1] == "i" {
			x, ok := regOf(words[2])
			if !ok {
				err = ErrRegisterInvalid
				return
			}
			emit(MakeCodeReg(OP_ADD_I, x))
			return
		}
		x, ok := regOf(words[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		if y, is_reg := regOf(words[2]); is_reg {
			emit(MakeCodeRegReg(OP_ADD_REG, x, y))
			return
		}
		var value uint8
		value, err = asm.byteOf(words[2])
		if err != nil {
			return
		}
		emit(MakeCodeRegByte(OP_ADD_BYTE, x, value))
	case "or", "and", "xor", "sub", "subn":
		if err = argN(2); err != nil {
			return
		}
		x, okx := regOf(words[1])
		y, oky := regOf(words[2])
		if !okx || !oky {
			err = ErrRegisterInvalid
			return
		}
		op := map[string]Op{
			"or": OP_OR, "and": OP_AND, "xor": OP_XOR,
			"sub": OP_SUB, "subn": OP_SUBN,
		}[words[0]]
		emit(MakeCodeRegReg(op, x, y))
	case "shr", "shl":
		if len(words) < 2 || len(words) > 3 {
			err = ErrOpcodeValueMissing
			return
		}
		x, ok := regOf(words[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		y := x
		if len(words) == 3 {
			if y, ok = regOf(words[2]); !ok {
				err = ErrRegisterInvalid
				return
			}
		}
		op := OP_SHR
		if words[0] == "shl" {
			op = OP_SHL
		}
		emit(MakeCodeRegReg(op, x, y))
	case "rnd":
		if err = argN(2); err != nil {
			return
		}
		x, ok := regOf(words[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		var mask uint8
		mask, err = asm.byteOf(words[2])
		if err != nil {
			return
		}
		emit(MakeCodeRegByte(OP_RND, x, mask))
	case "drw":
		if err = argN(3); err != nil {
			return
		}
		x, okx := regOf(words[1])
		y, oky := regOf(words[2])
		if !okx || !oky {
			err = ErrRegisterInvalid
			return
		}
		var height uint8
		height, err = asm.nibbleOf(words[3])
		if err != nil {
			return
		}
		emit(MakeCodeDraw(x, y, height))
	case "skp", "sknp":
		if err = argN(1); err != nil {
			return
		}
		x, ok := regOf(words[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		op := OP_SKP
		if words[0] == "sknp" {
			op = OP_SKNP
		}
		emit(MakeCodeReg(op, x))
	case "db":
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words[1:] {
			var value uint8
			value, err = asm.byteOf(word)
			if err != nil {
				return
			}
			assembled = append(assembled, value)
		}
	case "dw":
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words[1:] {
			var value uint16
			value, err = asm.valueOf(word)
			if err != nil {
				return
			}
			assembled = append(assembled, uint8(value>>8), uint8(value))
		}
	default:
		err = ErrOpcodeInvalid
		return
	}

	return
}

// parseLoad handles the many forms of the ld instruction.
func (asm *Assembler) parseLoad(words []string, emit func(Code), label *string) (err error) {
	if len(words) != 3 {
		err = ErrOpcodeValueMissing
		return
	}

	// Destinations other than a register.
	switch words[1] {
	case "i":
		var addr uint16
		addr, *label, err = asm.getAddr(words[2])
		if err != nil {
			return
		}
		emit(MakeCodeAddr(OP_LD_I, addr))
		return
	case "dt", "st", "f", "b", "[i]":
		x, ok := regOf(words[2])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		op := map[string]Op{
			"dt": OP_ST_DT, "st": OP_ST_ST,
			"f": OP_LD_FONT, "b": OP_LD_BCD, "[i]": OP_ST_MEM,
		}[words[1]]
		emit(MakeCodeReg(op, x))
		return
	}

	x, ok := regOf(words[1])
	if !ok {
		err = ErrTargetInvalid
		return
	}

	switch words[2] {
	case "dt":
		emit(MakeCodeReg(OP_LD_DT, x))
		return
	case "k":
		emit(MakeCodeReg(OP_LD_KEY, x))
		return
	case "[i]":
		emit(MakeCodeReg(OP_LD_MEM, x))
		return
	}

	if y, is_reg := regOf(words[2]); is_reg {
		emit(MakeCodeRegReg(OP_LD_REG, x, y))
		return
	}

	var value uint8
	value, err = asm.byteOf(words[2])
	if err != nil {
		return
	}
	emit(MakeCodeRegByte(OP_LD_BYTE, x, value))

	return
}
