package asm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"classfile/pkg/bytecode"
	"classfile/pkg/constpool"
)

// Parser assembles statements of the form
//
//	loop:   iload 1
//	        ifeq done
//	        iinc 1 -1
//	        goto loop
//	done:   return
//	.catch start end handler java/lang/Exception
//
// Instructions take number, #index pool, label, class-name and array-type
// operands. Errors carry source positions and parsing continues past them,
// so a single run reports everything that is wrong.
type Parser struct {
	sc     *Scanner                  // scanner instance
	a      *bytecode.Assembler       // emits code and backpatches labels
	pool   *constpool.Builder        // interns class-name operands
	labels map[string]bytecode.Label // name -> label
	marked map[string]bool           // names bound to a position
	refs   map[string]Position       // first use of each label name
	tok    Token                     // current token
	errors []string                  // list of errors
}

// NewParser creates a new parser instance
func NewParser(sc *Scanner, pool *constpool.Builder) *Parser {
	if pool == nil {
		pool = constpool.NewBuilder()
	}
	p := &Parser{
		sc:     sc,
		a:      bytecode.NewAssembler(),
		pool:   pool,
		labels: make(map[string]bytecode.Label),
		marked: make(map[string]bool),
		refs:   make(map[string]Position),
		errors: []string{},
	}

	// Initialize current token
	p.next()

	return p
}

// Assemble parses src and returns the bytecode with its exception table.
// Class-name operands are interned into pool.
func Assemble(src string, pool *constpool.Builder) ([]byte, *bytecode.HandlerTable, error) {
	p := NewParser(NewScanner(src), pool)
	p.Parse()

	return p.Finish()
}

// Parse consumes the whole input
func (p *Parser) Parse() {
	for p.tok.Type != EOF {
		if p.tok.Type == NEWLINE {
			p.next()
			continue
		}
		p.parseLine()
	}
}

// Errors returns the list of parsing errors
func (p *Parser) Errors() []string {
	return p.errors
}

// Finish resolves labels and returns the assembled code. Parse errors and
// undefined labels surface here, joined into one error.
func (p *Parser) Finish() ([]byte, *bytecode.HandlerTable, error) {
	for name, pos := range p.refs {
		if !p.marked[name] {
			p.addError(pos, "undefined label %q", name)
		}
	}
	if len(p.errors) > 0 {
		return nil, nil, errors.New(strings.Join(p.errors, "\n"))
	}

	return p.a.Finish()
}

// nextToken advances to the next token from the scanner
func (p *Parser) next() {
	p.tok = p.sc.NextToken()
}

// addError records a parsing error with location
func (p *Parser) addError(pos Position, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Sprintf("%s at line %d, column %d", msg, pos.Line, pos.Column))
}

// syncLine skips to the start of the next line after an error
func (p *Parser) syncLine() {
	for p.tok.Type != NEWLINE && p.tok.Type != EOF {
		p.next()
	}
}

func (p *Parser) parseLine() {
	for p.tok.Type == IDENT && p.sc.Peek().Type == COLON {
		p.markLabel(p.tok)
		p.next()
		p.next()
	}

	switch p.tok.Type {
	case NEWLINE, EOF:
		// label-only line
	case DIRECTIVE:
		p.parseDirective()
	case IDENT:
		p.parseInstruction()
	default:
		p.addError(p.tok.Pos, "unexpected %q", p.tok.Lexeme)
		p.syncLine()
	}
	p.endLine()
}

// endLine requires the statement to stop at a line break
func (p *Parser) endLine() {
	switch p.tok.Type {
	case NEWLINE:
		p.next()
	case EOF:
	default:
		p.addError(p.tok.Pos, "unexpected %q after instruction", p.tok.Lexeme)
		p.syncLine()
	}
}

func (p *Parser) markLabel(tok Token) {
	if p.marked[tok.Lexeme] {
		p.addError(tok.Pos, "label %q defined twice", tok.Lexeme)
		return
	}
	p.marked[tok.Lexeme] = true
	p.a.Mark(p.labelFor(tok.Lexeme))
}

func (p *Parser) labelFor(name string) bytecode.Label {
	if l, ok := p.labels[name]; ok {
		return l
	}
	l := p.a.Label()
	p.labels[name] = l

	return l
}

func (p *Parser) parseInstruction() {
	tok := p.tok
	op, ok := bytecode.ByMnemonic(tok.Lexeme)
	if !ok {
		p.addError(tok.Pos, "unknown mnemonic %q", tok.Lexeme)
		p.syncLine()
		return
	}
	p.next()

	switch {
	case op == bytecode.TABLESWITCH:
		p.parseTableSwitch(tok.Pos)
	case op == bytecode.LOOKUPSWITCH:
		p.parseLookupSwitch()
	case op == bytecode.IINC:
		index := p.numOperand()
		delta := p.numOperand()
		if index > 0xff || delta < -0x80 || delta > 0x7f {
			p.a.WideIinc(index, delta)
		} else {
			p.a.Iinc(index, delta)
		}
	case op == bytecode.INVOKEINTERFACE:
		index := p.poolOperand()
		p.a.InvokeInterface(index, p.numOperand())
	case op == bytecode.INVOKEDYNAMIC:
		p.a.InvokeDynamic(p.poolOperand())
	case op == bytecode.MULTIANEWARRAY:
		index := p.classOperand()
		p.a.MultiANewArray(index, p.numOperand())
	case op == bytecode.NEWARRAY:
		p.a.OpU1(op, p.atypeOperand())
	case op == bytecode.BIPUSH:
		p.a.OpU1(op, p.numOperand()&0xff)
	case op == bytecode.SIPUSH:
		p.a.OpU2(op, p.numOperand()&0xffff)
	case op == bytecode.LDC:
		p.a.OpU1(op, p.poolOperand())
	case op == bytecode.LDC_W, op == bytecode.LDC2_W:
		p.a.OpU2(op, p.poolOperand())
	case op == bytecode.WIDE:
		p.addError(tok.Pos, "wide prefix is implicit in large operands")
		p.syncLine()
	case isBranch(op):
		p.a.Branch(op, p.labelOperand())
	case isLocalVar(op):
		index := p.numOperand()
		if index > 0xff {
			p.a.WideLocal(op, index)
		} else {
			p.a.OpU1(op, index)
		}
	case isClassOp(op):
		p.a.OpU2(op, p.classOperand())
	case isMemberOp(op):
		p.a.OpU2(op, p.poolOperand())
	default:
		p.a.Op(op)
	}
}

// parseTableSwitch reads "tableswitch <low> <default> <target>..."
func (p *Parser) parseTableSwitch(pos Position) {
	low := p.numOperand()
	def := p.labelOperand()
	var targets []bytecode.Label
	for p.tok.Type == IDENT {
		targets = append(targets, p.labelOperand())
	}
	if len(targets) == 0 {
		p.addError(pos, "tableswitch needs at least one target")
		return
	}
	p.a.TableSwitch(def, low, targets...)
}

// parseLookupSwitch reads "lookupswitch <default> <key>:<target>..."
func (p *Parser) parseLookupSwitch() {
	def := p.labelOperand()
	var keys []int
	var targets []bytecode.Label
	for p.tok.Type == NUM {
		keys = append(keys, p.numOperand())
		if p.tok.Type != COLON {
			p.addError(p.tok.Pos, "expected ':' before lookupswitch target")
			p.syncLine()
			return
		}
		p.next()
		targets = append(targets, p.labelOperand())
	}
	p.a.LookupSwitch(def, keys, targets)
}

// parseDirective reads ".catch <start> <end> <handler> <class|#index|*>"
func (p *Parser) parseDirective() {
	tok := p.tok
	p.next()
	if tok.Literal != "catch" {
		p.addError(tok.Pos, "unknown directive %q", tok.Lexeme)
		p.syncLine()
		return
	}

	start := p.labelOperand()
	end := p.labelOperand()
	handler := p.labelOperand()

	catchType := 0
	switch p.tok.Type {
	case STAR:
		p.next()
	case POOLREF:
		catchType = p.poolOperand()
	case IDENT:
		catchType = p.pool.Class(p.tok.Lexeme)
		p.next()
	default:
		p.addError(p.tok.Pos, "expected catch type, got %q", p.tok.Lexeme)
		p.syncLine()
		return
	}
	p.a.Catch(start, end, handler, catchType)
}

// numOperand consumes a number operand
func (p *Parser) numOperand() int {
	if p.tok.Type != NUM {
		p.addError(p.tok.Pos, "expected number, got %q", p.tok.Lexeme)
		p.syncLine()
		return 0
	}
	v, err := strconv.Atoi(p.tok.Literal)
	if err != nil {
		p.addError(p.tok.Pos, "bad number %q", p.tok.Lexeme)
		v = 0
	}
	p.next()

	return v
}

// poolOperand consumes a #index operand
func (p *Parser) poolOperand() int {
	if p.tok.Type != POOLREF {
		p.addError(p.tok.Pos, "expected pool reference, got %q", p.tok.Lexeme)
		p.syncLine()
		return 0
	}
	v, _ := strconv.Atoi(p.tok.Literal)
	p.next()

	return v
}

// classOperand consumes a #index or a class name, interning the name
func (p *Parser) classOperand() int {
	switch p.tok.Type {
	case POOLREF:
		return p.poolOperand()
	case IDENT:
		index := p.pool.Class(p.tok.Lexeme)
		p.next()
		return index
	default:
		p.addError(p.tok.Pos, "expected class or pool reference, got %q", p.tok.Lexeme)
		p.syncLine()
		return 0
	}
}

// labelOperand consumes a label operand
func (p *Parser) labelOperand() bytecode.Label {
	if p.tok.Type != IDENT {
		p.addError(p.tok.Pos, "expected label, got %q", p.tok.Lexeme)
		p.syncLine()
		return p.a.Label()
	}
	name := p.tok.Lexeme
	if _, ok := p.refs[name]; !ok {
		p.refs[name] = p.tok.Pos
	}
	p.next()

	return p.labelFor(name)
}

var atypes = map[string]int{
	"boolean": bytecode.TBoolean,
	"char":    bytecode.TChar,
	"float":   bytecode.TFloat,
	"double":  bytecode.TDouble,
	"byte":    bytecode.TByte,
	"short":   bytecode.TShort,
	"int":     bytecode.TInt,
	"long":    bytecode.TLong,
}

// atypeOperand consumes a newarray element type, by name or numeric code
func (p *Parser) atypeOperand() int {
	switch p.tok.Type {
	case IDENT:
		code, ok := atypes[p.tok.Lexeme]
		if !ok {
			p.addError(p.tok.Pos, "unknown array type %q", p.tok.Lexeme)
			p.syncLine()
			return 0
		}
		p.next()
		return code
	case NUM:
		return p.numOperand()
	default:
		p.addError(p.tok.Pos, "expected array type, got %q", p.tok.Lexeme)
		p.syncLine()
		return 0
	}
}

func isBranch(op bytecode.Opcode) bool {
	return (op >= bytecode.IFEQ && op <= bytecode.JSR) ||
		op == bytecode.IFNULL || op == bytecode.IFNONNULL ||
		op == bytecode.GOTO_W || op == bytecode.JSR_W
}

func isLocalVar(op bytecode.Opcode) bool {
	return (op >= bytecode.ILOAD && op <= bytecode.ALOAD) ||
		(op >= bytecode.ISTORE && op <= bytecode.ASTORE) ||
		op == bytecode.RET
}

func isClassOp(op bytecode.Opcode) bool {
	switch op {
	case bytecode.NEW, bytecode.ANEWARRAY, bytecode.CHECKCAST, bytecode.INSTANCEOF:
		return true
	default:
		return false
	}
}

func isMemberOp(op bytecode.Opcode) bool {
	return op >= bytecode.GETSTATIC && op <= bytecode.INVOKESTATIC
}
