// parser.go replaces the goyacc grammar the original lexer was built to
// feed: rather than generate a table-driven parser from a .y grammar, it
// walks the token stream by hand, building an ssa.Module directly through
// the package's own Create* builders instead of through an intermediate
// syntax tree. It stands in for linearize, the external tool that in
// production turns a compiler's own IR into this package's data model; here
// it turns the small textual assembly syntax below into the same thing, so
// the simplifier's tests have something to build fixtures with.
package frontend

import (
	"fmt"
	"strconv"
	"strings"

	"midir/src/ir/ssa"
	"midir/src/ir/ssa/types"
)

// Parse lexes and parses src, a program in the textual assembly syntax, and
// returns the ssa.Module it describes. Diagnostics raised during
// simplification later are routed through sink; sink may be nil.
func Parse(src string, sink ssa.DiagSink) (*ssa.Module, error) {
	return ParseWithDebug(src, sink, false)
}

// ParseWithDebug is Parse plus the -ventry developer flag: when debugEntry
// is set, every function's entry block creation during this parse is
// traced through sink.
func ParseWithDebug(src string, sink ssa.DiagSink, debugEntry bool) (*ssa.Module, error) {
	toks, err := collectTokens(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, syms: map[string]*ssa.Symbol{}}
	return p.parseModule(sink, debugEntry)
}

// collectTokens drains every item the lexer produces for src into a slice,
// running the scan in its own goroutine exactly as the lexer was designed
// to (see lexer.go); the parser below just buffers ahead of where a
// goyacc-driven one would pull one token at a time.
func collectTokens(src string) ([]item, error) {
	l := newLexer(src, lexGlobal)
	go l.run()
	var toks []item
	for {
		t := l.nextItem()
		if t.typ == itemError {
			return nil, fmt.Errorf("%s", t.val)
		}
		toks = append(toks, t)
		if t.typ == itemEOF {
			return toks, nil
		}
	}
}

// parser walks a buffered token slice with a single cursor. It has no
// backtracking: the grammar below is LL(1) except where noted.
type parser struct {
	toks []item
	pos  int
	syms map[string]*ssa.Symbol
}

func (p *parser) cur() item { return p.toks[p.pos] }

func (p *parser) advance() item {
	t := p.toks[p.pos]
	if t.typ != itemEOF {
		p.pos++
	}
	return t
}

func (p *parser) check(typ itemType) bool { return p.cur().typ == typ }

func (p *parser) accept(typ itemType) bool {
	if p.check(typ) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(typ itemType) (item, error) {
	if !p.check(typ) {
		t := p.cur()
		return item{}, fmt.Errorf("line %d:%d: unexpected %q", t.line, t.pos, t.val)
	}
	return p.advance(), nil
}

func (p *parser) skipNewlines() {
	for p.accept(itemNewline) {
	}
}

// lineStart reports whether the token at index i begins a new line.
func (p *parser) lineStart(i int) bool {
	return i == 0 || p.toks[i-1].typ == itemNewline
}

// ----------------------------
// ----- Top-level syntax -----
// ----------------------------

func (p *parser) parseModule(sink ssa.DiagSink, debugEntry bool) (*ssa.Module, error) {
	p.skipNewlines()
	if _, err := p.expect(KwModule); err != nil {
		return nil, err
	}
	name, err := p.expect(itemIdent)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	mod := ssa.CreateModule(name.val, sink)
	mod.DebugEntry = debugEntry

	for !p.check(itemEOF) {
		switch {
		case p.check(KwSym):
			if err := p.parseSym(); err != nil {
				return nil, err
			}
		case p.check(KwFunc):
			if err := p.parseFunc(mod); err != nil {
				return nil, err
			}
		default:
			t := p.cur()
			return nil, fmt.Errorf("line %d:%d: expected 'sym' or 'func', found %q", t.line, t.pos, t.val)
		}
		p.skipNewlines()
	}
	return mod, nil
}

// parseSym parses a module-level symbol declaration:
//
//	sym @name [ptr] [float] [signed] [volatile] [pure] [size=N]
func (p *parser) parseSym() error {
	if _, err := p.expect(KwSym); err != nil {
		return err
	}
	ref, err := p.expect(itemSymbol)
	if err != nil {
		return err
	}
	name := ref.val[1:]
	sym := &ssa.Symbol{Name: name, Size: 4}
	for !p.check(itemNewline) && !p.check(itemEOF) {
		switch {
		case p.accept(KwPtr):
			sym.Pointer = true
		case p.accept(KwFloat):
			sym.Float = true
		case p.accept(KwSigned):
			sym.Signed = true
		case p.accept(KwVolatile):
			sym.Volatile = true
		case p.accept(KwPure):
			sym.Pure = true
		case p.check(itemIdent) && p.cur().val == "size":
			p.advance()
			if _, err := p.expect(itemEquals); err != nil {
				return err
			}
			sz, err := p.expect(itemNumber)
			if err != nil {
				return err
			}
			n, _ := strconv.Atoi(sz.val)
			sym.Size = uint8(n)
		default:
			t := p.cur()
			return fmt.Errorf("line %d:%d: unexpected symbol attribute %q", t.line, t.pos, t.val)
		}
	}
	p.syms[name] = sym
	return nil
}

// resolveSymbol returns the declared symbol named name, auto-declaring a
// bare extern one (size 4, no modifiers) on first reference if the module
// never declared it with a sym directive.
func (p *parser) resolveSymbol(name string) *ssa.Symbol {
	if sym, ok := p.syms[name]; ok {
		return sym
	}
	sym := &ssa.Symbol{Name: name, Size: 4}
	p.syms[name] = sym
	return sym
}

// parseFunc parses a function:
//
//	func name(nargs) [-> type]:
//	block0:
//	    instruction*
//	block1:
//	    instruction*
func (p *parser) parseFunc(mod *ssa.Module) error {
	if _, err := p.expect(KwFunc); err != nil {
		return err
	}
	name, err := p.expect(itemIdent)
	if err != nil {
		return err
	}
	if _, err := p.expect(itemLParen); err != nil {
		return err
	}
	nargsTok, err := p.expect(itemNumber)
	if err != nil {
		return err
	}
	nargs, _ := strconv.Atoi(nargsTok.val)
	if _, err := p.expect(itemRParen); err != nil {
		return err
	}
	retType := types.Void
	if p.accept(itemArrow) {
		retType, err = p.parseTypeKeyword()
		if err != nil {
			return err
		}
	}
	if _, err := p.expect(itemColon); err != nil {
		return err
	}
	p.skipNewlines()

	f := mod.CreateFunction(name.val, retType)
	args := make([]*ssa.Pseudo, nargs)
	for i := 0; i < nargs; i++ {
		args[i] = f.CreateArg(i)
	}

	fp := &funcParser{p: p, f: f, args: args, regs: map[string]*ssa.Pseudo{}, blocks: map[string]*ssa.Block{}}
	return fp.parseBody()
}

func (p *parser) parseTypeKeyword() (types.DataType, error) {
	switch {
	case p.accept(KwInt):
		return types.Int, nil
	case p.accept(KwFloat):
		return types.Float, nil
	case p.accept(KwPtr):
		return types.Pointer, nil
	case p.accept(KwVoid):
		return types.Void, nil
	default:
		t := p.cur()
		return types.Void, fmt.Errorf("line %d:%d: expected a type, found %q", t.line, t.pos, t.val)
	}
}

// ----------------------------------
// ----- Function body grammar -----
// ----------------------------------

// funcParser parses one function body: a sequence of labeled blocks, each
// holding a sequence of instructions.
type funcParser struct {
	p      *parser
	f      *ssa.Function
	args   []*ssa.Pseudo
	regs   map[string]*ssa.Pseudo
	blocks map[string]*ssa.Block
}

func (fp *funcParser) parseBody() error {
	p := fp.p
	start := p.pos

	// Pass 1: find every block label and the end of the function body,
	// without consuming anything (the driver needs every label resolved
	// up front so a branch can target a block declared later in the text).
	bodyEnd := start
	var order []string
	for bodyEnd < len(p.toks) {
		t := p.toks[bodyEnd]
		if p.lineStart(bodyEnd) && (t.typ == KwFunc || t.typ == KwSym || t.typ == itemEOF) {
			break
		}
		if p.lineStart(bodyEnd) && t.typ == itemIdent && bodyEnd+1 < len(p.toks) && p.toks[bodyEnd+1].typ == itemColon {
			order = append(order, t.val)
		}
		bodyEnd++
	}
	if len(order) == 0 {
		return fmt.Errorf("function %s has no blocks", fp.f.Name)
	}
	for i, name := range order {
		if i == 0 {
			fp.blocks[name] = fp.f.Entry
		} else {
			fp.blocks[name] = fp.f.CreateBlock()
		}
	}

	// Pass 2: parse every instruction into its block.
	var cur *ssa.Block
	for p.pos < bodyEnd {
		p.skipNewlines()
		if p.pos >= bodyEnd {
			break
		}
		if p.check(itemIdent) && p.pos+1 < bodyEnd && p.toks[p.pos+1].typ == itemColon {
			name := p.advance().val
			p.advance() // colon
			cur = fp.blocks[name]
			continue
		}
		if cur == nil {
			t := p.cur()
			return fmt.Errorf("line %d:%d: instruction outside of any block", t.line, t.pos)
		}
		if err := fp.parseInstruction(cur); err != nil {
			return err
		}
	}
	p.pos = bodyEnd
	return nil
}

// parseInstruction parses one instruction line, appending it to b.
func (fp *funcParser) parseInstruction(b *ssa.Block) error {
	p := fp.p
	target := ""
	if p.check(itemRegister) && p.pos+1 < len(p.toks) && p.toks[p.pos+1].typ == itemEquals {
		target = strings.TrimPrefix(p.advance().val, "%")
		p.advance() // '='
	}

	mnem, err := p.expect(itemIdent)
	if err != nil {
		return err
	}
	op, ok := mnemonics[mnem.val]
	if !ok {
		return fmt.Errorf("line %d:%d: unknown opcode %q", mnem.line, mnem.pos, mnem.val)
	}
	var size uint8 = 32
	if p.accept(itemDot) {
		szTok, err := p.expect(itemNumber)
		if err != nil {
			return err
		}
		n, _ := strconv.Atoi(szTok.val)
		size = uint8(n)
	}

	var result *ssa.Instruction
	switch {
	case op.InTerminatorRange():
		result, err = fp.parseTerminator(b, op)
	case op.InBinaryRange() || op.IsCompare():
		result, err = fp.parseBinaryLike(b, op, size)
	case op == types.NOT || op == types.NEG || op == types.FNEG:
		var src *ssa.Pseudo
		src, err = fp.parseOperand()
		if err == nil {
			result = b.CreateUnary(op, size, src)
		}
	case op == types.SEL:
		result, err = fp.parseSelect(b, size)
	case op == types.LOAD:
		result, err = fp.parseLoad(b, size)
	case op == types.STORE:
		err = fp.parseStore(b, size)
	case op == types.CAST || op == types.SCAST || op == types.FPCAST || op == types.PTRCAST:
		result, err = fp.parseCast(b, op, size)
	case op == types.SYMADDR:
		var ref item
		ref, err = p.expect(itemSymbol)
		if err == nil {
			result = b.CreateSymaddr(fp.f.SymPseudo(p.resolveSymbol(ref.val[1:])))
		}
	case op == types.SETVAL:
		var src *ssa.Pseudo
		src, err = fp.parseOperand()
		if err == nil {
			result = b.CreateSetval(src)
		}
	case op == types.SETFVAL:
		result, err = fp.parseSetfval(b)
	case op == types.PHI:
		result, err = fp.parsePhi(b)
	case op == types.CALL || op == types.INLINED_CALL:
		result, err = fp.parseCall(b, op, target != "")
	case op == types.RANGE:
		result, err = fp.parseRange(b)
	case op == types.COPY:
		var src *ssa.Pseudo
		src, err = fp.parseOperand()
		if err == nil {
			result = b.CreateCopy(src)
		}
	default:
		err = fmt.Errorf("line %d:%d: opcode %s has no assembler syntax", mnem.line, mnem.pos, op)
	}
	if err != nil {
		return err
	}
	if target != "" {
		if result == nil || result.Target == nil {
			return fmt.Errorf("line %d:%d: %s produces no result to assign to %%%s", mnem.line, mnem.pos, op, target)
		}
		fp.regs[target] = result.Target
	}
	if !p.check(itemNewline) && !p.check(itemEOF) {
		t := p.cur()
		return fmt.Errorf("line %d:%d: unexpected trailing %q", t.line, t.pos, t.val)
	}
	return nil
}

func (fp *funcParser) parseTerminator(b *ssa.Block, op types.Opcode) (*ssa.Instruction, error) {
	p := fp.p
	switch op {
	case types.RET:
		if p.check(itemNewline) || p.check(itemEOF) {
			return b.CreateReturn(nil), nil
		}
		v, err := fp.parseOperand()
		if err != nil {
			return nil, err
		}
		return b.CreateReturn(v), nil
	case types.BR:
		tgt, err := fp.parseBlockRef()
		if err != nil {
			return nil, err
		}
		return b.CreateBranch(tgt), nil
	case types.CBR:
		cond, err := fp.parseOperand()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemComma); err != nil {
			return nil, err
		}
		t1, err := fp.parseBlockRef()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemComma); err != nil {
			return nil, err
		}
		t2, err := fp.parseBlockRef()
		if err != nil {
			return nil, err
		}
		return b.CreateConditionalBranch(cond, t1, t2), nil
	case types.SWITCH:
		sel, err := fp.parseOperand()
		if err != nil {
			return nil, err
		}
		var cases []ssa.SwitchCase
		for p.accept(itemComma) {
			if p.accept(KwDefault) {
				if _, err := p.expect(itemArrow); err != nil {
					return nil, err
				}
				tgt, err := fp.parseBlockRef()
				if err != nil {
					return nil, err
				}
				cases = append(cases, ssa.SwitchCase{Low: 1, High: 0, Target: tgt})
				continue
			}
			if _, err := p.expect(itemLBrack); err != nil {
				return nil, err
			}
			lo, err := fp.parseSignedInt()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(itemDotDot); err != nil {
				return nil, err
			}
			hi, err := fp.parseSignedInt()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(itemRBrack); err != nil {
				return nil, err
			}
			if _, err := p.expect(itemArrow); err != nil {
				return nil, err
			}
			tgt, err := fp.parseBlockRef()
			if err != nil {
				return nil, err
			}
			cases = append(cases, ssa.SwitchCase{Low: lo, High: hi, Target: tgt})
		}
		return b.CreateSwitch(sel, cases), nil
	default:
		return nil, fmt.Errorf("opcode %s has no assembler syntax", op)
	}
}

func (fp *funcParser) parseBinaryLike(b *ssa.Block, op types.Opcode, size uint8) (*ssa.Instruction, error) {
	p := fp.p
	src1, err := fp.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemComma); err != nil {
		return nil, err
	}
	src2, err := fp.parseOperand()
	if err != nil {
		return nil, err
	}
	if op.IsCompare() {
		return b.CreateCompare(op, size, src1, src2), nil
	}
	return b.CreateBinary(op, size, src1, src2), nil
}

func (fp *funcParser) parseSelect(b *ssa.Block, size uint8) (*ssa.Instruction, error) {
	p := fp.p
	cond, err := fp.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemComma); err != nil {
		return nil, err
	}
	ifTrue, err := fp.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemComma); err != nil {
		return nil, err
	}
	ifFalse, err := fp.parseOperand()
	if err != nil {
		return nil, err
	}
	return b.CreateSelect(size, cond, ifTrue, ifFalse), nil
}

func (fp *funcParser) parseLoad(b *ssa.Block, size uint8) (*ssa.Instruction, error) {
	p := fp.p
	volatile := p.accept(KwVolatile)
	if _, err := p.expect(itemLBrack); err != nil {
		return nil, err
	}
	base, err := fp.parseOperand()
	if err != nil {
		return nil, err
	}
	off, err := fp.parseOffset()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemRBrack); err != nil {
		return nil, err
	}
	return b.CreateLoad(size, base, off, volatile), nil
}

func (fp *funcParser) parseStore(b *ssa.Block, size uint8) error {
	p := fp.p
	if _, err := p.expect(itemLBrack); err != nil {
		return err
	}
	base, err := fp.parseOperand()
	if err != nil {
		return err
	}
	off, err := fp.parseOffset()
	if err != nil {
		return err
	}
	if _, err := p.expect(itemRBrack); err != nil {
		return err
	}
	if _, err := p.expect(itemComma); err != nil {
		return err
	}
	val, err := fp.parseOperand()
	if err != nil {
		return err
	}
	b.CreateStore(size, val, base, off)
	return nil
}

// parseOffset parses an optional "+N" or "-N" suffix, 0 if neither is
// present.
func (fp *funcParser) parseOffset() (int64, error) {
	p := fp.p
	switch {
	case p.accept(itemPlus):
		n, err := p.expect(itemNumber)
		if err != nil {
			return 0, err
		}
		v, _ := strconv.ParseInt(n.val, 10, 64)
		return v, nil
	case p.accept(itemMinus):
		n, err := p.expect(itemNumber)
		if err != nil {
			return 0, err
		}
		v, _ := strconv.ParseInt(n.val, 10, 64)
		return -v, nil
	case p.check(itemNumber) && strings.HasPrefix(p.cur().val, "-"):
		// The lexer folds a '-' directly followed by a digit into the
		// number token itself.
		v, _ := strconv.ParseInt(p.advance().val, 10, 64)
		return v, nil
	default:
		return 0, nil
	}
}

func (fp *funcParser) parseCast(b *ssa.Block, op types.Opcode, size uint8) (*ssa.Instruction, error) {
	p := fp.p
	origType, err := p.parseTypeKeyword()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemDot); err != nil {
		return nil, err
	}
	szTok, err := p.expect(itemNumber)
	if err != nil {
		return nil, err
	}
	n, _ := strconv.Atoi(szTok.val)
	src, err := fp.parseOperand()
	if err != nil {
		return nil, err
	}
	return b.CreateCast(op, size, origType, uint8(n), src), nil
}

func (fp *funcParser) parseSetfval(b *ssa.Block) (*ssa.Instruction, error) {
	p := fp.p
	var t item
	var err error
	switch {
	case p.check(itemFloat):
		t = p.advance()
	case p.check(itemNumber):
		t = p.advance()
	default:
		t, err = p.expect(itemFloat)
		if err != nil {
			return nil, err
		}
	}
	v, _ := strconv.ParseFloat(t.val, 64)
	return b.CreateSetfval(v), nil
}

func (fp *funcParser) parsePhi(b *ssa.Block) (*ssa.Instruction, error) {
	p := fp.p
	if _, err := p.expect(itemLBrack); err != nil {
		return nil, err
	}
	var ops []*ssa.Pseudo
	if !p.check(itemRBrack) {
		v, err := fp.parseOperand()
		if err != nil {
			return nil, err
		}
		ops = append(ops, v)
		for p.accept(itemComma) {
			v, err := fp.parseOperand()
			if err != nil {
				return nil, err
			}
			ops = append(ops, v)
		}
	}
	if _, err := p.expect(itemRBrack); err != nil {
		return nil, err
	}
	insn := b.CreatePhi()
	if len(ops) != len(insn.PhiOperands) {
		return nil, fmt.Errorf("phi in block%d takes %d operands (one per predecessor), got %d", b.Id(), len(insn.PhiOperands), len(ops))
	}
	for i, v := range ops {
		ssa.SetPhiOperand(insn, i, v)
	}
	return insn, nil
}

func (fp *funcParser) parseCall(b *ssa.Block, op types.Opcode, hasTarget bool) (*ssa.Instruction, error) {
	p := fp.p
	fn, err := fp.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemLParen); err != nil {
		return nil, err
	}
	var args []*ssa.Pseudo
	if !p.check(itemRParen) {
		a, err := fp.parseOperand()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		for p.accept(itemComma) {
			a, err := fp.parseOperand()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
	}
	if _, err := p.expect(itemRParen); err != nil {
		return nil, err
	}
	retType := types.Void
	if hasTarget {
		retType = types.Int
	}
	return b.CreateCall(op, fn, args, nil, retType), nil
}

func (fp *funcParser) parseRange(b *ssa.Block) (*ssa.Instruction, error) {
	p := fp.p
	src, err := fp.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemComma); err != nil {
		return nil, err
	}
	if _, err := p.expect(itemLBrack); err != nil {
		return nil, err
	}
	lo, err := fp.parseSignedInt()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemDotDot); err != nil {
		return nil, err
	}
	hi, err := fp.parseSignedInt()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemRBrack); err != nil {
		return nil, err
	}
	return b.CreateRange(src, lo, hi), nil
}

// parseSignedInt parses an itemNumber, optionally preceded by a standalone
// itemMinus (the lexer only folds '-' into the number token when it
// immediately precedes a digit with no intervening token boundary, which
// range/switch bound literals satisfy, but this covers the case of a bound
// written with a space before it).
func (fp *funcParser) parseSignedInt() (int64, error) {
	p := fp.p
	neg := p.accept(itemMinus)
	t, err := p.expect(itemNumber)
	if err != nil {
		return 0, err
	}
	v, _ := strconv.ParseInt(t.val, 10, 64)
	if neg {
		v = -v
	}
	return v, nil
}

func (fp *funcParser) parseBlockRef() (*ssa.Block, error) {
	p := fp.p
	t, err := p.expect(itemIdent)
	if err != nil {
		return nil, err
	}
	b, ok := fp.blocks[t.val]
	if !ok {
		return nil, fmt.Errorf("line %d:%d: reference to undefined block %q", t.line, t.pos, t.val)
	}
	return b, nil
}

// parseOperand parses a VAL literal, a %-register/argument/phi reference, or
// an @-symbol reference, the three pseudo flavors the assembler can spell.
func (fp *funcParser) parseOperand() (*ssa.Pseudo, error) {
	p := fp.p
	switch {
	case p.check(itemNumber):
		t := p.advance()
		v, _ := strconv.ParseInt(t.val, 10, 64)
		return fp.f.ValuePseudo(v), nil
	case p.check(itemMinus) && fp.p.pos+1 < len(fp.p.toks) && fp.p.toks[fp.p.pos+1].typ == itemNumber:
		p.advance()
		t := p.advance()
		v, _ := strconv.ParseInt(t.val, 10, 64)
		return fp.f.ValuePseudo(-v), nil
	case p.check(itemRegister):
		t := p.advance()
		name := t.val[1:]
		switch {
		case strings.HasPrefix(name, "arg"):
			idx, err := strconv.Atoi(strings.TrimPrefix(name, "arg"))
			if err != nil || idx < 0 || idx >= len(fp.args) {
				return nil, fmt.Errorf("line %d:%d: no such argument %%%s", t.line, t.pos, name)
			}
			return fp.args[idx], nil
		default:
			v, ok := fp.regs[name]
			if !ok {
				return nil, fmt.Errorf("line %d:%d: reference to undefined register %%%s", t.line, t.pos, name)
			}
			return v, nil
		}
	case p.check(itemSymbol):
		t := p.advance()
		return fp.f.SymPseudo(fp.p.resolveSymbol(t.val[1:])), nil
	default:
		t := p.cur()
		return nil, fmt.Errorf("line %d:%d: expected an operand, found %q", t.line, t.pos, t.val)
	}
}
