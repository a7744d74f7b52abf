// Package llvm renders a finished ssa.Module as textual LLVM IR, for the
// -fdump-ir=final developer flag. It is a pretty-printer, not a code
// generator: it never touches a llvm.TargetMachine and never emits object
// code, since machine-code generation and register allocation are out of
// scope.
package llvm

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"tinygo.org/x/go-llvm"

	"midir/src/ir/ssa"
	"midir/src/ir/ssa/types"
	"midir/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// symTab maps ssa pseudos to the llvm.Value standing in for them within one
// function's builder pass. Pseudos never outlive the function that owns
// them, so one symTab per function suffices; no cross-function locking is
// needed here, unlike globalTab below, which is shared by every
// parallel function-body goroutine and does need one.
type symTab struct {
	m map[*ssa.Pseudo]llvm.Value
}

func newSymTab() *symTab { return &symTab{m: make(map[*ssa.Pseudo]llvm.Value, 16)} }

func (s *symTab) get(p *ssa.Pseudo) (llvm.Value, bool) {
	v, ok := s.m[p]
	return v, ok
}

func (s *symTab) set(p *ssa.Pseudo, v llvm.Value) { s.m[p] = v }

// funcWrapper pairs an ssa.Function with its declared llvm.Value. Headers
// are declared for every function before any body is generated, so every
// function's signature exists before any body references it (mutual
// recursion, calls to functions declared later in the module).
type funcWrapper struct {
	ll llvm.Value
	fn *ssa.Function
}

// ---------------------
// ----- functions -----
// ---------------------

// Dump renders m as textual LLVM IR. Widths are fixed rather than taken
// from any target: every formal parameter and non-void return is i64,
// every pointer is i8*; there is no cross-compilation target here, only a
// readable dump of the IR the core already finished simplifying.
func Dump(m *ssa.Module, opt util.Options) (string, error) {
	fns := m.Functions()
	if len(fns) == 0 {
		return "", errors.New("module has no functions")
	}

	ctx := llvm.NewContext()
	defer ctx.Dispose()

	lm := ctx.NewModule(moduleName(opt, m))
	defer lm.Dispose()

	globals := &globalTab{lm: lm, m: make(map[*ssa.Symbol]llvm.Value, 8)}

	wrappers := make([]funcWrapper, 0, len(fns))
	for _, f := range fns {
		ll, err := genFuncHeader(lm, f)
		if err != nil {
			return "", err
		}
		wrappers = append(wrappers, funcWrapper{ll: ll, fn: f})
	}

	if opt.Threads > 1 && len(wrappers) > 1 {
		if err := genBodiesParallel(ctx, opt.Threads, wrappers, globals); err != nil {
			return "", err
		}
	} else {
		b := ctx.NewBuilder()
		defer b.Dispose()
		for _, w := range wrappers {
			if err := genFuncBody(b, w.ll, w.fn, globals); err != nil {
				return "", err
			}
		}
	}

	if opt.Verbose {
		fmt.Println("LLVM IR:")
		lm.Dump()
	}
	return lm.String(), nil
}

func moduleName(opt util.Options, m *ssa.Module) string {
	if len(opt.Src) > 0 {
		return filepath.Base(opt.Src)
	}
	return m.Name
}

// globalTab memoizes the llvm.Value declared for each referenced Symbol,
// guarded by a mutex since SYMADDR lookups happen from every worker
// thread's function-body pass concurrently.
type globalTab struct {
	lm llvm.Module
	mu sync.Mutex
	m  map[*ssa.Symbol]llvm.Value
}

func (g *globalTab) get(sym *ssa.Symbol) llvm.Value {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sym == nil {
		return llvm.ConstPointerNull(llvm.PointerType(llvm.Int8Type(), 0))
	}
	if v, ok := g.m[sym]; ok {
		return v
	}
	v := llvm.AddGlobal(g.lm, llvm.Int8Type(), sym.Name)
	g.m[sym] = v
	return v
}

// genBodiesParallel generates function bodies across t worker threads, one
// llvm.Builder per thread so concurrent CreateXxx calls never interleave
// writes to the same builder's insertion point.
func genBodiesParallel(ctx llvm.Context, t int, wrappers []funcWrapper, globals *globalTab) error {
	l := len(wrappers)
	if t > l {
		t = l
	}
	n := l / t
	res := l % t

	var wg sync.WaitGroup
	cerr := make(chan error, t)
	wg.Add(t)

	start := 0
	for i1 := 0; i1 < t; i1++ {
		end := start + n
		if i1 < res {
			end++
		}
		go func(batch []funcWrapper) {
			defer wg.Done()
			b := ctx.NewBuilder()
			defer b.Dispose()
			for _, w := range batch {
				if err := genFuncBody(b, w.ll, w.fn, globals); err != nil {
					cerr <- err
					return
				}
			}
		}(wrappers[start:end])
		start = end
	}
	wg.Wait()
	close(cerr)
	if err, ok := <-cerr; ok {
		return err
	}
	return nil
}

// genFuncHeader declares f's signature in lm and returns the llvm.Value
// standing for it, without generating its body.
func genFuncHeader(lm llvm.Module, f *ssa.Function) (llvm.Value, error) {
	params := make([]llvm.Type, len(f.Args))
	for i := range f.Args {
		params[i] = llType(types.Int, 64)
	}
	ftyp := llvm.FunctionType(llRetType(f.RetType), params, false)
	return llvm.AddFunction(lm, f.Name, ftyp), nil
}

// genFuncBody fills in ll's basic blocks by walking f's own blocks in
// creation order, translating each instruction with genInsn. Blocks are
// pre-declared before any instruction is emitted so forward branches
// (CreateBr to a block not yet visited) resolve correctly, the same
// two-pass shape the assembler's own block pre-registration uses.
func genFuncBody(b llvm.Builder, ll llvm.Value, f *ssa.Function, globals *globalTab) error {
	lblocks := make(map[*ssa.Block]llvm.BasicBlock, len(f.Blocks))
	for _, bb := range f.Blocks {
		lblocks[bb] = llvm.AddBasicBlock(ll, fmt.Sprintf("block%d", bb.Id()))
	}

	st := newSymTab()
	for i, arg := range f.Args {
		st.set(arg, ll.Param(i))
	}

	for _, bb := range f.Blocks {
		b.SetInsertPointAtEnd(lblocks[bb])
		for _, insn := range bb.Insns {
			if insn.Dead() {
				continue
			}
			if err := genInsn(b, st, lblocks, globals, insn); err != nil {
				return fmt.Errorf("function %s, block%d: %w", f.Name, bb.Id(), err)
			}
		}
	}

	// A phi's incoming edges are only safe to wire once every predecessor
	// block has emitted its own terminator (AddIncoming needs the
	// predecessor's llvm.BasicBlock, not the ssa one); do that in a second
	// pass over every phi in the function.
	for _, bb := range f.Blocks {
		for _, insn := range bb.Insns {
			if insn.Dead() || insn.Op != types.PHI {
				continue
			}
			phi, ok := st.get(insn.Target)
			if !ok {
				continue
			}
			for i, src := range insn.PhiOperands {
				v, err := operand(st, src)
				if err != nil {
					return err
				}
				phi.AddIncoming([]llvm.Value{v}, []llvm.BasicBlock{lblocks[insn.BB.Parents[i]]})
			}
		}
	}
	return nil
}

// llType maps a DataType/bit-width pair onto the closest LLVM scalar type.
func llType(t types.DataType, size uint8) llvm.Type {
	switch t {
	case types.Float:
		if size <= 32 {
			return llvm.FloatType()
		}
		return llvm.DoubleType()
	case types.Pointer:
		return llvm.PointerType(llvm.Int8Type(), 0)
	default:
		if size == 0 {
			size = 64
		}
		return llvm.IntType(int(size))
	}
}

func llRetType(t types.DataType) llvm.Type {
	if t == types.Void {
		return llvm.VoidType()
	}
	return llType(t, 64)
}

// operand resolves p to the llvm.Value standing for it: a VAL pseudo
// becomes a constant, everything else must already be in st (it was
// defined by an instruction already visited, per SSA dominance, or is a
// formal argument installed up front).
func operand(st *symTab, p *ssa.Pseudo) (llvm.Value, error) {
	if p == nil || p.Kind == ssa.Void {
		return llvm.Value{}, nil
	}
	if p.Kind == ssa.Val {
		return llvm.ConstInt(llvm.Int64Type(), uint64(p.Value), true), nil
	}
	if v, ok := st.get(p); ok {
		return v, nil
	}
	return llvm.Value{}, fmt.Errorf("operand %s used before its definition was emitted", p)
}

// genInsn translates one instruction into the current builder insertion
// point, dispatching by the same opcode ranges the core's own simplifier
// uses rather than a giant opcode switch.
func genInsn(b llvm.Builder, st *symTab, lblocks map[*ssa.Block]llvm.BasicBlock, globals *globalTab, insn *ssa.Instruction) error {
	switch {
	case insn.Op.InTerminatorRange():
		return genTerminator(b, st, lblocks, insn)
	case insn.Op.InBinaryRange():
		return genBinop(b, st, insn)
	case insn.Op.IsCompare():
		return genCompare(b, st, insn)
	}

	switch insn.Op {
	case types.NOT:
		src, err := operand(st, insn.Src)
		if err != nil {
			return err
		}
		st.set(insn.Target, b.CreateNot(src, ""))
	case types.NEG:
		src, err := operand(st, insn.Src)
		if err != nil {
			return err
		}
		st.set(insn.Target, b.CreateNeg(src, ""))
	case types.FNEG:
		src, err := operand(st, insn.Src)
		if err != nil {
			return err
		}
		st.set(insn.Target, b.CreateFNeg(src, ""))
	case types.SEL:
		cond, err := operand(st, insn.Src1)
		if err != nil {
			return err
		}
		t, err := operand(st, insn.Src2)
		if err != nil {
			return err
		}
		f, err := operand(st, insn.Src3)
		if err != nil {
			return err
		}
		st.set(insn.Target, b.CreateSelect(cond, t, f, ""))
	case types.LOAD:
		return genLoad(b, st, insn)
	case types.STORE:
		return genStore(b, st, insn)
	case types.SETVAL:
		v, err := operand(st, insn.Src1)
		if err != nil {
			return err
		}
		st.set(insn.Target, v)
	case types.SETFVAL:
		st.set(insn.Target, llvm.ConstFloat(llvm.DoubleType(), insn.FVal))
	case types.SYMADDR:
		st.set(insn.Target, globals.get(insn.Sym))
	case types.PHI:
		phi := b.CreatePHI(llType(insn.Type, insn.Size), "")
		st.set(insn.Target, phi)
	case types.PHISOURCE:
		v, err := operand(st, insn.PhiSrc)
		if err != nil {
			return err
		}
		st.set(insn.Target, v)
	case types.CAST, types.SCAST, types.FPCAST, types.PTRCAST:
		return genCast(b, st, insn)
	case types.CALL, types.INLINED_CALL:
		return genCall(b, st, insn)
	case types.COPY:
		v, err := operand(st, insn.Src)
		if err != nil {
			return err
		}
		st.set(insn.Target, v)
	case types.RANGE, types.NOP, types.DEATHNOTE, types.ASM, types.CONTEXT, types.SLICE:
		// No LLVM counterpart: these carry no runtime effect once the
		// core has finished simplifying.
	default:
		return fmt.Errorf("unsupported opcode %s", insn.Op)
	}
	return nil
}

func genTerminator(b llvm.Builder, st *symTab, lblocks map[*ssa.Block]llvm.BasicBlock, insn *ssa.Instruction) error {
	switch insn.Op {
	case types.RET:
		if insn.Src1 == nil {
			b.CreateRetVoid()
			return nil
		}
		v, err := operand(st, insn.Src1)
		if err != nil {
			return err
		}
		b.CreateRet(v)
	case types.BR:
		b.CreateBr(lblocks[insn.True])
	case types.CBR:
		cond, err := operand(st, insn.Cond)
		if err != nil {
			return err
		}
		b.CreateCondBr(cond, lblocks[insn.True], lblocks[insn.False])
	case types.SWITCH:
		cond, err := operand(st, insn.Src1)
		if err != nil {
			return err
		}
		var def llvm.BasicBlock
		n := 0
		for _, c := range insn.Cases {
			if c.Low > c.High {
				def = lblocks[c.Target]
			} else {
				n += int(c.High - c.Low + 1)
			}
		}
		sw := b.CreateSwitch(cond, def, n)
		for _, c := range insn.Cases {
			if c.Low > c.High {
				continue
			}
			for v := c.Low; v <= c.High; v++ {
				sw.AddCase(llvm.ConstInt(cond.Type(), uint64(v), true), lblocks[c.Target])
			}
		}
	case types.COMPUTEDGOTO:
		return errors.New("computed goto has no LLVM IR pretty-printer rendering")
	}
	return nil
}

var intBinop = map[types.Opcode]func(llvm.Builder, llvm.Value, llvm.Value, string) llvm.Value{
	types.ADD:  llvm.Builder.CreateAdd,
	types.SUB:  llvm.Builder.CreateSub,
	types.MUL:  llvm.Builder.CreateMul,
	types.DIVU: llvm.Builder.CreateUDiv,
	types.DIVS: llvm.Builder.CreateSDiv,
	types.MODU: llvm.Builder.CreateURem,
	types.MODS: llvm.Builder.CreateSRem,
	types.SHL:  llvm.Builder.CreateShl,
	types.LSR:  llvm.Builder.CreateLShr,
	types.ASR:  llvm.Builder.CreateAShr,
	types.AND:  llvm.Builder.CreateAnd,
	types.OR:   llvm.Builder.CreateOr,
	types.XOR:  llvm.Builder.CreateXor,
}

var fpBinop = map[types.Opcode]func(llvm.Builder, llvm.Value, llvm.Value, string) llvm.Value{
	types.FADD: llvm.Builder.CreateFAdd,
	types.FSUB: llvm.Builder.CreateFSub,
	types.FMUL: llvm.Builder.CreateFMul,
	types.FDIV: llvm.Builder.CreateFDiv,
}

func genBinop(b llvm.Builder, st *symTab, insn *ssa.Instruction) error {
	lhs, err := operand(st, insn.Src1)
	if err != nil {
		return err
	}
	rhs, err := operand(st, insn.Src2)
	if err != nil {
		return err
	}
	if f, ok := fpBinop[insn.Op]; ok {
		st.set(insn.Target, f(b, lhs, rhs, ""))
		return nil
	}
	if insn.Op == types.AND_BOOL {
		st.set(insn.Target, b.CreateAnd(lhs, rhs, ""))
		return nil
	}
	if insn.Op == types.OR_BOOL {
		st.set(insn.Target, b.CreateOr(lhs, rhs, ""))
		return nil
	}
	f, ok := intBinop[insn.Op]
	if !ok {
		return fmt.Errorf("unsupported binary opcode %s", insn.Op)
	}
	st.set(insn.Target, f(b, lhs, rhs, ""))
	return nil
}

var intPred = map[types.Opcode]llvm.IntPredicate{
	types.SET_EQ: llvm.IntEQ, types.SET_NE: llvm.IntNE,
	types.SET_LT: llvm.IntSLT, types.SET_LE: llvm.IntSLE,
	types.SET_GT: llvm.IntSGT, types.SET_GE: llvm.IntSGE,
	types.SET_B: llvm.IntULT, types.SET_BE: llvm.IntULE,
	types.SET_A: llvm.IntUGT, types.SET_AE: llvm.IntUGE,
}

var fpPred = map[types.Opcode]llvm.FloatPredicate{
	types.FCMP_OEQ: llvm.FloatOEQ, types.FCMP_ONE: llvm.FloatONE,
	types.FCMP_OLE: llvm.FloatOLE, types.FCMP_OGE: llvm.FloatOGE,
	types.FCMP_OLT: llvm.FloatOLT, types.FCMP_OGT: llvm.FloatOGT,
	types.FCMP_UEQ: llvm.FloatUEQ, types.FCMP_UNE: llvm.FloatUNE,
	types.FCMP_ULE: llvm.FloatULE, types.FCMP_UGE: llvm.FloatUGE,
	types.FCMP_ULT: llvm.FloatULT, types.FCMP_UGT: llvm.FloatUGT,
	types.FCMP_ORD: llvm.FloatORD, types.FCMP_UNO: llvm.FloatUNO,
}

func genCompare(b llvm.Builder, st *symTab, insn *ssa.Instruction) error {
	lhs, err := operand(st, insn.Src1)
	if err != nil {
		return err
	}
	rhs, err := operand(st, insn.Src2)
	if err != nil {
		return err
	}
	if p, ok := intPred[insn.Op]; ok {
		st.set(insn.Target, b.CreateICmp(p, lhs, rhs, ""))
		return nil
	}
	if p, ok := fpPred[insn.Op]; ok {
		st.set(insn.Target, b.CreateFCmp(p, lhs, rhs, ""))
		return nil
	}
	return fmt.Errorf("unsupported compare opcode %s", insn.Op)
}

func genLoad(b llvm.Builder, st *symTab, insn *ssa.Instruction) error {
	base, err := operand(st, insn.Src)
	if err != nil {
		return err
	}
	ptr := gepOffset(b, base, insn.Offset)
	st.set(insn.Target, b.CreateLoad(ptr, ""))
	return nil
}

func genStore(b llvm.Builder, st *symTab, insn *ssa.Instruction) error {
	base, err := operand(st, insn.Src)
	if err != nil {
		return err
	}
	val, err := operand(st, insn.Src2)
	if err != nil {
		return err
	}
	ptr := gepOffset(b, base, insn.Offset)
	b.CreateStore(val, ptr)
	return nil
}

func gepOffset(b llvm.Builder, base llvm.Value, offset int64) llvm.Value {
	if offset == 0 {
		return base
	}
	idx := llvm.ConstInt(llvm.Int64Type(), uint64(offset), true)
	return b.CreateGEP(base, []llvm.Value{idx}, "")
}

func genCast(b llvm.Builder, st *symTab, insn *ssa.Instruction) error {
	src, err := operand(st, insn.Src)
	if err != nil {
		return err
	}
	dst := llType(insn.Type, insn.Size)
	switch insn.Op {
	case types.FPCAST:
		if insn.OrigType == types.Float {
			st.set(insn.Target, b.CreateFPToSI(src, dst, ""))
		} else {
			st.set(insn.Target, b.CreateSIToFP(src, dst, ""))
		}
	case types.PTRCAST:
		st.set(insn.Target, b.CreateBitCast(src, dst, ""))
	case types.SCAST:
		st.set(insn.Target, widthCast(b, src, dst, insn.Size, insn.OrigSize, true))
	default: // CAST
		st.set(insn.Target, widthCast(b, src, dst, insn.Size, insn.OrigSize, insn.Signed))
	}
	return nil
}

// widthCast picks truncation, sign/zero extension or a no-op bit cast
// depending on how dstSize compares to srcSize, since the builder has a
// separate entry point per direction rather than one "cast to width" call.
func widthCast(b llvm.Builder, src llvm.Value, dst llvm.Type, dstSize, srcSize uint8, signed bool) llvm.Value {
	switch {
	case dstSize < srcSize:
		return b.CreateTrunc(src, dst, "")
	case dstSize > srcSize:
		if signed {
			return b.CreateSExt(src, dst, "")
		}
		return b.CreateZExt(src, dst, "")
	default:
		return b.CreateBitCast(src, dst, "")
	}
}

func genCall(b llvm.Builder, st *symTab, insn *ssa.Instruction) error {
	fn, err := operand(st, insn.Func)
	if err != nil {
		return err
	}
	args := make([]llvm.Value, len(insn.Args))
	for i, a := range insn.Args {
		v, err := operand(st, a)
		if err != nil {
			return err
		}
		args[i] = v
	}
	ret := b.CreateCall(fn, args, "")
	if insn.Target != nil {
		st.set(insn.Target, ret)
	}
	return nil
}
