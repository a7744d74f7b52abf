package frontend

import "midir/src/ir/ssa/types"

// mnemonics maps an assembler opcode spelling to its types.Opcode. Each
// spelling is the one types.Opcode.String() prints for that opcode. Only the
// opcode names match: the String() form of a whole instruction or function
// is not assembler syntax and is not accepted by the parser.
var mnemonics = map[string]types.Opcode{
	"ret": types.RET, "br": types.BR, "cbr": types.CBR, "switch": types.SWITCH,

	"add": types.ADD, "sub": types.SUB, "mul": types.MUL,
	"divu": types.DIVU, "divs": types.DIVS, "modu": types.MODU, "mods": types.MODS,
	"shl": types.SHL, "lsr": types.LSR, "asr": types.ASR,
	"fadd": types.FADD, "fsub": types.FSUB, "fmul": types.FMUL, "fdiv": types.FDIV,
	"and": types.AND, "or": types.OR, "xor": types.XOR,
	"and_bool": types.AND_BOOL, "or_bool": types.OR_BOOL,

	"fcmp_ord": types.FCMP_ORD, "fcmp_oeq": types.FCMP_OEQ, "fcmp_one": types.FCMP_ONE,
	"fcmp_ole": types.FCMP_OLE, "fcmp_oge": types.FCMP_OGE, "fcmp_olt": types.FCMP_OLT,
	"fcmp_ogt": types.FCMP_OGT, "fcmp_ueq": types.FCMP_UEQ, "fcmp_une": types.FCMP_UNE,
	"fcmp_ule": types.FCMP_ULE, "fcmp_uge": types.FCMP_UGE, "fcmp_ult": types.FCMP_ULT,
	"fcmp_ugt": types.FCMP_UGT, "fcmp_uno": types.FCMP_UNO,

	"set_eq": types.SET_EQ, "set_ne": types.SET_NE, "set_le": types.SET_LE,
	"set_ge": types.SET_GE, "set_lt": types.SET_LT, "set_gt": types.SET_GT,
	"set_b": types.SET_B, "set_a": types.SET_A, "set_be": types.SET_BE, "set_ae": types.SET_AE,

	"not": types.NOT, "neg": types.NEG, "fneg": types.FNEG,

	"sel": types.SEL,

	"load": types.LOAD, "store": types.STORE,

	"setval": types.SETVAL, "setfval": types.SETFVAL, "symaddr": types.SYMADDR,

	"phi": types.PHI,

	"cast": types.CAST, "scast": types.SCAST, "fpcast": types.FPCAST, "ptrcast": types.PTRCAST,

	"call": types.CALL, "inlined_call": types.INLINED_CALL,

	"range": types.RANGE, "copy": types.COPY,
}
