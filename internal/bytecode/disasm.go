package bytecode

import (
	"fmt"
	"strings"

	"github.com/tsnc-lang/tsnc/internal/runtime"
)

var opNames = map[OpCode]string{
	OpLoadConst: "LOAD_CONST", OpLoadUndefined: "LOAD_UNDEFINED", OpLoadNull: "LOAD_NULL",
	OpLoadTrue: "LOAD_TRUE", OpLoadFalse: "LOAD_FALSE",
	OpLoadLocal: "LOAD_LOCAL", OpStoreLocal: "STORE_LOCAL",
	OpLoadGlobal: "LOAD_GLOBAL", OpStoreGlobal: "STORE_GLOBAL",
	OpLoadUpvalue: "LOAD_UPVALUE", OpStoreUpvalue: "STORE_UPVALUE",
	OpDeclareTDZ: "DECLARE_TDZ", OpInitLocal: "INIT_LOCAL",
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV", OpMod: "MOD", OpPow: "POW",
	OpNeg: "NEG", OpNot: "NOT", OpTypeOf: "TYPEOF",
	OpBitAnd: "BIT_AND", OpBitOr: "BIT_OR", OpBitXor: "BIT_XOR", OpBitNot: "BIT_NOT",
	OpShl: "SHL", OpShr: "SHR", OpUShr: "USHR",
	OpEq: "EQ", OpStrictEq: "STRICT_EQ", OpNotEq: "NOT_EQ", OpStrictNotEq: "STRICT_NOT_EQ",
	OpLt: "LT", OpLe: "LE", OpGt: "GT", OpGe: "GE",
	OpInstanceOf: "INSTANCEOF", OpIn: "IN",
	OpPop: "POP", OpDup: "DUP",
	OpJump: "JUMP", OpJumpIfFalse: "JUMP_IF_FALSE", OpJumpIfTrue: "JUMP_IF_TRUE",
	OpJumpIfNullish: "JUMP_IF_NULLISH",
	OpNewObject:     "NEW_OBJECT", OpNewArray: "NEW_ARRAY", OpConcatN: "CONCAT_N",
	OpMergeObject: "MERGE_OBJECT",
	OpGetProp:     "GET_PROP", OpSetProp: "SET_PROP", OpGetIndex: "GET_INDEX", OpSetIndex: "SET_INDEX",
	OpGetPrivate: "GET_PRIVATE", OpSetPrivate: "SET_PRIVATE", OpCallPrivate: "CALL_PRIVATE",
	OpMakeClosure: "MAKE_CLOSURE", OpCall: "CALL", OpCallMethod: "CALL_METHOD",
	OpCallSpread: "CALL_SPREAD", OpCallMethodSpread: "CALL_METHOD_SPREAD",
	OpNew: "NEW", OpNewSpread: "NEW_SPREAD", OpReturn: "RETURN", OpThrow: "THROW",
	OpPushHandler: "PUSH_HANDLER", OpPopHandler: "POP_HANDLER",
	OpAwait: "AWAIT", OpYield: "YIELD", OpYieldStar: "YIELD_STAR",
	OpMakeClass: "MAKE_CLASS", OpCallSuper: "CALL_SUPER",
	OpGetSuperProp: "GET_SUPER_PROP", OpCallSuperMethod: "CALL_SUPER_METHOD",
	OpArrayRest: "ARRAY_REST", OpObjectRest: "OBJECT_REST",
	OpDeletePropKeep: "DELETE_PROP_KEEP", OpDeleteIndexKeep: "DELETE_INDEX_KEEP",
	OpIterOfValues: "ITER_OF_VALUES", OpIterInKeys: "ITER_IN_KEYS", OpGetIter: "GET_ITER",
	OpLoadNewTarget: "LOAD_NEW_TARGET", OpDispose: "DISPOSE", OpNop: "NOP",
}

// aIsName and bIsName report which opcodes' A (or B) operand indexes the
// name table, so the listing can show the actual identifier.
var aIsName = map[OpCode]bool{
	OpLoadGlobal: true, OpStoreGlobal: true,
	OpGetProp: true, OpSetProp: true,
	OpGetPrivate: true, OpSetPrivate: true,
	OpDeletePropKeep: true, OpGetSuperProp: true,
}

var bIsName = map[OpCode]bool{
	OpCallMethod: true, OpCallMethodSpread: true, OpCallPrivate: true, OpCallSuperMethod: true,
}

// Disassemble renders the whole chunk as a human-readable listing, one
// section per FunctionProto, in the teacher-listing shape the golden
// tests snapshot.
func Disassemble(chunk *Chunk) string {
	var sb strings.Builder
	for i, proto := range chunk.FunctionProtos {
		name := proto.Name
		if name == "" {
			name = "<anonymous>"
		}
		fmt.Fprintf(&sb, "== proto %d: %s (params=%d locals=%d upvalues=%d%s) ==\n",
			i, name, proto.Params, proto.NumLocals, len(proto.Upvalues), kindSuffix(proto))
		for ip, instr := range proto.Code {
			sb.WriteString(formatInstruction(chunk, ip, instr))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func kindSuffix(proto *FunctionProto) string {
	switch proto.Kind {
	case FuncAsync:
		return " async"
	case FuncGenerator:
		return " generator"
	case FuncAsyncGenerator:
		return " async-generator"
	}
	return ""
}

func formatInstruction(chunk *Chunk, ip int, instr Instruction) string {
	name, ok := opNames[instr.Op]
	if !ok {
		name = fmt.Sprintf("OP_%d", instr.Op)
	}
	out := fmt.Sprintf("%04d  %-18s", ip, name)
	switch {
	case instr.Op == OpLoadConst:
		out += fmt.Sprintf(" %d (%s)", instr.A, formatConstant(chunk.Constants[instr.A]))
	case aIsName[instr.Op]:
		out += fmt.Sprintf(" %d (%s)", instr.A, chunk.Names[instr.A])
	case bIsName[instr.Op]:
		out += fmt.Sprintf(" %d %d (%s)", instr.A, instr.B, chunk.Names[instr.B])
	case hasOperand(instr.Op):
		out += fmt.Sprintf(" %d", instr.A)
		if instr.B != 0 {
			out += fmt.Sprintf(" %d", instr.B)
		}
	}
	return out
}

func formatConstant(v interface{}) string {
	switch c := v.(type) {
	case string:
		return "\"" + c + "\""
	case float64:
		return runtime.FormatNumber(c)
	default:
		return runtime.Stringify(v)
	}
}

func hasOperand(op OpCode) bool {
	switch op {
	case OpLoadUndefined, OpLoadNull, OpLoadTrue, OpLoadFalse,
		OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow, OpNeg, OpNot, OpTypeOf,
		OpBitAnd, OpBitOr, OpBitXor, OpBitNot, OpShl, OpShr, OpUShr,
		OpEq, OpStrictEq, OpNotEq, OpStrictNotEq, OpLt, OpLe, OpGt, OpGe,
		OpInstanceOf, OpIn, OpPop, OpDup, OpNewObject, OpMergeObject,
		OpGetIndex, OpSetIndex, OpReturn, OpThrow, OpPopHandler,
		OpObjectRest, OpDeleteIndexKeep, OpIterOfValues, OpIterInKeys, OpGetIter,
		OpLoadNewTarget, OpDispose, OpNop, OpCallSpread, OpNewSpread:
		return false
	}
	return true
}
