package bytecode

import "github.com/tsnc-lang/tsnc/internal/runtime"

// Optimize runs the peephole pass over every FunctionProto: constant
// folding of literal arithmetic/comparison triples and dead-jump
// elimination. Folded and dead instructions are rewritten to OpNop
// rather than removed, so every jump target in the function stays
// valid without an offset-rewriting pass.
func Optimize(chunk *Chunk) {
	for _, proto := range chunk.FunctionProtos {
		jumpTargets := collectJumpTargets(proto)
		foldConstants(chunk, proto, jumpTargets)
		elideDeadJumps(proto)
	}
}

func collectJumpTargets(proto *FunctionProto) map[int]bool {
	targets := map[int]bool{}
	for _, instr := range proto.Code {
		switch instr.Op {
		case OpJump, OpJumpIfFalse, OpJumpIfTrue, OpJumpIfNullish:
			targets[instr.A] = true
		case OpPushHandler:
			targets[instr.A] = true
			if instr.B != 0 {
				targets[instr.B] = true
			}
		}
	}
	return targets
}

// foldConstants rewrites `LOAD_CONST a; LOAD_CONST b; <op>` into a
// single load of the folded value plus two nops — using the same
// runtime coercion helpers emitted code calls, so `"a" + 1` folds to
// "a1" exactly as it would evaluate (spec SPEC_FULL D.2). A triple is
// skipped when a jump lands inside it.
func foldConstants(chunk *Chunk, proto *FunctionProto, jumpTargets map[int]bool) {
	for i := 0; i+2 < len(proto.Code); i++ {
		first, second, op := proto.Code[i], proto.Code[i+1], proto.Code[i+2]
		if first.Op != OpLoadConst || second.Op != OpLoadConst {
			continue
		}
		if jumpTargets[i+1] || jumpTargets[i+2] {
			continue
		}
		a := chunk.Constants[first.A]
		b := chunk.Constants[second.A]
		folded, ok := foldBinary(op.Op, a, b)
		if !ok {
			continue
		}
		proto.Code[i] = Instruction{Op: OpLoadConst, A: chunk.AddConstant(folded), Line: first.Line}
		proto.Code[i+1] = Instruction{Op: OpNop, Line: second.Line}
		proto.Code[i+2] = Instruction{Op: OpNop, Line: op.Line}
	}
}

func foldBinary(op OpCode, a, b interface{}) (interface{}, bool) {
	if !foldableOperand(a) || !foldableOperand(b) {
		return nil, false
	}
	switch op {
	case OpAdd:
		return runtime.Add(a, b), true
	case OpSub, OpMul, OpDiv, OpMod, OpPow:
		return arithmetic(op, a, b), true
	case OpEq:
		return runtime.Equals(a, b), true
	case OpStrictEq:
		return runtime.StrictEquals(a, b), true
	case OpNotEq:
		return !runtime.Equals(a, b), true
	case OpStrictNotEq:
		return !runtime.StrictEquals(a, b), true
	case OpLt, OpLe, OpGt, OpGe:
		return compare(op, a, b), true
	}
	return nil, false
}

// foldableOperand limits folding to immutable scalar constants; folded
// booleans re-enter the pool as constants, which LOAD_CONST handles as
// readily as LOAD_TRUE.
func foldableOperand(v interface{}) bool {
	switch v.(type) {
	case float64, string, bool:
		return true
	}
	return false
}

// elideDeadJumps rewrites unconditional jumps to the immediately
// following instruction as nops.
func elideDeadJumps(proto *FunctionProto) {
	for i, instr := range proto.Code {
		if instr.Op == OpJump && instr.A == i+1 {
			proto.Code[i] = Instruction{Op: OpNop, Line: instr.Line}
		}
	}
}
