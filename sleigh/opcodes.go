package sleigh

import "github.com/pcodelab/pcode-runtime/errors"

// OpCode identifies a pcode micro-operation. The numeric values are the
// agreed boundary tags: emission proxies pass them across as uint32 and
// the receiving side decodes them by number, never by assuming a shared
// enumeration layout. Values must not be reordered.
type OpCode uint32

const (
	OpCopy      OpCode = 1  // copy one operand to another
	OpLoad      OpCode = 2  // load from a pointer into an address space
	OpStore     OpCode = 3  // store at a pointer into an address space
	OpBranch    OpCode = 4  // always branch
	OpCBranch   OpCode = 5  // conditional branch
	OpBranchInd OpCode = 6  // indirect branch
	OpCall      OpCode = 7  // call to an absolute address
	OpCallInd   OpCode = 8  // call through an indirect address
	OpCallOther OpCode = 9  // user-defined operation
	OpReturn    OpCode = 10 // return from subroutine

	OpIntEqual     OpCode = 11
	OpIntNotEqual  OpCode = 12
	OpIntSLess     OpCode = 13
	OpIntSLessEq   OpCode = 14
	OpIntLess      OpCode = 15
	OpIntLessEq    OpCode = 16
	OpIntZExt      OpCode = 17
	OpIntSExt      OpCode = 18
	OpIntAdd       OpCode = 19
	OpIntSub       OpCode = 20
	OpIntCarry     OpCode = 21
	OpIntSCarry    OpCode = 22
	OpIntSBorrow   OpCode = 23
	OpInt2Comp     OpCode = 24
	OpIntNegate    OpCode = 25
	OpIntXor       OpCode = 26
	OpIntAnd       OpCode = 27
	OpIntOr        OpCode = 28
	OpIntLeft      OpCode = 29
	OpIntRight     OpCode = 30
	OpIntSRight    OpCode = 31
	OpIntMult      OpCode = 32
	OpIntDiv       OpCode = 33
	OpIntSDiv      OpCode = 34
	OpIntRem       OpCode = 35
	OpIntSRem      OpCode = 36
	OpBoolNegate   OpCode = 37
	OpBoolXor      OpCode = 38
	OpBoolAnd      OpCode = 39
	OpBoolOr       OpCode = 40
	OpFloatEqual   OpCode = 41
	OpFloatNotEq   OpCode = 42
	OpFloatLess    OpCode = 43
	OpFloatLessEq  OpCode = 44
	// 45 is an unassigned slot in the boundary mapping
	OpFloatNan     OpCode = 46
	OpFloatAdd     OpCode = 47
	OpFloatDiv     OpCode = 48
	OpFloatMult    OpCode = 49
	OpFloatSub     OpCode = 50
	OpFloatNeg     OpCode = 51
	OpFloatAbs     OpCode = 52
	OpFloatSqrt    OpCode = 53
	OpFloatInt2F   OpCode = 54
	OpFloatF2F     OpCode = 55
	OpFloatTrunc   OpCode = 56
	OpFloatCeil    OpCode = 57
	OpFloatFloor   OpCode = 58
	OpFloatRound   OpCode = 59
	OpMultiEqual   OpCode = 60 // phi-node operator
	OpIndirect     OpCode = 61 // copy with an indirect effect
	OpPiece        OpCode = 62 // concatenate
	OpSubPiece     OpCode = 63 // truncate
	OpCast         OpCode = 64
	OpPtrAdd       OpCode = 65
	OpPtrSub       OpCode = 66
	OpSegmentOp    OpCode = 67
	OpCPoolRef     OpCode = 68
	OpNew          OpCode = 69
	OpInsert       OpCode = 70
	OpExtract      OpCode = 71
	OpPopCount     OpCode = 72

	OpMax OpCode = 73 // one past the highest assigned tag
)

var opNames = map[OpCode]string{
	OpCopy:        "COPY",
	OpLoad:        "LOAD",
	OpStore:       "STORE",
	OpBranch:      "BRANCH",
	OpCBranch:     "CBRANCH",
	OpBranchInd:   "BRANCHIND",
	OpCall:        "CALL",
	OpCallInd:     "CALLIND",
	OpCallOther:   "CALLOTHER",
	OpReturn:      "RETURN",
	OpIntEqual:    "INT_EQUAL",
	OpIntNotEqual: "INT_NOTEQUAL",
	OpIntSLess:    "INT_SLESS",
	OpIntSLessEq:  "INT_SLESSEQUAL",
	OpIntLess:     "INT_LESS",
	OpIntLessEq:   "INT_LESSEQUAL",
	OpIntZExt:     "INT_ZEXT",
	OpIntSExt:     "INT_SEXT",
	OpIntAdd:      "INT_ADD",
	OpIntSub:      "INT_SUB",
	OpIntCarry:    "INT_CARRY",
	OpIntSCarry:   "INT_SCARRY",
	OpIntSBorrow:  "INT_SBORROW",
	OpInt2Comp:    "INT_2COMP",
	OpIntNegate:   "INT_NEGATE",
	OpIntXor:      "INT_XOR",
	OpIntAnd:      "INT_AND",
	OpIntOr:       "INT_OR",
	OpIntLeft:     "INT_LEFT",
	OpIntRight:    "INT_RIGHT",
	OpIntSRight:   "INT_SRIGHT",
	OpIntMult:     "INT_MULT",
	OpIntDiv:      "INT_DIV",
	OpIntSDiv:     "INT_SDIV",
	OpIntRem:      "INT_REM",
	OpIntSRem:     "INT_SREM",
	OpBoolNegate:  "BOOL_NEGATE",
	OpBoolXor:     "BOOL_XOR",
	OpBoolAnd:     "BOOL_AND",
	OpBoolOr:      "BOOL_OR",
	OpFloatEqual:  "FLOAT_EQUAL",
	OpFloatNotEq:  "FLOAT_NOTEQUAL",
	OpFloatLess:   "FLOAT_LESS",
	OpFloatLessEq: "FLOAT_LESSEQUAL",
	OpFloatNan:    "FLOAT_NAN",
	OpFloatAdd:    "FLOAT_ADD",
	OpFloatDiv:    "FLOAT_DIV",
	OpFloatMult:   "FLOAT_MULT",
	OpFloatSub:    "FLOAT_SUB",
	OpFloatNeg:    "FLOAT_NEG",
	OpFloatAbs:    "FLOAT_ABS",
	OpFloatSqrt:   "FLOAT_SQRT",
	OpFloatInt2F:  "FLOAT_INT2FLOAT",
	OpFloatF2F:    "FLOAT_FLOAT2FLOAT",
	OpFloatTrunc:  "FLOAT_TRUNC",
	OpFloatCeil:   "FLOAT_CEIL",
	OpFloatFloor:  "FLOAT_FLOOR",
	OpFloatRound:  "FLOAT_ROUND",
	OpMultiEqual:  "MULTIEQUAL",
	OpIndirect:    "INDIRECT",
	OpPiece:       "PIECE",
	OpSubPiece:    "SUBPIECE",
	OpCast:        "CAST",
	OpPtrAdd:      "PTRADD",
	OpPtrSub:      "PTRSUB",
	OpSegmentOp:   "SEGMENTOP",
	OpCPoolRef:    "CPOOLREF",
	OpNew:         "NEW",
	OpInsert:      "INSERT",
	OpExtract:     "EXTRACT",
	OpPopCount:    "POPCOUNT",
}

var opByName = func() map[string]OpCode {
	m := make(map[string]OpCode, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// Tag returns the stable numeric value carried across the boundary.
func (op OpCode) Tag() uint32 { return uint32(op) }

// IsValid reports whether op is an assigned tag.
func (op OpCode) IsValid() bool {
	_, ok := opNames[op]
	return ok
}

// ParseOpCode resolves a canonical opcode name as it appears in
// specification documents.
func ParseOpCode(name string) (OpCode, error) {
	if op, ok := opByName[name]; ok {
		return op, nil
	}
	return 0, errors.InvalidEnum(errors.PhaseInit, name, "opcode")
}

// OpCodeFromTag validates a boundary tag and returns the opcode.
func OpCodeFromTag(tag uint32) (OpCode, error) {
	op := OpCode(tag)
	if !op.IsValid() {
		return 0, errors.InvalidEnum(errors.PhaseDecode, tag, "opcode tag")
	}
	return op, nil
}
