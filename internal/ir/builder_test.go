package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latte/internal/types"
)

func TestSubstitutePropagatesIntoFinalizedBlocks(t *testing.T) {
	fc := NewFunctionContext(NewStringPool())

	entry := fc.Open("entry")
	placeholder := fc.NewRegister(types.IntType{})
	entry.SetTerminator(&BranchInst{TrueLabel: "body"})
	fc.Finalize(entry)

	body := fc.Open("body")
	result := fc.NewRegister(types.IntType{})
	body.Emit(&BinOpInst{Result: result, Op: "+", Left: placeholder, Right: ConstInt(1)})
	body.SetTerminator(&BranchInst{TrueLabel: "body"})
	fc.Finalize(body)

	real := fc.NewRegister(types.IntType{})
	fc.Substitute(placeholder.Reg, real)

	blocks := fc.Blocks()
	require.Len(t, blocks, 2)
	bin := blocks[1].Body[0].(*BinOpInst)
	assert.Equal(t, real.Reg, bin.Left.Reg)
	assert.NotEqual(t, placeholder.Reg, bin.Left.Reg)
}

func TestSubstituteRewritesPendingBuilder(t *testing.T) {
	fc := NewFunctionContext(NewStringPool())

	header := fc.Open("header")
	placeholder := fc.NewRegister(types.BoolType{})
	phi := &PhiInst{Result: placeholder, Incoming: []PhiEdge{{Pred: "entry", Value: ConstBool(true)}}}
	header.EmitPhi(phi)

	real := fc.NewRegister(types.BoolType{})
	fc.Substitute(placeholder.Reg, real)

	assert.Equal(t, real.Reg, phi.Result.Reg)
}

func TestBlockBuilderFinalizeCapturesPredsAndTerminator(t *testing.T) {
	fc := NewFunctionContext(NewStringPool())
	b := fc.Open("join")
	b.AddPred("left")
	b.AddPred("right")
	ret := ReturnInst{}
	b.SetTerminator(&ret)
	fc.Finalize(b)

	blk := fc.Blocks()[0]
	assert.Equal(t, []string{"left", "right"}, blk.Preds)
	assert.Same(t, &ret, blk.Terminator)
}

func TestNewLabelIsMonotonicAndUnique(t *testing.T) {
	fc := NewFunctionContext(NewStringPool())
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		l := fc.NewLabel("while.cond")
		require.False(t, seen[l], "label %q reused", l)
		seen[l] = true
	}
}
