package ir

import "latte/internal/types"

// BlockBuilder accumulates one basic block's phis, body instructions, and
// terminator before it is finalized into a *BasicBlock. Finalized blocks
// stay mutable: a loop header is finalized as soon as its condition is
// lowered, before the loop body, and loop lowering completes the
// header's phi edges and predecessor list on the finalized block once
// the body's final register for each variable is known.
type BlockBuilder struct {
	label string
	preds []string
	phis  []*PhiInst
	body  []Instruction
	term  Instruction
}

func NewBlockBuilder(label string) *BlockBuilder {
	return &BlockBuilder{label: label}
}

func (b *BlockBuilder) Label() string { return b.label }

func (b *BlockBuilder) AddPred(label string) { b.preds = append(b.preds, label) }

func (b *BlockBuilder) EmitPhi(p *PhiInst) { b.phis = append(b.phis, p) }

func (b *BlockBuilder) Emit(inst Instruction) { b.body = append(b.body, inst) }

func (b *BlockBuilder) SetTerminator(t Instruction) { b.term = t }

func (b *BlockBuilder) Terminated() bool { return b.term != nil }

func (b *BlockBuilder) finalize() *BasicBlock {
	return &BasicBlock{Label: b.label, Phis: b.phis, Body: b.body, Terminator: b.term, Preds: b.preds}
}

// rewrite applies a single register substitution to every phi, body
// instruction, and the terminator still held by this (not yet
// finalized) builder.
func (b *BlockBuilder) rewrite(old int, new Value) {
	for _, p := range b.phis {
		p.Rewrite(old, new)
	}
	for _, inst := range b.body {
		inst.Rewrite(old, new)
	}
	if b.term != nil {
		b.term.Rewrite(old, new)
	}
}

// FunctionContext is the per-function lowering state: the monotonic
// register/label allocators, the set of already-finalized blocks (kept
// mutable so a deferred substitution can reach back into them), and the
// pending, not-yet-finalized builder chain headed by the current block.
type FunctionContext struct {
	nextReg   int
	nextLabel int

	finalized []*BasicBlock
	pending   []*BlockBuilder // unfinalized builders, oldest-opened first; [0] is the current insertion point only when len==1

	strings *StringPool
}

func NewFunctionContext(strings *StringPool) *FunctionContext {
	return &FunctionContext{strings: strings}
}

func (fc *FunctionContext) NewRegister(t types.Type) Value {
	id := fc.nextReg
	fc.nextReg++
	return Value{Reg: id, Type: t}
}

func (fc *FunctionContext) NewLabel(prefix string) string {
	id := fc.nextLabel
	fc.nextLabel++
	return labelName(prefix, id)
}

func labelName(prefix string, id int) string {
	const digits = "0123456789"
	if id == 0 {
		return prefix + ".0"
	}
	buf := make([]byte, 0, 4)
	for id > 0 {
		buf = append(buf, digits[id%10])
		id /= 10
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return prefix + "." + string(buf)
}

// Open starts a new block and pushes it onto the pending stack, making
// it the current insertion point. The caller is responsible for wiring
// predecessors via the returned builder's AddPred.
func (fc *FunctionContext) Open(label string) *BlockBuilder {
	b := NewBlockBuilder(label)
	fc.pending = append(fc.pending, b)
	return b
}

// Current is the innermost (most recently opened, not yet finalized)
// block builder.
func (fc *FunctionContext) Current() *BlockBuilder {
	return fc.pending[len(fc.pending)-1]
}

// Finalize closes b and moves it from pending into the finalized list.
// b need not be Current(): any pending builder can be finalized. Loop
// lowering finalizes a header before lowering its body and patches the
// header's phis afterwards on the finalized block.
func (fc *FunctionContext) Finalize(b *BlockBuilder) *BasicBlock {
	for i, p := range fc.pending {
		if p == b {
			fc.pending = append(fc.pending[:i], fc.pending[i+1:]...)
			break
		}
	}
	blk := b.finalize()
	fc.finalized = append(fc.finalized, blk)
	return blk
}

// DropPhi removes a phi instruction from an already-finalized block.
// Used when a loop header's placeholder phi turns out to be trivial
// after Substitute has folded its result register into the value it
// was always equal to.
func (fc *FunctionContext) DropPhi(blk *BasicBlock, target *PhiInst) {
	for i, p := range blk.Phis {
		if p == target {
			blk.Phis = append(blk.Phis[:i], blk.Phis[i+1:]...)
			return
		}
	}
}

// Substitute rewrites every occurrence of register old to new across
// every finalized block and every still-pending (unfinalized) builder.
// This is what lets a loop header, once it learns that a loop-carried
// variable's placeholder phi turned out to have two identical incoming
// values (the variable is never reassigned in the body), collapse that
// phi away: the placeholder register is replaced everywhere — including
// inside the already-finalized body blocks that read it — by the
// simpler incoming value (a register, or a constant when the variable
// was never anything but a literal going into the loop), and the dead
// phi is dropped by the caller.
func (fc *FunctionContext) Substitute(old int, new Value) {
	if !new.IsConst && new.Reg == old {
		return
	}
	for _, blk := range fc.finalized {
		substituteBlock(blk, old, new)
	}
	for _, b := range fc.pending {
		b.rewrite(old, new)
	}
}

func substituteBlock(blk *BasicBlock, old int, new Value) {
	for _, p := range blk.Phis {
		p.Rewrite(old, new)
	}
	for _, inst := range blk.Body {
		inst.Rewrite(old, new)
	}
	if blk.Terminator != nil {
		blk.Terminator.Rewrite(old, new)
	}
}

// BlockByLabel finds an already-finalized block by label. Loop lowering
// uses this instead of trusting "whatever Finalize just returned",
// because evaluating a loop condition that contains a short-circuit
// `&&`/`||` opens and finalizes extra blocks of its own, so the block
// that is current right after the condition is lowered is not
// necessarily the header block itself.
func (fc *FunctionContext) BlockByLabel(label string) *BasicBlock {
	for _, blk := range fc.finalized {
		if blk.Label == label {
			return blk
		}
	}
	return nil
}

// Blocks returns the finalized blocks in finalization order. The caller
// (buildFunction) finalizes every builder before calling this, so
// pending is always empty by then.
func (fc *FunctionContext) Blocks() []*BasicBlock { return fc.finalized }
