// Package irtest provides a minimal, hand-assembled ir.Provider for unit
// tests across the pipeline packages. It exists so each stage (classify,
// virtualize, transform, segment) can build small synthetic functions and
// blocks without depending on a real front end.
package irtest

import "github.com/opcycle/taskgraph/ir"

// Fake is a mutable, in-memory ir.Provider. Call the Add* methods to grow
// the program, then pass the Fake itself wherever an ir.Provider is wanted.
type Fake struct {
	functions []ir.Function
	blocks    map[ir.BlockID]ir.Block
	blockFn   map[ir.BlockID]ir.FunctionID
	nextFn    ir.FunctionID
	nextBlock ir.BlockID
	main      ir.FunctionID
	hasMain   bool
}

// NewFake returns an empty program.
func NewFake() *Fake {
	return &Fake{
		blocks:  make(map[ir.BlockID]ir.Block),
		blockFn: make(map[ir.BlockID]ir.FunctionID),
	}
}

// AddFunction registers a new function named name and returns its ID. The
// first function added becomes the reported main function.
func (f *Fake) AddFunction(name string) ir.FunctionID {
	id := f.nextFn
	f.nextFn++
	f.functions = append(f.functions, ir.Function{ID: id, Name: name})
	if !f.hasMain {
		f.main, f.hasMain = id, true
	}
	return id
}

// SetMain overrides which function is reported as the program entry.
func (f *Fake) SetMain(fn ir.FunctionID) {
	f.main, f.hasMain = fn, true
}

// AddBlock adds a basic block belonging to fn and returns its ID. The block
// starts with no instructions; use AddInstruction to populate it.
func (f *Fake) AddBlock(fn ir.FunctionID) ir.BlockID {
	id := f.nextBlock
	f.nextBlock++
	f.blocks[id] = ir.Block{ID: id, Function: fn}
	f.blockFn[id] = fn
	for i, fd := range f.functions {
		if fd.ID == fn {
			if len(f.functions[i].Blocks) == 0 {
				f.functions[i].Entry = id
			}
			f.functions[i].Blocks = append(f.functions[i].Blocks, id)
		}
	}
	return id
}

// AddCall appends a call instruction to block b with a statically known,
// non-empty callee.
func (f *Fake) AddCall(b ir.BlockID, callee ir.FunctionID) {
	blk := f.blocks[b]
	blk.Instructions = append(blk.Instructions, ir.Instruction{Opcode: ir.OpCall, Callee: callee, HasCallee: true})
	f.blocks[b] = blk
}

// AddIndirectCall appends a call instruction to block b whose callee is not
// statically known.
func (f *Fake) AddIndirectCall(b ir.BlockID) {
	blk := f.blocks[b]
	blk.Instructions = append(blk.Instructions, ir.Instruction{Opcode: ir.OpCall})
	f.blocks[b] = blk
}

// AddCallTerminator appends a single call instruction that both names a
// statically known callee and carries a static return-target successor,
// modeling a calling convention where the call ends its block.
func (f *Fake) AddCallTerminator(b ir.BlockID, callee ir.FunctionID, returnTo ir.BlockID) {
	blk := f.blocks[b]
	blk.Instructions = append(blk.Instructions, ir.Instruction{
		Opcode: ir.OpCall, Callee: callee, HasCallee: true, Successors: []ir.BlockID{returnTo},
	})
	f.blocks[b] = blk
}

// AddTerminator appends a terminator instruction of kind op (OpRet,
// OpResume, OpConditionalBranch, OpUnconditionalBranch, OpIndirectBranch)
// to block b, jumping to the given successor blocks in order.
func (f *Fake) AddTerminator(b ir.BlockID, op ir.Opcode, successors ...ir.BlockID) {
	blk := f.blocks[b]
	blk.Instructions = append(blk.Instructions, ir.Instruction{Opcode: op, Successors: successors})
	f.blocks[b] = blk
}

// Functions implements ir.Provider.
func (f *Fake) Functions() []ir.Function { return f.functions }

// Function implements ir.Provider.
func (f *Fake) Function(id ir.FunctionID) (ir.Function, bool) {
	for _, fd := range f.functions {
		if fd.ID == id {
			return fd, true
		}
	}
	return ir.Function{}, false
}

// Block implements ir.Provider.
func (f *Fake) Block(id ir.BlockID) (ir.Block, bool) {
	b, ok := f.blocks[id]
	return b, ok
}

// FunctionForBlock implements ir.Provider.
func (f *Fake) FunctionForBlock(id ir.BlockID) (ir.FunctionID, bool) {
	fn, ok := f.blockFn[id]
	return fn, ok
}

// MainFunction implements ir.Provider.
func (f *Fake) MainFunction() (ir.FunctionID, bool) {
	return f.main, f.hasMain
}
