package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/opcycle/taskgraph/ir"
)

// jsonInstruction is the on-disk shape of one ir.Instruction. Opcode is
// spelled out rather than encoded as ir.Opcode's int value so a hand-written
// IR dump stays readable.
type jsonInstruction struct {
	Opcode     string         `json:"opcode"`
	Callee     *ir.FunctionID `json:"callee,omitempty"`
	Successors []ir.BlockID   `json:"successors,omitempty"`
}

type jsonBlock struct {
	ID           ir.BlockID        `json:"id"`
	Instructions []jsonInstruction `json:"instructions"`
}

type jsonFunction struct {
	ID     ir.FunctionID `json:"id"`
	Name   string        `json:"name"`
	Blocks []jsonBlock   `json:"blocks"`
}

// jsonProgram is the on-disk IR dump format this CLI reads: the first
// block of the first function listed is that function's entry, and the
// first function listed is main unless Main overrides it.
type jsonProgram struct {
	Main      *ir.FunctionID `json:"main,omitempty"`
	Functions []jsonFunction `json:"functions"`
}

var opcodeNames = map[string]ir.Opcode{
	"other":         ir.OpOther,
	"call":          ir.OpCall,
	"ret":           ir.OpRet,
	"resume":        ir.OpResume,
	"cond_br":       ir.OpConditionalBranch,
	"br":            ir.OpUnconditionalBranch,
	"indirect_br":   ir.OpIndirectBranch,
	"callbr":        ir.OpCallBr,
	"gc_statepoint": ir.OpGCStatepoint,
}

// program implements ir.Provider over a decoded jsonProgram, resolving the
// lookup maps once at load time the way the teacher's adjacency-list
// builders precompute an index rather than scanning on every call.
type program struct {
	functions []ir.Function
	byID      map[ir.FunctionID]ir.Function
	blocks    map[ir.BlockID]ir.Block
	blockFn   map[ir.BlockID]ir.FunctionID
	main      ir.FunctionID
	hasMain   bool
}

func (p *program) Functions() []ir.Function { return p.functions }

func (p *program) Function(id ir.FunctionID) (ir.Function, bool) {
	fn, ok := p.byID[id]
	return fn, ok
}

func (p *program) Block(id ir.BlockID) (ir.Block, bool) {
	b, ok := p.blocks[id]
	return b, ok
}

func (p *program) FunctionForBlock(id ir.BlockID) (ir.FunctionID, bool) {
	fn, ok := p.blockFn[id]
	return fn, ok
}

func (p *program) MainFunction() (ir.FunctionID, bool) { return p.main, p.hasMain }

// loadIR reads a JSON IR dump (see jsonProgram) from path and builds the
// ir.Provider the pipeline runs against.
func loadIR(path string) (*program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taskgraph: reading IR file %s: %w", path, err)
	}
	var jp jsonProgram
	if err := json.Unmarshal(raw, &jp); err != nil {
		return nil, fmt.Errorf("taskgraph: parsing IR file %s: %w", path, err)
	}

	p := &program{
		byID:    make(map[ir.FunctionID]ir.Function),
		blocks:  make(map[ir.BlockID]ir.Block),
		blockFn: make(map[ir.BlockID]ir.FunctionID),
	}
	for i, jf := range jp.Functions {
		fn := ir.Function{ID: jf.ID, Name: jf.Name}
		for j, jb := range jf.Blocks {
			if j == 0 {
				fn.Entry = jb.ID
			}
			fn.Blocks = append(fn.Blocks, jb.ID)

			instrs := make([]ir.Instruction, 0, len(jb.Instructions))
			for _, ji := range jb.Instructions {
				op, ok := opcodeNames[ji.Opcode]
				if !ok {
					return nil, fmt.Errorf("taskgraph: IR file %s: unknown opcode %q in block %d", path, ji.Opcode, jb.ID)
				}
				instr := ir.Instruction{Opcode: op, Successors: ji.Successors}
				if ji.Callee != nil {
					instr.Callee = *ji.Callee
					instr.HasCallee = true
				}
				instrs = append(instrs, instr)
			}
			p.blocks[jb.ID] = ir.Block{ID: jb.ID, Function: jf.ID, Instructions: instrs}
			p.blockFn[jb.ID] = jf.ID
		}
		p.functions = append(p.functions, fn)
		p.byID[jf.ID] = fn
		if i == 0 && jp.Main == nil {
			p.main, p.hasMain = jf.ID, true
		}
	}
	if jp.Main != nil {
		p.main, p.hasMain = *jp.Main, true
	}
	return p, nil
}

// jsonBlockInfo is the §6 "BlockInfo JSON" auxiliary input: per-block
// caller observations for indirect-call resolution, plus thread entrances.
type jsonBlockInfo struct {
	Blocks          map[string]jsonBlockInfoEntry `json:"Blocks"`
	ThreadEntrances []ir.BlockID                  `json:"ThreadEntrances"`
}

type jsonBlockInfoEntry struct {
	BlockCallers []ir.BlockID   `json:"BlockCallers"`
	Labels       map[string]int `json:"Labels"`
}

// loadBlockInfo reads the auxiliary BlockInfo JSON at path. An empty path is
// valid and yields an empty result (no indirect-call resolution data, no
// extra thread entrances).
func loadBlockInfo(path string) (ir.BlockCallers, ir.ThreadEntrances, error) {
	if path == "" {
		return nil, nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("taskgraph: reading BlockInfo file %s: %w", path, err)
	}
	var jbi jsonBlockInfo
	if err := json.Unmarshal(raw, &jbi); err != nil {
		return nil, nil, fmt.Errorf("taskgraph: parsing BlockInfo file %s: %w", path, err)
	}

	callers := make(ir.BlockCallers, len(jbi.Blocks))
	for key, entry := range jbi.Blocks {
		var bid uint32
		if _, err := fmt.Sscanf(key, "%d", &bid); err != nil {
			return nil, nil, fmt.Errorf("taskgraph: BlockInfo file %s: non-numeric block key %q", path, key)
		}
		callers[ir.BlockID(bid)] = entry.BlockCallers
	}
	return callers, ir.ThreadEntrances(jbi.ThreadEntrances), nil
}

// allBlockIDs returns every BlockID named anywhere in prov, used as the
// default --valid-blocks set.
func allBlockIDs(prov ir.Provider) []ir.BlockID {
	var out []ir.BlockID
	for _, fn := range prov.Functions() {
		out = append(out, fn.Blocks...)
	}
	return out
}
