package qcreative

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// OpKind enumerates the operations a Program can carry.
type OpKind int

const (
	OpH  OpKind = iota // basis change into equal superposition
	OpX                // bit flip
	OpS                // quarter phase
	OpRX               // rotation about x, parameterised
	OpRY               // rotation about y, parameterised
	OpCX               // controlled bit flip
)

var opNames = map[OpKind]string{
	OpH:  "h",
	OpX:  "x",
	OpS:  "s",
	OpRX: "rx",
	OpRY: "ry",
	OpCX: "cx",
}

func (k OpKind) String() string {
	if name, ok := opNames[k]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(k))
}

/*
Op is a single operation within a Program. Control is only meaningful for
OpCX and is -1 otherwise; Theta only for the rotations.
*/
type Op struct {
	Kind    OpKind
	Target  int
	Control int
	Theta   float64
}

/*
Program is an ordered sequence of operations over an indexed register,
terminated by a measurement over a subset of the registers.

A Program is built with the chained methods below and sealed by Measure.
Any builder error is remembered and surfaced by Err, so a chain can be
written without checking every step. Once measured the program is immutable
and further builder calls record an error instead of appending.
*/
type Program struct {
	ID        string
	Name      string
	Registers int
	Ops       []Op
	Measured  []int

	sealed bool
	err    error
}

// NewProgram allocates an empty program over the given number of registers.
func NewProgram(name string, registers int) *Program {
	p := &Program{
		ID:        uuid.NewString(),
		Name:      name,
		Registers: registers,
		Ops:       make([]Op, 0),
	}

	if registers < 1 {
		p.err = errors.Wrapf(ErrEncoding, "program %s needs at least one register, got %d", name, registers)
	}

	return p
}

func (p *Program) H(reg int) *Program { return p.append(Op{Kind: OpH, Target: reg, Control: -1}) }
func (p *Program) X(reg int) *Program { return p.append(Op{Kind: OpX, Target: reg, Control: -1}) }
func (p *Program) S(reg int) *Program { return p.append(Op{Kind: OpS, Target: reg, Control: -1}) }

func (p *Program) RX(reg int, theta float64) *Program {
	return p.append(Op{Kind: OpRX, Target: reg, Control: -1, Theta: theta})
}

func (p *Program) RY(reg int, theta float64) *Program {
	return p.append(Op{Kind: OpRY, Target: reg, Control: -1, Theta: theta})
}

// CX flips target when control reads 1.
func (p *Program) CX(control, target int) *Program {
	if p.err == nil && control == target {
		p.err = errors.Wrapf(ErrEncoding, "program %s: cx needs distinct registers, got %d twice", p.Name, control)
		return p
	}
	if p.err == nil && !p.valid(control) {
		p.err = errors.Wrapf(ErrEncoding, "program %s: control register %d out of range [0,%d)", p.Name, control, p.Registers)
		return p
	}
	return p.append(Op{Kind: OpCX, Target: target, Control: control})
}

/*
Measure seals the program. With no arguments every register is measured,
in register order.
*/
func (p *Program) Measure(regs ...int) *Program {
	if p.err != nil {
		return p
	}

	if p.sealed {
		p.err = errors.Wrapf(ErrEncoding, "program %s already measured", p.Name)
		return p
	}

	if len(regs) == 0 {
		regs = make([]int, p.Registers)
		for i := range regs {
			regs[i] = i
		}
	}

	seen := make(map[int]bool, len(regs))
	for _, reg := range regs {
		if !p.valid(reg) || seen[reg] {
			p.err = errors.Wrapf(ErrEncoding, "program %s: bad measured register %d", p.Name, reg)
			return p
		}
		seen[reg] = true
	}

	p.Measured = append([]int(nil), regs...)
	p.sealed = true
	return p
}

// Err reports the first error recorded while building.
func (p *Program) Err() error {
	return p.err
}

// Sealed reports whether Measure has been applied.
func (p *Program) Sealed() bool {
	return p.sealed
}

/*
Validate is what backends call before running a program: it must be free of
builder errors and measured.
*/
func (p *Program) Validate() error {
	if p == nil {
		return errors.Wrap(ErrEncoding, "nil program")
	}
	if p.err != nil {
		return p.err
	}
	if !p.sealed {
		return errors.Wrapf(ErrEncoding, "program %s has no measurement", p.Name)
	}
	return nil
}

func (p *Program) append(op Op) *Program {
	if p.err != nil {
		return p
	}

	if p.sealed {
		p.err = errors.Wrapf(ErrEncoding, "program %s: %s after measurement", p.Name, op.Kind)
		return p
	}

	if !p.valid(op.Target) {
		p.err = errors.Wrapf(ErrEncoding, "program %s: register %d out of range [0,%d)", p.Name, op.Target, p.Registers)
		return p
	}

	p.Ops = append(p.Ops, op)
	return p
}

func (p *Program) valid(reg int) bool {
	return reg >= 0 && reg < p.Registers
}
