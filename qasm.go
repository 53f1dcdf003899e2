package qcreative

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

/*
QASM renders the program as OpenQASM 2.0. Measured register j is written to
classical bit j, so the conventional counts key has the first measured
register as its rightmost character.
*/
func (p *Program) QASM() string {
	var b strings.Builder

	b.WriteString("OPENQASM 2.0;\n")
	b.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&b, "qreg q[%d];\n", p.Registers)
	fmt.Fprintf(&b, "creg c[%d];\n\n", max(len(p.Measured), 1))

	for _, op := range p.Ops {
		switch op.Kind {
		case OpCX:
			fmt.Fprintf(&b, "cx q[%d],q[%d];\n", op.Control, op.Target)
		case OpRX, OpRY:
			fmt.Fprintf(&b, "%s(%.17g) q[%d];\n", op.Kind, op.Theta, op.Target)
		default:
			fmt.Fprintf(&b, "%s q[%d];\n", op.Kind, op.Target)
		}
	}

	if len(p.Measured) > 0 {
		b.WriteString("barrier q;\n")
	}

	for j, reg := range p.Measured {
		fmt.Fprintf(&b, "measure q[%d] -> c[%d];\n", reg, j)
	}

	return b.String()
}

// Fingerprint identifies a program by content, independent of its ID and name.
func (p *Program) Fingerprint() string {
	sum := sha256.Sum256([]byte(p.QASM()))
	return hex.EncodeToString(sum[:])
}
