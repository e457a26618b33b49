package isa

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Register is an integer register index in [0, 31].
type Register uint8

// NumRegisters is the size of the integer register file.
const NumRegisters = 32

// ErrInvalidRegister is returned for names that do not denote x0-x31.
var ErrInvalidRegister = errors.New("invalid register")

var abiNames = [NumRegisters]string{
	"zero", "ra", "sp", "gp", "tp",
	"t0", "t1", "t2",
	"s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

var abiIndex = func() map[string]Register {
	m := make(map[string]Register, NumRegisters+1)
	for i, name := range abiNames {
		m[name] = Register(i)
	}
	m["fp"] = 8
	return m
}()

// DecodeRegister converts "x0".."x31" (or an ABI alias such as "sp") to a
// register index.
func DecodeRegister(name string) (Register, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if r, ok := abiIndex[s]; ok {
		return r, nil
	}
	if len(s) < 2 || s[0] != 'x' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRegister, name)
	}
	n, err := strconv.ParseUint(s[1:], 10, 8)
	if err != nil || n >= NumRegisters {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRegister, name)
	}
	return Register(n), nil
}

// Field returns the 5-bit encoding of the register.
func (r Register) Field() uint32 {
	return uint32(r) & 0x1f
}

func (r Register) String() string {
	return "x" + strconv.Itoa(int(r))
}

// ABIName returns the calling-convention name, e.g. "sp" for x2.
func (r Register) ABIName() string {
	if int(r) >= NumRegisters {
		return r.String()
	}
	return abiNames[r]
}
