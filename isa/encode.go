package isa

// Immediate widths in bits. Branch and jump widths count the implicit
// zero bit, i.e. they bound the byte offset.
const (
	ImmBitsI  = 12
	ImmBitsS  = 12
	ImmBitsSB = 13
	ImmBitsU  = 20
	ImmBitsUJ = 21
)

// FitsSigned reports whether v is representable as a two's-complement
// integer of the given width.
func FitsSigned(v int64, bits uint) bool {
	if bits == 0 || bits >= 64 {
		return bits >= 64
	}
	limit := int64(1) << (bits - 1)
	return v >= -limit && v < limit
}

// Truncate keeps the low bits of v, i.e. its two's-complement
// representation in the given width.
func Truncate(v int64, bits uint) uint32 {
	if bits >= 32 {
		return uint32(v)
	}
	return uint32(v) & (1<<bits - 1)
}

// SignExtend interprets the low bits of v as a signed integer.
func SignExtend(v uint32, bits uint) int64 {
	shift := 64 - bits
	return int64(uint64(v)<<shift) >> shift
}

// BranchField returns the value stored in the 12-bit SB immediate: the byte
// offset with its always-zero low bit dropped.
func BranchField(offset int64) int64 {
	return SignExtend(Truncate(offset>>1, 12), 12)
}

// JumpField returns the value stored in the 20-bit UJ immediate.
func JumpField(offset int64) int64 {
	return SignExtend(Truncate(offset>>1, 20), 20)
}

// EncodeR packs funct7 rs2 rs1 funct3 rd opcode.
func EncodeR(s Spec, rd, rs1, rs2 Register) uint32 {
	var w uint32
	w |= (s.Funct7 & 0x7f) << 25
	w |= rs2.Field() << 20
	w |= rs1.Field() << 15
	w |= (s.Funct3 & 0x7) << 12
	w |= rd.Field() << 7
	w |= s.Opcode & 0x7f
	return w
}

// EncodeI packs imm[11:0] rs1 funct3 rd opcode. The immediate wraps to 12 bits.
func EncodeI(s Spec, rd, rs1 Register, imm int64) uint32 {
	var w uint32
	w |= Truncate(imm, ImmBitsI) << 20
	w |= rs1.Field() << 15
	w |= (s.Funct3 & 0x7) << 12
	w |= rd.Field() << 7
	w |= s.Opcode & 0x7f
	return w
}

// EncodeS packs imm[11:5] rs2 rs1 funct3 imm[4:0] opcode. The immediate
// wraps to 12 bits before it is split.
func EncodeS(s Spec, rs1, rs2 Register, imm int64) uint32 {
	u := Truncate(imm, ImmBitsS)
	var w uint32
	w |= (u >> 5 & 0x7f) << 25
	w |= rs2.Field() << 20
	w |= rs1.Field() << 15
	w |= (s.Funct3 & 0x7) << 12
	w |= (u & 0x1f) << 7
	w |= s.Opcode & 0x7f
	return w
}

// EncodeSB packs a conditional branch. offset is the byte distance from the
// branch to its target; bit 0 is masked off and bits above 12 wrap.
func EncodeSB(s Spec, rs1, rs2 Register, offset int64) uint32 {
	u := Truncate(offset, ImmBitsSB) &^ 1
	var w uint32
	w |= (u >> 12 & 0x1) << 31
	w |= (u >> 5 & 0x3f) << 25
	w |= rs2.Field() << 20
	w |= rs1.Field() << 15
	w |= (s.Funct3 & 0x7) << 12
	w |= (u >> 1 & 0xf) << 8
	w |= (u >> 11 & 0x1) << 7
	w |= s.Opcode & 0x7f
	return w
}

// EncodeU packs imm[31:12] rd opcode. imm is the 20-bit upper value as
// written in source, not the shifted result.
func EncodeU(s Spec, rd Register, imm int64) uint32 {
	var w uint32
	w |= Truncate(imm, ImmBitsU) << 12
	w |= rd.Field() << 7
	w |= s.Opcode & 0x7f
	return w
}

// EncodeUJ packs a jump. offset is the byte distance to the target; bit 0
// is masked off and bits above 20 wrap.
func EncodeUJ(s Spec, rd Register, offset int64) uint32 {
	u := Truncate(offset, ImmBitsUJ) &^ 1
	var w uint32
	w |= (u >> 20 & 0x1) << 31
	w |= (u >> 1 & 0x3ff) << 21
	w |= (u >> 11 & 0x1) << 20
	w |= (u >> 12 & 0xff) << 12
	w |= rd.Field() << 7
	w |= s.Opcode & 0x7f
	return w
}
