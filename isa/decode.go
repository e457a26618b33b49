package isa

// Fields holds the bit fields of a decoded instruction word. Fields that
// the format does not carry are left zero; use the Has* helpers to tell
// them apart from real zero values.
type Fields struct {
	Format Format
	Opcode uint32
	Funct3 uint32
	Funct7 uint32
	Rd     Register
	Rs1    Register
	Rs2    Register
	// Imm is sign-extended for I, S, SB and UJ. For SB and UJ it is the
	// byte offset with the implicit zero bit restored. For U it is the
	// unsigned 20-bit upper value.
	Imm int64
}

// Decode splits a word into fields according to the format implied by
// its opcode. It is the inverse of the Encode* functions.
func Decode(w uint32) Fields {
	f := Fields{
		Opcode: w & 0x7f,
		Format: FormatOf(w),
	}

	rd := Register(w >> 7 & 0x1f)
	funct3 := w >> 12 & 0x7
	rs1 := Register(w >> 15 & 0x1f)
	rs2 := Register(w >> 20 & 0x1f)

	switch f.Format {
	case FormatR:
		f.Rd, f.Funct3, f.Rs1, f.Rs2 = rd, funct3, rs1, rs2
		f.Funct7 = w >> 25 & 0x7f

	case FormatI:
		f.Rd, f.Funct3, f.Rs1 = rd, funct3, rs1
		f.Imm = SignExtend(w>>20, 12)

	case FormatS:
		f.Funct3, f.Rs1, f.Rs2 = funct3, rs1, rs2
		imm := (w>>25&0x7f)<<5 | w>>7&0x1f
		f.Imm = SignExtend(imm, 12)

	case FormatSB:
		f.Funct3, f.Rs1, f.Rs2 = funct3, rs1, rs2
		imm := (w>>31&0x1)<<12 |
			(w>>7&0x1)<<11 |
			(w>>25&0x3f)<<5 |
			(w>>8&0xf)<<1
		f.Imm = SignExtend(imm, 13)

	case FormatU:
		f.Rd = rd
		f.Imm = int64(w >> 12)

	case FormatUJ:
		f.Rd = rd
		imm := (w>>31&0x1)<<20 |
			(w>>12&0xff)<<12 |
			(w>>20&0x1)<<11 |
			(w>>21&0x3ff)<<1
		f.Imm = SignExtend(imm, 21)
	}
	return f
}

// HasRd reports whether the format writes a destination register.
func (f Fields) HasRd() bool {
	switch f.Format {
	case FormatR, FormatI, FormatU, FormatUJ:
		return true
	}
	return false
}

// HasRs1 reports whether the format reads rs1.
func (f Fields) HasRs1() bool {
	switch f.Format {
	case FormatR, FormatI, FormatS, FormatSB:
		return true
	}
	return false
}

// HasRs2 reports whether the format reads rs2.
func (f Fields) HasRs2() bool {
	switch f.Format {
	case FormatR, FormatS, FormatSB:
		return true
	}
	return false
}

// HasImm reports whether the format carries an immediate.
func (f Fields) HasImm() bool {
	return f.Format != FormatR && f.Format != FormatInvalid
}

// HasFunct3 reports whether the format carries funct3.
func (f Fields) HasFunct3() bool {
	return f.HasRs1()
}

// HasFunct7 reports whether the format carries funct7.
func (f Fields) HasFunct7() bool {
	return f.Format == FormatR
}
