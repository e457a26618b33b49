package main

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/Urethramancer/rvasm/disassembler"
	"github.com/grimdork/climate/arg"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("rvdis: ")

	opt := arg.New("rvdis")
	opt.SetDefaultHelp(true)
	opt.SetOption(arg.GroupDefault, "o", "output", "Write the disassembly to this file instead of stdout.", "", false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "", "base", "Load address of the image.", "0x0", false, arg.VarString, nil)
	opt.SetPositional("INPUT", "Little-endian code image.", "", true, arg.VarString)

	err := opt.Parse(os.Args)
	if err != nil {
		if errors.Is(err, arg.ErrNoArgs) {
			opt.PrintHelp()
			return
		}
		log.Fatal(err)
	}

	base, err := strconv.ParseUint(opt.GetString("base"), 0, 32)
	if err != nil {
		log.Fatalf("base: %v", err)
	}

	code, err := os.ReadFile(opt.GetPosString("INPUT"))
	if err != nil {
		log.Fatalf("Error reading input file: %v", err)
	}

	text, err := disassembler.Disassemble(code, uint32(base))
	if err != nil {
		log.Fatalf("Disassembly error: %v", err)
	}

	out := opt.GetString("output")
	if out == "" {
		os.Stdout.WriteString(text)
		return
	}
	if err := os.WriteFile(out, []byte(text), 0644); err != nil {
		log.Fatalf("Error writing output file: %v", err)
	}
	log.Printf("Disassembly written to %s", out)
}
