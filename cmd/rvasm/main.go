package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/Urethramancer/rvasm/assembler"
	"github.com/Urethramancer/rvasm/isa"
	"github.com/Urethramancer/rvasm/listing"
	"github.com/grimdork/climate/arg"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("rvasm: ")

	opt := arg.New("rvasm")
	opt.SetDefaultHelp(true)
	opt.SetOption(arg.GroupDefault, "o", "output", "Write the listing to this file instead of stdout.", "", false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "b", "binary", "Also write the text segment as a little-endian image.", "", false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "a", "annotate", "Append field breakdowns and errors to listing lines.", false, false, arg.VarBool, nil)
	opt.SetOption(arg.GroupDefault, "f", "fail-fast", "Write nothing if the program is malformed.", false, false, arg.VarBool, nil)
	opt.SetOption(arg.GroupDefault, "s", "symbols", "Dump the symbol table to stderr.", false, false, arg.VarBool, nil)
	opt.SetOption(arg.GroupDefault, "j", "jobs", "Encoding workers.", 1, false, arg.VarInt, nil)
	opt.SetOption(arg.GroupDefault, "", "continue-data", "Resume the data cursor on repeated .data.", false, false, arg.VarBool, nil)
	opt.SetOption(arg.GroupDefault, "", "text-base", "Text segment base address.", "0x0", false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "", "data-base", "Data segment base address.", "0x10000000", false, arg.VarString, nil)
	opt.SetPositional("INPUT", "Assembly source file.", "", true, arg.VarString)

	err := opt.Parse(os.Args)
	if err != nil {
		if errors.Is(err, arg.ErrNoArgs) {
			opt.PrintHelp()
			return
		}
		log.Fatal(err)
	}

	opts := assembler.DefaultOptions()
	opts.ContinueData = opt.GetBool("continue-data")
	opts.Workers = opt.GetInt("jobs")
	if opts.TextBase, err = parseAddress(opt.GetString("text-base")); err != nil {
		log.Fatalf("text base: %v", err)
	}
	if opts.DataBase, err = parseAddress(opt.GetString("data-base")); err != nil {
		log.Fatalf("data base: %v", err)
	}

	input := opt.GetPosString("INPUT")
	data, err := os.ReadFile(input)
	if err != nil {
		log.Fatalf("Error reading input file: %v", err)
	}

	rep, asmErr := assembler.NewWithOptions(opts).Assemble(string(data))
	for _, e := range rep.Errors {
		log.Printf("%s:%v", input, e)
	}

	if opt.GetBool("symbols") {
		dumpSymbols(os.Stderr, rep.Symbols())
	}

	if rep.Fatal() != nil && opt.GetBool("fail-fast") {
		log.Fatalf("%s: program is malformed, nothing written", input)
	}

	if err := writeListing(opt.GetString("output"), rep, opt.GetBool("annotate")); err != nil {
		log.Fatalf("Error writing listing: %v", err)
	}

	if bin := opt.GetString("binary"); bin != "" {
		if err := os.WriteFile(bin, isa.WordsToBytes(rep.Text()), 0644); err != nil {
			log.Fatalf("Error writing binary: %v", err)
		}
	}

	if asmErr != nil {
		os.Exit(1)
	}
}

func writeListing(path string, rep *assembler.Report, annotate bool) error {
	if path == "" {
		return listing.Write(os.Stdout, rep.Records, annotate)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := listing.Write(f, rep.Records, annotate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// dumpSymbols prints labels in address order, coloured when w is a terminal.
func dumpSymbols(w *os.File, st *assembler.SymbolTable) {
	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(term.IsTerminal(int(w.Fd())))
	for _, name := range st.Names() {
		addr, _ := st.Lookup(name)
		printer.Println(name, fmt.Sprintf("0x%08x", addr))
	}
	fmt.Fprintf(w, "%d symbols\n", st.Len())
}

func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
