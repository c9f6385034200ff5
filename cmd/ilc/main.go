package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atomixos/ilc"
	"github.com/atomixos/ilc/internal/asm/golang_asm"
	"github.com/atomixos/ilc/internal/program"
)

func main() {
	doMain(os.Stdout, os.Stderr, os.Exit)
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer, exit func(code int)) {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "print usage")

	flag.Parse()

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		exit(0)
	}

	subCmd := flag.Arg(0)
	switch subCmd {
	case "compile":
		doCompile(flag.Args()[1:], stdOut, stdErr, exit)
	case "opcodes":
		for _, op := range ilc.NewCompiler().Opcodes() {
			fmt.Fprintln(stdOut, op)
		}
		exit(0)
	default:
		fmt.Fprintln(stdErr, "invalid command")
		printUsage(stdErr)
		exit(1)
	}
}

func doCompile(args []string, stdOut, stdErr io.Writer, exit func(code int)) {
	flags := flag.NewFlagSet("compile", flag.ExitOnError)
	flags.SetOutput(stdErr)

	var help bool
	flags.BoolVar(&help, "h", false, "print usage")

	var arch string
	flags.StringVar(&arch, "arch", "", "target architecture, overriding the program's. Supported values: x86,x64,arm")

	var encode bool
	flags.BoolVar(&encode, "encode", false, "print the machine code and relocations after each listing")

	var disasm bool
	flags.BoolVar(&disasm, "disasm", false, "print the disassembled machine code instead of the listing")

	var verbose bool
	flags.BoolVar(&verbose, "v", false, "log translation traces to stderr")

	var parallelism int
	flags.IntVar(&parallelism, "j", 0, "number of methods translated in parallel, overriding the program's")

	_ = flags.Parse(args)

	if help {
		printCompileUsage(stdErr, flags)
		exit(0)
	}

	if flags.NArg() < 1 {
		fmt.Fprintln(stdErr, "missing path to program file")
		printCompileUsage(stdErr, flags)
		exit(1)
	}

	p, err := program.LoadFile(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(stdErr, "error loading program: %v\n", err)
		exit(1)
	}

	c := ilc.NewCompileConfig().WithRuntimeSymbols(p.Runtime)
	if arch == "" {
		arch = p.Architecture
	}
	if arch != "" {
		a, err := ilc.ParseArchitecture(arch)
		if err != nil {
			fmt.Fprintf(stdErr, "invalid architecture: %v\n", err)
			exit(1)
		}
		c = c.WithArchitecture(a)
	}
	if parallelism == 0 {
		parallelism = p.Parallelism
	}
	if parallelism > 0 {
		c = c.WithParallelism(parallelism)
	}
	if verbose {
		c = c.WithLogger(newLogger(stdErr))
	}

	compiled, err := ilc.NewCompilerWithConfig(c).CompileMethods(context.Background(), p.Bodies)
	failed := err != nil
	if failed {
		fmt.Fprintf(stdErr, "error compiling program: %v\n", err)
	}

	literals := map[string]string{}
	for _, m := range compiled {
		if m == nil {
			continue
		}
		fmt.Fprintf(stdOut, "; %s\n%s:\n", m.Method().FullName(), m.Symbol())
		for sym, s := range m.Strings() {
			literals[sym] = s
		}
		if !encode && !disasm {
			fmt.Fprint(stdOut, m.Listing())
			continue
		}

		code, err := m.Encode()
		if err != nil {
			fmt.Fprintf(stdErr, "error encoding method: %v\n", err)
			failed = true
			continue
		}
		if disasm {
			fmt.Fprint(stdOut, golang_asm.Disassemble(code))
		} else {
			fmt.Fprint(stdOut, m.Listing())
		}
		if encode {
			printCode(stdOut, code)
		}
	}
	printStrings(stdOut, literals)

	if failed {
		exit(1)
	} else {
		exit(0)
	}
}

// newLogger returns a development logger writing to w.
func newLogger(w io.Writer) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

func printCode(w io.Writer, code *ilc.Code) {
	fmt.Fprint(w, hex.Dump(code.Bytes))
	for _, r := range code.Relocations {
		fmt.Fprintf(w, "reloc 0x%04x %s %s %d\n", r.Offset, r.Kind, r.Symbol, r.Addend)
	}
}

func printStrings(w io.Writer, literals map[string]string) {
	syms := make([]string, 0, len(literals))
	for sym := range literals {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	for _, sym := range syms {
		fmt.Fprintf(w, "%s: %q\n", sym, literals[sym])
	}
}

func printUsage(stdErr io.Writer) {
	fmt.Fprintln(stdErr, "ilc CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  ilc <command>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Commands:")
	fmt.Fprintln(stdErr, "  compile\tTranslates the methods of a program file to x86 code")
	fmt.Fprintln(stdErr, "  opcodes\tLists the IL opcodes the compiler translates")
}

func printCompileUsage(stdErr io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(stdErr, "ilc CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  ilc compile <options> <path to program file>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	flags.PrintDefaults()
}
