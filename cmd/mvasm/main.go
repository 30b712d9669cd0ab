package main

import (
	"fmt"
	"log"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezrec/mvx/cpu"
	"github.com/ezrec/mvx/format"
	"github.com/ezrec/mvx/internal"
	"github.com/ezrec/mvx/translate"
)

var f = translate.From

// outputPath replaces the source extension with .vmx.
func outputPath(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".vmx"
}

// assemble translates one source file to a program image.
func assemble(source string, defines []string, verbose bool) (asm *cpu.Assembler, prog *cpu.Program, img *format.Image, err error) {
	inf, err := os.Open(source)
	if err != nil {
		return
	}
	defer inf.Close()

	asm = &cpu.Assembler{Verbose: verbose}
	for _, define := range defines {
		name, value, _ := strings.Cut(define, "=")
		if len(value) == 0 {
			value = "1"
		}
		asm.Predefine(name, value)
	}

	prog, err = asm.Parse(inf)
	if err != nil {
		err = &format.ErrFile{Path: source, Err: err}
		return
	}

	img, err = format.NewImage(prog)
	if err != nil {
		err = &format.ErrFile{Path: source, Err: err}
		return
	}

	return
}

// writeImage writes an image to a file.
func writeImage(path string, img *format.Image) (err error) {
	outf, err := os.Create(path)
	if err != nil {
		return
	}

	_, err = img.WriteTo(outf)
	cerr := outf.Close()
	if err == nil {
		err = cerr
	}

	return
}

// symbols prints the equates and labels, sorted by name.
func symbols(asm *cpu.Assembler) {
	for name, value := range internal.IterSeq2Sorted(maps.All(asm.Equate)) {
		fmt.Printf(".equ %-20s %s\n", name, value)
	}
	for name, ip := range internal.IterSeq2Sorted(maps.All(asm.Label)) {
		fmt.Printf("%-24s [%04X]\n", name+":", ip)
	}
}

// listing prints the assembled statements.
func listing(prog *cpu.Program) {
	for _, st := range prog.Statements {
		fmt.Printf("%4d [%04X] %-20s | %s\n", st.LineNo, st.Ip, fmt.Sprintf("% X", st.Code), st.Text)
	}
}

func main() {
	var output string
	var list bool
	var syms bool
	var verbose bool
	var defines []string

	rootCmd := &cobra.Command{
		Use:   "mvasm source.asm",
		Short: f("MV assembler"),
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			source := args[0]
			if len(output) == 0 {
				output = outputPath(source)
			}

			asm, prog, img, err := assemble(source, defines, verbose)
			if err != nil {
				log.Fatalf("%v", err)
			}

			if syms {
				symbols(asm)
			}

			if list {
				listing(prog)
			}

			err = writeImage(output, img)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}

			if verbose {
				log.Printf("mvasm: %v: %v", output, img)
			}
		},
	}

	rootCmd.Flags().StringVarP(&output, "output", "o", "", f(".vmx file to write"))
	rootCmd.Flags().BoolVarP(&list, "list", "l", false, f("Print the assembly listing"))
	rootCmd.Flags().BoolVarP(&syms, "symbols", "s", false, f("Print the symbol table"))
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, f("Verbose mode"))
	rootCmd.Flags().StringArrayVarP(&defines, "define", "D", nil, f("Predefine NAME=VALUE"))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
