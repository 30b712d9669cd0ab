// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezrec/mvx/config"
	"github.com/ezrec/mvx/emulator"
	mvio "github.com/ezrec/mvx/io"
	"github.com/ezrec/mvx/translate"
)

var f = translate.From

var ErrArguments = errors.New(f("a .vmx program or a .vmi snapshot is required"))

// options are the command line settings.
type options struct {
	config  string
	memory  int
	disasm  bool
	verbose bool
	params  bool
	seed    uint64

	program  string
	snapshot string
	args     []string
}

// parseArgs sorts the positional arguments: a .vmx program, a .vmi
// snapshot, m=KiB memory sizes, and program parameters after -p.
func (opt *options) parseArgs(args []string) (memory int, err error) {
	for _, arg := range args {
		switch {
		case len(opt.program) == 0 && strings.EqualFold(filepath.Ext(arg), ".vmx"):
			opt.program = arg
		case len(opt.snapshot) == 0 && strings.EqualFold(filepath.Ext(arg), ".vmi"):
			opt.snapshot = arg
		case strings.HasPrefix(arg, "m="):
			memory, err = strconv.Atoi(arg[2:])
			if err != nil {
				err = fmt.Errorf("%v: %w", arg, err)
				return
			}
		case opt.params:
			opt.args = append(opt.args, arg)
		default:
			err = errors.New(f("unknown argument %q", arg))
			return
		}
	}

	if len(opt.program) == 0 && len(opt.snapshot) == 0 {
		err = ErrArguments
		return
	}

	return
}

func run(cmd *cobra.Command, opt *options, args []string) (exitCode int) {
	cfg, err := config.Load(opt.config, !cmd.Flags().Changed("config"))
	if err != nil {
		log.Printf("%v", err)
		return emulator.EXIT_FATAL
	}

	memory, err := opt.parseArgs(args)
	if err != nil {
		log.Printf("%v", err)
		return emulator.EXIT_FATAL
	}

	if memory != 0 {
		cfg.Memory = memory
	}
	if cmd.Flags().Changed("memory") {
		cfg.Memory = opt.memory
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = opt.seed
	}
	if len(opt.snapshot) != 0 {
		cfg.Snapshot = opt.snapshot
	}
	cfg.Verbose = cfg.Verbose || opt.verbose
	cfg.Disassemble = cfg.Disassemble || opt.disasm

	err = cfg.Validate()
	if err != nil {
		log.Printf("%v", err)
		return emulator.EXIT_FATAL
	}

	con, err := mvio.Open(os.Stdin, os.Stdout)
	if err != nil {
		log.Printf("%v", err)
		return emulator.EXIT_FATAL
	}
	defer con.Close()

	emu := emulator.NewEmulator(cfg.Memory)
	emu.Verbose = cfg.Verbose
	emu.Console = con
	emu.Snapshot = cfg.Snapshot
	if cfg.Seed != 0 {
		emu.Cpu.Seed(cfg.Seed)
	}

	if len(opt.program) != 0 {
		err = emu.LoadImageFile(opt.program, opt.args)
	} else {
		err = emu.LoadSnapshotFile(opt.snapshot)
	}
	if err != nil {
		fmt.Fprintln(con, err)
		return emulator.EXIT_FATAL
	}

	if cfg.Disassemble {
		err = emu.Listing(con)
		if err != nil {
			fmt.Fprintln(con, err)
			return emulator.EXIT_FATAL
		}
	}

	return emu.Run()
}

func main() {
	opt := &options{}
	exitCode := 0

	rootCmd := &cobra.Command{
		Use:   "mvx [program.vmx] [state.vmi] [m=KiB] [-d] [-p params...]",
		Short: f("MV segmented processor simulator"),
		Args:  cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitCode = run(cmd, opt, args)
		},
	}

	rootCmd.Flags().StringVar(&opt.config, "config", config.CONFIG_DEFAULT, f("Configuration file"))
	rootCmd.Flags().IntVarP(&opt.memory, "memory", "m", 0, f("Memory size in KiB"))
	rootCmd.Flags().BoolVarP(&opt.disasm, "disassemble", "d", false, f("Show the disassembly before running"))
	rootCmd.Flags().BoolVarP(&opt.verbose, "verbose", "v", false, f("Verbose mode"))
	rootCmd.Flags().BoolVarP(&opt.params, "params", "p", false, f("Pass the remaining arguments to the program"))
	rootCmd.Flags().Uint64Var(&opt.seed, "seed", 0, f("RND seed"))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(emulator.EXIT_FATAL)
	}

	os.Exit(exitCode)
}
