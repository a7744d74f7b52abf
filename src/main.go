package main

import (
	"fmt"
	"os"

	"midir/src/config"
	"midir/src/frontend"
	"midir/src/ir/llvm"
	"midir/src/ir/ssa"
	"midir/src/util"
)

func main() {
	// Parse command line arguments.
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Printf("command line argument error: %s\n", err)
		os.Exit(1)
	}

	// Load driver-host settings from midir.toml in the working directory,
	// if present; command-line flags always win over the file.
	flags := config.Default()
	if cfgPath := config.FindConfigFile("."); cfgPath != "" {
		if f, err := config.Load(cfgPath); err != nil {
			fmt.Printf("config error: %s\n", err)
			os.Exit(1)
		} else {
			flags = f
		}
	}
	applyConfig(&opt, flags)

	// Read source code.
	src, err := util.ReadSource(opt)
	if err != nil {
		fmt.Printf("could not read source: %s\n", err)
		os.Exit(1)
	}

	sink := util.NewZapSink(opt.Verbose)

	mod, err := frontend.ParseWithDebug(src, sink, opt.DebugEntry)
	if err != nil {
		fmt.Printf("parse error: %s\n", err)
		os.Exit(1)
	}
	mod.DebugDead = opt.DebugDead
	mod.DebugPostorder = opt.DebugPostorder
	dumpIfRequested(opt, mod, "linearize")

	// mem2reg is an external promotion pass this repository never runs;
	// a dump requested at that point sees exactly what linearize produced.
	dumpIfRequested(opt, mod, "mem2reg")

	if opt.Optim != util.PassDisabled && opt.StopAfter != "linearize" && opt.StopAfter != "mem2reg" {
		ssa.SimplifyModule(mod)
	}
	dumpIfRequested(opt, mod, "final")

	if opt.StopAfter == "final" || opt.StopAfter == "" {
		if err := writeOutput(opt, mod); err != nil {
			fmt.Printf("output error: %s\n", err)
			os.Exit(1)
		}
	}

	if opt.Verbose {
		if b, err := util.ExportDiagnostics(util.Recorded(sink)); err == nil && len(b) > 2 {
			fmt.Fprintf(os.Stderr, "%s\n", b)
		}
	}
}

// applyConfig fills in any Options field the command line left at its
// zero value from the loaded driver-host config, so a flag always wins
// but a config file still sets a usable default.
func applyConfig(opt *util.Options, flags config.DriverFlags) {
	if opt.Mem2Reg == util.PassDefault {
		opt.Mem2Reg = passMode(flags.Passes.Mem2Reg)
	}
	if opt.Optim == util.PassDefault {
		opt.Optim = passMode(flags.Passes.Optim)
	}
	if len(opt.DumpIR) == 0 {
		opt.DumpIR = flags.DumpIR
	}
	opt.DebugDead = opt.DebugDead || flags.Debug.Dead
	opt.DebugEntry = opt.DebugEntry || flags.Debug.Entry
	opt.DebugPostorder = opt.DebugPostorder || flags.Debug.Postorder
}

func passMode(enabled bool) util.PassMode {
	if enabled {
		return util.PassEnabled
	}
	return util.PassDisabled
}

// dumpIfRequested prints mod's current textual IR if pass is named in
// opt.DumpIR, or if DumpIR holds the "dump everything" sentinel "*".
func dumpIfRequested(opt util.Options, mod *ssa.Module, pass string) {
	want := false
	for _, p := range opt.DumpIR {
		if p == pass || p == "*" {
			want = true
			break
		}
	}
	if !want {
		return
	}
	fmt.Printf("-- IR after %s --\n", pass)
	for _, f := range mod.Functions() {
		fmt.Print(f.String())
	}
}

// writeOutput renders mod as LLVM IR and hands it to the output writer,
// the one concrete IR pretty-printer this driver host ships, given a home
// here since nothing else in the pipeline needs an output format.
func writeOutput(opt util.Options, mod *ssa.Module) error {
	var f *os.File
	if len(opt.Out) > 0 {
		var err error
		f, err = os.OpenFile(opt.Out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
	}

	threads := opt.Threads
	if threads == 0 {
		threads = 1
	}
	util.ListenWrite(threads, f)
	defer util.Close()

	ir, err := llvm.Dump(mod, opt)
	if err != nil {
		return err
	}
	w := util.NewWriter()
	w.Write("%s", ir)
	w.Flush()
	return nil
}
