package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// PassMode records whether a developer flag explicitly turned an optional
// pass on or off, or left it at the driver host's own default.
type PassMode int

const (
	PassDefault PassMode = iota
	PassEnabled
	PassDisabled
)

// Options holds every developer flag the driver host accepts: surface-only
// knobs that steer which passes it runs and what it dumps, but never alter
// the core's own semantics.
type Options struct {
	Src     string // Path to source file.
	Out     string // Path to output file.
	Threads int    // Thread count.
	Verbose bool   // Set true for debug-level diagnostic logging and a JSON export of the recorded diagnostics on stderr.

	Mem2Reg PassMode // -fmem2reg[-enable|-disable]
	Optim   PassMode // -foptim[-enable|-disable]

	StopAfter string   // -f<pass>=last: halt the pipeline after this pass.
	DumpIR    []string // -fdump-ir[=<pass>,...]; ["*"] means every pass.

	DebugDead      bool // -vdead: log every instruction killed.
	DebugEntry     bool // -ventry: log each function's entry block on creation.
	DebugPostorder bool // -vpostorder: log the reverse-postorder block list computed per function.
}

// ---------------------
// ----- Constants -----
// ---------------------

const maxThreads = 64
const appVersion = "midir 1.0"

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses command line arguments.
func ParseArgs() (Options, error) {
	opt := Options{}
	if len(os.Args) < 2 {
		return opt, nil
	}
	args := os.Args[1:]
	if len(args) == 1 {
		switch args[0] {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-v", "--v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		}
	}
	for i1 := 0; i1 < len(args)-1; i1++ {
		a := args[i1]
		switch {
		case strings.HasPrefix(a, "-fdump-ir"):
			rest := strings.TrimPrefix(a, "-fdump-ir")
			switch {
			case rest == "":
				opt.DumpIR = []string{"*"}
			case strings.HasPrefix(rest, "="):
				opt.DumpIR = strings.Split(rest[1:], ",")
			default:
				return opt, fmt.Errorf("unexpected flag: %s", a)
			}
		case strings.HasPrefix(a, "-f") && strings.HasSuffix(a, "=last"):
			opt.StopAfter = strings.TrimSuffix(strings.TrimPrefix(a, "-f"), "=last")
		case a == "-fmem2reg":
			opt.Mem2Reg = PassEnabled
		case a == "-fmem2reg-enable":
			opt.Mem2Reg = PassEnabled
		case a == "-fmem2reg-disable":
			opt.Mem2Reg = PassDisabled
		case a == "-foptim":
			opt.Optim = PassEnabled
		case a == "-foptim-enable":
			opt.Optim = PassEnabled
		case a == "-foptim-disable":
			opt.Optim = PassDisabled
		case a == "-vdead":
			opt.DebugDead = true
		case a == "-ventry":
			opt.DebugEntry = true
		case a == "-vpostorder":
			opt.DebugPostorder = true
		case a == "-h", a == "--h", a == "-help", a == "--help":
			printHelp()
			os.Exit(0)
		case a == "-v", a == "--v", a == "-version", a == "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case a == "-vb":
			opt.Verbose = true
		case a == "-o", a == "-t":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", a)
			}
			if strings.HasPrefix(args[i1+1], "-") {
				return opt, fmt.Errorf("expected argument to %s, got new flag %s", a, args[i1+1])
			}
			if a == "-o" {
				opt.Out = args[i1+1]
			} else {
				t, err := strconv.Atoi(args[i1+1])
				if err != nil {
					return opt, fmt.Errorf("expected integer thread count, got: %s", args[i1+1])
				}
				if t <= 0 || t > maxThreads {
					return opt, fmt.Errorf("thread count must be integer in range [1, %d]", maxThreads)
				}
				opt.Threads = t
			}
			i1++
		default:
			return opt, fmt.Errorf("unexpected flag: %s", a)
		}
	}
	if len(args) > 0 {
		opt.Src = args[len(args)-1]
	}
	return opt, nil
}

// printHelp prints a helpful usage message to stdout.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits the application.")
	_, _ = fmt.Fprintln(w, "-o\tPath and name of the output file.")
	_, _ = fmt.Fprintf(w, "-t\tNumber of threads to run in parallel. Must be in range [1, %d].\n", maxThreads)
	_, _ = fmt.Fprintln(w, "-fmem2reg[-enable|-disable]\tSet the promote-to-register toggle. This driver runs no such pass, so the toggle has no effect on its output.")
	_, _ = fmt.Fprintln(w, "-foptim[-enable|-disable]\tToggle the simplifier pass. Enabled by default.")
	_, _ = fmt.Fprintln(w, "-f<pass>=last\tStop the pipeline after running <pass>.")
	_, _ = fmt.Fprintln(w, "-fdump-ir[=<pass>,...]\tDump IR after the named passes (linearize, mem2reg, final). No argument dumps every pass.")
	_, _ = fmt.Fprintln(w, "-vdead\tLog every instruction the killer removes.")
	_, _ = fmt.Fprintln(w, "-ventry\tLog each function's entry block on creation.")
	_, _ = fmt.Fprintln(w, "-vpostorder\tLog the reverse-postorder block list computed per function.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints application version and exits the application.")
	_, _ = fmt.Fprintln(w, "-vb\tVerbose mode: debug-level diagnostic logging, plus the recorded diagnostics as JSON on stderr.")
	_ = w.Flush()
}
