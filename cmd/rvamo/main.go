// Package main provides the rvamo command line tool for inspecting and
// exercising RISC-V atomic instruction emulation.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/rvamo/emu"
	"github.com/sarchlab/rvamo/insts"
	"github.com/sarchlab/rvamo/loader"
	"github.com/sarchlab/rvamo/timing/latency"
)

const usage = `Usage: rvamo <command> [options] [args]

Commands:
  decode <word>...     Decode instruction words (hex)
  scan <firmware.elf>  List atomic instructions in a firmware image
  cost                 Print the emulation cost table
  selftest             Run every atomic operation through the trap handler
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return 1
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "decode":
		return runDecode(rest, stdout, stderr)
	case "scan":
		return runScan(rest, stdout, stderr)
	case "cost":
		return runCost(rest, stdout, stderr)
	case "selftest":
		return runSelfTest(rest, stdout, stderr)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 1
	}
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	configPath string
	verbose    int
}

func newFlagSet(name string, stderr io.Writer, c *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.configPath, "config", "", "Path to timing configuration JSON file")
	fs.IntVar(&c.verbose, "v", 0, "Log verbosity")
	return fs
}

func (c *commonFlags) logger(stderr io.Writer) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(stderr, args)
	}, funcr.Options{Verbosity: c.verbose})
}

func (c *commonFlags) latencyTable() (*latency.Table, error) {
	if c.configPath == "" {
		return latency.NewTable(), nil
	}

	config, err := latency.LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}

	return latency.NewTableWithConfig(config), nil
}

func runDecode(args []string, stdout, stderr io.Writer) int {
	var c commonFlags
	fs := newFlagSet("decode", stderr, &c)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "decode: no instruction words given")
		return 1
	}

	table, err := c.latencyTable()
	if err != nil {
		fmt.Fprintf(stderr, "Error loading timing config: %v\n", err)
		return 1
	}

	decoder := insts.NewDecoder()
	status := 0
	for _, arg := range fs.Args() {
		word, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(arg), "0x"), 16, 32)
		if err != nil {
			fmt.Fprintf(stderr, "decode: bad word %q: %v\n", arg, err)
			status = 1
			continue
		}

		inst := decoder.Decode(uint32(word))
		fmt.Fprintf(stdout, "0x%08x  %-32s", inst.Word, inst.String())
		if inst.Op != insts.OpUnknown {
			fmt.Fprintf(stdout, "  rd=%s rs1=%s rs2=%s  %d cycles",
				emu.ABIName(inst.Rd), emu.ABIName(inst.Rs1), emu.ABIName(inst.Rs2), table.GetLatency(inst))
		}
		fmt.Fprintln(stdout)
	}

	return status
}

func runScan(args []string, stdout, stderr io.Writer) int {
	var c commonFlags
	fs := newFlagSet("scan", stderr, &c)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "scan: expected one firmware image")
		return 1
	}

	log := c.logger(stderr)
	path := fs.Arg(0)

	prog, err := loader.Load(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}
	log.V(1).Info("loaded", "path", path, "entry", prog.EntryPoint, "xlen", int(prog.XLEN),
		"segments", len(prog.Segments))

	table, err := c.latencyTable()
	if err != nil {
		fmt.Fprintf(stderr, "Error loading timing config: %v\n", err)
		return 1
	}

	counts := make(map[insts.Op]int)
	var unknown, unsupported int
	lsu := emu.NewLoadStoreUnit(prog.XLEN)

	for _, seg := range prog.Segments {
		if !seg.Executable() {
			continue
		}
		for _, loc := range insts.Scan(seg.Data, seg.VirtAddr) {
			note := ""
			switch {
			case loc.Inst.Op == insts.OpUnknown:
				unknown++
				note = "  (unhandled: unknown subcode)"
			case !lsu.Supports(loc.Inst.Width):
				unsupported++
				note = "  (unhandled: width)"
			default:
				counts[loc.Inst.Op]++
			}
			fmt.Fprintf(stdout, "%08x:  %08x  %s%s\n", loc.Addr, loc.Inst.Word, loc.Inst.String(), note)
		}
	}

	fmt.Fprintf(stdout, "\nProgram: %s (RV%d)\n", path, prog.XLEN)
	total := 0
	var cycles uint64
	ops := make([]insts.Op, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	for _, op := range ops {
		n := counts[op]
		total += n
		inst := &insts.Instruction{Op: op, Width: insts.WidthWord}
		cycles += uint64(n) * table.GetLatency(inst)
		fmt.Fprintf(stdout, "  %-8s %d\n", op, n)
	}
	fmt.Fprintf(stdout, "Emulatable sites: %d\n", total)
	fmt.Fprintf(stdout, "Unhandled sites: %d\n", unknown+unsupported)
	fmt.Fprintf(stdout, "Cycles if each site runs once: %d\n", cycles)

	return 0
}

func runCost(args []string, stdout, stderr io.Writer) int {
	var c commonFlags
	fs := newFlagSet("cost", stderr, &c)
	out := fs.String("o", "", "Write the timing configuration to this JSON file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	table, err := c.latencyTable()
	if err != nil {
		fmt.Fprintf(stderr, "Error loading timing config: %v\n", err)
		return 1
	}

	if *out != "" {
		if err := table.Config().SaveConfig(*out); err != nil {
			fmt.Fprintf(stderr, "Error saving timing config: %v\n", err)
			return 1
		}
	}

	fmt.Fprintf(stdout, "%-10s %8s %8s %9s\n", "op", "min", "max", "slowdown")
	for _, op := range insts.Ops() {
		inst := &insts.Instruction{Op: op, Width: insts.WidthWord}
		fmt.Fprintf(stdout, "%-10s %8d %8d %8.1fx\n", op,
			table.GetMinLatency(inst), table.GetMaxLatency(inst), table.Slowdown(inst))
	}
	fmt.Fprintf(stdout, "%-10s %8d %8d\n", "forward", table.ForwardLatency(), table.ForwardLatency())

	return 0
}
