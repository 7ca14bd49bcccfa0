// Package main provides the dump-msg-tables CLI tool.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/goetzr/dump-msg-tables/internal/cli"
	"github.com/goetzr/dump-msg-tables/internal/msgtable"
	"github.com/goetzr/dump-msg-tables/internal/pe"
	"github.com/goetzr/dump-msg-tables/internal/resid"
)

var (
	resource = flag.String("r", "", "dump a single resource; #123 selects an ordinal, anything else a name")
	listIDs  = flag.Bool("list", false, "list message table resource identifiers without decoding")
	resTypes = flag.Bool("resources", false, "summarize every resource type present in the module")
	verbose  = flag.Bool("v", false, "verbose mode: log module and resource lookups to stderr")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	if *verbose {
		if logger, err := zap.NewDevelopment(); err == nil {
			pe.SetLogger(logger)
			defer func() { _ = logger.Sync() }()
		}
	}

	if err := run(flag.Arg(0)); err != nil {
		cli.PrintError(err)
		os.Exit(1)
	}
}

func run(filepath string) error {
	module, err := pe.Open(filepath)
	if err != nil {
		return err
	}
	defer func() { _ = module.Close() }()

	reporter := cli.NewReporter(module)

	switch {
	case *resTypes:
		return summarizeTypes(module, reporter)
	case *listIDs:
		return listMessageTables(module, reporter)
	case *resource != "":
		return dumpOne(module, reporter, *resource)
	}
	return dumpAll(module, reporter)
}

func dumpAll(module *pe.Module, reporter *cli.Reporter) error {
	entries, err := msgtable.Dump(module)
	if err != nil {
		return err
	}
	reporter.PrintEntries(entries)
	return nil
}

func dumpOne(module *pe.Module, reporter *cli.Reporter, ref string) error {
	id, err := resid.FromString(ref)
	if err != nil {
		return err
	}

	entries, err := msgtable.DumpResource(module, id)
	if err != nil {
		return err
	}
	reporter.PrintEntries(entries)
	return nil
}

func listMessageTables(module *pe.Module, reporter *cli.Reporter) error {
	ids, err := module.ResourceIDs(msgtable.ResourceType)
	if err != nil {
		return fmt.Errorf("enumerate message table resources: %w", err)
	}
	reporter.PrintIDs(ids)
	return nil
}

func summarizeTypes(module *pe.Module, reporter *cli.Reporter) error {
	types, err := module.ResourceTypes()
	if err != nil {
		return fmt.Errorf("enumerate resource types: %w", err)
	}
	reporter.PrintTypes(types)
	return nil
}

func printUsage() {
	cyan := color.New(color.FgCyan, color.Bold)
	_, _ = cyan.Println("\ndump-msg-tables - extract message tables embedded in PE modules")

	fmt.Println("\nUsage:")
	fmt.Println("  dump-msg-tables [options] <module>")
	fmt.Println("\nOptions:")
	fmt.Println("  -r <identifier>  dump a single resource; #123 selects an ordinal, anything else a name")
	fmt.Println("  -list            list message table resource identifiers without decoding")
	fmt.Println("  -resources       summarize every resource type present in the module")
	fmt.Println("  -v               verbose mode: log module and resource lookups to stderr")
	fmt.Println("\nOutput is one line per message: the hexadecimal ID, a colon, and the text.")
	fmt.Println("\nExamples:")
	fmt.Println("  dump-msg-tables C:\\Windows\\System32\\netmsg.dll")
	fmt.Println("  dump-msg-tables -r \"#1\" netmsg.dll")
	fmt.Println("  dump-msg-tables -r CUSTOM mymodule.dll")
	fmt.Println("  dump-msg-tables -list kernel32.dll")
	fmt.Println("  dump-msg-tables -resources shell32.dll")
	fmt.Println()
}
