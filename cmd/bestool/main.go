// Command bestool reprograms BES2300 chips over a serial port.
//
// Usage:
//
//	bestool [-v N] [-logtostderr] COMMAND [ARGUMENTS]
//
// Run bestool without arguments for the list of commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/golang/glog"
)

type tool struct {
	descr string
	run   func(ctx context.Context, cmd string, args []string) error
}

var tools = map[string]tool{
	"list-ports":  {listPortsDescr, listPorts},
	"monitor":     {monitorDescr, monitor},
	"info":        {infoDescr, info},
	"write-image": {writeImageDescr, writeImage},
	"read-image":  {readImageDescr, readImage},
	"erase":       {eraseDescr, erase},
}

func printToolList() {
	names := make([]string, 0, len(tools))
	maxLen := 0
	for name := range tools {
		names = append(names, name)
		if maxLen < len(name) {
			maxLen = len(name)
		}
	}
	sort.Strings(names)

	uw := os.Stderr
	fmt.Fprintf(uw, "Usage:\n  bestool [LOG FLAGS] COMMAND [ARGUMENTS]\n\n")
	fmt.Fprintf(uw, "Available commands:\n")
	for _, name := range names {
		fmt.Fprintf(uw, "  %-*s  %s\n", maxLen, name, tools[name].descr)
	}
	fmt.Fprintf(uw, "\nLog flags:\n")
	flag.PrintDefaults()
}

func main() {
	// Log to stderr unless -log_dir or -logtostderr=false says otherwise.
	_ = flag.Set("logtostderr", "true")
	flag.Usage = printToolList
	flag.Parse()
	defer glog.Flush()

	args := flag.Args()
	if len(args) == 0 {
		printToolList()
		os.Exit(2)
	}
	t, ok := tools[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "bestool: unknown command %q\n\n", args[0])
		printToolList()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := t.run(ctx, args[0], args[1:]); err != nil {
		glog.Errorf("%s: %v", args[0], err)
		glog.Flush()
		os.Exit(1)
	}
}
