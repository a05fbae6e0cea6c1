package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/moffa90/go-bestool/beslink"
	"github.com/moffa90/go-bestool/image"
	"github.com/moffa90/go-bestool/serialport"
)

const (
	listPortsDescr  = "list serial ports"
	monitorDescr    = "print everything received on a serial port"
	infoDescr       = "load the programmer and print flash information"
	writeImageDescr = "burn a .bin or .hex image into flash"
	readImageDescr  = "read flash into a .bin or .hex file"
	eraseDescr      = "erase a flash region"
)

func newFlagSet(cmd, args, descr string) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  bestool %s [OPTIONS] %s\n\n%s\n\nOptions:\n",
			cmd, args, descr)
		fs.PrintDefaults()
	}
	return fs
}

func listPorts(ctx context.Context, cmd string, args []string) error {
	fs := newFlagSet(cmd, "", listPortsDescr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ports, err := serialport.List()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}

func monitor(ctx context.Context, cmd string, args []string) error {
	fs := newFlagSet(cmd, "PORT", monitorDescr)
	baud := fs.Int("baud", 115200, "baud rate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one serial port")
	}

	port, err := serialport.Open(fs.Arg(0), *baud, serialport.DefaultReadTimeout)
	if err != nil {
		return err
	}
	defer port.Close()

	glog.Infof("monitoring %s at %d baud, press Ctrl+C to stop", port.Name(), *baud)
	return serialport.Monitor(ctx, port, os.Stdout)
}

func info(ctx context.Context, cmd string, args []string) error {
	var lf linkFlags
	fs := newFlagSet(cmd, "", infoDescr)
	lf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, port, err := lf.connect(ctx)
	if err != nil {
		return err
	}
	defer port.Close()

	mi, err := sess.QueryMemoryInfo(ctx)
	if err != nil {
		return err
	}
	pi := sess.ProgrammerInfo()
	fmt.Printf("programmer: version 0x%04X, chunk %d bytes, %d baud\n",
		pi.Version, sess.ChunkSize(), sess.BaudRate())
	fmt.Printf("flash:      %s\n", mi)
	return nil
}

func writeImage(ctx context.Context, cmd string, args []string) error {
	var lf linkFlags
	fs := newFlagSet(cmd, "IMAGE", writeImageDescr+
		"\nRaw binaries are placed at -addr; Intel HEX files carry their own addresses.")
	lf.register(fs)
	addr := uint32Flag(0x3C000000)
	fs.Var(&addr, "addr", "flash address of a raw binary image")
	verify := fs.Bool("verify", true, "read the image back after burning")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one image file")
	}

	img, err := image.Load(fs.Arg(0), uint32(addr))
	if err != nil {
		return err
	}
	glog.Infof("image %s: %s", fs.Arg(0), img)

	sess, port, err := lf.connect(ctx, beslink.WithVerifyAfterBurn(*verify))
	if err != nil {
		return err
	}
	defer port.Close()

	return sess.Program(ctx, img)
}

func readImage(ctx context.Context, cmd string, args []string) error {
	var lf linkFlags
	fs := newFlagSet(cmd, "ADDR LENGTH FILE", readImageDescr+
		"\nFILE is written as Intel HEX when it ends in .hex, as raw binary otherwise.")
	lf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return fmt.Errorf("expected ADDR LENGTH FILE")
	}
	addr, err := parseUint32("address", fs.Arg(0))
	if err != nil {
		return err
	}
	length, err := parseUint32("length", fs.Arg(1))
	if err != nil {
		return err
	}

	sess, port, err := lf.connect(ctx)
	if err != nil {
		return err
	}
	defer port.Close()

	data, err := sess.ReadFlash(ctx, addr, int(length))
	if err != nil {
		return err
	}
	if err := image.Save(fs.Arg(2), addr, data); err != nil {
		return err
	}
	glog.Infof("saved %d bytes from 0x%08X to %s", len(data), addr, fs.Arg(2))
	return nil
}

func erase(ctx context.Context, cmd string, args []string) error {
	var lf linkFlags
	fs := newFlagSet(cmd, "ADDR LENGTH", eraseDescr)
	lf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("expected ADDR LENGTH")
	}
	addr, err := parseUint32("address", fs.Arg(0))
	if err != nil {
		return err
	}
	length, err := parseUint32("length", fs.Arg(1))
	if err != nil {
		return err
	}

	sess, port, err := lf.connect(ctx)
	if err != nil {
		return err
	}
	defer port.Close()

	return sess.EraseFlash(ctx, addr, int(length))
}
