package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"appleriscv/src/tools/uartdl"
)

var helpFlag = flag.Bool("h", false, "get usage info")
var sizeFlag = flag.Int("s", 0, "size of the instruction rom in KBytes (required)")
var fileFlag = flag.String("f", "", "rom image: verilog memory file, intel hex (.hex) or elf")
var boardFlag = flag.String("b", "", "fpga board, one of: "+strings.Join(uartdl.Boards(), ", "))
var portFlag = flag.String("port", "", "serial port to use instead of searching for the board")
var ptyFlag = flag.String("p", "", "supply a pseudo TTY to output to")
var baudFlag = flag.Int("baud", uartdl.DefaultBaud, "baud rate")
var baseFlag = flag.Uint64("base", uartdl.DefaultBase, "address of the rom in the image")
var testFlag = flag.Bool("t", false, "build and check the framed stream without sending it")
var verbose = flag.Int("v", 0, "verbosity level: 0 terse (default), 1 show progress")

func usage() {
	fmt.Fprintf(os.Stderr, "usage: uartdl -s <KB> -f <file> (-b <board> | -port <dev> | -p <pty>)\n")
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	flag.Parse()
	if *helpFlag || *sizeFlag <= 0 || *fileFlag == "" {
		usage()
	}
	im, err := uartdl.Load(*fileFlag, uint32(*baseFlag), *sizeFlag*1024)
	if err != nil {
		log.Fatalf("%s: %v", *fileFlag, err)
	}

	if *testFlag {
		framed := uartdl.Frame(im.Data)
		if _, err := uartdl.Unframe(framed); err != nil {
			log.Fatalf("framing check failed: %v", err)
		}
		log.Printf("%s: %d bytes framed to %d, not sent", *fileFlag, len(im.Data), len(framed))
		return
	}

	link, name := open()
	defer link.Close()

	var progress func(int, int)
	if *verbose > 0 {
		progress = func(sent, total int) {
			log.Printf("%s: %d/%d", name, sent, total)
		}
	}
	n, err := uartdl.Send(link, im, 4096, progress)
	if err != nil {
		log.Fatalf("%s: write failed after %d bytes: %v", name, n, err)
	}
	log.Printf("write %d of bytes", n)
}

func open() (io.WriteCloser, string) {
	switch {
	case *ptyFlag != "":
		l, err := uartdl.OpenTTY(*ptyFlag)
		if err != nil {
			log.Fatalf("%v", err)
		}
		return l, *ptyFlag
	case *portFlag == "" && *boardFlag == "":
		usage()
	}
	port := *portFlag
	if port == "" {
		var err error
		port, err = uartdl.FindPort(*boardFlag)
		if err != nil {
			log.Fatalf("%v", err)
		}
		log.Printf("Found Com Ports: %s", port)
	}
	l, err := uartdl.OpenSerial(port, *baudFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return l, port
}
