package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"appleriscv/src/tools/socsim"
)

var helpFlag = flag.Bool("h", false, "get usage info")
var scriptFlag = flag.String("script", "", "script to run, - for stdin (required)")
var pngFlag = flag.String("png", "", "write the gpio waveform to this png file")
var linesFlag = flag.String("lines", "", "comma separated gpio lines to draw (default: every line used)")
var verbose = flag.Int("v", 0, "verbosity level: 0 runtime errors and warnings (default), 1 info, 2 debug")

func usage() {
	fmt.Fprintf(os.Stderr, "usage: socsim -script <file> [-png <out.png>]\n")
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	flag.Parse()
	if *helpFlag || *scriptFlag == "" {
		usage()
	}
	var in io.Reader = os.Stdin
	if *scriptFlag != "-" {
		f, err := os.Open(*scriptFlag)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer f.Close()
		in = f
	}

	r := socsim.NewRunner(os.Stdout, os.Stderr)
	level := []string{"warn", "info", "debug"}
	if *verbose >= len(level) {
		*verbose = len(level) - 1
	}
	if err := r.Exec("log " + level[*verbose]); err != nil {
		log.Fatalf("%v", err)
	}
	if *pngFlag != "" {
		r.Trace()
	}
	if err := r.Run(in); err != nil {
		log.Fatalf("%s: %v", *scriptFlag, err)
	}
	if *pngFlag == "" {
		return
	}
	if r.SoC == nil {
		log.Fatalf("%s: nothing ran, no waveform", *scriptFlag)
	}

	var lines []int
	if *linesFlag != "" {
		for _, s := range strings.Split(*linesFlag, ",") {
			l, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				log.Fatalf("bad line %q: %v", s, err)
			}
			lines = append(lines, l)
		}
	}
	out, err := os.Create(*pngFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := socsim.WritePNG(out, r.SoC.Trace, lines); err != nil {
		out.Close()
		log.Fatalf("%s: %v", *pngFlag, err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("wrote %s, %d cycles", *pngFlag, r.SoC.Cycles())
}
