package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goopsie/anbFileTools/payload"
	"github.com/goopsie/anbFileTools/workspace"
)

var (
	codecName string
	toolPath  string
	workers   int
	exitDelay time.Duration
	help      bool
)

func init() {
	flag.StringVar(&codecName, "codec", "exec", "Texture codec: 'exec', 'lz4', or 'zstd'")
	flag.StringVar(&toolPath, "tool", "", "Path of the external extractor used by '-codec exec' (Default - include/wflz_extractor/extractor.exe next to this program)")
	flag.IntVar(&workers, "workers", 0, "Number of frames to (de)compress at once (Default - number of CPUs)")
	flag.DurationVar(&exitDelay, "exitDelay", 5*time.Second, "How long to keep the window open after an error")
	flag.BoolVar(&help, "help", false, "Print usage")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <file.anb | file.pak | unpacked dir>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}
}

func main() {
	if flag.NArg() != 1 {
		exit("Error: Please specify a target .anb or .pak file, or an unpacked directory.")
	}
	target := flag.Arg(0)

	info, err := os.Stat(target)
	if err != nil {
		exit(fmt.Sprintf("Error: The file '%s' was not found.", target))
	}
	opts := workspace.Options{
		Workers: workers,
		Logger:  log.New(os.Stdout, "Log: ", 0),
	}

	switch {
	case info.IsDir() && workspace.IsArchiveDir(target):
		fmt.Printf("Packing archive %s\n", target)
		out, err := workspace.PackArchive(target, opts)
		if err != nil {
			exit(err)
		}
		fmt.Printf("Program finished, wrote '%s'\n", out)
		return
	case !info.IsDir() && strings.EqualFold(filepath.Ext(target), ".pak"):
		fmt.Printf("Unpacking archive %s\n", target)
		dir, err := workspace.UnpackArchive(target, opts)
		if err != nil {
			exit(err)
		}
		fmt.Printf("Program finished, look inside '%s' folder.\n", dir)
		return
	}

	if (codecName == "exec" || codecName == "") && toolPath == "" {
		toolPath = defaultTool()
	}
	if opts.Codec, err = payload.New(codecName, toolPath); err != nil {
		exit(err)
	}

	if info.IsDir() {
		fmt.Printf("Packing %s\n", target)
		out, err := workspace.Pack(target, opts)
		if err != nil {
			exit(err)
		}
		fmt.Printf("Program finished, wrote '%s'\n", out)
		return
	}

	fmt.Printf("Unpacking %s\n", target)
	dir, err := workspace.Unpack(target, opts)
	if err != nil {
		exit(err)
	}
	fmt.Printf("Program finished, look inside '%s' folder.\n", dir)
}

// defaultTool is the extractor shipped alongside the executable.
func defaultTool() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(exe), "include", "wflz_extractor", "extractor.exe")
}

func exit(msg any) {
	fmt.Println(msg)
	fmt.Printf("Exiting in %s..\n", exitDelay)
	time.Sleep(exitDelay)
	os.Exit(1)
}
