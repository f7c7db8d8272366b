package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"classfile/internal/driver"
	"classfile/internal/logger"
	"classfile/pkg/color"
)

// Main entry point for the stack map generator.
func main() {
	options := driver.Driver{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.BoolVar(&options.KeepDead, "k", false, "Keep unreachable code instead of patching it")
	flag.BoolVar(&options.Static, "s", false, "Method is static")
	flag.StringVar(&options.ClassName, "c", "com/example/Main", "Internal name of the declaring class")
	flag.StringVar(&options.MethodName, "m", "main", "Method name")
	flag.StringVar(&options.MethodDesc, "d", "()V", "Method descriptor (e.g. (IJ)V)")
	flag.StringVar(&options.HierarchyFile, "t", "", "TOML class hierarchy file")
	flag.StringVar(&options.ManifestFile, "f", "", "TOML method manifest file")

	flag.Parse()
	args := flag.Args()

	logger.Init(options.Verbose, options.NoColor)
	if options.Help {
		fmt.Printf("Usage: %s [options] <file>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if options.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	options.SourceFile = args[0]

	err := options.Run()
	if err != nil {
		log.Fatal("Frame generation failed", "error", err)
	}
}
