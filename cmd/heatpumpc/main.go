// Command heatpumpc compiles heat-pump Modbus register databases into Home
// Assistant and ESPHome configuration files.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Warm-Energy/Heat-Pump-Modbus-Database/compile"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "validate":
		validateCmd(os.Args[2:])
	case "build":
		buildCmd(os.Args[2:], false)
	case "build-esphome":
		buildCmd(os.Args[2:], true)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "heatpumpc\n\nUsage:\n  heatpumpc validate -src <dir>\n  heatpumpc build -src <dir> -out <dir> [-clean]\n  heatpumpc build-esphome -src <dir> -out <dir> [-clean]")
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	src := fs.String("src", "database", "directory of register documents")
	verbose := fs.Bool("v", false, "verbose logging")
	_ = fs.Parse(args)

	ok, err := compile.ValidateAll(compile.Options{
		Source: *src,
		Log:    newLogger(*verbose),
	})
	if err != nil {
		fatalf("validate: %v", err)
	}
	if !ok {
		os.Exit(1)
	}
}

func buildCmd(args []string, esphomeOnly bool) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	src := fs.String("src", "database", "directory of register documents")
	out := fs.String("out", "generated", "output directory")
	clean := fs.Bool("clean", false, "wipe the output directory first")
	verbose := fs.Bool("v", false, "verbose logging")
	_ = fs.Parse(args)

	err := compile.Run(compile.Options{
		Source:      *src,
		Out:         *out,
		ESPHomeOnly: esphomeOnly,
		Clean:       *clean,
		Log:         newLogger(*verbose),
	})
	if err != nil {
		fatalf("build: %v", err)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
