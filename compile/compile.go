// Package compile drives the whole pipeline: discover manufacturer documents,
// validate them, run the target builders, and write the output tree. Each
// document is processed independently; the only shared resource is the output
// directory, and every document writes only under its own manufacturer path.
package compile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	heatpump "github.com/Warm-Energy/Heat-Pump-Modbus-Database"
	"github.com/Warm-Energy/Heat-Pump-Modbus-Database/esphome"
	"github.com/Warm-Energy/Heat-Pump-Modbus-Database/homeassistant"
	"github.com/Warm-Energy/Heat-Pump-Modbus-Database/yamlout"
)

// ToolName appears in generated-file headers.
const ToolName = "heatpumpc"

// ErrNoDocuments reports a source tree with nothing to compile.
var ErrNoDocuments = errors.New("compile: no register documents found")

// Options configures a pipeline run.
type Options struct {
	// Source is the directory tree holding one JSON document per manufacturer.
	Source string
	// Out is the root of the generated output tree.
	Out string
	// ESPHomeOnly skips the Home Assistant target.
	ESPHomeOnly bool
	// Clean removes the output tree before building.
	Clean bool
	// Now stamps generated headers; defaults to time.Now. Injected so tests
	// get reproducible output.
	Now func() time.Time
	// Diag receives per-document diagnostics and the summary; defaults to
	// os.Stdout.
	Diag io.Writer
	// Log receives operational events; defaults to a discarding logger.
	Log *slog.Logger
}

func (o *Options) fill() {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Diag == nil {
		o.Diag = os.Stdout
	}
	if o.Log == nil {
		o.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Discover lists every register document under src, sorted for reproducible
// processing order. A missing source directory is a fatal condition distinct
// from per-document diagnostics.
func Discover(src string) ([]string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("compile: source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("compile: source %s is not a directory", src)
	}
	var docs []string
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			docs = append(docs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("compile: walking %s: %w", src, err)
	}
	sort.Strings(docs)
	return docs, nil
}

// ValidateAll validates every discovered document, printing all diagnostics
// before the summary. It reports true iff no document produced an error.
func ValidateAll(opts Options) (bool, error) {
	opts.fill()
	docs, err := Discover(opts.Source)
	if err != nil {
		return false, err
	}
	if len(docs) == 0 {
		return false, ErrNoDocuments
	}
	totalErrors, totalWarnings := 0, 0
	for _, path := range docs {
		raw, err := os.ReadFile(path)
		if err != nil {
			return false, fmt.Errorf("compile: reading %s: %w", path, err)
		}
		res := heatpump.Validate(raw, filepath.Base(path))
		printDiagnostics(opts.Diag, res)
		totalErrors += len(res.Errors)
		totalWarnings += len(res.Warnings)
	}
	if totalErrors == 0 {
		fmt.Fprintf(opts.Diag, "OK: %d documents, %d warnings\n", len(docs), totalWarnings)
		return true, nil
	}
	fmt.Fprintf(opts.Diag, "FAIL: %d documents, %d errors, %d warnings\n",
		len(docs), totalErrors, totalWarnings)
	return false, nil
}

// Run compiles every buildable document into the output tree. Documents with
// validation errors are reported and skipped; a read or parse failure aborts
// the run.
func Run(opts Options) error {
	opts.fill()
	docs, err := Discover(opts.Source)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return ErrNoDocuments
	}
	if opts.Clean {
		if err := Clean(opts.Out); err != nil {
			return err
		}
	}
	built, skipped := 0, 0
	for _, path := range docs {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("compile: reading %s: %w", path, err)
		}
		res := heatpump.Validate(raw, filepath.Base(path))
		printDiagnostics(opts.Diag, res)
		if parseFailed(res) {
			return fmt.Errorf("compile: %s: %s", path, res.Errors[0].Message)
		}
		if !res.Buildable() {
			skipped++
			continue
		}
		if err := buildOne(opts, path, res.Doc); err != nil {
			return err
		}
		built++
	}
	fmt.Fprintf(opts.Diag, "built %d documents, skipped %d\n", built, skipped)
	return nil
}

// Clean removes the generated output tree. Everything under it is regenerable
// from the source documents.
func Clean(out string) error {
	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("compile: cleaning %s: %w", out, err)
	}
	return nil
}

func buildOne(opts Options, path string, doc *heatpump.Document) error {
	manufacturer := strings.TrimSuffix(filepath.Base(path), ".json")

	if !opts.ESPHomeOnly {
		haDir := filepath.Join(opts.Out, manufacturer, "homeassistant")
		haText := yamlout.Serialize(homeassistant.Build(doc), yamlout.HomeAssistantStyle)
		if err := writeFile(filepath.Join(haDir, manufacturer+".yaml"), haText); err != nil {
			return err
		}
		opts.Log.Info("wrote home assistant config", "manufacturer", manufacturer)

		if unlock := homeassistant.BuildUnlock(doc); unlock != nil {
			text := yamlout.Serialize(unlock, yamlout.HomeAssistantStyle)
			name := manufacturer + "-unlock-automation.yaml"
			if err := writeFile(filepath.Join(haDir, name), text); err != nil {
				return err
			}
			opts.Log.Info("wrote unlock automation", "manufacturer", manufacturer)
		}
	}

	espDir := filepath.Join(opts.Out, manufacturer, "esphome")
	espText := header(opts.Now()) + yamlout.Serialize(esphome.Build(doc), yamlout.ESPHomeStyle)
	if err := writeFile(filepath.Join(espDir, manufacturer+".yaml"), espText); err != nil {
		return err
	}
	opts.Log.Info("wrote esphome config", "manufacturer", manufacturer)
	return nil
}

// header is the fixed three-line comment prefix on ESPHome output.
func header(now time.Time) string {
	return fmt.Sprintf("# Generated by %s\n# Do not edit; regenerate from the register database\n# %s\n",
		ToolName, now.UTC().Format(time.RFC3339))
}

func writeFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("compile: creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("compile: writing %s: %w", path, err)
	}
	return nil
}

func printDiagnostics(w io.Writer, res heatpump.Result) {
	for _, d := range res.Errors {
		fmt.Fprintf(w, "error: %s\n", d)
	}
	for _, d := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", d)
	}
}

func parseFailed(res heatpump.Result) bool {
	return len(res.Errors) == 1 && res.Errors[0].Code == heatpump.CodeParseError
}
