package driver

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"classfile/pkg/asm"
	"classfile/pkg/color"
	"classfile/pkg/constpool"
	"classfile/pkg/descriptor"
	"classfile/pkg/hierarchy"
	"classfile/pkg/stackmap"
)

type Driver struct {
	Help          bool   // Show help message
	Verbose       bool   // Enable verbose output
	NoColor       bool   // Disable colored output
	KeepDead      bool   // Keep unreachable code instead of patching it
	Static        bool   // Whether the method is static
	ClassName     string // Internal name of the declaring class
	MethodName    string // Name of the method under inspection
	MethodDesc    string // Method descriptor, e.g. "(IJ)V"
	HierarchyFile string // Path to a TOML class hierarchy file
	ManifestFile  string // Path to a TOML method manifest
	SourceFile    string // Path to the source file
}

// manifest mirrors the method manifest TOML layout:
//
//	class = "com/example/Main"
//	method = "loop"
//	descriptor = "(I)V"
//	static = true
//	hierarchy = "classes.toml"
type manifest struct {
	Class      string `toml:"class"`
	Method     string `toml:"method"`
	Descriptor string `toml:"descriptor"`
	Static     bool   `toml:"static"`
	Hierarchy  string `toml:"hierarchy"`
}

// loadManifest overrides the method options with values from a TOML manifest.
func (opts *Driver) loadManifest(path string) error {
	var m manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return fmt.Errorf("cannot read manifest %s: %w", path, err)
	}

	if m.Class != "" {
		opts.ClassName = m.Class
	}
	if m.Method != "" {
		opts.MethodName = m.Method
	}
	if m.Descriptor != "" {
		opts.MethodDesc = m.Descriptor
	}
	if m.Hierarchy != "" {
		opts.HierarchyFile = m.Hierarchy
	}
	if md.IsDefined("static") {
		opts.Static = m.Static
	}

	return nil
}

// Run assembles the source file, generates its stack map frames, and prints
// the frames together with the method limits.
func (opts *Driver) Run() error {
	log.Info("Processing file", "file", opts.SourceFile)

	if opts.ManifestFile != "" {
		if err := opts.loadManifest(opts.ManifestFile); err != nil {
			return err
		}
	}

	input, err := os.ReadFile(opts.SourceFile)
	if err != nil {
		log.Fatal("Failed to read file", "file", opts.SourceFile, "error", err)
	}

	pool := constpool.NewBuilder()
	p := asm.NewParser(asm.NewScanner(string(input)), pool)
	p.Parse()

	syntaxErrors := p.Errors()
	if len(syntaxErrors) > 0 {
		fmt.Println(color.BrightRedText("=== Syntax Errors ==="))
		for _, msg := range syntaxErrors {
			fmt.Println(msg)
		}
		return fmt.Errorf("assembly failed with %d errors", len(syntaxErrors))
	}

	code, handlers, err := p.Finish()
	if err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}

	resolver := hierarchy.NewStatic()
	if opts.HierarchyFile != "" {
		if err := resolver.LoadFile(opts.HierarchyFile); err != nil {
			return err
		}
	}

	cfg := stackmap.Config{
		ThisClass:  descriptor.FieldOfInternal(opts.ClassName),
		MethodName: opts.MethodName,
		MethodDesc: descriptor.Method(opts.MethodDesc),
		Static:     opts.Static,
		Code:       code,
		Handlers:   handlers,
		Pool:       pool,
		Oracle:     hierarchy.NewOracle(resolver),
	}

	gen := stackmap.New(cfg, stackmap.WithPatchDeadCode(!opts.KeepDead))
	if err := gen.Generate(); err != nil {
		return fmt.Errorf("frame generation failed: %w", err)
	}

	frames := gen.Frames()
	fmt.Println(color.GreenText("\n=== Stack Map Frames ==="))
	if len(frames) == 0 {
		fmt.Println(color.GrayText("No frames needed."))
	} else {
		for _, fr := range frames {
			fmt.Printf("%s: locals=[%s] stack=[%s]\n",
				color.CyanText(fmt.Sprintf("%d", fr.Offset())),
				color.BlueText(typeList(fr.Locals())),
				color.YellowText(typeList(fr.Stack())))
		}
	}

	fmt.Printf("%s %d\n", color.BoldText("max_stack:"), gen.MaxStack())
	fmt.Printf("%s %d\n", color.BoldText("max_locals:"), gen.MaxLocals())

	if opts.Verbose {
		fmt.Println(color.GreenText("\n=== Code ==="))
		fmt.Print(color.GrayText(hex.Dump(code)))

		body := gen.AttributeBody(pool)
		fmt.Println(color.GreenText("\n=== StackMapTable Body ==="))
		fmt.Print(color.GrayText(hex.Dump(body)))

		if _, err := stackmap.ReadTable(body, cfg); err != nil {
			return fmt.Errorf("attribute round trip failed: %w", err)
		}
	}

	return nil
}

func typeList(types []stackmap.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}

	return strings.Join(parts, ", ")
}
