package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"its-hmny.dev/jackc/pkg/jack"

	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
The Jack Compiler translates programs written in the Jack language, a higher-level
OOP language tailored for use with the Hack computer architecture, into VM modules
ready to be further translated into Hack assembly. Each class is compiled to its own
.vm file alongside the source.
`, "\n", " ")

var JackCompiler = cli.New(Description).
	// 'AsOptional()' allows more than one input (file or directory) to be given at once
	WithArg(cli.NewArg("inputs", "The source (.jack) file(s) or directory to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Println("ERROR: not enough arguments provided, use --help")
		return 1
	}

	var sources []string
	for _, input := range args {
		files, err := collectSources(input)
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			return 1
		}
		sources = append(sources, files...)
	}

	if len(sources) == 0 {
		fmt.Println("ERROR: no .jack files found in the given input(s)")
		return 1
	}

	status := 0
	for _, src := range sources {
		if err := compileFile(src); err != nil {
			fmt.Printf("ERROR: %s: %s\n", src, err)
			status = 1 // keep compiling the remaining files; report failure at the end
		}
	}
	return status
}

// collectSources resolves 'input' to the list of .jack files it names: itself if
// it is a single .jack file, or every .jack file directly inside it (not recursing
// into subdirectories) if it is a directory.
func collectSources(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, jack.NewIOError("cannot access %q: %v", input, err)
	}

	if !info.IsDir() {
		if filepath.Ext(input) != ".jack" {
			return nil, jack.NewIOError("%q is not a .jack file", input)
		}
		return []string{input}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, jack.NewIOError("cannot read directory %q: %v", input, err)
	}

	var sources []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jack" {
			continue
		}
		sources = append(sources, filepath.Join(input, entry.Name()))
	}
	return sources, nil
}

// compileFile compiles one Jack class file end to end, writing its sibling .vm
// file on success. The output file name is derived from the source file's base
// name; the class name used in the emitted code is the one the source declares.
func compileFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return jack.NewIOError("unable to read source file: %v", err)
	}

	stream, err := jack.NewTokenizer().Tokenize(content)
	if err != nil {
		return err
	}

	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".vm"
	output, err := os.Create(outPath)
	if err != nil {
		return jack.NewIOError("unable to create output file: %v", err)
	}
	defer output.Close()

	engine := jack.NewCompilationEngine(stream, output)
	if err := engine.Compile(); err != nil {
		os.Remove(outPath) // don't leave a half-written .vm file behind a failed compile
		return err
	}
	return nil
}

func main() { os.Exit(JackCompiler.Run(os.Args, os.Stdout)) }
