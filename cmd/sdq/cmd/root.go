// Package cmd implements the sdq CLI front-end: a single cobra command
// (no subcommands — the grammar is `sdq [flags] EXPRESSION [FILE...]`)
// wiring the lexer/parser/eval/codec/render packages together.
package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aeden/sdq/internal/ast"
	"github.com/aeden/sdq/internal/codec"
	srcerrors "github.com/aeden/sdq/internal/errors"
	"github.com/aeden/sdq/internal/eval"
	"github.com/aeden/sdq/internal/lexer"
	"github.com/aeden/sdq/internal/parser"
	"github.com/aeden/sdq/internal/render"
	"github.com/aeden/sdq/internal/value"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	inputFormatFlag  string
	outputFormatFlag string
	inplace          bool
	nullInput        bool
	prettyPrint      bool
	forceColor       bool
	disableColor     bool
	indent           int
	unwrapScalar     bool
	fromFile         string
	noDoc            bool
	nulOutput        bool
	exitStatus       bool
	verbose          bool
)

var rootCmd = &cobra.Command{
	Use:   "sdq [flags] EXPRESSION [FILE...]",
	Short: "Query and transform YAML, JSON, and TOML documents",
	Long: `sdq evaluates a small, jq-like expression language against YAML, JSON,
or TOML documents, printing the matching values in the output format of
your choice.

Examples:
  sdq '.a.b[1]' doc.json
  sdq '.[] | select(.v > 1) | .n' data.yaml
  echo '{"count":5}' | sdq '.count |= . + 1'`,
	Version:           Version,
	Args:              cobra.ArbitraryArgs,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.RunE = runQuery

	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	flags := rootCmd.Flags()
	flags.StringVarP(&inputFormatFlag, "input-format", "p", "auto", "input format: auto, yaml, json, toml")
	flags.StringVarP(&outputFormatFlag, "output-format", "o", "auto", "output format: auto, yaml, json, toml")
	flags.BoolVarP(&inplace, "inplace", "i", false, "write result back to each input file atomically")
	flags.BoolVarP(&nullInput, "null-input", "n", false, "evaluate with null as input, skip reading input")
	flags.BoolVarP(&prettyPrint, "pretty-print", "P", false, "pretty-print JSON output (YAML is always block-style)")
	flags.BoolVarP(&forceColor, "color", "C", false, "force ANSI color output")
	flags.BoolVarP(&disableColor, "monochrome", "M", false, "disable ANSI color output")
	flags.IntVarP(&indent, "indent", "I", 0, "indentation width (default 2, or $SDQ_INDENT)")
	flags.BoolVarP(&unwrapScalar, "unwrap-scalar", "r", false, "print a top-level string result without quotes")
	flags.StringVar(&fromFile, "from-file", "", "read the expression from PATH instead of argv")
	flags.BoolVarP(&noDoc, "no-doc", "N", false, "suppress YAML document separators")
	flags.BoolVarP(&nulOutput, "nul-output", "0", false, "delimit multiple outputs with NUL instead of newline")
	flags.BoolVarP(&exitStatus, "exit-status", "e", false, "exit 1 if every output is null or false")
	flags.BoolVarP(&verbose, "verbose", "v", false, "diagnostic trace to stderr")
}

// diag writes a timestamped diagnostic line to stderr when -v is set.
func diag(format string, args ...any) {
	if !verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "[%s] "+format+"\n", append([]any{time.Now().Format("15:04:05.000")}, args...)...)
}

// exitError carries the process exit code a failure should produce:
// 1 for -e, 2 for a parse/eval error, 3 for I/O.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) ExitCode() int { return e.code }

func resolveColor() bool {
	if disableColor {
		return false
	}
	if forceColor {
		return true
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func resolveIndent() int {
	if indent > 0 {
		return indent
	}
	if env := os.Getenv("SDQ_INDENT"); env != "" {
		var n int
		if _, err := fmt.Sscanf(env, "%d", &n); err == nil && n > 0 {
			return n
		}
	}
	return 2
}

func resolveFormat(flagVal, filename string) (codec.Format, error) {
	f, err := codec.ParseFormat(flagVal)
	if err != nil {
		return codec.FormatAuto, err
	}
	if f != codec.FormatAuto {
		return f, nil
	}
	if filename != "" {
		return codec.DetectFromExtension(filename), nil
	}
	return codec.FormatYAML, nil
}

type docSource struct {
	name   string
	format codec.Format
	docs   []value.Value
}

func runQuery(_ *cobra.Command, args []string) error {
	exprSrc, files, err := resolveExpressionAndFiles(args)
	if err != nil {
		return err
	}
	if exprSrc == "" {
		if !nullInput {
			fmt.Fprintln(os.Stderr, rootCmd.UsageString())
			return &exitError{code: 2}
		}
		exprSrc = "."
	}

	useColor := resolveColor()
	diag("parsing expression %q", exprSrc)

	lx := lexer.New(exprSrc)
	p := parser.New(lx)
	expr, perrs := p.ParseExpression()
	if len(perrs) > 0 {
		for _, pe := range perrs {
			se := srcerrors.NewAt(srcerrors.ParseErrorKind, pe.Pos, pe.Message).WithSource(exprSrc, "<expression>")
			fmt.Fprintln(os.Stderr, se.Format(useColor))
		}
		return &exitError{code: 2}
	}

	sources, err := readSources(files)
	if err != nil {
		return err
	}

	opts := codec.Options{
		Indent:       resolveIndent(),
		Pretty:       prettyPrint,
		Color:        useColor,
		NoDoc:        noDoc,
		UnwrapScalar: unwrapScalar,
	}

	env := eval.NewEnv()
	allFalsy := true
	var stdoutChunks [][]byte

	for _, src := range sources {
		outs, evalErr := evalSource(expr, src, env, exprSrc, useColor)

		if evalErr != nil {
			return evalErr
		}
		for _, r := range outs {
			if r.Truthy() {
				allFalsy = false
			}
		}

		outFormat, ferr := resolveFormat(outputFormatFlag, src.name)
		if ferr != nil {
			return &exitError{code: 2, err: ferr}
		}
		if outputFormatFlag == "auto" || outputFormatFlag == "" {
			outFormat = src.format
		}

		// -0 delimits individual outputs with NUL, so each output value
		// is encoded as its own chunk; otherwise the source's outputs
		// are encoded together and the codec's own document separator
		// applies between them.
		groups := [][]value.Value{outs}
		if nulOutput {
			groups = make([][]value.Value, len(outs))
			for i, r := range outs {
				groups[i] = []value.Value{r}
			}
		}
		var encodedChunks [][]byte
		for _, group := range groups {
			encoded, eerr := codec.Encode(group, outFormat, opts)
			if eerr != nil {
				return &exitError{code: 2, err: eerr}
			}
			if useColor && outFormat != codec.FormatJSON {
				syntax := render.SyntaxYAML
				if outFormat == codec.FormatTOML {
					syntax = render.SyntaxTOML
				}
				encoded = []byte(render.Colorize(string(encoded), syntax))
			}
			encodedChunks = append(encodedChunks, bytes.TrimRight(encoded, "\n"))
		}

		if inplace && src.name != "<stdin>" && src.name != "<null>" {
			if werr := writeAtomic(src.name, bytes.Join(encodedChunks, []byte("\n"))); werr != nil {
				return &exitError{code: 3, err: werr}
			}
			diag("wrote %s in place", src.name)
			continue
		}
		stdoutChunks = append(stdoutChunks, encodedChunks...)
	}

	if !inplace {
		sep := []byte("\n")
		if nulOutput {
			sep = []byte{0}
		}
		os.Stdout.Write(bytes.Join(stdoutChunks, sep))
		if len(stdoutChunks) > 0 {
			os.Stdout.Write([]byte("\n"))
		}
	}

	if exitStatus && allFalsy {
		return &exitError{code: 1}
	}
	return nil
}

func resolveExpressionAndFiles(args []string) (string, []string, error) {
	if fromFile != "" {
		data, err := os.ReadFile(fromFile)
		if err != nil {
			return "", nil, &exitError{code: 3, err: fmt.Errorf("reading expression file: %w", err)}
		}
		return string(data), args, nil
	}
	if len(args) == 0 {
		return "", nil, nil
	}
	return args[0], args[1:], nil
}

func readSources(files []string) ([]docSource, error) {
	if nullInput {
		return []docSource{{name: "<null>", format: codec.FormatYAML, docs: []value.Value{value.Null()}}}, nil
	}
	if len(files) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, &exitError{code: 3, err: fmt.Errorf("reading stdin: %w", err)}
		}
		format, ferr := resolveFormat(inputFormatFlag, "")
		if ferr != nil {
			return nil, &exitError{code: 2, err: ferr}
		}
		docs, derr := codec.Decode(data, format)
		if derr != nil {
			return nil, &exitError{code: 2, err: derr}
		}
		return []docSource{{name: "<stdin>", format: format, docs: docs}}, nil
	}
	out := make([]docSource, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, &exitError{code: 3, err: fmt.Errorf("reading %s: %w", f, err)}
		}
		format, ferr := resolveFormat(inputFormatFlag, f)
		if ferr != nil {
			return nil, &exitError{code: 2, err: ferr}
		}
		docs, derr := codec.Decode(data, format)
		if derr != nil {
			return nil, &exitError{code: 2, err: derr}
		}
		out = append(out, docSource{name: f, format: format, docs: docs})
	}
	return out, nil
}

// evalSource runs expr against every document in src, returning the
// concatenated output sequence. A failure aborts the whole invocation
// unless -v is set, in which case other documents in the stream are
// still processed best-effort.
func evalSource(expr ast.Expression, src docSource, env *eval.Env, exprSrc string, useColor bool) ([]value.Value, error) {
	var outs []value.Value
	for _, doc := range src.docs {
		results, err := eval.Eval(expr, doc, env)
		if err != nil {
			printEvalError(err, exprSrc, useColor)
			if !verbose {
				return nil, &exitError{code: 2}
			}
			continue
		}
		outs = append(outs, results...)
	}
	return outs, nil
}

func printEvalError(err error, exprSrc string, useColor bool) {
	if se, ok := err.(*srcerrors.SourceError); ok {
		se.WithSource(exprSrc, "<expression>")
		fmt.Fprintln(os.Stderr, se.Format(useColor))
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
