// dyndump decodes binary values with a schema recorded from the type that
// wrote them, and prints the result as text, JSON or YAML.
//
// The schema comes from a file (--schema) or travels with the payload in an
// envelope (--envelope). With --stream the input is read as back-to-back
// values until it ends.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/oy3o/dyncodec"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

// usageError marks a bad command line; it exits with status 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }
func (e *usageError) ExitCode() int { return 2 }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type options struct {
	schemaPath  string
	envelope    bool
	fingerprint string
	input       string
	compression string
	skip        int64
	byteOrder   string
	limit       int64
	stream      bool
	format      string
	showSchema  bool
	verbose     bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("dyndump", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.schemaPath, "schema", "s", "", "schema file (.json, .jsonc or .cbor)")
	flagSet.BoolVarP(&opts.envelope, "envelope", "e", false, "input is an envelope carrying its own schema")
	flagSet.StringVar(&opts.fingerprint, "fingerprint", "", "expected schema fingerprint (hex); decoding stops on mismatch")
	flagSet.StringVarP(&opts.input, "input", "i", "-", "input file, - for stdin")
	flagSet.StringVarP(&opts.compression, "compression", "c", compressionNone, "input compression: none, zstd or lz4")
	flagSet.Int64Var(&opts.skip, "skip", 0, "bytes to skip after decompression, such as a file header")
	flagSet.StringVar(&opts.byteOrder, "byte-order", "le", "payload byte order: le or be")
	flagSet.Int64Var(&opts.limit, "limit", 0, "maximum bytes per value, 0 for no limit")
	flagSet.BoolVar(&opts.stream, "stream", false, "decode back-to-back values until the input ends")
	flagSet.StringVarP(&opts.format, "format", "f", "text", "output format: text, json or yaml")
	flagSet.BoolVar(&opts.showSchema, "show-schema", false, "print the schema and its fingerprint before the values")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return &usageError{msg: err.Error()}
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return usageErrorf("unexpected argument: %s", rest[0])
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	return dump(&opts, stdin, stdout, logger)
}

func (o *options) validate() (dyncodec.Config, error) {
	config := dyncodec.DefaultConfig.WithLimit(o.limit)
	switch o.byteOrder {
	case "le":
	case "be":
		config = config.WithByteOrder(dyncodec.BE)
	default:
		return config, usageErrorf("unknown byte order %q (want le or be)", o.byteOrder)
	}
	switch o.format {
	case "text", "json", "yaml":
	default:
		return config, usageErrorf("unknown format %q (want text, json or yaml)", o.format)
	}
	if o.limit < 0 {
		return config, usageErrorf("--limit must not be negative")
	}
	if o.skip < 0 {
		return config, usageErrorf("--skip must not be negative")
	}
	if o.envelope == (o.schemaPath != "") {
		return config, usageErrorf("exactly one of --schema and --envelope is required")
	}
	if o.envelope && o.stream {
		return config, usageErrorf("--stream cannot be combined with --envelope")
	}
	return config, nil
}

func dump(opts *options, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	config, err := opts.validate()
	if err != nil {
		return err
	}
	var want dyncodec.Fingerprint
	if opts.fingerprint != "" {
		if want, err = dyncodec.ParseFingerprint(opts.fingerprint); err != nil {
			return usageErrorf("--fingerprint: %v", err)
		}
	}

	raw, closeInput, err := openInput(opts.input, stdin)
	if err != nil {
		return err
	}
	defer closeInput()
	input, closeDecoder, err := decompress(raw, opts.compression)
	if err != nil {
		return err
	}
	defer closeDecoder()
	if opts.skip > 0 {
		if _, err := dyncodec.Discard(input, opts.skip); err != nil {
			return fmt.Errorf("skipping %d bytes: %w", opts.skip, err)
		}
		logger.Debug("skipped header", "bytes", opts.skip)
	}

	out := newPrinter(stdout, opts.format)
	defer out.close()

	if opts.envelope {
		data, err := io.ReadAll(input)
		if err != nil {
			return fmt.Errorf("reading envelope: %w", err)
		}
		envelope, err := dyncodec.ParseEnvelope(data)
		if err != nil {
			return err
		}
		if !want.IsZero() && envelope.Fingerprint != want {
			return fmt.Errorf("%w: envelope has %s, want %s", dyncodec.ErrSchemaMismatch, envelope.Fingerprint, want)
		}
		logger.Debug("envelope parsed", "fingerprint", envelope.Fingerprint, "payload_bytes", len(envelope.Payload))
		if opts.showSchema {
			out.schema(envelope.Schema)
		}
		value, err := envelope.Open()
		if err != nil {
			return err
		}
		return out.value(value)
	}

	schema, err := loadSchema(opts.schemaPath)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	fingerprint := schema.Fingerprint()
	logger.Debug("schema loaded", "path", opts.schemaPath, "schema", schema.String(), "fingerprint", fingerprint)
	if !want.IsZero() && fingerprint != want {
		return fmt.Errorf("%w: %s hashes to %s, want %s", dyncodec.ErrSchemaMismatch, opts.schemaPath, fingerprint, want)
	}
	if opts.showSchema {
		out.schema(schema)
	}

	if !opts.stream {
		value, err := config.DecodeDynamic(schema, input)
		if err != nil {
			return err
		}
		return out.value(value)
	}

	stream, err := config.NewStream(schema, input)
	if err != nil {
		return err
	}
	for value, err := range stream.Values() {
		if err != nil {
			return fmt.Errorf("value %d: %w", stream.Count(), err)
		}
		if err := out.value(value); err != nil {
			return err
		}
	}
	logger.Debug("stream finished", "values", stream.Count(), "bytes", stream.Offset())
	return nil
}

// printer writes values in one output format.
type printer struct {
	w      io.Writer
	format string
	json   *json.Encoder
	yaml   *yaml.Encoder
}

func newPrinter(w io.Writer, format string) *printer {
	p := &printer{w: w, format: format}
	switch format {
	case "json":
		p.json = json.NewEncoder(w)
	case "yaml":
		p.yaml = yaml.NewEncoder(w)
		p.yaml.SetIndent(2)
	}
	return p
}

// close ends the YAML stream. Values already written are unaffected by
// its error.
func (p *printer) close() {
	if p.yaml != nil {
		p.yaml.Close()
	}
}

func (p *printer) schema(s *dyncodec.Schema) {
	fmt.Fprintf(p.w, "# schema %s\n# fingerprint %s\n", s, s.Fingerprint())
}

func (p *printer) value(v dyncodec.Value) error {
	switch p.format {
	case "json":
		return p.json.Encode(v)
	case "yaml":
		return p.yaml.Encode(dyncodec.YAMLNode(v))
	}
	_, err := fmt.Fprintln(p.w, dyncodec.FormatValue(v))
	return err
}
