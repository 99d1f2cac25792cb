// packdump encodes and decodes binary values against a YAML schema.
//
//	packdump --schema record.yaml encode < value.yaml > value.bin
//	packdump --schema record.yaml decode --format json < value.bin
//
// encode reads YAML values and writes their binary form; decode reads binary values and prints them.
// With --stream, the input holds many values back to back (YAML documents for encode, concatenated encodings for decode).
package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/stewi1014/packing"
	"github.com/stewi1014/packing/encio"
	"github.com/stewi1014/packing/schema"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	schemaPath string
	inPath     string
	hex        bool
	format     string
	stream     bool
	verbose    bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("packdump", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.schemaPath, "schema", "s", "", "path to the YAML schema (required)")
	flagSet.StringVarP(&opts.inPath, "in", "i", "", "read input from this file instead of stdin")
	flagSet.BoolVar(&opts.hex, "hex", false, "binary data is hex text (decode input, encode output)")
	flagSet.StringVarP(&opts.format, "format", "f", "yaml", "decode output format: yaml, json or cbor")
	flagSet.BoolVar(&opts.stream, "stream", false, "input holds many values back to back")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug information to stderr")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) != 1 {
		printHelp(stderr, flagSet)
		return errors.New("want exactly one command: encode or decode")
	}
	if opts.schemaPath == "" {
		return errors.New("--schema is required")
	}

	logger := newLogger(stderr, opts.verbose)
	defer logger.Sync() //nolint:errcheck
	encio.SetLogger(logger)
	defer encio.SetLogger(nil)

	s, err := schema.Load(opts.schemaPath)
	if err != nil {
		return err
	}

	in := stdin
	if opts.inPath != "" {
		f, err := os.Open(opts.inPath)
		if err != nil {
			return errors.Wrap(err, "opening input")
		}
		defer f.Close()
		in = f
	}

	input, err := io.ReadAll(in)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}

	switch rest[0] {
	case "encode":
		return encode(s, input, stdout, opts, logger)
	case "decode":
		return decode(s, input, stdout, opts, logger)
	default:
		return errors.Errorf("unknown command %q", rest[0])
	}
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	config := zap.NewDevelopmentEncoderConfig()
	config.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(config), zapcore.AddSync(w), level)
	return zap.New(core).Named("packdump")
}

func encode(s *schema.Schema, input []byte, stdout io.Writer, opts options, logger *zap.Logger) error {
	dec := yaml.NewDecoder(bytes.NewReader(input))

	var out []byte
	for i := 0; ; i++ {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF && i > 0 {
				break
			}
			return errors.Wrapf(err, "reading value %v", i)
		}

		v, err := s.FromNode(&doc)
		if err != nil {
			return errors.Wrapf(err, "value %v", i)
		}

		// Values are marshalled before anything is written, so a failure never leaves half a value in the output.
		data, err := packing.Marshal[any](s, v)
		if err != nil {
			return errors.Wrapf(err, "encoding value %v", i)
		}
		logger.Debug("encoded value", zap.Int("index", i), zap.Int("bytes", len(data)))
		out = append(out, data...)

		if !opts.stream {
			break
		}
	}

	if opts.hex {
		_, err := fmt.Fprintln(stdout, hex.EncodeToString(out))
		return err
	}
	_, err := stdout.Write(out)
	return err
}

func decode(s *schema.Schema, input []byte, stdout io.Writer, opts options, logger *zap.Logger) error {
	data := input
	if opts.hex {
		var err error
		data, err = hex.DecodeString(strings.Join(strings.Fields(string(input)), ""))
		if err != nil {
			return errors.Wrap(err, "decoding hex input")
		}
	}

	if !opts.stream {
		v, err := packing.Unmarshal[any](s, data)
		if err != nil {
			return errors.Wrap(err, "decoding value")
		}
		return printValue(s, v, stdout, opts.format, true)
	}

	for pos, i := 0, 0; pos < len(data); i++ {
		v, next, err := packing.Unpack[any](s, data, pos)
		if err != nil {
			return errors.Wrapf(err, "decoding value %v at byte %v", i, pos)
		}
		logger.Debug("decoded value", zap.Int("index", i), zap.Int("offset", pos), zap.Int("bytes", next-pos))
		pos = next

		if err := printValue(s, v, stdout, opts.format, i == 0); err != nil {
			return err
		}
	}
	return nil
}

func printValue(s *schema.Schema, v any, w io.Writer, format string, first bool) error {
	switch format {
	case "yaml":
		out, err := s.FormatValue(v)
		if err != nil {
			return err
		}
		if !first {
			if _, err := io.WriteString(w, "---\n"); err != nil {
				return err
			}
		}
		_, err = w.Write(out)
		return err

	case "json":
		plain, err := s.ToPlain(v)
		if err != nil {
			return err
		}
		return json.NewEncoder(w).Encode(plain)

	case "cbor":
		plain, err := s.ToPlain(v)
		if err != nil {
			return err
		}
		out, err := cbor.Marshal(plain)
		if err != nil {
			return errors.Wrap(err, "encoding cbor")
		}
		_, err = w.Write(out)
		return err

	default:
		return errors.Errorf("unknown format %q", format)
	}
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `packdump encodes and decodes binary values against a YAML schema.

Usage:
  packdump --schema <file> [flags] encode|decode

Examples:
  # Encode a YAML value to hex
  packdump --schema record.yaml --hex encode < value.yaml

  # Decode concatenated records as JSON lines
  packdump --schema record.yaml --stream --format json decode < records.bin

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
