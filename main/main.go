// Command tokdoc converts documents between the textual and binary
// formats, keeping aligned binary payloads intact in both directions.
package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	tokdoc "github.com/rawbytedev/tokdoc"
	"github.com/rawbytedev/tokdoc/pkg/bindoc"
	"github.com/rawbytedev/tokdoc/pkg/compress"
	"github.com/rawbytedev/tokdoc/pkg/compress/lz4"
	"github.com/rawbytedev/tokdoc/pkg/compress/snappy"
	"github.com/rawbytedev/tokdoc/pkg/compress/zstd"
	"github.com/rawbytedev/tokdoc/pkg/jsontext"
)

func main() {
	var (
		from    = flag.String("from", "json", "input format: json or bin")
		to      = flag.String("to", "bin", "output format: json or bin")
		in      = flag.String("in", "", "input file ('-' for stdin)")
		out     = flag.String("out", "", "output file ('-' for stdout)")
		codec   = flag.String("compress", "none", "binary payload codec: none, zstd, lz4 or snappy")
		min     = flag.Int("compress-min", 64, "smallest payload size worth compressing")
		higher  = flag.Bool("higher-alignment", false, "permit payload alignments above the buffer base")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	log := newLogger(*verbose)
	defer log.Sync()

	data, err := readInput(*in)
	if err != nil {
		log.Fatal("read input", zap.String("in", *in), zap.Error(err))
	}

	var value tokdoc.Value
	var set bool
	vis := tokdoc.ValueVisitor(&value, &set)
	switch *from {
	case "json":
		err = jsontext.UnmarshalOptions(data, vis, nil, jsontext.Options{Diagnostics: true})
	case "bin":
		err = bindoc.UnmarshalOptions(data, vis, nil, bindoc.Options{Diagnostics: true})
	default:
		log.Fatal("unknown input format", zap.String("from", *from))
	}
	if err != nil {
		log.Fatal("decode", zap.String("from", *from), zap.Error(err))
	}
	log.Debug("decoded", zap.String("from", *from), zap.Int("bytes", len(data)))

	var output []byte
	switch *to {
	case "json":
		output = jsontext.Marshal(value, nil)
	case "bin":
		opt := bindoc.Options{HigherAlignment: *higher, CompressMin: *min}
		if opt.Compressor, err = pickCodec(*codec); err != nil {
			log.Fatal("codec", zap.Error(err))
		}
		output = bindoc.MarshalOptions(value, nil, opt)
	default:
		log.Fatal("unknown output format", zap.String("to", *to))
	}

	if err := writeOutput(*out, output); err != nil {
		log.Fatal("write output", zap.String("out", *out), zap.Error(err))
	}
	log.Info("converted",
		zap.String("from", *from), zap.String("to", *to),
		zap.Int("in_bytes", len(data)), zap.Int("out_bytes", len(output)))
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}

func pickCodec(name string) (compress.Compressor, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return nil, nil
	case "zstd":
		return zstd.New(), nil
	case "lz4":
		return lz4.New(), nil
	case "snappy":
		return snappy.New(), nil
	}
	return nil, errors.New("unknown codec " + name)
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
