// Command dcmconv rewrites the pixel data of a DICOM file with another
// transfer syntax.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mdouchement/dcmpix"
	"github.com/mdouchement/dcmpix/internal/part10"
)

const version = "1.0.0"

type options struct {
	input  string
	output string

	raw          bool
	bigEndian    bool
	deflate      bool
	rle          bool
	jpeg         bool
	jpegls       bool
	j2k          bool
	force        bool
	compressIcon bool

	rates        []float64
	qualities    []float64
	tile         string
	resolutions  int
	irreversible bool

	verbose bool
	warning bool
	debug   bool
	errors  bool
	help    bool
	version bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := pflag.NewFlagSet("dcmconv", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.input, "input", "i", "", "DICOM filename")
	fs.StringVarP(&opts.output, "output", "o", "", "DICOM filename")
	fs.BoolVarP(&opts.raw, "raw", "w", false, "Decompress to Explicit VR Little Endian.")
	fs.BoolVarP(&opts.bigEndian, "explicit-big-endian", "B", false, "Decompress to Explicit VR Big Endian.")
	fs.BoolVar(&opts.deflate, "deflate", false, "Decompress to Deflated Explicit VR Little Endian.")
	fs.BoolVarP(&opts.rle, "rle", "R", false, "Compress with RLE Lossless.")
	fs.BoolVarP(&opts.jpeg, "jpeg", "J", false, "Compress with JPEG Lossless (SV1).")
	fs.BoolVarP(&opts.jpegls, "jpegls", "L", false, "Compress with JPEG-LS Lossless.")
	fs.BoolVarP(&opts.j2k, "j2k", "K", false, "Compress with JPEG 2000.")
	fs.BoolVarP(&opts.force, "force", "F", false, "Re-encode even when the transfer syntax already matches, inspect only without target.")
	fs.BoolVar(&opts.compressIcon, "compress-icon", false, "Compress the icon image too.")
	fs.Float64SliceVarP(&opts.rates, "rate", "r", nil, "JPEG 2000 compression ratio per quality layer.")
	fs.Float64SliceVarP(&opts.qualities, "quality", "q", nil, "JPEG 2000 quality (1-100) per quality layer.")
	fs.StringVarP(&opts.tile, "tile", "t", "", "JPEG 2000 tile size, e.g. 256,256.")
	fs.IntVarP(&opts.resolutions, "resolutions", "n", 6, "JPEG 2000 number of resolutions.")
	fs.BoolVar(&opts.irreversible, "irreversible", false, "JPEG 2000 9-7 irreversible wavelet.")
	fs.BoolVarP(&opts.verbose, "verbose", "V", false, "more verbose (warning+error).")
	fs.BoolVarP(&opts.warning, "warning", "W", false, "print warning info.")
	fs.BoolVarP(&opts.debug, "debug", "D", false, "print debug info.")
	fs.BoolVarP(&opts.errors, "error", "E", false, "print error info.")
	fs.BoolVarP(&opts.help, "help", "h", false, "print help.")
	fs.BoolVarP(&opts.version, "version", "v", false, "print version.")
	fs.Usage = func() { usage(stdout, fs) }

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if opts.version {
		fmt.Fprintf(stdout, "dcmconv: dcmpix %s\n", version)
		return 0
	}
	if opts.help {
		usage(stdout, fs)
		return 0
	}
	if fs.NArg() > 0 || opts.input == "" || (opts.output == "" && !opts.force) {
		usage(stdout, fs)
		return 1
	}

	logger := newLogger(opts, stderr)
	defer logger.Sync()

	if err := convert(opts, logger); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func convert(opts options, logger *zap.SugaredLogger) error {
	target, err := targetSyntax(opts)
	if err != nil {
		return err
	}

	file, err := part10.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("could not read: %s: %v", opts.input, err)
	}
	img, err := file.Image()
	if err != nil {
		return fmt.Errorf("could not read: %s: %v", opts.input, err)
	}

	codec := dcmpix.NewJPEG2000Codec()
	for layer, rate := range opts.rates {
		codec.SetRate(layer, rate)
	}
	for layer, quality := range opts.qualities {
		codec.SetQuality(layer, quality)
	}
	if opts.tile != "" {
		tx, ty, err := parseTile(opts.tile)
		if err != nil {
			return err
		}
		codec.SetTileSize(tx, ty)
	}
	codec.SetNumberOfResolutions(opts.resolutions)
	codec.SetReversible(!opts.irreversible)

	filter := dcmpix.NewChangeTransferSyntax(target)
	filter.Force = opts.force
	filter.CompressIconImage = opts.compressIcon
	filter.UserCodec = codec
	filter.SetLogger(logger)

	out, err := filter.Change(img)
	if err != nil {
		return fmt.Errorf("could not change the transfer syntax of %s: %v", opts.input, err)
	}
	if target == "" {
		logger.Infof("%s decoded successfully", opts.input)
		return nil
	}

	file.SetImage(out)
	if err := part10.WriteFile(opts.output, file); err != nil {
		return fmt.Errorf("failed to write: %s: %v", opts.output, err)
	}
	return nil
}

func targetSyntax(opts options) (dcmpix.TransferSyntax, error) {
	var targets []dcmpix.TransferSyntax
	if opts.raw {
		targets = append(targets, dcmpix.ExplicitVRLittleEndian)
	}
	if opts.bigEndian {
		targets = append(targets, dcmpix.ExplicitVRBigEndian)
	}
	if opts.deflate {
		targets = append(targets, dcmpix.DeflatedExplicitVRLittleEndian)
	}
	if opts.rle {
		targets = append(targets, dcmpix.RLELossless)
	}
	if opts.jpeg {
		targets = append(targets, dcmpix.JPEGLossless)
	}
	if opts.jpegls {
		targets = append(targets, dcmpix.JPEGLSLossless)
	}
	if opts.j2k {
		if opts.irreversible || len(opts.rates) > 0 || len(opts.qualities) > 0 {
			targets = append(targets, dcmpix.JPEG2000)
		} else {
			targets = append(targets, dcmpix.JPEG2000Lossless)
		}
	}

	switch len(targets) {
	case 0:
		if opts.force {
			return "", nil
		}
		return "", dcmpix.ConfigurationError("no target transfer syntax")
	case 1:
		return targets[0], nil
	default:
		return "", dcmpix.ConfigurationError("only one target transfer syntax can be selected")
	}
}

func parseTile(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, dcmpix.ConfigurationError(fmt.Sprintf("invalid tile size %q", s))
	}
	tx, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	ty, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || tx <= 0 || ty <= 0 {
		return 0, 0, dcmpix.ConfigurationError(fmt.Sprintf("invalid tile size %q", s))
	}
	return tx, ty, nil
}

func newLogger(opts options, w io.Writer) *zap.SugaredLogger {
	var level zapcore.Level
	switch {
	case opts.debug:
		level = zapcore.DebugLevel
	case opts.warning, opts.verbose:
		level = zapcore.WarnLevel
	case opts.errors:
		level = zapcore.ErrorLevel
	default:
		return zap.NewNop().Sugar()
	}
	return dcmpix.NewConsoleLogger(level, zapcore.AddSync(w))
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "dcmconv: dcmpix %s\n", version)
	fmt.Fprintln(w, "Usage: dcmconv [OPTION] -i input.dcm -o output.dcm")
	fmt.Fprintln(w, "Convert the pixel data of a DICOM file to another transfer syntax.")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
