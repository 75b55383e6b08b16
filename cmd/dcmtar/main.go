// Command dcmtar concatenates or extracts DICOM files.
//
// Only extraction is implemented: a Siemens mosaic frame is split into one
// file per slice, each one with its own Image Position (Patient).
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/image/tiff"

	"github.com/mdouchement/dcmpix"
	"github.com/mdouchement/dcmpix/internal/part10"
)

const version = "1.0.0"

type options struct {
	input   string
	output  string
	mosaic  bool
	pattern string
	images  int
	preview bool
	json    bool

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
	fs := pflag.NewFlagSet("dcmtar", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.input, "input", "i", "", "DICOM filename")
	fs.StringVarP(&opts.output, "output", "o", "", "DICOM filename")
	fs.BoolVarP(&opts.mosaic, "mosaic", "M", false, "Split SIEMENS Mosaic image into multiple frames.")
	fs.StringVarP(&opts.pattern, "pattern", "p", "", "Specify trailing file pattern.")
	fs.IntVarP(&opts.images, "mosaic-images", "n", 0, "Number of images in the mosaic, when the private tag is missing.")
	fs.BoolVar(&opts.preview, "preview", false, "Also write a TIFF preview of each slice.")
	fs.BoolVar(&opts.json, "log-json", false, "print logs as JSON records.")
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
	if fs.NArg() > 0 {
		usage(stdout, fs)
		return 1
	}
	if opts.version {
		printVersion(stdout)
		return 0
	}
	if opts.help {
		usage(stdout, fs)
		return 0
	}
	if opts.input == "" || opts.output == "" {
		usage(stdout, fs)
		return 1
	}

	logger := newLogger(opts, stderr)
	defer logger.Sync()

	if !opts.mosaic {
		fmt.Fprintln(stderr, "Not implemented for now")
		return 1
	}
	if err := extractMosaic(opts, logger); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func extractMosaic(opts options, logger *zap.SugaredLogger) error {
	file, err := part10.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("could not read: %s: %v", opts.input, err)
	}
	img, err := file.Image()
	if err != nil {
		return fmt.Errorf("could not read: %s: %v", opts.input, err)
	}
	if !img.PixelFormat.Validate() {
		logger.Warnf("illegal pixel format, assuming %s", img.PixelFormat.ScalarType())
	}

	n := opts.images
	if n == 0 {
		var ok bool
		if n, ok = file.NumberOfImagesInMosaic(); !ok {
			return fmt.Errorf("could not split %s: number of images in mosaic is unknown", opts.input)
		}
	}
	if !file.IsMosaic() {
		logger.Warnf("%s is not flagged as MOSAIC", opts.input)
	}

	if img.TransferSyntax.IsEncapsulated() || img.TransferSyntax.IsBigEndian() {
		filter := dcmpix.NewChangeTransferSyntax(dcmpix.ExplicitVRLittleEndian)
		filter.SetLogger(logger)
		if img, err = filter.Change(img); err != nil {
			return fmt.Errorf("could not decompress %s: %v", opts.input, err)
		}
	}

	splitter := dcmpix.NewMosaicSplitter(n)
	splitter.SetLogger(logger)
	slices, err := splitter.Slices(img)
	if err != nil {
		return fmt.Errorf("could not split %s: %v", opts.input, err)
	}

	fg := dcmpix.FilenameGenerator{
		Prefix:  opts.output,
		Pattern: opts.pattern,
		Count:   len(slices),
	}
	if err := fg.Generate(); err != nil {
		return fmt.Errorf("could not generate: %v", err)
	}

	for i, slice := range slices {
		name, _ := fg.Filename(i)
		out := &part10.File{
			Meta:    file.Meta.Clone(),
			Dataset: file.Dataset.Clone(),
		}
		out.Meta.SetString(part10.TagSourceApplicationEntityTitle, "AE", "dcmtar")
		out.SetImage(slice)
		if err := part10.WriteFile(name, out); err != nil {
			return fmt.Errorf("failed to write: %s: %v", name, err)
		}
		logger.Debugf("slice %d written to %s", i, name)

		if opts.preview {
			if err := writePreview(name+".tiff", slice); err != nil {
				return fmt.Errorf("failed to write preview: %s: %v", name, err)
			}
		}
	}
	return nil
}

func writePreview(name string, slice *dcmpix.Image) (err error) {
	m, err := slice.Preview(0)
	if err != nil {
		return err
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return tiff.Encode(f, m, &tiff.Options{Compression: tiff.Deflate})
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
	if opts.json {
		return dcmpix.NewJSONLogger(level, zapcore.AddSync(w))
	}
	return dcmpix.NewConsoleLogger(level, zapcore.AddSync(w))
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "dcmtar: dcmpix %s\n", version)
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	printVersion(w)
	fmt.Fprintln(w, "Usage: dcmtar [OPTION] [FILE]")
	fmt.Fprintln(w, "Concatenate/Extract DICOM files.")
	fmt.Fprintln(w, "Parameter (required):")
	fmt.Fprintln(w, "  -i --input     DICOM filename")
	fmt.Fprintln(w, "  -o --output    DICOM filename")
	fmt.Fprintln(w, "Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
