// Command nd2info inspects ND2 files from the command line.
//
// Usage:
//
//	nd2info info [-v] <file.nd2>                          Summary as JSON
//	nd2info chunks [-v] <file.nd2>                        Chunk map
//	nd2info tree [-v] [-strip] <file.nd2> <chunk>         Decoded metadata chunk as JSON
//	nd2info export [-v] [-p -t -c -z] -o out.tiff <file>  One plane as a 16-bit TIFF
//	nd2info verify [-v] <file.nd2>                        Read every chunk and frame
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Velocidex/ordereddict"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mdouchement/nd2"
	"github.com/mdouchement/nd2/clx"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "nd2info: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errors.New("missing command")
	}

	switch args[0] {
	case "info":
		return runInfo(args[1:], stdout)
	case "chunks":
		return runChunks(args[1:], stdout)
	case "tree":
		return runTree(args[1:], stdout)
	case "export":
		return runExport(args[1:], stdout)
	case "verify":
		return runVerify(args[1:], stdout)
	case "-h", "-help", "--help", "help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return errors.Errorf("unknown command %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  nd2info info <file.nd2>                 Summary as JSON
  nd2info chunks <file.nd2>               Chunk map
  nd2info tree <file.nd2> <chunk>         Decoded metadata chunk as JSON
  nd2info export -o out.tiff <file.nd2>   One plane as a 16-bit TIFF
  nd2info verify <file.nd2>               Read every chunk and frame

Run "nd2info <command> -h" for command-specific options.
`)
}

// command holds the flags shared by every subcommand.
type command struct {
	fs      *flag.FlagSet
	verbose *bool
}

func newCommand(name string) *command {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &command{
		fs:      fs,
		verbose: fs.Bool("v", false, "log decoding details to stderr"),
	}
}

func (c *command) parse(args []string, nargs int) error {
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if c.fs.NArg() < nargs {
		return errors.Errorf("%s: missing arguments", c.fs.Name())
	}
	return nil
}

func (c *command) logger() (*zap.Logger, error) {
	if !*c.verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

func (c *command) open() (*nd2.File, *zap.Logger, error) {
	logger, err := c.logger()
	if err != nil {
		return nil, nil, err
	}
	f, err := nd2.Open(c.fs.Arg(0), nd2.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return f, logger, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	p, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", p)
	return err
}

// --- info ---

func runInfo(args []string, w io.Writer) error {
	cmd := newCommand("info")
	if err := cmd.parse(args, 1); err != nil {
		return err
	}
	f, logger, err := cmd.open()
	if err != nil {
		return err
	}
	defer f.Close()
	defer logger.Sync()

	doc, err := summary(f)
	if err != nil {
		return err
	}
	return writeJSON(w, doc)
}

func summary(f *nd2.File) (*ordereddict.Dict, error) {
	major, minor := f.Version()
	doc := ordereddict.NewDict().Set("version", fmt.Sprintf("%d.%d", major, minor))

	a, err := f.Attributes()
	if err != nil {
		return nil, err
	}
	sizes, err := f.Sizes()
	if err != nil {
		return nil, err
	}
	order, err := f.AxisOrder()
	if err != nil {
		return nil, err
	}
	loops, err := f.Experiment()
	if err != nil {
		return nil, err
	}
	ti, err := f.TextInfo()
	if err != nil {
		return nil, err
	}

	return doc.
		Set("sizes", sizes).
		Set("axis_order", order).
		Set("attributes", a).
		Set("experiment", loops).
		Set("text_info", ti), nil
}

// --- chunks ---

func runChunks(args []string, w io.Writer) error {
	cmd := newCommand("chunks")
	if err := cmd.parse(args, 1); err != nil {
		return err
	}
	f, logger, err := cmd.open()
	if err != nil {
		return err
	}
	defer f.Close()
	defer logger.Sync()

	for _, c := range f.Chunks() {
		fmt.Fprintf(w, "%-40s %12d %12d\n", c.Name, c.Offset, c.Size)
	}
	return nil
}

// --- tree ---

func runTree(args []string, w io.Writer) error {
	cmd := newCommand("tree")
	strip := cmd.fs.Bool("strip", false, "strip the lower-case type prefix of names")
	if err := cmd.parse(args, 2); err != nil {
		return err
	}
	f, logger, err := cmd.open()
	if err != nil {
		return err
	}
	defer f.Close()
	defer logger.Sync()

	name := cmd.fs.Arg(1)
	p, err := f.ReadRawChunk(name)
	if err != nil {
		return err
	}

	d := clx.NewDecoder(clx.WithLogger(logger), clx.WithStripPrefix(*strip))
	v, err := d.Decode(p)
	if err != nil {
		return errors.Wrapf(err, "could not decode %s", name)
	}
	return writeJSON(w, v)
}

// --- export ---

func runExport(args []string, w io.Writer) error {
	cmd := newCommand("export")
	p := cmd.fs.Int("p", 0, "position index")
	t := cmd.fs.Int("t", 0, "time index")
	c := cmd.fs.Int("c", 0, "channel index")
	z := cmd.fs.Int("z", 0, "z index")
	output := cmd.fs.String("o", "", "output TIFF path")
	if err := cmd.parse(args, 1); err != nil {
		return err
	}
	if *output == "" {
		return errors.New("export: missing -o")
	}

	f, logger, err := cmd.open()
	if err != nil {
		return err
	}
	defer f.Close()
	defer logger.Sync()

	plane, err := f.ReadFrame2D(*p, *t, *c, *z)
	if err != nil {
		return err
	}

	out, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err = plane.WriteTIFF(out); err != nil {
		out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %dx%d plane (p=%d t=%d c=%d z=%d)\n", *output, plane.Width, plane.Height, *p, *t, *c, *z)
	return nil
}

// --- verify ---

func runVerify(args []string, w io.Writer) error {
	cmd := newCommand("verify")
	if err := cmd.parse(args, 1); err != nil {
		return err
	}
	f, logger, err := cmd.open()
	if err != nil {
		return err
	}
	defer f.Close()
	defer logger.Sync()

	err = f.Verify()
	if merr, ok := err.(*multierror.Error); ok {
		for _, e := range merr.Errors {
			fmt.Fprintf(w, "FAIL %v\n", e)
		}
		return errors.Errorf("%d errors", len(merr.Errors))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "OK %d chunks\n", len(f.Chunks()))
	return nil
}
