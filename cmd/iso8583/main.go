// Command iso8583 packs, unpacks, serves and sends EBCDIC ISO 8583 messages.
//
//	iso8583 pack    [flags] [message.yaml]   YAML message to ByteText
//	iso8583 unpack  [flags] [text]           ByteText to YAML message
//	iso8583 serve   [flags]                  TCP responder
//	iso8583 send    [flags] [message.yaml]   send one message, print the reply
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	iso8583 "github.com/mkadit/iso8583ebcdic"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return errors.New("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "pack":
		return runPack(rest, stdin, stdout)
	case "unpack":
		return runUnpack(rest, stdin, stdout)
	case "serve":
		return runServe(rest)
	case "send":
		return runSend(rest, stdin, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return errors.Errorf("unknown command %q", cmd)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: iso8583 <pack|unpack|serve|send> [flags]")
}

// messageDoc is the YAML form of a message used on the command line.
type messageDoc struct {
	MTI      string         `yaml:"mti"`
	Fields   map[int]string `yaml:"fields"`
	Trailing string         `yaml:"trailing,omitempty"`
}

func (d *messageDoc) toMessage() (*iso8583.Message, error) {
	b := iso8583.NewBuilder().MTI(d.MTI)
	defer b.Release()
	for n, v := range d.Fields {
		b.Field(n, v)
	}
	return b.Build()
}

func docFromMessage(m *iso8583.Message) *messageDoc {
	return &messageDoc{
		MTI:      m.MTI(),
		Fields:   m.Fields(),
		Trailing: m.Trailing(),
	}
}

// codecFlags are shared by every command that builds a packager.
type codecFlags struct {
	catalog     string
	prefix      int
	asciiFields []int
	lenient     bool
}

func (f *codecFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.catalog, "catalog", "", "field catalog file (.yaml or .json); default catalog when empty")
	fs.IntVar(&f.prefix, "prefix", 0, "length prefix size in bytes")
	fs.IntSliceVar(&f.asciiFields, "ascii", nil, "fields whose text is carried as raw code points")
	fs.BoolVar(&f.lenient, "lenient", false, "keep trailing data instead of failing")
}

func (f *codecFlags) packager() (*iso8583.Packager, error) {
	catalog, err := loadCatalog(f.catalog)
	if err != nil {
		return nil, err
	}
	opts := []iso8583.PackagerOption{iso8583.WithLengthPrefix(f.prefix)}
	if len(f.asciiFields) > 0 {
		opts = append(opts, iso8583.WithASCIIFields(f.asciiFields...))
	}
	if f.lenient {
		opts = append(opts, iso8583.WithLenientTrailer())
	}
	return iso8583.NewPackager(catalog, opts...)
}

func runPack(args []string, stdin io.Reader, stdout io.Writer) error {
	var cf codecFlags
	fs := pflag.NewFlagSet("pack", pflag.ContinueOnError)
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := readMessageDoc(fs.Args(), stdin)
	if err != nil {
		return err
	}
	p, err := cf.packager()
	if err != nil {
		return err
	}
	msg, err := doc.toMessage()
	if err != nil {
		return err
	}
	defer msg.Release()

	text, err := p.PackFrame(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, text)
	return err
}

func runUnpack(args []string, stdin io.Reader, stdout io.Writer) error {
	var cf codecFlags
	fs := pflag.NewFlagSet("unpack", pflag.ContinueOnError)
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var text string
	if fs.NArg() > 0 {
		text = fs.Arg(0)
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return errors.Wrap(err, "failed to read input")
		}
		text = string(data)
	}
	p, err := cf.packager()
	if err != nil {
		return err
	}
	msg, err := p.Unpack(strings.TrimSpace(text))
	if err != nil {
		return err
	}
	defer msg.Release()
	return writeMessageDoc(stdout, msg)
}

func readMessageDoc(args []string, stdin io.Reader) (*messageDoc, error) {
	var (
		data []byte
		err  error
	)
	if len(args) > 0 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read message")
	}
	doc := &messageDoc{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse message")
	}
	return doc, nil
}

func writeMessageDoc(w io.Writer, m *iso8583.Message) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docFromMessage(m)); err != nil {
		return err
	}
	return enc.Close()
}

func atoiAll(values []string) ([]int, error) {
	out := make([]int, 0, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid field number %q", v)
		}
		out = append(out, n)
	}
	return out, nil
}
