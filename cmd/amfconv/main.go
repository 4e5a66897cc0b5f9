// Command amfconv converts YAML documents to AMF0, AMF3 or AMFX and back.
//
//	amfconv -mode encode -in value.yaml
//	amfconv -mode decode -in value.hex
//	amfconv -mode packet -in packet.hex
//	amfconv -mode remoting -destination EchoService -operation echo -in args.yaml
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/torresjeff/amf"
	"github.com/torresjeff/amf/amfx"
	"github.com/torresjeff/amf/config"
	"github.com/torresjeff/amf/internal/yamlvalue"
	"github.com/torresjeff/amf/rand"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	mode := flag.String("mode", "encode", "encode, decode, packet or remoting")
	in := flag.String("in", "-", "input file, - for standard input")
	destination := flag.String("destination", "", "remoting destination")
	operation := flag.String("operation", "", "remoting operation")
	flag.BoolVar(&config.Debug, "debug", config.Debug, "development logging at debug level")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	input, err := readInput(*in)
	if err != nil {
		logger.Fatal("reading input", zap.String("in", *in), zap.Error(err))
	}

	c := &converter{
		cfg:      cfg,
		logger:   logger,
		registry: newRegistry(cfg.Classes),
		out:      bufio.NewWriter(os.Stdout),
	}
	switch *mode {
	case "encode":
		err = c.encode(input)
	case "decode":
		err = c.decode(input)
	case "packet":
		err = c.packet(input)
	case "remoting":
		err = c.remoting(input, *destination, *operation)
	default:
		err = errors.Errorf("unknown mode %q", *mode)
	}
	if err == nil {
		err = c.out.Flush()
	}
	if err != nil {
		logger.Fatal(*mode+" failed", zap.String("format", cfg.Format), zap.Error(err))
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development || config.Debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	level := cfg.Level
	if config.Debug {
		level = "debug"
	}
	if err := zcfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}
	return zcfg.Build()
}

// newRegistry registers every configured class as a generic record.
func newRegistry(classes []string) *amf.Registry {
	r := amf.NewRegistry()
	for _, alias := range classes {
		r.Register(alias, amf.NewRecord)
	}
	return r
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

type converter struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *amf.Registry
	out      *bufio.Writer
}

func (c *converter) version() (uint8, error) {
	switch c.cfg.Format {
	case config.FormatAMF0:
		return amf.Version0, nil
	case config.FormatAMF3:
		return amf.Version3, nil
	}
	return 0, errors.Errorf("format %q has no binary version", c.cfg.Format)
}

// encode converts a YAML document into the configured format.
func (c *converter) encode(input []byte) error {
	v, err := yamlvalue.Parse(input)
	if err != nil {
		return err
	}
	if c.cfg.Format == config.FormatAMFX {
		e := amfx.NewEncoder()
		e.Logger = c.logger
		if err := e.WriteValue(v); err != nil {
			return err
		}
		_, err := fmt.Fprintln(c.out, e.Body())
		return err
	}

	version, err := c.version()
	if err != nil {
		return err
	}
	e, err := amf.NewEncoder(version)
	if err != nil {
		return err
	}
	e.Logger = c.logger
	if err := e.WriteValue(v); err != nil {
		return err
	}
	return c.writeBinary(e)
}

// decode converts one encoded value into a YAML document.
func (c *converter) decode(input []byte) error {
	var v amf.Value
	if c.cfg.Format == config.FormatAMFX {
		dec := amfx.Decoder{Registry: c.registry, Logger: c.logger}
		var err error
		if v, err = dec.ReadValue(string(input)); err != nil {
			return err
		}
	} else {
		version, err := c.version()
		if err != nil {
			return err
		}
		b, err := c.readBinary(input)
		if err != nil {
			return err
		}
		dec := amf.Decoder{Registry: c.registry, Logger: c.logger}
		if v, err = dec.DecodeVersion(b, version); err != nil {
			return err
		}
	}
	return c.writeYAML(v)
}

// packet lists the headers and messages of an AMF packet or the body of an AMFX document.
func (c *converter) packet(input []byte) error {
	if c.cfg.Format == config.FormatAMFX {
		dec := amfx.Decoder{Registry: c.registry, Logger: c.logger}
		resp, err := dec.ReadAmfxMessage(string(input))
		if err != nil {
			return err
		}
		return c.writeYAML(amf.NewObject(
			amf.Member{Key: "targetURI", Value: amf.String(resp.TargetURI)},
			amf.Member{Key: "responseURI", Value: amf.String(resp.ResponseURI)},
			amf.Member{Key: "message", Value: resp.Message},
		))
	}

	b, err := c.readBinary(input)
	if err != nil {
		return err
	}
	dec := amf.Decoder{Registry: c.registry, Logger: c.logger}
	p, err := dec.DecodePacket(b)
	if err != nil {
		return err
	}
	headers := amf.NewArray()
	for _, h := range p.Headers {
		headers.Items = append(headers.Items, amf.NewObject(
			amf.Member{Key: "name", Value: amf.String(h.Name)},
			amf.Member{Key: "mustUnderstand", Value: amf.Bool(h.MustUnderstand)},
			amf.Member{Key: "value", Value: h.Value},
		))
	}
	messages := amf.NewArray()
	for _, m := range p.Messages {
		messages.Items = append(messages.Items, amf.NewObject(
			amf.Member{Key: "targetURI", Value: amf.String(m.TargetURI)},
			amf.Member{Key: "responseURI", Value: amf.String(m.ResponseURI)},
			amf.Member{Key: "body", Value: m.Body},
		))
	}
	return c.writeYAML(amf.NewObject(
		amf.Member{Key: "version", Value: amf.Int(p.Version)},
		amf.Member{Key: "headers", Value: headers},
		amf.Member{Key: "messages", Value: messages},
	))
}

// remoting builds a remoting call whose arguments are the items of a YAML sequence.
func (c *converter) remoting(input []byte, destination, operation string) error {
	if destination == "" || operation == "" {
		return errors.New("remoting needs -destination and -operation")
	}
	v, err := yamlvalue.Parse(input)
	if err != nil {
		return err
	}
	var args []amf.Value
	switch v := v.(type) {
	case *amf.Array:
		args = v.Items
	case amf.Null:
	default:
		args = []amf.Value{v}
	}
	tid, err := rand.Uint32()
	if err != nil {
		return err
	}

	switch c.cfg.Format {
	case config.FormatAMFX:
		m, err := amfx.NewRemotingMessage(tid, destination, operation, args...)
		if err != nil {
			return err
		}
		text, err := amfx.EncodeMessage(m)
		if err != nil {
			return err
		}
		c.logger.Debug("remoting message", zap.String("messageId", m.MessageID), zap.String("clientId", m.ClientID))
		_, err = fmt.Fprintln(c.out, text)
		return err
	case config.FormatAMF0:
		e, err := amf.NewEncoder(amf.Version0)
		if err != nil {
			return err
		}
		e.Logger = c.logger
		err = e.WritePacket(nil, []amf.Message{{
			TargetURI:   destination + "." + operation,
			ResponseURI: fmt.Sprintf("/%d", tid),
			Body:        amf.NewArray(args...),
		}})
		if err != nil {
			return err
		}
		return c.writeBinary(e)
	}
	return errors.Errorf("remoting calls are written as %s or %s, not %s", config.FormatAMF0, config.FormatAMFX, c.cfg.Format)
}

func (c *converter) writeBinary(e *amf.Encoder) error {
	if c.cfg.Output == config.OutputBinary {
		_, err := e.WriteTo(c.out)
		return err
	}
	_, err := fmt.Fprintln(c.out, formatHexString(hex.EncodeToString(e.Bytes())))
	return err
}

func (c *converter) readBinary(input []byte) ([]byte, error) {
	if c.cfg.Output == config.OutputBinary {
		return input, nil
	}
	return parseHexString(string(input))
}

func (c *converter) writeYAML(v amf.Value) error {
	b, err := yamlvalue.Marshal(v)
	if err != nil {
		return err
	}
	_, err = c.out.Write(b)
	return err
}

// formatHexString groups a hex dump into bytes: "0a0b" becomes "[0a 0b]".
func formatHexString(hexString string) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, v := range hexString {
		if i != 0 && i%2 == 0 {
			sb.WriteString(" ")
		}
		sb.WriteRune(v)
	}
	sb.WriteString("]")
	return sb.String()
}

// parseHexString accepts hex digits with any brackets and whitespace, as written by formatHexString.
func parseHexString(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "parse hex input")
	}
	return b, nil
}
