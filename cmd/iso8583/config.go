package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"

	iso8583 "github.com/mkadit/iso8583ebcdic"
	"github.com/mkadit/iso8583ebcdic/pkg/logger"
)

const defaultConfigFileName = "iso8583.yaml"

const (
	framingBinary = "binary"
	framingASCII  = "ascii"
	framingHex    = "hex"
)

// ServeConfig serve configuration
type ServeConfig struct {
	Logger  *LoggerConfig  `yaml:"Logger"`
	Server  *ServerConfig  `yaml:"Server"`
	Codec   *CodecConfig   `yaml:"Codec"`
	Runtime *RuntimeConfig `yaml:"Runtime"`
}

// LoggerConfig logger settings
type LoggerConfig struct {
	Level           string `yaml:"level" default:"info"`
	TimeFieldFormat string `yaml:"timeFieldFormat" default:"2006-01-02T15:04:05.000000"`
	PrettyPrint     *bool  `yaml:"prettyPrint" default:"false"`
	ErrorStack      *bool  `yaml:"errorStack" default:"true"`
	ShowCaller      *bool  `yaml:"showCaller" default:"false"`
	FileName        string `yaml:"fileName,omitempty" default:""`
}

// ServerConfig listener settings
type ServerConfig struct {
	Host            string `yaml:"host" default:"0.0.0.0"`
	Port            int    `yaml:"port" default:"8583"`
	Framing         string `yaml:"framing" default:"binary"`
	FramingLength   int    `yaml:"framingLength" default:"2"`
	Multicore       *bool  `yaml:"multicore" default:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout" default:"5s"`
}

// CodecConfig packager settings
type CodecConfig struct {
	CatalogFile        string   `yaml:"catalogFile,omitempty" default:""`
	LengthPrefixDigits *int     `yaml:"lengthPrefixDigits"`
	ASCIIFields        []string `yaml:"asciiFields,omitempty"`
	LenientTrailer     *bool    `yaml:"lenientTrailer" default:"false"`
	ResponseCode       string   `yaml:"responseCode" default:"00"`
}

// RuntimeConfig runtime settings
type RuntimeConfig struct {
	GoMaxProcs *int `yaml:"goMaxProcs"`
}

func (c *ServeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Logger, validation.Required),
		validation.Field(&c.Server, validation.Required),
		validation.Field(&c.Codec, validation.Required),
	)
}

func (c LoggerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error", "fatal", "disabled")),
	)
}

func (c ServerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Host, validation.Required, is.Host),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Framing, validation.Required, validation.In(framingBinary, framingASCII, framingHex)),
		validation.Field(&c.FramingLength, validation.Required, validation.In(2, 4)),
		validation.Field(&c.ShutdownTimeout, validation.By(func(interface{}) error {
			_, err := time.ParseDuration(c.ShutdownTimeout)
			return err
		})),
	)
}

func (c CodecConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ASCIIFields, validation.Each(is.Digit)),
		validation.Field(&c.ResponseCode, validation.Required, validation.Length(2, 2), is.Alphanumeric),
	)
}

func (c *LoggerConfig) toLogger() logger.Config {
	return logger.Config{
		Level:           c.Level,
		TimeFieldFormat: c.TimeFieldFormat,
		PrettyPrint:     *c.PrettyPrint,
		ErrorStack:      *c.ErrorStack,
		ShowCaller:      *c.ShowCaller,
		FileName:        c.FileName,
	}
}

func (c *ServerConfig) framing() (iso8583.LengthIndicatorConfig, error) {
	return parseFraming(c.Framing, c.FramingLength)
}

func (c *ServerConfig) shutdownTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

func parseFraming(name string, length int) (iso8583.LengthIndicatorConfig, error) {
	var t iso8583.LengthIndicatorType
	switch strings.ToLower(name) {
	case framingBinary:
		t = iso8583.LengthIndicatorBinary
	case framingASCII:
		t = iso8583.LengthIndicatorASCII
	case framingHex:
		t = iso8583.LengthIndicatorHex
	default:
		return iso8583.LengthIndicatorConfig{}, errors.Wrapf(iso8583.ErrInvalidIndicator, "unknown framing %q", name)
	}
	return iso8583.LengthIndicatorConfig{Type: t, Length: length}, nil
}

// codecOptions converts the codec section into packager options.
func (c *CodecConfig) codecOptions() ([]iso8583.PackagerOption, error) {
	var opts []iso8583.PackagerOption
	if c.LengthPrefixDigits != nil {
		opts = append(opts, iso8583.WithLengthPrefix(*c.LengthPrefixDigits))
	}
	if len(c.ASCIIFields) > 0 {
		nums, err := atoiAll(c.ASCIIFields)
		if err != nil {
			return nil, err
		}
		opts = append(opts, iso8583.WithASCIIFields(nums...))
	}
	if *c.LenientTrailer {
		opts = append(opts, iso8583.WithLenientTrailer())
	}
	return opts, nil
}

// loadCatalog reads a YAML or JSON catalog by extension. An empty path
// selects the default catalog.
func loadCatalog(path string) (*iso8583.MapCatalog, error) {
	if path == "" {
		return iso8583.DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog %s", path)
	}
	return parseCatalog(path, data)
}

func parseCatalog(path string, data []byte) (*iso8583.MapCatalog, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return iso8583.LoadCatalogJSON(data)
	}
	return iso8583.LoadCatalogYAML(data)
}
