package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/mkadit/iso8583ebcdic/adapter/client"
	"github.com/mkadit/iso8583ebcdic/pkg/logger"
)

func runSend(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		cf            codecFlags
		addr          string
		framing       string
		framingLength int
		timeout       time.Duration
		verbose       bool
	)
	fs := pflag.NewFlagSet("send", pflag.ContinueOnError)
	cf.register(fs)
	fs.StringVarP(&addr, "addr", "a", "127.0.0.1:8583", "server address")
	fs.StringVar(&framing, "framing", framingBinary, "length indicator: binary, ascii or hex")
	fs.IntVar(&framingLength, "framing-length", 2, "length indicator size in bytes")
	fs.DurationVarP(&timeout, "timeout", "t", 10*time.Second, "exchange timeout")
	fs.BoolVarP(&verbose, "verbose", "v", false, "log the exchange to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	indicator, err := parseFraming(framing, framingLength)
	if err != nil {
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
	req, err := doc.toMessage()
	if err != nil {
		return err
	}
	defer req.Release()

	log := logger.Nop()
	if verbose {
		log = logger.NewWriter(os.Stderr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c, err := client.Dial(ctx, addr, p, indicator, client.WithLogger(log), client.WithTimeout(timeout))
	if err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Release()
	return writeMessageDoc(stdout, resp)
}
