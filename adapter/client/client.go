package client

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	iso8583 "github.com/mkadit/iso8583ebcdic"
	"github.com/mkadit/iso8583ebcdic/pkg/logger"
)

const defaultTimeout = 30 * time.Second

// Client sends framed messages over one TCP connection and waits for the
// reply. Calls are serialised.
type Client struct {
	conn     net.Conn
	packager *iso8583.Packager
	framing  iso8583.LengthIndicatorConfig
	log      *logger.Logger
	timeout  time.Duration

	mu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each exchange when ctx carries no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// Dial connects to addr. A length indicator is required since TCP has no
// message boundaries.
func Dial(ctx context.Context, addr string, packager *iso8583.Packager, framing iso8583.LengthIndicatorConfig, opts ...Option) (*Client, error) {
	if framing.Type == iso8583.LengthIndicatorNone {
		return nil, errors.Wrap(iso8583.ErrInvalidIndicator, "a length indicator is required on a stream transport")
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", addr)
	}
	return newClient(conn, packager, framing, opts...), nil
}

func newClient(conn net.Conn, packager *iso8583.Packager, framing iso8583.LengthIndicatorConfig, opts ...Option) *Client {
	c := &Client{
		conn:     conn,
		packager: packager,
		framing:  framing,
		log:      logger.Nop(),
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("layer", "client")
	return c
}

// Send packs req, writes it and reads one reply frame. The caller owns the
// returned message.
func (c *Client) Send(ctx context.Context, req *iso8583.Message) (*iso8583.Message, error) {
	out, err := c.packager.PackBytes(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack request")
	}
	frame, err := iso8583.Frame(out, c.framing)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if _, err := c.conn.Write(frame); err != nil {
		return nil, errors.Wrap(err, "failed to write request")
	}
	c.log.Debug().Object("request", req).Msg("message sent")

	payload, err := c.readFrame()
	if err != nil {
		return nil, err
	}
	resp, err := c.packager.UnpackBytes(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unpack reply")
	}
	c.log.Debug().Object("response", resp).Msg("message received")
	return resp, nil
}

func (c *Client) readFrame() ([]byte, error) {
	header := make([]byte, c.framing.Length)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, errors.Wrap(err, "failed to read length indicator")
	}
	msgLen, _, err := iso8583.ReadLengthIndicator(header, c.framing)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, msgLen)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, errors.Wrap(err, "failed to read message")
	}
	return payload, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
