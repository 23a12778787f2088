package client

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"

	iso8583 "github.com/mkadit/iso8583ebcdic"
	"github.com/mkadit/iso8583ebcdic/adapter/server"
	"github.com/mkadit/iso8583ebcdic/pkg/logger"
)

var testFraming = iso8583.LengthIndicatorConfig{Type: iso8583.LengthIndicatorASCII, Length: 4}

// serve answers every frame read from conn with srv.HandleFrame.
func serve(t *testing.T, conn net.Conn, srv *server.Server) {
	t.Helper()
	go func() {
		defer conn.Close()
		header := make([]byte, testFraming.Length)
		for {
			if _, err := io.ReadFull(conn, header); err != nil {
				return
			}
			n, _, err := iso8583.ReadLengthIndicator(header, testFraming)
			if err != nil {
				return
			}
			payload := make([]byte, n)
			if _, err := io.ReadFull(conn, payload); err != nil {
				return
			}
			if reply := srv.HandleFrame("pipe", payload); reply != nil {
				if _, err := conn.Write(reply); err != nil {
					return
				}
			}
		}
	}()
}

func newPipe(t *testing.T, handler server.Handler) (*Client, *iso8583.Packager) {
	t.Helper()
	p, err := iso8583.NewPackager(nil)
	if err != nil {
		t.Fatalf("failed to create packager: %v", err)
	}
	srv, err := server.New(context.Background(), logger.Nop(), &server.Config{Port: 8583, Framing: testFraming}, p, handler)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	clientConn, serverConn := net.Pipe()
	serve(t, serverConn, srv)
	c := newClient(clientConn, p, testFraming, WithTimeout(2*time.Second), WithLogger(logger.Nop()))
	t.Cleanup(func() { c.Close() })
	return c, p
}

func TestSend(t *testing.T) {
	c, _ := newPipe(t, func(_ context.Context, req *iso8583.Message) (*iso8583.Message, error) {
		return req.CreateResponse("00")
	})

	for _, stan := range []string{"000001", "000002"} {
		req := iso8583.NewMessage(iso8583.WithMTI("0200"), iso8583.WithFields(map[int]string{
			3:  "000000",
			4:  "000000001000",
			11: stan,
		}))
		resp, err := c.Send(context.Background(), req)
		req.Release()
		if err != nil {
			t.Fatalf("failed to send: %v", err)
		}
		if resp.MTI() != "0210" {
			t.Fatalf("MTI %s", resp.MTI())
		}
		if v, _ := resp.GetField(11); v != stan {
			t.Fatalf("STAN %q, want %s", v, stan)
		}
		resp.Release()
	}
}

func TestSendPackError(t *testing.T) {
	c, _ := newPipe(t, func(_ context.Context, req *iso8583.Message) (*iso8583.Message, error) {
		return req.CreateResponse("00")
	})
	req := iso8583.NewMessage(iso8583.WithMTI("0200"), iso8583.WithField(3, "ABC"))
	defer req.Release()
	if _, err := c.Send(context.Background(), req); !errors.Is(err, iso8583.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestSendTimeout(t *testing.T) {
	c, _ := newPipe(t, func(context.Context, *iso8583.Message) (*iso8583.Message, error) {
		return nil, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req := iso8583.NewMessage(iso8583.WithMTI("0800"), iso8583.WithField(70, "301"))
	defer req.Release()
	_, err := c.Send(ctx, req)
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestDialRequiresFraming(t *testing.T) {
	p, err := iso8583.NewPackager(nil)
	if err != nil {
		t.Fatalf("failed to create packager: %v", err)
	}
	_, err = Dial(context.Background(), "127.0.0.1:1", p, iso8583.LengthIndicatorConfig{})
	if !errors.Is(err, iso8583.ErrInvalidIndicator) {
		t.Fatalf("expected ErrInvalidIndicator, got %v", err)
	}
}
