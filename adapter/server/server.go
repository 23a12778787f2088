package server

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/panjf2000/gnet/v2"
	"github.com/pkg/errors"

	iso8583 "github.com/mkadit/iso8583ebcdic"
	"github.com/mkadit/iso8583ebcdic/pkg/logger"
)

// Handler answers one request. A nil reply sends nothing back. The server
// releases both the request and the reply once the reply is written; a
// handler may return req itself.
type Handler func(ctx context.Context, req *iso8583.Message) (*iso8583.Message, error)

// Config server settings
type Config struct {
	Host      string
	Port      int
	Framing   iso8583.LengthIndicatorConfig
	Multicore bool
}

func (c *Config) validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Framing, validation.By(func(interface{}) error {
			if c.Framing.Type == iso8583.LengthIndicatorNone {
				return errors.New("a length indicator is required on a stream transport")
			}
			_, err := iso8583.Frame(nil, c.Framing)
			return err
		})),
	)
}

// Server accepts framed ISO 8583 messages over TCP. Each frame is unpacked
// with the current packager, passed to the handler and the reply framed
// back. Malformed frames are logged and dropped without closing the
// connection.
type Server struct {
	gnet.BuiltinEventEngine

	ctx      context.Context
	log      *logger.Logger
	cfg      *Config
	handler  Handler
	packager atomic.Pointer[iso8583.Packager]
	engine   atomic.Pointer[gnet.Engine]
}

// New validates cfg and returns a Server that is not yet listening.
func New(ctx context.Context, log *logger.Logger, cfg *Config, packager *iso8583.Packager, handler Handler) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server config")
	}
	if packager == nil || handler == nil {
		return nil, errors.New("packager and handler are required")
	}
	s := &Server{
		ctx:     ctx,
		log:     log.With("layer", "srv"),
		cfg:     cfg,
		handler: handler,
	}
	s.packager.Store(packager)
	return s, nil
}

// SetPackager replaces the packager used for frames read from now on.
func (s *Server) SetPackager(p *iso8583.Packager) {
	s.packager.Store(p)
}

// Run blocks serving until Stop is called or the engine fails.
func (s *Server) Run() error {
	host := s.cfg.Host
	if host == "" {
		host = "0.0.0.0"
	}
	return gnet.Run(s, fmt.Sprintf("tcp://%s:%d", host, s.cfg.Port),
		gnet.WithMulticore(s.cfg.Multicore),
		gnet.WithReuseAddr(true),
		gnet.WithReusePort(true))
}

// Stop shuts the engine down.
func (s *Server) Stop(ctx context.Context) error {
	eng := s.engine.Load()
	if eng == nil {
		return nil
	}
	return eng.Stop(ctx)
}

func (s *Server) OnBoot(eng gnet.Engine) gnet.Action {
	s.engine.Store(&eng)
	s.log.Info().Int("port", s.cfg.Port).Msg("server started")
	return gnet.None
}

func (s *Server) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	id := uuid.NewString()
	c.SetContext(id)
	s.log.Debug().Str("conn_id", id).Str("remote", c.RemoteAddr().String()).Msg("connection opened")
	return nil, gnet.None
}

func (s *Server) OnClose(c gnet.Conn, err error) gnet.Action {
	ev := s.log.Debug()
	if err != nil {
		ev = s.log.Warn().Err(err)
	}
	ev.Str("conn_id", connID(c)).Msg("connection closed")
	return gnet.None
}

func (s *Server) OnTraffic(c gnet.Conn) gnet.Action {
	id := connID(c)
	for {
		header, err := c.Peek(s.cfg.Framing.Length)
		if errors.Is(err, io.ErrShortBuffer) || len(header) < s.cfg.Framing.Length {
			break
		} else if err != nil {
			s.log.Error().Err(err).Str("conn_id", id).Msg("failed to read length indicator")
			return gnet.Close
		}

		msgLen, n, err := iso8583.ReadLengthIndicator(header, s.cfg.Framing)
		if err != nil {
			// The stream cannot be resynchronised after a bad indicator.
			s.log.Error().Err(err).Str("conn_id", id).Msg("invalid length indicator")
			return gnet.Close
		}
		frameLength := n + msgLen
		if c.InboundBuffered() < frameLength {
			break
		}
		frame, err := c.Peek(frameLength)
		if err != nil {
			break
		}

		reply := s.HandleFrame(id, frame[n:])

		if _, err := c.Discard(frameLength); err != nil {
			s.log.Error().Err(err).Str("conn_id", id).Msg("failed to discard buffer")
		}
		if reply != nil {
			if _, err := c.Write(reply); err != nil {
				s.log.Error().Err(err).Str("conn_id", id).Msg("failed to write reply")
				return gnet.Close
			}
		}
	}
	return gnet.None
}

// HandleFrame processes one payload and returns the framed reply, or nil
// when nothing should be sent.
func (s *Server) HandleFrame(connID string, payload []byte) []byte {
	p := s.packager.Load()

	req, err := p.UnpackBytes(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("conn_id", connID).Str("frame", iso8583.BytesToText(payload)).Msg("dropped malformed message")
		return nil
	}
	defer req.Release()
	s.log.Debug().Str("conn_id", connID).Object("request", req).Msg("message received")

	resp, err := s.handler(s.ctx, req)
	if err != nil {
		s.log.Error().Err(err).Str("conn_id", connID).Str("mti", req.MTI()).Msg("handler failed")
		return nil
	}
	if resp == nil {
		return nil
	}
	if resp != req {
		defer resp.Release()
	}

	out, err := p.PackBytes(resp)
	if err != nil {
		s.log.Error().Err(err).Str("conn_id", connID).Str("mti", resp.MTI()).Msg("failed to pack reply")
		return nil
	}
	framed, err := iso8583.Frame(out, s.cfg.Framing)
	if err != nil {
		s.log.Error().Err(err).Str("conn_id", connID).Msg("failed to frame reply")
		return nil
	}
	s.log.Debug().Str("conn_id", connID).Object("response", resp).Msg("message sent")
	return framed
}

func connID(c gnet.Conn) string {
	if id, ok := c.Context().(string); ok {
		return id
	}
	return ""
}
