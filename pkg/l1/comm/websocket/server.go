package websocket

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1"
	"github.com/robotalks/servo.go/pkg/l1/comm"
)

// DefaultPath is the HTTP path of the websocket endpoint.
const DefaultPath = "/l1"

// Server accepts websocket clients and serves each of them a session.
type Server struct {
	Addr     string
	Path     string
	Sessions comm.Sessions

	listener net.Listener
}

// Listen starts listening on Addr. It's called by Run if not yet
// listening.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// ListenAddr returns the address listened on.
func (s *Server) ListenAddr() net.Addr {
	return s.listener.Addr()
}

// Handler creates the HTTP handler serving sessions in ctx.
func (s *Server) Handler(ctx context.Context) http.Handler {
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		s.Sessions.Serve(ctx, New(conn))
	}))
	return mux
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	srv := &http.Server{Handler: s.Handler(ctx)}
	glog.Infof("L1 listening on ws://%s%s", s.listener.Addr(), s.Path)
	return fx.RunWithContextCloser(ctx, srv, func() error {
		return srv.Serve(s.listener)
	})
}

// SendEvent implements l1.Registrar.
func (s *Server) SendEvent(ctx context.Context, msg fx.Message) error {
	return s.Sessions.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(l *fx.Loop) {
	l.AddRunnable(s)
}

// Connector connects to a controller served by Server.
type Connector struct {
	URL string
}

// Discover implements l1.Connector.
func (c *Connector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	return []l1.ControllerInfo{{Ref: l1.ControllerRef{Type: "ws", ID: c.URL}}}, nil
}

// Connect implements l1.Connector.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	origin := "http://" + strings.TrimPrefix(strings.TrimPrefix(c.URL, "ws://"), "wss://")
	rw, err := Dial(c.URL, origin)
	if err != nil {
		return nil, err
	}
	cc := &comm.ControllerConn{}
	cc.Init(rw)
	return cc, nil
}
