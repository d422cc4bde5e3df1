package stream

import (
	"context"
	"net"

	"github.com/golang/glog"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1"
	"github.com/robotalks/servo.go/pkg/l1/comm"
)

// Server accepts TCP clients and serves each of them a session.
type Server struct {
	Addr     string
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

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	glog.Infof("L1 listening on tcp://%s", s.listener.Addr())
	return fx.RunWithContextCloser(ctx, s.listener, func() error {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				return err
			}
			go s.Sessions.Serve(ctx, NewConn(conn))
		}
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

// Connector connects to a controller served by Server. The controller is
// identified by its address only.
type Connector struct {
	Addr string
}

// Discover implements l1.Connector.
func (c *Connector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	return []l1.ControllerInfo{{Ref: l1.ControllerRef{Type: "tcp", ID: c.Addr}}}, nil
}

// Connect implements l1.Connector.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	conn, err := Dial(c.Addr)
	if err != nil {
		return nil, err
	}
	cc := &comm.ControllerConn{}
	cc.Init(conn)
	return cc, nil
}
