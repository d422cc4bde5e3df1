package comm

import (
	"context"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/servo.go/pkg/framework"
)

// Sessions serves a controller to any number of connected clients. Each
// client gets its own Pipe, events are broadcast to all of them.
type Sessions struct {
	lock  sync.Mutex
	pipes map[*Pipe]PacketConn
}

// Serve runs the session of conn until the client disconnects or ctx is
// done. ctx must be a loop context.
func (s *Sessions) Serve(ctx context.Context, conn PacketConn) error {
	pipe := &Pipe{ReadWriter: conn}
	pipe.Handler = postToLoop(pipe)
	s.lock.Lock()
	if s.pipes == nil {
		s.pipes = make(map[*Pipe]PacketConn)
	}
	s.pipes[pipe] = conn
	s.lock.Unlock()

	glog.Infof("session %s started", conn.RemoteAddr())
	err := pipe.Run(ctx)
	glog.Infof("session %s closed: %v", conn.RemoteAddr(), err)

	s.lock.Lock()
	delete(s.pipes, pipe)
	s.lock.Unlock()
	return err
}

// Len returns the number of clients connected.
func (s *Sessions) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.pipes)
}

// SendEvent implements Registrar.
func (s *Sessions) SendEvent(ctx context.Context, msg fx.Message) error {
	s.lock.Lock()
	pipes := make([]*Pipe, 0, len(s.pipes))
	for pipe := range s.pipes {
		pipes = append(pipes, pipe)
	}
	s.lock.Unlock()
	var errs fx.AggregatedError
	for _, pipe := range pipes {
		errs.Add(pipe.SendEventMsg(msg))
	}
	return errs.Aggregate()
}
