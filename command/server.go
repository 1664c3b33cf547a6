package command

import (
	"sync/atomic"

	"rimoserver/logx"
)

// Channel is the transport-agnostic request/reply pair a Server loops
// over, matching original_source/Server/include/MachineCommandServer.hpp's
// ICommandChannel: Receive may block (bounded by the transport's own
// receive timeout) and returns ok=false on timeout so Server can observe
// Running.
type Channel interface {
	Receive() (doc map[string]any, ok bool)
	Send(resp Response)
}

// Server loops Channel.Receive → Processor.Process → Channel.Send while
// Running is true (spec.md §4.10).
type Server struct {
	processor *Processor
	channel   Channel
	dispatch  Dispatch
	log       *logx.Logger
}

// NewServer builds a Server. dispatch is the queue-backed function the
// Processor uses to perform toolChanger/reset commands.
func NewServer(processor *Processor, channel Channel, dispatch Dispatch) *Server {
	return &Server{processor: processor, channel: channel, dispatch: dispatch, log: logx.New("command")}
}

// RunLoop processes commands until running reports false. The
// channel's own receive timeout bounds exit latency.
func (s *Server) RunLoop(running *atomic.Bool) {
	s.log.Info("Command Server Thread Started!")
	for running.Load() {
		doc, ok := s.channel.Receive()
		if !ok {
			continue
		}
		resp := s.processor.Process(doc, s.dispatch)
		s.channel.Send(resp)
	}
	s.log.Info("Command Server thread finished!")
}
