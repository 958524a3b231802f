package server

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/logger"
	"github.com/teranos/kgbridge/sym"
)

// getState returns the current server state
func (s *Server) getState() ServerState {
	return ServerState(s.state.Load())
}

// setState atomically updates the server state
func (s *Server) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", "new_state", stateString(newState))
}

// stateString returns human-readable state name
func stateString(state ServerState) string {
	switch state {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Start listens on the configured port and serves until Shutdown.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return errors.Wrapf(err, "failed to listen on port %d", s.port)
	}
	return s.Serve(l)
}

// Serve serves on l until Shutdown. A clean shutdown returns nil.
func (s *Server) Serve(l net.Listener) error {
	s.setState(ServerStateRunning)
	s.logger.Infow(fmt.Sprintf("%s HTTP server listening", sym.AX),
		logger.FieldAddress, l.Addr().String())

	err := s.httpServer.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	s.setState(ServerStateStopped)
	return err
}

// Shutdown drains in-flight requests. The store is left open for the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Initiating server shutdown")
	s.setState(ServerStateDraining)

	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	s.setState(ServerStateStopped)
	if err != nil {
		return errors.Wrap(err, "server shutdown")
	}
	s.logger.Infow("Server shutdown complete")
	return nil
}
