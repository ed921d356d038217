// Copyright 2024 The Solaris Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package grpc wraps a google.golang.org/grpc.Server into a
// github.com/logrange/linker component: Init binds the listener and starts
// serving in a goroutine, Shutdown stops it gracefully.
package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/solarisdb/blockdelta/golibs/logging"
	"github.com/solarisdb/blockdelta/golibs/transport"
	ggrpc "google.golang.org/grpc"
)

type (
	// RegisterF registers one or more services onto gs. Config.RegisterEndpoints
	// is called once, before the listener starts accepting connections.
	RegisterF func(gs *ggrpc.Server) error

	// Config controls where the server listens and which services it exposes.
	Config struct {
		// Transport is the network address to listen on.
		Transport transport.Config
		// RegisterEndpoints is invoked once at Init to register gRPC services.
		RegisterEndpoints RegisterF
	}

	// Server is a linker.Initializer/linker.Shutdowner wrapping a grpc.Server.
	Server struct {
		cfg    Config
		gs     *ggrpc.Server
		lis    net.Listener
		logger logging.Logger
	}
)

// NewServer creates a Server from cfg. It does not start listening until Init runs.
func NewServer(cfg Config) *Server {
	return &Server{cfg: cfg}
}

// Init implements linker.Initializer: it binds the listener, registers the
// configured endpoints, and starts serving in a background goroutine.
func (s *Server) Init(ctx context.Context) error {
	s.logger = logging.NewLogger("grpc.Server")

	lis, err := transport.NewServerListener(s.cfg.Transport)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", s.cfg.Transport.Addr(), err)
	}
	s.lis = lis

	s.gs = ggrpc.NewServer(ggrpc.UnaryInterceptor(s.correlationIDInterceptor))
	if s.cfg.RegisterEndpoints != nil {
		if err := s.cfg.RegisterEndpoints(s.gs); err != nil {
			return fmt.Errorf("could not register grpc endpoints: %w", err)
		}
	}

	s.logger.Infof("listening on %s", s.cfg.Transport.Addr())
	go func() {
		if err := s.gs.Serve(s.lis); err != nil {
			s.logger.Warnf("grpc Serve() returned: %v", err)
		}
	}()
	return nil
}

// correlationIDInterceptor stamps every request with a random uuid.UUID so
// its handling can be traced across log lines, independent of the
// ULID-keyed revisions the request may be operating on.
func (s *Server) correlationIDInterceptor(ctx context.Context, req interface{}, info *ggrpc.UnaryServerInfo, handler ggrpc.UnaryHandler) (interface{}, error) {
	cid := uuid.New().String()
	s.logger.Tracef("cid=%s calling %s", cid, info.FullMethod)
	return handler(ctx, req)
}

// Shutdown implements linker.Shutdowner: it stops accepting new requests and
// waits for in-flight ones to complete.
func (s *Server) Shutdown() {
	if s.gs == nil {
		return
	}
	s.logger.Infof("stopping...")
	s.gs.GracefulStop()
}
