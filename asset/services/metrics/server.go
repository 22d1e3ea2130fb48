/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var logger = logging.MustGetLogger("asset", "metrics")

// Server exposes the prometheus registry on /metrics.
type Server struct {
	srv      *http.Server
	listener net.Listener
}

// Serve starts serving the default prometheus registry on the passed address.
func Serve(address string) (*Server, error) {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on [%s]", address)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	s := &Server{
		srv:      &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		listener: l,
	}
	go func() {
		if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server stopped: %s", err)
		}
	}()
	logger.Infof("serving metrics on [%s]", l.Addr())
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
