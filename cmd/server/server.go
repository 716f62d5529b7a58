package main

import (
	"context"
	"net"
	"net/http"
)

// newHTTPServer builds the http.Server for Codepad.
// Every request context derives from a base context that is cancelled when Shutdown starts,
// so long lived streams return instead of holding Shutdown until its deadline.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	base, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		BaseContext: func(net.Listener) context.Context { return base },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}
