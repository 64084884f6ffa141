// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package http serves the analytical views of a query.Facade as JSON.
package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pilosa/gtd"
	"github.com/pilosa/gtd/query"
	"github.com/pkg/errors"
)

// Handler routes GET requests for each view to the facade:
//
//	/density      ?start=&end=&continent=&attack=&group=
//	/groups       ?start=&end=&continent=&attack=
//	/composition
//	/profile      ?country=
//	/lists
//
// Parameters left out take the query.DefaultParams values. attack may be
// repeated.
type Handler struct {
	facade *query.Facade
	log    gtd.Logger
	mux    *http.ServeMux
}

// NewHandler returns a Handler over f.
func NewHandler(f *query.Facade, log gtd.Logger) *Handler {
	if log == nil {
		log = gtd.NopLogger{}
	}
	h := &Handler{
		facade: f,
		log:    log,
		mux:    http.NewServeMux(),
	}
	h.mux.HandleFunc("/density", h.get(h.density))
	h.mux.HandleFunc("/groups", h.get(h.groups))
	h.mux.HandleFunc("/composition", h.get(h.composition))
	h.mux.HandleFunc("/profile", h.get(h.profile))
	h.mux.HandleFunc("/lists", h.get(h.lists))
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type viewFunc func(r *http.Request) (interface{}, error)

func (h *Handler) get(fn viewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if r.Method != http.MethodGet {
			http.Error(w, "unsupported method: "+r.Method, http.StatusMethodNotAllowed)
			return
		}
		res, err := fn(r)
		if gtd.IsInvalidFilterValue(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		} else if err != nil {
			h.log.Printf("%s: %v", r.URL, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body, err := json.Marshal(res)
		if err != nil {
			h.log.Printf("encoding response to %s: %v", r.URL, err)
			http.Error(w, "encoding response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(append(body, '\n')); err != nil {
			h.log.Debugf("writing response to %s: %v", r.URL, err)
		}
		h.log.Debugf("%s in %v", r.URL, time.Since(start))
	}
}

// ParseParams reads filter parameters from a query string.
func ParseParams(r *http.Request) (query.Params, error) {
	p := query.DefaultParams()
	q := r.URL.Query()
	var err error
	if v := q.Get("start"); v != "" {
		if p.Start, err = strconv.Atoi(v); err != nil {
			return p, gtd.Invalidf("start year '%s'", v)
		}
	}
	if v := q.Get("end"); v != "" {
		if p.End, err = strconv.Atoi(v); err != nil {
			return p, gtd.Invalidf("end year '%s'", v)
		}
	}
	if v := q.Get("continent"); v != "" {
		p.Continent = v
	}
	if v, ok := q["attack"]; ok {
		p.AttackTypes = v
	}
	if v := q.Get("group"); v != "" {
		p.Group = v
	}
	return p, nil
}

func (h *Handler) density(r *http.Request) (interface{}, error) {
	p, err := ParseParams(r)
	if err != nil {
		return nil, err
	}
	return h.facade.Density(p)
}

func (h *Handler) groups(r *http.Request) (interface{}, error) {
	p, err := ParseParams(r)
	if err != nil {
		return nil, err
	}
	return h.facade.TopGroups(p)
}

func (h *Handler) composition(r *http.Request) (interface{}, error) {
	return h.facade.Composition()
}

func (h *Handler) profile(r *http.Request) (interface{}, error) {
	country := r.URL.Query().Get("country")
	if country == "" {
		return nil, gtd.Invalidf("missing country")
	}
	return h.facade.Profile(country)
}

func (h *Handler) lists(r *http.Request) (interface{}, error) {
	return h.facade.Lists()
}

// Server serves a Handler.
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server
}

// ServerOption is a functional option type for Server.
type ServerOption func(s *Server)

// WithAddr is an option for the Server which causes it to bind to the given
// address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithListener is an option for Server which causes it to use the given
// listener. It will infer the address from the listener.
func WithListener(l net.Listener) ServerOption {
	return func(s *Server) {
		s.listener = l
		s.addr = l.Addr().String()
	}
}

// NewServer binds a Server for h.
func NewServer(h http.Handler, opts ...ServerOption) (*Server, error) {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.listener == nil {
		var err error
		s.listener, err = net.Listen("tcp", s.addr)
		if err != nil {
			return nil, errors.Wrap(err, "listening")
		}
	}
	if tl, ok := s.listener.(*net.TCPListener); ok {
		s.listener = tcpKeepAliveListener{tl}
	}
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Addr gets the address that the Server is listening on.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Serve blocks serving requests until Close is called, and then returns nil.
func (s *Server) Serve() error {
	err := s.server.Serve(s.listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return errors.Wrap(err, "serving")
}

// Close stops the server.
func (s *Server) Close() error {
	return s.server.Close()
}

// tcpKeepAliveListener is copied from net/http

type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}
