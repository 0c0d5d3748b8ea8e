// Package singleinstance lets a second launch hand its request to the
// resident window over TCP loopback instead of opening another one.
package singleinstance

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Action string

const (
	ActionShow    Action = "SHOW"
	ActionCapture Action = "CAPTURE"
	ActionOpen    Action = "OPEN"
)

var ErrBadRequest = errors.New("singleinstance: malformed request")

// Request is one delegated launch. Path is only meaningful for ActionOpen.
type Request struct {
	Action Action
	Path   string
}

func (r Request) encode() string {
	if r.Action == ActionOpen {
		return fmt.Sprintf("%s %s\n", r.Action, r.Path)
	}
	return string(r.Action) + "\n"
}

func parseRequest(line string) (Request, error) {
	line = strings.TrimRight(line, "\r\n")
	verb, rest, _ := strings.Cut(line, " ")
	switch Action(verb) {
	case ActionShow, ActionCapture:
		return Request{Action: Action(verb)}, nil
	case ActionOpen:
		if strings.TrimSpace(rest) == "" {
			return Request{}, ErrBadRequest
		}
		return Request{Action: ActionOpen, Path: rest}, nil
	}
	return Request{}, ErrBadRequest
}

// Server owns the resident endpoint.
type Server interface {
	// Start binds the first port of the configured range; failure means
	// another resident (or something else) holds it.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted request, or ctx error.
	Next(ctx context.Context) (Conn, error)
	Close() error
}

// Conn is one delegated request awaiting its reply.
type Conn interface {
	Request() Request
	RespondOK() error
	RespondError(msg string) error
	Close() error
}

// Client hands requests to a resident, if one answers.
type Client interface {
	// Delegate scans the port range for a resident and forwards req.
	// No resident found returns delegated=false, err=nil.
	Delegate(ctx context.Context, req Request) (delegated bool, err error)
}
