package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"
	okResponse   = "OK\n"
	errResponse  = "ERROR\n"
)

type tcpServer struct {
	log      *zap.Logger
	lis      net.Listener
	incoming chan *tcpConn
	port     int
	once     sync.Once
}

func NewServer(log *zap.Logger) Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &tcpServer{log: log, incoming: make(chan *tcpConn, 8)}
}

func (s *tcpServer) Start(ctx context.Context) error {
	if s.lis != nil {
		return nil
	}
	start, _ := getPortRange()
	addr := fmt.Sprintf("%s:%d", residentHost, start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		s.log.Debug("failed to bind resident port", zap.String("addr", addr), zap.Error(err))
		return err
	}
	s.lis = lis
	s.port = start
	s.log.Info("resident listening", zap.String("addr", addr))
	go s.acceptLoop(ctx, lis)
	return nil
}

func (s *tcpServer) Port() int { return s.port }

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		remote := c.RemoteAddr().String()
		_ = c.SetDeadline(time.Now().Add(3 * time.Second))
		br := bufio.NewReader(c)
		bw := bufio.NewWriter(c)
		line, err := br.ReadString('\n')
		if err != nil {
			_ = c.Close()
			continue
		}
		if line == pingRequest {
			_, _ = bw.WriteString(pongResponse)
			_ = bw.Flush()
			_ = c.Close()
			continue
		}

		req, err := parseRequest(line)
		if err != nil {
			s.log.Warn("rejecting delegated request", zap.String("remote", remote), zap.Error(err))
			_, _ = bw.WriteString(errResponse + err.Error())
			_ = bw.Flush()
			_ = c.Close()
			continue
		}
		s.log.Info("delegated request", zap.String("remote", remote), zap.String("action", string(req.Action)))

		select {
		case s.incoming <- &tcpConn{c: c, r: req, w: bw}:
		case <-ctx.Done():
			_ = c.Close()
			return
		}
	}
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case tc := <-s.incoming:
		return tc, nil
	}
}

// Close stops accepting. Requests already queued stay readable through Next.
func (s *tcpServer) Close() error {
	var err error
	s.once.Do(func() {
		if s.lis != nil {
			err = s.lis.Close()
		}
	})
	return err
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondOK() error {
	if _, err := tc.w.WriteString(okResponse); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondError(msg string) error {
	if _, err := tc.w.WriteString(errResponse + msg); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
