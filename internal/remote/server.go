package remote

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// replyTimeout bounds how long a connection waits for the player loop.
const replyTimeout = 3 * time.Second

// Request is a command waiting for the player loop. Reply must be called
// exactly once.
type Request struct {
	Command Command
	reply   chan Response
}

// Reply answers the request.
func (r Request) Reply(resp Response) {
	select {
	case r.reply <- resp:
	default:
	}
}

// Server accepts control connections. Commands that change player state are
// queued for the player loop; status is answered from the last published
// state without involving the loop.
type Server struct {
	ln       net.Listener
	path     string
	requests chan Request

	mu     sync.Mutex
	status Status
	subs   map[chan Event]struct{}
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// Listen creates the socket at path, replacing a stale one.
func Listen(path string) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		if conn, err := net.Dial("unix", path); err == nil {
			conn.Close()
			return nil, fmt.Errorf("another player is listening on %s", path)
		}
		os.Remove(path)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	s := &Server{
		ln:       ln,
		path:     path,
		requests: make(chan Request, 16),
		subs:     make(map[chan Event]struct{}),
		conns:    make(map[net.Conn]struct{}),
		status:   Status{Mode: "idle", CueIndex: -1},
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Requests delivers queued commands to the player loop.
func (s *Server) Requests() <-chan Request { return s.requests }

// Path returns the socket path.
func (s *Server) Path() string { return s.path }

// Publish records st as the current status and sends it to subscribers.
// Slow subscribers miss events rather than block the player.
func (s *Server) Publish(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
	ev := Event{Event: "state", Status: &st}
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Status returns the last published status.
func (s *Server) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Close stops accepting, drops open connections and removes the socket.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	err := s.ln.Close()
	s.wg.Wait()
	os.Remove(s.path)
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Printf("remote: accept: %v", err)
			}
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		var cmd Command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			enc.Encode(Response{Error: fmt.Sprintf("bad command: %v", err)})
			continue
		}

		switch cmd.Cmd {
		case CmdStatus:
			st := s.Status()
			enc.Encode(Response{OK: true, Status: &st})
		case CmdSubscribe:
			s.stream(conn, enc)
			return
		default:
			if err := enc.Encode(s.dispatch(cmd)); err != nil {
				return
			}
		}
	}
}

// dispatch hands cmd to the player loop and waits for its answer.
func (s *Server) dispatch(cmd Command) Response {
	req := Request{Command: cmd, reply: make(chan Response, 1)}
	select {
	case s.requests <- req:
	default:
		return Response{Error: "player busy"}
	}

	select {
	case resp := <-req.reply:
		return resp
	case <-time.After(replyTimeout):
		return Response{Error: "player did not answer"}
	}
}

func (s *Server) stream(conn net.Conn, enc *json.Encoder) {
	ch := make(chan Event, 8)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}()

	if err := enc.Encode(Response{OK: true}); err != nil {
		return
	}

	// Reading detects the client hanging up.
	gone := make(chan struct{})
	go func() {
		buf := make([]byte, 256)
		for {
			if _, err := conn.Read(buf); err != nil {
				close(gone)
				return
			}
		}
	}()

	for {
		select {
		case ev := <-ch:
			if err := enc.Encode(ev); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
