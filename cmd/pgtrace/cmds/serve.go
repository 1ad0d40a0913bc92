package cmds

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/go-dap"
	"github.com/spf13/cobra"

	"github.com/knazir/pgtrace/internal/logflags"
	"github.com/knazir/pgtrace/pkg/normalizer"
)

// newServeCmd builds a minimal Debug Adapter Protocol server that
// replays an already-normalized trace as a scripted debug session, the
// same protocol delve's own DAP server speaks, built on the same
// google/go-dap package.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <basename>",
		Short: "Serve a normalized trace over the Debug Adapter Protocol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logflags.Setup(verboseLog, logOutput, ""); err != nil {
				return err
			}
			basename := args[0]

			traceBytes, err := os.ReadFile(basename + ".vgtrace")
			if err != nil {
				return fmt.Errorf("read trace file: %w", err)
			}
			source, err := readSource(basename)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			ft, err := normalizer.Normalize(ctx, traceBytes, source, normalizer.Options{})
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			defer ln.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "pgtrace DAP server listening on %s\n", ln.Addr())

			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			defer conn.Close()

			return serveDAPSession(conn, ft)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:0", "address to listen on")
	return cmd
}

// session replays a FinalTrace's Execution Points as a scripted DAP
// conversation: it answers `initialize` and `disconnect`, answers
// `launch` with a `stopped` event, advances one Execution Point per
// `next`/`stepIn` request and sends a `stopped` event, and answers
// `stackTrace` from stack_to_render. Every other request, `scopes` and
// `variables` included, gets no response, so encoded_locals and globals
// are not exposed.
type session struct {
	w   *bufio.Writer
	ft  *normalizer.FinalTrace
	pos int
	seq int
}

func serveDAPSession(conn net.Conn, ft *normalizer.FinalTrace) error {
	r := bufio.NewReader(conn)
	s := &session{w: bufio.NewWriter(conn), ft: ft}

	for {
		msg, err := dap.ReadProtocolMessage(r)
		if err != nil {
			return nil // client disconnected
		}
		if err := s.handle(msg); err != nil {
			return err
		}
	}
}

func (s *session) nextSeq() int {
	s.seq++
	return s.seq
}

func (s *session) send(msg dap.Message) error {
	if err := dap.WriteProtocolMessage(s.w, msg); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *session) handle(msg dap.Message) error {
	switch req := msg.(type) {
	case *dap.InitializeRequest:
		return s.send(&dap.InitializeResponse{
			Response: dap.Response{ProtocolMessage: dap.ProtocolMessage{Seq: s.nextSeq(), Type: "response"}, RequestSeq: req.Seq, Success: true, Command: req.Command},
		})

	case *dap.LaunchRequest:
		if err := s.send(&dap.LaunchResponse{
			Response: dap.Response{ProtocolMessage: dap.ProtocolMessage{Seq: s.nextSeq(), Type: "response"}, RequestSeq: req.Seq, Success: true, Command: req.Command},
		}); err != nil {
			return err
		}
		return s.sendStopped("entry")

	case *dap.NextRequest:
		s.pos = clamp(s.pos+1, len(s.ft.Trace))
		if err := s.send(&dap.NextResponse{
			Response: dap.Response{ProtocolMessage: dap.ProtocolMessage{Seq: s.nextSeq(), Type: "response"}, RequestSeq: req.Seq, Success: true, Command: req.Command},
		}); err != nil {
			return err
		}
		return s.sendStopped("step")

	case *dap.StepInRequest:
		s.pos = clamp(s.pos+1, len(s.ft.Trace))
		if err := s.send(&dap.StepInResponse{
			Response: dap.Response{ProtocolMessage: dap.ProtocolMessage{Seq: s.nextSeq(), Type: "response"}, RequestSeq: req.Seq, Success: true, Command: req.Command},
		}); err != nil {
			return err
		}
		return s.sendStopped("step")

	case *dap.StackTraceRequest:
		return s.send(&dap.StackTraceResponse{
			Response: dap.Response{ProtocolMessage: dap.ProtocolMessage{Seq: s.nextSeq(), Type: "response"}, RequestSeq: req.Seq, Success: true, Command: req.Command},
			Body:     dap.StackTraceResponseBody{StackFrames: s.stackFrames(), TotalFrames: len(s.currentFrames())},
		})

	case *dap.DisconnectRequest:
		return s.send(&dap.DisconnectResponse{
			Response: dap.Response{ProtocolMessage: dap.ProtocolMessage{Seq: s.nextSeq(), Type: "response"}, RequestSeq: req.Seq, Success: true, Command: req.Command},
		})

	default:
		return nil
	}
}

func (s *session) currentFrames() []*normalizer.RenderedFrame {
	if s.pos >= len(s.ft.Trace) {
		return nil
	}
	return s.ft.Trace[s.pos].StackToRender
}

func (s *session) stackFrames() []dap.StackFrame {
	frames := s.currentFrames()
	out := make([]dap.StackFrame, len(frames))
	// DAP lists innermost-first; stack_to_render is outer-to-inner.
	for i, f := range frames {
		out[len(frames)-1-i] = dap.StackFrame{
			Id:   i,
			Name: f.FuncName,
			Line: s.ft.Trace[s.pos].Line,
		}
	}
	return out
}

func (s *session) sendStopped(reason string) error {
	return s.send(&dap.StoppedEvent{
		Event: dap.Event{ProtocolMessage: dap.ProtocolMessage{Seq: s.nextSeq(), Type: "event"}, Event: "stopped"},
		Body:  dap.StoppedEventBody{Reason: reason, ThreadId: 1, AllThreadsStopped: true},
	})
}
