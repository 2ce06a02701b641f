package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kamusis/tagsuggest/internal/logger"
	"github.com/kamusis/tagsuggest/internal/search"
	"github.com/kamusis/tagsuggest/internal/search/index"
	"github.com/kamusis/tagsuggest/internal/search/store"
)

// MaxQueryLength caps the query length in runes.
const MaxQueryLength = 512

// Server answers IPC requests against a Suggester.
type Server struct {
	suggester *search.Suggester
	model     string
	dec       *msgpack.Decoder
	enc       *msgpack.Encoder
	log       *log.Logger
	added     int
	readOnly  bool
}

// New creates a server reading requests from r and writing responses to w.
func New(s *search.Suggester, model string, r io.Reader, w io.Writer, l *log.Logger) *Server {
	if l == nil {
		l = logger.Discard()
	}
	return &Server{
		suggester: s,
		model:     model,
		dec:       msgpack.NewDecoder(bufio.NewReader(r)),
		enc:       msgpack.NewEncoder(w),
		log:       l,
	}
}

// SetReadOnly makes add requests fail with 403.
func (s *Server) SetReadOnly(ro bool) { s.readOnly = ro }

// Added returns how many tags were inserted through add requests.
func (s *Server) Added() int { return s.added }

// Serve processes requests until the input ends or ctx is cancelled.
// Cancellation is observed between requests.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Debug("starting server")
	if err := s.send(StatusResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.log.Error("decoding request", "err", err)
			_ = s.sendError("", "invalid msgpack request", 400)
			return fmt.Errorf("decode request: %w", err)
		}
		if err := s.handle(ctx, req); err != nil {
			return err
		}
	}
}

func (s *Server) handle(ctx context.Context, req Request) error {
	switch req.Action {
	case "", ActionSuggest:
		return s.handleSuggest(ctx, req)
	case ActionAdd:
		return s.handleAdd(ctx, req)
	case ActionStats:
		return s.send(StatsResponse{
			ID:     req.ID,
			Status: "ok",
			Count:  s.suggester.Len(),
			Dim:    s.suggester.Index().Dim(),
			Model:  s.model,
		})
	case ActionHealth:
		return s.send(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		return s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

func (s *Server) handleSuggest(ctx context.Context, req Request) error {
	if req.Query == "" {
		return s.sendError(req.ID, "missing query", 400)
	}
	if utf8.RuneCountInString(req.Query) > MaxQueryLength {
		return s.sendError(req.ID, fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength), 400)
	}

	start := time.Now()
	cands, err := s.suggester.SuggestCandidates(ctx, req.Query, req.Limit, req.Pool)
	if err != nil {
		s.log.Error("suggest failed", "query", req.Query, "err", err)
		return s.sendError(req.ID, err.Error(), 500)
	}
	elapsed := time.Since(start)

	out := make([]TagSuggestion, len(cands))
	for i, c := range cands {
		out[i] = TagSuggestion{Tag: c.Text, Score: c.Score}
	}
	return s.send(SuggestResponse{
		ID:          req.ID,
		Suggestions: out,
		Count:       len(out),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleAdd(ctx context.Context, req Request) error {
	if s.readOnly {
		return s.sendError(req.ID, "server is read-only", 403)
	}
	if req.Text == "" {
		return s.sendError(req.ID, "missing text", 400)
	}
	slot, err := s.suggester.Add(ctx, req.Text, req.Source, req.Popularity)
	if err != nil {
		code := 500
		switch {
		case errors.Is(err, store.ErrInvalidPopularity):
			code = 400
		case errors.Is(err, index.ErrDimensionMismatch):
			code = 422
		}
		s.log.Error("add failed", "text", req.Text, "err", err)
		return s.sendError(req.ID, err.Error(), code)
	}
	s.added++
	return s.send(AddResponse{ID: req.ID, Status: "ok", Slot: int(slot)})
}

// send writes one response. Write failures end the loop.
func (s *Server) send(v any) error {
	if err := s.enc.Encode(v); err != nil {
		s.log.Error("encoding response", "err", err)
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func (s *Server) sendError(id, message string, code int) error {
	return s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
