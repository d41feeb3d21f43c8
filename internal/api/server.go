// Package api exposes matcher sessions over HTTP so generation loops in
// other processes can evaluate stopping criteria per step. A session pins a
// precomputed stop-string table plus any counter criteria; evaluation calls
// are stateless beyond that table, matching the library contract.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/matthid/transformers/internal/logger"
	"github.com/matthid/transformers/pkg/stopping"
)

type session struct {
	id          string
	created     time.Time
	criteria    stopping.CriterionList
	stopStrings []string
	warnings    []string
}

type Server struct {
	log   logger.Logger
	mu    sync.RWMutex
	byID  map[string]*session
	clock func() time.Time
}

func NewServer(log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		log:   log,
		byID:  make(map[string]*session),
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/matchers", s.handleCreateMatcher)
	e.GET("/v1/matchers", s.handleListMatchers)
	e.GET("/v1/matchers/:id", s.handleGetMatcher)
	e.DELETE("/v1/matchers/:id", s.handleDeleteMatcher)
	e.POST("/v1/matchers/:id/evaluate", s.handleEvaluate)
}

func (s *Server) handleCreateMatcher(c *echo.Context) error {
	req, err := decodeJSON[CreateMatcherRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	sess, err := s.buildSession(req)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	s.mu.Lock()
	s.byID[sess.id] = sess
	s.mu.Unlock()

	s.log.Info("matcher created", "id", sess.id, "criteria", len(sess.criteria))
	return c.JSON(http.StatusOK, s.info(sess))
}

func (s *Server) buildSession(req CreateMatcherRequest) (*session, error) {
	sess := &session{
		id:      "match_" + uuid.NewString(),
		created: s.clock(),
	}

	if len(req.StopStrings) > 0 {
		if req.Vocab == nil || len(req.Vocab.Tokens) == 0 {
			return nil, newInvalidRequest("stop_strings require a vocab")
		}
		vocab := stopping.SliceVocab{
			Tokens: req.Vocab.Tokens,
			PadID:  -1,
			Side:   stopping.PaddingSide(req.Vocab.PaddingSide),
		}
		if req.Vocab.PadTokenID != nil {
			vocab.PadID = *req.Vocab.PadTokenID
		}
		crit, err := stopping.NewStopStrings(vocab, req.StopStrings)
		if err != nil {
			return nil, err
		}
		sess.criteria = append(sess.criteria, crit)
		sess.stopStrings = crit.StopStrings()
	}
	if req.MaxNewTokens != nil {
		crit, err := stopping.NewMaxNewTokens(req.MaxNewTokens.StartLength, req.MaxNewTokens.MaxNewTokens)
		if err != nil {
			return nil, err
		}
		sess.criteria = append(sess.criteria, crit)
	}
	if req.MaxTimeMS != nil {
		sess.criteria = append(sess.criteria, stopping.NewMaxTime(time.Duration(*req.MaxTimeMS)*time.Millisecond))
	}
	if len(req.StopTokenIDs) > 0 {
		sess.criteria = append(sess.criteria, stopping.NewStopTokens(req.StopTokenIDs))
	}
	if req.MaxLength != nil {
		list, warn, err := stopping.Validate(sess.criteria, *req.MaxLength)
		if err != nil {
			return nil, err
		}
		sess.criteria = list
		if warn != nil {
			s.log.Warn("max length mismatch", "id", sess.id, "list", warn.ListBound, "requested", warn.Requested)
			sess.warnings = append(sess.warnings, warn.String())
		}
	}
	if len(sess.criteria) == 0 {
		return nil, newInvalidRequest("request configures no criteria")
	}
	return sess, nil
}

func (s *Server) handleListMatchers(c *echo.Context) error {
	s.mu.RLock()
	out := ListMatchersResponse{Matchers: make([]MatcherInfo, 0, len(s.byID))}
	for _, sess := range s.byID {
		out.Matchers = append(out.Matchers, s.info(sess))
	}
	s.mu.RUnlock()
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetMatcher(c *echo.Context) error {
	sess, ok := s.lookup(c.Param("id"))
	if !ok {
		return writeNotFound(c, "no such matcher")
	}
	return c.JSON(http.StatusOK, s.info(sess))
}

func (s *Server) handleDeleteMatcher(c *echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	_, ok := s.byID[id]
	delete(s.byID, id)
	s.mu.Unlock()
	if !ok {
		return writeNotFound(c, "no such matcher")
	}
	return c.JSON(http.StatusOK, DeleteMatcherResponse{ID: id, Deleted: true})
}

func (s *Server) handleEvaluate(c *echo.Context) error {
	sess, ok := s.lookup(c.Param("id"))
	if !ok {
		return writeNotFound(c, "no such matcher")
	}
	req, err := decodeJSON[EvaluateRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if err := validateMatrix(req.InputIDs); err != nil {
		return writeBadRequest(c, err.Error())
	}
	verdicts := sess.criteria.Evaluate(req.InputIDs, req.Scores)
	return c.JSON(http.StatusOK, EvaluateResponse{ID: sess.id, Stop: verdicts})
}

func (s *Server) lookup(id string) (*session, bool) {
	s.mu.RLock()
	sess, ok := s.byID[id]
	s.mu.RUnlock()
	return sess, ok
}

func (s *Server) info(sess *session) MatcherInfo {
	info := MatcherInfo{
		ID:          sess.id,
		CreatedAt:   sess.created.Unix(),
		StopStrings: sess.stopStrings,
		Criteria:    len(sess.criteria),
		Warnings:    sess.warnings,
	}
	if bound, ok := sess.criteria.MaxLength(); ok {
		info.MaxLength = &bound
	}
	return info
}

func validateMatrix(ids [][]int) error {
	if len(ids) == 0 {
		return newInvalidRequest("input_ids must have at least one row")
	}
	width := len(ids[0])
	for _, row := range ids {
		if len(row) != width {
			return newInvalidRequest("input_ids rows must share one length")
		}
		for _, id := range row {
			if id < 0 {
				return newInvalidRequest("token ids must be non-negative")
			}
		}
	}
	return nil
}
