package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
)

// APIError is the body of every failed API call.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errs.ErrEncoding), errors.Is(err, errs.ErrExtraction), errors.Is(err, errs.ErrIndexBuild):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrNoDocument):
		return http.StatusConflict
	case errors.Is(err, errs.ErrProvider):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), ErrorEnvelope{
		Error: APIError{
			Message: errs.UserMessage(err),
			Code:    errs.Kind(err),
		},
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
}

// handleIndex renders the single page UI.
func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

type setKeyRequest struct {
	APIKey string `json:"api_key" form:"api_key"`
}

func (s *Server) handleSetKey(c *gin.Context) {
	var req setKeyRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, fmt.Errorf("decoding request: %w", errs.ErrMissingCredential))
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		respondError(c, errs.ErrMissingCredential)
		return
	}
	sess := currentSession(c)
	sess.SetAPIKey(req.APIKey)
	s.log.Info("provider credential set", "session", sess.ID)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleUpload(c *gin.Context) {
	if s.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorEnvelope{Error: APIError{
				Message: fmt.Sprintf("The file exceeds the %d byte upload limit.", s.maxUpload),
				Code:    "too_large",
			}})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{Message: "Attach a file in the \"file\" field.", Code: "bad_request"}})
		return
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, fmt.Errorf("opening upload: %w", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, fmt.Errorf("reading upload: %w", err))
		return
	}

	info, err := s.ingest.Process(c.Request.Context(), currentSession(c), header.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleCurrentDocument(c *gin.Context) {
	info, ok := currentSession(c).Document()
	if !ok {
		respondError(c, errs.ErrNoDocument)
		return
	}
	c.JSON(http.StatusOK, info)
}

type queryRequest struct {
	Query string `json:"query" form:"query"`
}

// handleQuery processes a non-streaming query.
func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, errs.ErrEmptyQuery)
		return
	}
	resp, err := s.query.Ask(c.Request.Context(), currentSession(c), req.Query, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// streamEvent is one SSE payload of a streamed answer.
type streamEvent struct {
	Content   string                    `json:"content,omitempty"`
	Done      bool                      `json:"done"`
	Citations []entities.SourceCitation `json:"citations,omitempty"`
	Error     string                    `json:"error,omitempty"`
	Code      string                    `json:"code,omitempty"`
}

// handleQueryStream handles SSE streaming queries.
func (s *Server) handleQueryStream(c *gin.Context) {
	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	resp, err := s.query.Ask(c.Request.Context(), currentSession(c), c.Query("q"), func(delta string) {
		sendSSE(c, streamEvent{Content: delta})
	})
	if err != nil {
		sendSSE(c, streamEvent{Done: true, Error: errs.UserMessage(err), Code: errs.Kind(err)})
		return
	}
	sendSSE(c, streamEvent{Done: true, Citations: resp.Citations})
}

func sendSSE(c *gin.Context, ev streamEvent) {
	data, _ := json.Marshal(ev)
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	c.Writer.Flush()
}

func (s *Server) handleHistory(c *gin.Context) {
	sess := currentSession(c)
	resp := gin.H{"turns": s.query.History(sess), "query": sess.PendingQuery()}
	if info, ok := sess.Document(); ok {
		resp["document"] = info
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleClearHistory(c *gin.Context) {
	if err := s.query.Clear(c.Request.Context(), currentSession(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
