package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/domain/session"
	"github.com/0xcro3dile/docqa-go/internal/logger"
	"github.com/0xcro3dile/docqa-go/internal/metrics"
)

// QueryUseCase answers questions against a session's active document.
type QueryUseCase struct {
	log *logger.Logger
}

// NewQueryUseCase creates a QueryUseCase.
func NewQueryUseCase(log *logger.Logger) *QueryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &QueryUseCase{log: log}
}

// Ask appends the question to the transcript, streams the answer to onDelta
// as it arrives, and appends the assistant turn once the stream completes.
// With a nil onDelta the answer is generated in one piece.
func (uc *QueryUseCase) Ask(ctx context.Context, sess *session.Session, question string, onDelta func(string)) (*entities.ChatResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errs.ErrEmptyQuery
	}

	end, err := sess.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer end()

	start := time.Now()
	resp, err := uc.ask(ctx, sess, question, onDelta)
	metrics.ObserveQuery(start, errs.Kind(err))
	if err != nil {
		if errors.Is(err, errs.ErrProvider) {
			metrics.ObserveProviderError("query")
		}
		uc.log.Warn("query failed", "session", sess.ID, "kind", errs.Kind(err), "error", err)
		return nil, err
	}
	uc.log.Info("query answered", "session", sess.ID, "citations", len(resp.Citations),
		"duration_ms", time.Since(start).Milliseconds())
	return resp, nil
}

func (uc *QueryUseCase) ask(ctx context.Context, sess *session.Session, question string, onDelta func(string)) (*entities.ChatResponse, error) {
	idx := sess.Index()
	if idx == nil {
		return nil, errs.ErrNoDocument
	}

	sess.Append(entities.ConversationTurn{Role: entities.RoleUser, Content: question})
	sess.SetPendingQuery(question)

	answer, err := idx.Query(ctx, question, onDelta != nil)
	if err != nil {
		return nil, err
	}

	text := answer.Text
	if answer.Stream != nil {
		text, err = drain(ctx, answer.Stream, onDelta)
		if err != nil {
			return nil, err
		}
	}

	citations := Citations(answer.SourceNodes)
	sess.Append(entities.ConversationTurn{
		Role:    entities.RoleAssistant,
		Content: assistantContent(text, citations),
	})
	return &entities.ChatResponse{Answer: text, Citations: citations}, nil
}

// drain consumes stream until the final token.
func drain(ctx context.Context, stream <-chan ports.StreamToken, onDelta func(string)) (string, error) {
	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case tok, ok := <-stream:
			if !ok {
				return sb.String(), nil
			}
			if tok.Error != nil {
				return "", tok.Error
			}
			if tok.Content != "" {
				sb.WriteString(tok.Content)
				if onDelta != nil {
					onDelta(tok.Content)
				}
			}
			if tok.Done {
				return sb.String(), nil
			}
		}
	}
}

// assistantContent is the transcript form of an answer: the streamed text
// followed by one "excerpt (page N)" paragraph per citation.
func assistantContent(answer string, citations []entities.SourceCitation) string {
	answer = strings.TrimSpace(answer)
	sources := FormatCitations(citations)
	switch {
	case sources == "":
		return answer
	case answer == "":
		return sources
	}
	return fmt.Sprintf("%s\n\n%s", answer, sources)
}

// History returns the session transcript.
func (uc *QueryUseCase) History(sess *session.Session) []entities.ConversationTurn {
	return sess.History()
}

// Clear empties the transcript and pending query. The document stays loaded.
func (uc *QueryUseCase) Clear(ctx context.Context, sess *session.Session) error {
	end, err := sess.Begin(ctx)
	if err != nil {
		return err
	}
	defer end()
	sess.ClearHistory()
	uc.log.Debug("history cleared", "session", sess.ID)
	return nil
}
