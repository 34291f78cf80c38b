// Package repl is the terminal presentation layer: a line-oriented chat over
// one session.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/domain/session"
	"github.com/0xcro3dile/docqa-go/internal/domain/usecases"
	"github.com/0xcro3dile/docqa-go/internal/logger"
)

const help = `Commands:
  :load PATH   index a document
  :key KEY     set the provider API key
  :history     print the transcript
  :clear       clear the transcript
  :help        show this help
  :quit        exit
Anything else is asked as a question about the loaded document.`

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	sourceColor = color.New(color.FgHiBlack)
	errorColor  = color.New(color.FgRed)
	infoColor   = color.New(color.FgGreen)
)

// REPL reads commands and questions from in and writes answers to out.
type REPL struct {
	ingest *usecases.IngestUseCase
	query  *usecases.QueryUseCase
	sess   *session.Session
	in     io.Reader
	out    io.Writer
	log    *logger.Logger
}

func New(ingest *usecases.IngestUseCase, query *usecases.QueryUseCase, sess *session.Session, in io.Reader, out io.Writer, log *logger.Logger) *REPL {
	if log == nil {
		log = logger.Nop()
	}
	return &REPL{ingest: ingest, query: query, sess: sess, in: in, out: out, log: log}
}

// Run processes input until :quit, end of input or ctx cancellation.
// Files reported on events are loaded as they arrive; events may be nil.
func (r *REPL) Run(ctx context.Context, events <-chan ports.FileEvent) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r.in)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	fmt.Fprintln(r.out, "Type a question, or :help for commands.")
	r.prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Operation == ports.FileDeleted {
				continue
			}
			fmt.Fprintln(r.out)
			_ = r.Load(ctx, ev.Path)
			r.prompt()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := r.Handle(ctx, line); quit {
				return nil
			}
			r.prompt()
		}
	}
}

// Handle executes one input line and reports whether the REPL should exit.
func (r *REPL) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ":") {
		_ = r.Ask(ctx, line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Fprintln(r.out, help)
	case ":load", ":l":
		if arg == "" {
			errorColor.Fprintln(r.out, "usage: :load PATH")
			return false
		}
		_ = r.Load(ctx, arg)
	case ":key":
		if arg == "" {
			errorColor.Fprintln(r.out, "usage: :key KEY")
			return false
		}
		r.sess.SetAPIKey(arg)
		infoColor.Fprintln(r.out, "API key set.")
	case ":history":
		r.printHistory()
	case ":clear":
		if err := r.query.Clear(ctx, r.sess); err != nil {
			r.printError(err)
			return false
		}
		infoColor.Fprintln(r.out, "History cleared.")
	default:
		errorColor.Fprintf(r.out, "unknown command %s, try :help\n", cmd)
	}
	return false
}

// Load indexes the file at path into the session. A failure is printed
// before it is returned.
func (r *REPL) Load(ctx context.Context, path string) error {
	info, err := r.ingest.ProcessFile(ctx, r.sess, path)
	if err != nil {
		r.printError(err)
		return err
	}
	infoColor.Fprintf(r.out, "Loaded %s: %d page(s), %d chunk(s).\n", info.Name, info.Pages, info.Chunks)
	return nil
}

// Ask streams the answer to question followed by its citations. A failure
// is printed before it is returned.
func (r *REPL) Ask(ctx context.Context, question string) error {
	resp, err := r.query.Ask(ctx, r.sess, question, func(delta string) {
		fmt.Fprint(r.out, delta)
	})
	if err != nil {
		r.printError(err)
		return err
	}
	fmt.Fprintln(r.out)
	r.printCitations(resp.Citations)
	return nil
}

func (r *REPL) printCitations(citations []entities.SourceCitation) {
	if len(citations) == 0 {
		return
	}
	fmt.Fprintln(r.out)
	sourceColor.Fprintln(r.out, "Sources:")
	for _, c := range citations {
		sourceColor.Fprintf(r.out, "  [page %s] %s\n", c.PageLabel, c.Excerpt)
	}
}

func (r *REPL) printHistory() {
	turns := r.sess.History()
	if len(turns) == 0 {
		fmt.Fprintln(r.out, "(no history)")
		return
	}
	for _, t := range turns {
		label := "User"
		if t.Role == entities.RoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(r.out, "%s: %s\n", label, strings.TrimRight(t.Content, "\n"))
	}
}

func (r *REPL) printError(err error) {
	fmt.Fprintln(r.out)
	errorColor.Fprintf(r.out, "error: %s\n", errs.UserMessage(err))
	r.log.Debug("repl command failed", "error", err)
}

func (r *REPL) prompt() {
	promptColor.Fprint(r.out, "> ")
}
