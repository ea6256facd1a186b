// Package cli runs a line-based playground that drives a suggestion controller
// the way an editor would, for debugging from a terminal.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/inkpilot/internal/logger"
	"github.com/bastiangx/inkpilot/pkg/config"
	"github.com/bastiangx/inkpilot/pkg/editor"
	"github.com/bastiangx/inkpilot/pkg/lifecycle"
	"github.com/bastiangx/inkpilot/pkg/predict"
)

const helpText = `Plain lines are typed at the end of the buffer, trailing spaces included.
  :tab          accept the suggestion
  :word         accept the next word
  :esc          dismiss the suggestion
  :accept       accept command
  :predict      request a suggestion now
  :nl           type a newline
  :del [n]      delete n characters (default 1)
  :file p [t..] switch to file p with tags
  :show         print the buffer and ghost text
  :status       print state, context and cache stats
  :reset        clear the buffer
  :quit         exit`

type styles struct {
	title  lipgloss.Style
	ghost  lipgloss.Style
	insert lipgloss.Style
	notice lipgloss.Style
	status lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title:  r.NewStyle().Foreground(lipgloss.Color("75")).Bold(true),
		ghost:  r.NewStyle().Faint(true).Italic(true),
		insert: r.NewStyle().Foreground(lipgloss.Color("114")),
		notice: r.NewStyle().Foreground(lipgloss.Color("203")),
		status: r.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

// Playground is an editor simulated on a single buffer with the cursor always at
// the end. It is the controller's view.
type Playground struct {
	in         *bufio.Reader
	out        io.Writer
	controller *lifecycle.Controller
	tracker    *editor.Tracker
	logger     *log.Logger
	styles     styles

	// mu guards the buffer and ghost text, which the controller updates from
	// prediction goroutines. It is never held while calling the controller.
	mu    sync.Mutex
	text  string
	ghost string
}

// NewPlayground builds a playground reading commands from in and printing to out.
func NewPlayground(in io.Reader, out io.Writer, provider predict.Provider, settings config.Settings, opts ...lifecycle.Option) *Playground {
	p := &Playground{
		in:      bufio.NewReader(in),
		out:     out,
		tracker: editor.NewTracker(),
		logger:  logger.New("play"),
		styles:  newStyles(out),
	}
	opts = append(opts, lifecycle.WithStatus(func(_ lifecycle.Kind, status string) {
		p.println(p.styles.status.Render("[" + status + "]"))
	}))
	p.controller = lifecycle.New(provider, p, settings, opts...)
	p.tracker.Observe(editor.Observation{Focused: true})
	return p
}

// Controller returns the controller driven by the playground.
func (p *Playground) Controller() *lifecycle.Controller {
	return p.controller
}

// Text returns the buffer.
func (p *Playground) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}

// Ghost returns the rendered suggestion, empty when none is shown.
func (p *Playground) Ghost() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ghost
}

// Start reads lines until :quit or the end of input.
func (p *Playground) Start() error {
	p.println(p.styles.title.Render("inkpilot playground") + "  (:help for commands)")
	for {
		line, err := p.in.ReadString('\n')
		if line != "" && p.HandleLine(strings.TrimRight(line, "\r\n")) {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// Close stops the controller.
func (p *Playground) Close() {
	p.controller.Close()
}

// HandleLine runs one line of input and reports whether the playground should exit.
func (p *Playground) HandleLine(line string) bool {
	if !strings.HasPrefix(line, ":") {
		if line != "" {
			p.edit(line, 0, editor.InputType)
		}
		return false
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	c := p.controller
	switch cmd {
	case "q", "quit":
		return true
	case "help":
		p.println(helpText)
	case "tab":
		p.key("tab", c.HandleAcceptKeyPressed())
	case "word":
		p.key("word", c.HandlePartialAcceptKeyPressed())
	case "esc":
		p.key("esc", c.HandleCancelKeyPressed())
	case "accept":
		c.HandleAcceptCommand()
		p.sync()
	case "predict":
		snap := p.tracker.Last()
		c.HandlePredictCommand(snap.Prefix, snap.Suffix)
	case "nl":
		p.edit("\n", 0, editor.InputType)
	case "del":
		n := 1
		if arg != "" {
			v, err := strconv.Atoi(arg)
			if err != nil || v < 1 {
				p.println(p.styles.notice.Render("usage: :del [n]"))
				return false
			}
			n = v
		}
		p.edit("", n, editor.InputDelete)
	case "file":
		fields := strings.Fields(arg)
		if len(fields) == 0 {
			p.println(p.styles.notice.Render("usage: :file path [tags...]"))
			return false
		}
		p.tracker.Reset()
		p.tracker.Observe(p.observation(p.Text()))
		c.HandleFileChange(editor.File{Path: fields[0], Tags: fields[1:]})
	case "show":
		p.mu.Lock()
		text, ghost := p.text, p.ghost
		p.mu.Unlock()
		p.println(text + p.styles.ghost.Render(ghost))
	case "status":
		stats := c.CacheStats()
		p.println(fmt.Sprintf("state=%s ctx=%s status=%q cache=%d/%d hits=%d misses=%d",
			c.State(), c.Context(), c.StatusText(),
			stats["cacheEntries"], stats["maxEntries"], stats["cacheHits"], stats["cacheMisses"]))
	case "reset":
		p.mu.Lock()
		p.text = ""
		p.mu.Unlock()
		p.tracker.Reset()
		p.tracker.Observe(p.observation(""))
	default:
		p.println(p.styles.notice.Render(fmt.Sprintf("unknown command %q, try :help", cmd)))
	}
	return false
}

func (p *Playground) key(name string, consumed bool) {
	if !consumed {
		p.println(p.styles.status.Render(name + " not consumed"))
		return
	}
	p.sync()
}

// edit appends typed text or deletes runes from the end, then reports the change.
func (p *Playground) edit(typed string, deleted int, kind editor.InputKind) {
	p.mu.Lock()
	if deleted > 0 {
		runes := []rune(p.text)
		deleted = min(deleted, len(runes))
		p.text = string(runes[:len(runes)-deleted])
	}
	p.text += typed
	text := p.text
	p.mu.Unlock()

	obs := p.observation(text)
	obs.Inputs = []editor.InputKind{kind}
	p.controller.HandleDocumentChange(p.tracker.Observe(obs))
}

// sync reports text the controller inserted itself, with no user input behind it.
func (p *Playground) sync() {
	p.controller.HandleDocumentChange(p.tracker.Observe(p.observation(p.Text())))
}

func (p *Playground) observation(text string) editor.Observation {
	return editor.Observation{Text: text, Cursor: len([]rune(text)), Focused: true}
}

// Render implements editor.View.
func (p *Playground) Render(text string) {
	p.mu.Lock()
	p.ghost = text
	p.mu.Unlock()
	p.println("  " + p.styles.ghost.Render(strconv.Quote(text)))
}

// Insert implements editor.View.
func (p *Playground) Insert(text string) {
	p.mu.Lock()
	p.text += text
	p.ghost = ""
	p.mu.Unlock()
	p.println("  " + p.styles.insert.Render("+"+strconv.Quote(text)))
}

// Clear implements editor.View.
func (p *Playground) Clear() {
	p.mu.Lock()
	p.ghost = ""
	p.mu.Unlock()
}

// Notice implements editor.View.
func (p *Playground) Notice(msg string) {
	p.println(p.styles.notice.Render(msg))
}

func (p *Playground) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintln(p.out, s); err != nil {
		p.logger.Debugf("Writing output: %v", err)
	}
}
