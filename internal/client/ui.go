package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tyrowin/livechat/internal/chat"
	"github.com/Tyrowin/livechat/internal/protocol"
)

const (
	// MaxInputLength caps the draft, matching the web client.
	MaxInputLength = 500

	defaultTypingIdle     = time.Second
	defaultReconnectDelay = 2 * time.Second
	dialTimeout           = 10 * time.Second
	transcriptLimit       = 1000
	usersCommand          = "/users"
)

// DialFunc opens a new connection to the server.
type DialFunc func(ctx context.Context) (Conn, error)

// Options configures a Model.
type Options struct {
	Username       string
	Dial           DialFunc
	TypingIdle     time.Duration
	ReconnectDelay time.Duration
	Now            func() time.Time
}

type (
	connectedMsg struct{ conn Conn }

	disconnectedMsg struct {
		conn Conn
		err  error
	}

	eventMsg struct {
		conn  Conn
		event protocol.Outbound
	}

	typingIdleMsg struct{ seq int }

	reconnectMsg struct{}
)

// Model is the bubbletea model for the chat screen.
type Model struct {
	username string
	dial     DialFunc
	now      func() time.Time

	typingIdle     time.Duration
	reconnectDelay time.Duration

	conn      Conn
	connected bool
	lastErr   error

	messages    []chat.Message
	users       []chat.User
	typingUsers []string

	// typing is true between our typing_start and typing_stop. typingSeq
	// invalidates idle timers scheduled before the latest keystroke.
	typing    bool
	typingSeq int

	showUsers bool
	viewport  viewport.Model
	input     textinput.Model
	width     int
	height    int
	ready     bool
}

// NewModel builds the chat screen for username.
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = MaxInputLength
	ti.Prompt = "> "
	ti.Focus()

	if opts.TypingIdle <= 0 {
		opts.TypingIdle = defaultTypingIdle
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return Model{
		username:       opts.Username,
		dial:           opts.Dial,
		now:            opts.Now,
		typingIdle:     opts.TypingIdle,
		reconnectDelay: opts.ReconnectDelay,
		input:          ti,
	}
}

// Init starts the first connection attempt.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.connect())
}

// Close ends the current session, if any. The server treats this as the user
// leaving.
func (m Model) Close() error {
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}

// Update handles terminal input and server events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case connectedMsg:
		m.conn = msg.conn
		m.connected = true
		m.lastErr = nil
		m.send(protocol.Join{Username: m.username})
		return m, waitForEvent(msg.conn)

	case disconnectedMsg:
		if msg.conn != nil && msg.conn != m.conn {
			return m, nil
		}
		if m.conn != nil {
			_ = m.conn.Close()
		}
		m.conn = nil
		m.connected = false
		m.lastErr = msg.err
		m.typing = false
		m.typingUsers = nil
		m.refresh()
		return m, tea.Tick(m.reconnectDelay, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		if m.connected {
			return m, nil
		}
		return m, m.connect()

	case eventMsg:
		if msg.conn != m.conn {
			return m, nil
		}
		m.apply(msg.event)
		return m, waitForEvent(msg.conn)

	case typingIdleMsg:
		if msg.seq != m.typingSeq {
			return m, nil
		}
		m.send(m.stopTyping()...)
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		return m.submit()

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	typingCmd := m.draftChanged()
	return m, tea.Batch(cmd, typingCmd)
}

// submit handles Enter: local commands, or sending the trimmed draft.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())

	if text == usersCommand {
		m.input.Reset()
		m.showUsers = !m.showUsers
		m.layout()
		m.typingSeq++
		m.send(m.stopTyping()...)
		return m, nil
	}

	if text == "" || !m.connected {
		return m, nil
	}

	m.input.Reset()
	m.typingSeq++
	m.send(append(m.stopTyping(), protocol.SendMessage{Text: text})...)
	return m, nil
}

// draftChanged emits typing_start for the first non-blank edit and re-arms
// the idle timer on every edit.
func (m *Model) draftChanged() tea.Cmd {
	if strings.TrimSpace(m.input.Value()) != "" && !m.typing && m.connected {
		m.typing = true
		m.send(protocol.TypingStart{})
	}

	m.typingSeq++
	seq := m.typingSeq
	return tea.Tick(m.typingIdle, func(time.Time) tea.Msg {
		return typingIdleMsg{seq: seq}
	})
}

func (m *Model) stopTyping() []protocol.Inbound {
	if !m.typing {
		return nil
	}
	m.typing = false
	return []protocol.Inbound{protocol.TypingStop{}}
}

// apply folds one server event into the local view of the room.
func (m *Model) apply(event protocol.Outbound) {
	switch ev := event.(type) {
	case protocol.ChatHistory:
		m.messages = append([]chat.Message(nil), ev.Messages...)
	case protocol.ReceiveMessage:
		m.appendMessage(ev.Message)
	case protocol.UserJoined:
		m.appendMessage(chat.NewNotice(fmt.Sprintf("%s joined the chat", ev.User.Username), m.now()))
	case protocol.UserLeft:
		m.appendMessage(chat.NewNotice(fmt.Sprintf("%s left the chat", ev.User.Username), m.now()))
	case protocol.UsersUpdate:
		m.users = ev.Users
	case protocol.UserTyping:
		m.typingUsers = othersTyping(ev.Usernames, m.username)
	}
	m.refresh()
}

func (m *Model) appendMessage(msg chat.Message) {
	m.messages = append(m.messages, msg)
	if len(m.messages) > transcriptLimit {
		m.messages = append([]chat.Message(nil), m.messages[len(m.messages)-transcriptLimit:]...)
	}
}

func othersTyping(usernames []string, self string) []string {
	others := make([]string, 0, len(usernames))
	for _, name := range usernames {
		if name != self {
			others = append(others, name)
		}
	}
	return others
}

func (m Model) connect() tea.Cmd {
	dial := m.dial
	return func() tea.Msg {
		if dial == nil {
			return disconnectedMsg{err: fmt.Errorf("no dialer configured")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()

		conn, err := dial(ctx)
		if err != nil {
			return disconnectedMsg{err: err}
		}
		return connectedMsg{conn: conn}
	}
}

// send queues events on the current connection. It runs inside Update, so
// events leave in the order the user produced them.
func (m *Model) send(events ...protocol.Inbound) {
	if m.conn == nil {
		return
	}
	for _, ev := range events {
		if err := m.conn.Send(ev); err != nil {
			m.lastErr = err
			return
		}
	}
}

func waitForEvent(conn Conn) tea.Cmd {
	return func() tea.Msg {
		event, err := conn.Next()
		if err != nil {
			return disconnectedMsg{conn: conn, err: err}
		}
		return eventMsg{conn: conn, event: event}
	}
}
