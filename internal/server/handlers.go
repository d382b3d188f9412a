// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler serves the HTTP surface of the chat server.
type Handler struct {
	hub      *Hub
	cfg      Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler builds the handlers for hub using cfg's origin allow-list and
// transport limits.
func NewHandler(hub *Hub, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.Sanitize()
	origins := newOriginPolicy(cfg.AllowedOrigins, logger)

	return &Handler{
		hub: hub,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
		logger: logger,
	}
}

// WebSocket upgrades the request and hands the connection to the hub, which
// launches the pump goroutines.
func (h *Handler) WebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "addr", c.Request.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, h.hub, c.Request.RemoteAddr, h.cfg)
	if !h.hub.Register(client) {
		h.logger.Warn("hub is shutting down; closing new connection", "addr", c.Request.RemoteAddr)
		_ = conn.Close()
	}
}

// Liveness responds with a plain text message indicating the server is running.
func (h *Handler) Liveness(c *gin.Context) {
	c.String(http.StatusOK, "Chat server is running!")
}

// healthResponse is the /health body: a status plus the hub counters.
type healthResponse struct {
	Status string `json:"status"`
	Stats
}

// Health reports hub counters as JSON.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Stats: h.hub.Stats()})
}

// TestPage serves a browser client for trying the chat protocol by hand.
func (h *Handler) TestPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(testPageHTML))
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Chat Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { width: 300px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
        #typing { color: #888; font-style: italic; min-height: 1em; }
    </style>
</head>
<body>
    <h1>Chat Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>
    <div id="online">0 online</div>

    <div>
        <input type="text" id="nameInput" placeholder="Your name...">
        <button id="joinButton" onclick="join()">Join</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." maxlength="500" disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="messages"></div>
    <div id="typing"></div>

    <script>
        const SYSTEM_ID = 'system';
        let ws = null;
        let myId = null;
        let myName = null;
        let typing = false;
        let typingTimer = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const statusDiv = document.getElementById('status');

        function emit(event, data) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify(data === undefined ? { event } : { event, data }));
            }
        }

        function addMessage(msg) {
            const el = document.createElement('div');
            el.style.margin = '5px 0';
            if (msg.userId === SYSTEM_ID) {
                el.style.color = 'gray';
                el.innerHTML = '<em></em>';
                el.firstChild.textContent = msg.text;
            } else {
                el.style.color = msg.username === myName ? 'blue' : 'green';
                el.innerHTML = '<strong></strong> <span></span>';
                el.firstChild.textContent = msg.username + ':';
                el.lastChild.textContent = msg.text;
            }
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function notice(text) {
            addMessage({ userId: SYSTEM_ID, username: 'System', text });
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
        }

        function join() {
            const name = document.getElementById('nameInput').value.trim();
            if (!name) return;
            myName = name;
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = () => { updateStatus(true); emit('join', { username: name }); };
            ws.onclose = () => { updateStatus(false); ws = null; };
            ws.onmessage = (event) => {
                const env = JSON.parse(event.data);
                switch (env.event) {
                case 'chat_history':
                    messagesDiv.innerHTML = '';
                    env.data.forEach(addMessage);
                    break;
                case 'users_update':
                    document.getElementById('online').textContent = env.data.length + ' online';
                    break;
                case 'user_joined':
                    notice(env.data.username + ' joined the chat');
                    break;
                case 'user_left':
                    notice(env.data.username + ' left the chat');
                    break;
                case 'receive_message':
                    addMessage(env.data);
                    break;
                case 'user_typing':
                    const others = env.data.filter((n) => n !== myName);
                    document.getElementById('typing').textContent =
                        others.length ? others.join(', ') + (others.length === 1 ? ' is' : ' are') + ' typing...' : '';
                    break;
                }
            };
        }

        function stopTyping() {
            if (typing) { typing = false; emit('typing_stop'); }
            clearTimeout(typingTimer);
        }

        function sendMessage() {
            const text = messageInput.value.trim();
            if (!text) return;
            emit('send_message', { text });
            messageInput.value = '';
            stopTyping();
        }

        messageInput.addEventListener('input', () => {
            if (messageInput.value.trim() && !typing) { typing = true; emit('typing_start'); }
            clearTimeout(typingTimer);
            typingTimer = setTimeout(stopTyping, 1000);
        });
        messageInput.addEventListener('keypress', (e) => { if (e.key === 'Enter') sendMessage(); });
    </script>
</body>
</html>`
