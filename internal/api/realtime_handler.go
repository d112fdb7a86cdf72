package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/pipedeck/pipedeck/internal/api/middleware"
	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/hosted"
	"github.com/pipedeck/pipedeck/internal/repository"
	"github.com/pipedeck/pipedeck/internal/services"
)

// realtimeMessage is the frame format in both directions.
type realtimeMessage struct {
	Type       string      `json:"type"`
	Path       string      `json:"path,omitempty"`
	PipelineID string      `json:"pipeline_id,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// RealtimeHandler streams auth-state transitions and run history to the
// dashboard over a websocket. Each connection owns its own auth state
// machine seeded from the caller's session cookie; a per-connection route
// guard issues at most one navigate frame (plus one forced fallback) when
// the session goes away.
type RealtimeHandler struct {
	newSessionClient func() *hosted.HTTPSessionClient
	runs             repository.PipelineRunRepository
	logger           *slog.Logger
	upgrader         websocket.Upgrader
}

// NewRealtimeHandler creates a realtime handler. newSessionClient builds a
// fresh hosted-auth client per connection.
func NewRealtimeHandler(
	newSessionClient func() *hosted.HTTPSessionClient,
	runs repository.PipelineRunRepository,
	logger *slog.Logger,
) *RealtimeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RealtimeHandler{
		newSessionClient: newSessionClient,
		runs:             runs,
		logger:           logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers the realtime endpoint behind the session
// middleware.
func (h *RealtimeHandler) RegisterRoutes(router *gin.RouterGroup, session *middleware.SessionMiddleware) {
	router.GET("/realtime", session.RequireSession(), h.Stream)
}

// Stream upgrades the connection and runs the per-connection loops.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	user, _ := GetUserFromContext(c)
	token := middleware.GetAccessToken(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	out := make(chan realtimeMessage, 32)
	var writeOnce sync.Once
	closeWriter := func() { writeOnce.Do(func() { close(out) }) }
	defer closeWriter()

	go h.writeLoop(conn, out)

	// Per-connection auth state machine, resumed from the cookie session.
	client := h.newSessionClient()
	authSvc := services.NewAuthStateService(client, h.logger)
	defer authSvc.Close()

	client.RestoreSession(&domain.Session{
		AccessToken: token,
		User:        user,
	})
	authSvc.Initialize(ctx)

	loc := &reportedLocation{path: "/dashboard"}
	guard := services.NewRouteGuard(&frameNavigator{out: out}, loc, services.GuardConfig{
		GuardedPath: "/dashboard",
		RedirectTo:  "/login",
	})

	states, cancelSub := authSvc.Subscribe()
	defer cancelSub()
	go func() {
		guard.Watch(ctx, states)
		// The guard released: either the connection is closing or a redirect
		// was issued and the mount is done.
	}()

	h.readLoop(ctx, conn, authSvc, loc, out)
	cancel()
	_ = conn.Close()
}

func (h *RealtimeHandler) writeLoop(conn *websocket.Conn, out <-chan realtimeMessage) {
	for msg := range out {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (h *RealtimeHandler) readLoop(
	ctx context.Context,
	conn *websocket.Conn,
	authSvc services.AuthStateService,
	loc *reportedLocation,
	out chan<- realtimeMessage,
) {
	for {
		var msg realtimeMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "signout":
			authSvc.SignOut(ctx)
		case "location":
			loc.set(msg.Path)
		case "runs":
			runs, err := h.runs.ListByPipeline(ctx, msg.PipelineID, 20)
			if err != nil {
				h.logger.Warn("run fetch failed", "pipeline_id", msg.PipelineID, "error", err)
				h.send(out, realtimeMessage{Type: "error", PipelineID: msg.PipelineID})
				continue
			}
			h.send(out, realtimeMessage{Type: "runs", PipelineID: msg.PipelineID, Data: runs})
		}
	}
}

func (h *RealtimeHandler) send(out chan<- realtimeMessage, msg realtimeMessage) {
	select {
	case out <- msg:
	default:
		// Slow consumer; drop rather than block the read loop.
	}
}

// frameNavigator delivers guard navigations as control frames.
type frameNavigator struct {
	out chan<- realtimeMessage
}

func (n *frameNavigator) Navigate(path string) {
	n.push(realtimeMessage{Type: "navigate", Path: path})
}

func (n *frameNavigator) ForceNavigate(path string) {
	n.push(realtimeMessage{Type: "force_navigate", Path: path})
}

func (n *frameNavigator) push(msg realtimeMessage) {
	defer func() {
		// The writer may already be gone when the connection tears down mid
		// redirect; a dropped frame is acceptable then.
		_ = recover()
	}()
	select {
	case n.out <- msg:
	default:
	}
}

// reportedLocation is the client-reported path the guard checks before its
// fallback navigation.
type reportedLocation struct {
	mu   sync.Mutex
	path string
}

func (l *reportedLocation) set(path string) {
	l.mu.Lock()
	l.path = path
	l.mu.Unlock()
}

// CurrentPath implements services.Locator.
func (l *reportedLocation) CurrentPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}
