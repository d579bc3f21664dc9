package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"malaria_clinic/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	statsWriteWait = 10 * time.Second
	statsPongWait  = 60 * time.Second
	statsPingEvery = statsPongWait * 9 / 10
	statsReadLimit = 512

	statsPollDefault = 5 * time.Second
	statsPollMin     = 100 * time.Millisecond
	statsPollMax     = time.Minute

	statsMsgCounts  = "stats"
	statsMsgError   = "error"
	statsMsgRefresh = "refresh"
)

// statsMessage is the only frame the dashboard stream writes.
type statsMessage struct {
	Type  string                 `json:"type"`
	Data  *models.DashboardStats `json:"data,omitempty"`
	Error string                 `json:"error,omitempty"`
}

// The stream only carries counts, so any origin may read it.
var statsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// statsPollInterval reads ?interval=<duration>, clamped to
// [statsPollMin, statsPollMax].
func statsPollInterval(c *gin.Context) time.Duration {
	d, err := time.ParseDuration(c.Query("interval"))
	if err != nil || d <= 0 {
		return statsPollDefault
	}
	if d < statsPollMin {
		return statsPollMin
	}
	if d > statsPollMax {
		return statsPollMax
	}
	return d
}

// wsConnect streams dashboard counts. The client gets a snapshot on connect
// and then a new one only when the counts change. Sending "refresh" asks for
// the current counts right away.
func (h *Handler) wsConnect(c *gin.Context) {
	poll := statsPollInterval(c)

	conn, err := statsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(statsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(statsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(statsPongWait))
	})

	refresh := make(chan struct{}, 1)
	done := make(chan struct{})
	go h.readStatsRequests(conn, refresh, done)

	w := &statsWatch{h: h, conn: conn}
	w.run(c.Request.Context(), poll, refresh, done)
}

// readStatsRequests owns the read side of conn. It closes done once the
// client is gone.
func (h *Handler) readStatsRequests(conn *websocket.Conn, refresh chan<- struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Debugw("ws_client_gone", "err", err)
			}
			return
		}
		if strings.TrimSpace(string(msg)) != statsMsgRefresh {
			continue
		}
		select {
		case refresh <- struct{}{}:
		default:
		}
	}
}

// statsWatch remembers what the client last saw so that polls which find
// the same counts stay silent.
type statsWatch struct {
	h    *Handler
	conn *websocket.Conn

	last    *models.DashboardStats
	failing bool
}

func (w *statsWatch) run(ctx context.Context, poll time.Duration, refresh <-chan struct{}, done <-chan struct{}) {
	if err := w.push(ctx, true); err != nil {
		w.logWrite(err)
		return
	}

	tick := time.NewTicker(poll)
	defer tick.Stop()
	ping := time.NewTicker(statsPingEvery)
	defer ping.Stop()

	for {
		var err error
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-tick.C:
			err = w.push(ctx, false)
		case <-refresh:
			err = w.push(ctx, true)
		case <-ping.C:
			_ = w.conn.SetWriteDeadline(time.Now().Add(statsWriteWait))
			err = w.conn.WriteMessage(websocket.PingMessage, nil)
		}
		if err != nil {
			w.logWrite(err)
			return
		}
	}
}

// push sends the current counts when they differ from the last frame, or
// always when force is set. A failing count query is reported once per
// outage and the stream keeps polling.
func (w *statsWatch) push(ctx context.Context, force bool) error {
	st, err := w.h.services.Dashboard.Stats(ctx)
	if err != nil {
		if w.h.log != nil {
			w.h.log.Errorw("ws_stats_failed", "err", err)
		}
		if w.failing && !force {
			return nil
		}
		w.failing = true
		return w.write(statsMessage{Type: statsMsgError, Error: "stats unavailable"})
	}

	recovered := w.failing
	w.failing = false
	if !force && !recovered && w.last != nil && *w.last == st {
		return nil
	}
	w.last = &st
	return w.write(statsMessage{Type: statsMsgCounts, Data: &st})
}

func (w *statsWatch) write(m statsMessage) error {
	_ = w.conn.SetWriteDeadline(time.Now().Add(statsWriteWait))
	return w.conn.WriteJSON(m)
}

func (w *statsWatch) logWrite(err error) {
	if w.h.log != nil {
		w.h.log.Infow("ws_write_failed", "err", err)
	}
}
