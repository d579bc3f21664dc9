package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"malaria_clinic/internal/models"
	"malaria_clinic/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsPollInterval(t *testing.T) {
	cases := map[string]time.Duration{
		"/ws":               statsPollDefault,
		"/ws?interval=2s":   2 * time.Second,
		"/ws?interval=1ms":  statsPollMin,
		"/ws?interval=10m":  statsPollMax,
		"/ws?interval=-3s":  statsPollDefault,
		"/ws?interval=soon": statsPollDefault,
	}
	for target, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)
		assert.Equal(t, want, statsPollInterval(c), target)
	}
}

func dialStats(t *testing.T, dash *mockDashboard, interval string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{Dashboard: dash}, nil, testConfig())
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?interval=" + interval
	conn, _, err := (&websocket.Dialer{HandshakeTimeout: 2 * time.Second}).Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readStats(t *testing.T, conn *websocket.Conn) statsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m statsMessage
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func TestStatsStream_SnapshotOnConnect(t *testing.T) {
	dash := &mockDashboard{stats: models.DashboardStats{Patients: 12, Doctors: 3}}
	conn := dialStats(t, dash, "1m")

	m := readStats(t, conn)
	assert.Equal(t, statsMsgCounts, m.Type)
	require.NotNil(t, m.Data)
	assert.Equal(t, models.DashboardStats{Patients: 12, Doctors: 3}, *m.Data)
}

func TestStatsStream_PushesOnlyWhenCountsChange(t *testing.T) {
	dash := &mockDashboard{stats: models.DashboardStats{Patients: 1, Doctors: 1}}
	conn := dialStats(t, dash, "100ms")

	first := readStats(t, conn)
	require.NotNil(t, first.Data)
	assert.Equal(t, 1, first.Data.Patients)

	// Several polls see the same counts and must not write anything.
	time.Sleep(350 * time.Millisecond)
	dash.set(models.DashboardStats{Patients: 2, Doctors: 1}, nil)

	next := readStats(t, conn)
	assert.Equal(t, statsMsgCounts, next.Type)
	require.NotNil(t, next.Data)
	assert.Equal(t, models.DashboardStats{Patients: 2, Doctors: 1}, *next.Data)
}

func TestStatsStream_RefreshResendsCurrentCounts(t *testing.T) {
	dash := &mockDashboard{stats: models.DashboardStats{Patients: 4, Doctors: 2}}
	conn := dialStats(t, dash, "1m")
	readStats(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("refresh")))

	m := readStats(t, conn)
	assert.Equal(t, statsMsgCounts, m.Type)
	require.NotNil(t, m.Data)
	assert.Equal(t, models.DashboardStats{Patients: 4, Doctors: 2}, *m.Data)
}

func TestStatsStream_ReportsOutageOnceAndRecovers(t *testing.T) {
	dash := &mockDashboard{err: errors.New("database is locked")}
	conn := dialStats(t, dash, "100ms")

	m := readStats(t, conn)
	assert.Equal(t, statsMsgError, m.Type)
	assert.Equal(t, "stats unavailable", m.Error)
	assert.Nil(t, m.Data)

	// Failing polls during the outage stay silent.
	time.Sleep(350 * time.Millisecond)
	dash.set(models.DashboardStats{Patients: 7}, nil)

	m = readStats(t, conn)
	assert.Equal(t, statsMsgCounts, m.Type)
	require.NotNil(t, m.Data)
	assert.Equal(t, 7, m.Data.Patients)
}

func TestStatsStream_RecoveryResendsUnchangedCounts(t *testing.T) {
	dash := &mockDashboard{stats: models.DashboardStats{Patients: 5, Doctors: 5}}
	conn := dialStats(t, dash, "100ms")
	readStats(t, conn)

	dash.set(models.DashboardStats{Patients: 5, Doctors: 5}, errors.New("disk I/O error"))
	assert.Equal(t, statsMsgError, readStats(t, conn).Type)

	// Same counts as before the outage, but the client was told they were
	// unavailable, so they are sent again.
	dash.set(models.DashboardStats{Patients: 5, Doctors: 5}, nil)
	m := readStats(t, conn)
	assert.Equal(t, statsMsgCounts, m.Type)
	require.NotNil(t, m.Data)
	assert.Equal(t, 5, m.Data.Doctors)
}
