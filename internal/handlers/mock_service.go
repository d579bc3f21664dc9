package handlers

import (
	"context"
	"io"
	"net/http"
	"sync"

	"malaria_clinic/internal/models"
	"malaria_clinic/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	checkOK       bool
	checkErr      error
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastCheckUsername  string
	lastCheckPassword  string
	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
	signUpCalls        int
}

func (m *mockAuth) CheckCredentials(_ context.Context, username, password string) (bool, error) {
	m.lastCheckUsername = username
	m.lastCheckPassword = password
	return m.checkOK, m.checkErr
}
func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.signUpCalls++
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}
func (m *mockAuth) EnsureAdmin(context.Context, string, string) (bool, error) {
	return false, nil
}

type mockPatients struct {
	list      []models.Patient
	listErr   error
	addID     int
	addErr    error
	deleteErr error

	added   []models.Patient
	deleted []int
}

func (m *mockPatients) AddPatient(_ context.Context, p models.Patient) (int, error) {
	m.added = append(m.added, p)
	return m.addID, m.addErr
}
func (m *mockPatients) ListPatients(context.Context) ([]models.Patient, error) {
	return m.list, m.listErr
}
func (m *mockPatients) DeletePatient(_ context.Context, id int) error {
	m.deleted = append(m.deleted, id)
	return m.deleteErr
}

type mockDoctors struct {
	list      []models.Doctor
	listErr   error
	addID     int
	addErr    error
	deleteErr error

	added   []models.Doctor
	deleted []int
}

func (m *mockDoctors) AddDoctor(_ context.Context, d models.Doctor) (int, error) {
	m.added = append(m.added, d)
	return m.addID, m.addErr
}
func (m *mockDoctors) ListDoctors(context.Context) ([]models.Doctor, error) {
	return m.list, m.listErr
}
func (m *mockDoctors) DeleteDoctor(_ context.Context, id int) error {
	m.deleted = append(m.deleted, id)
	return m.deleteErr
}

type mockDashboard struct {
	mu    sync.Mutex
	stats models.DashboardStats
	err   error
	calls int
}

func (m *mockDashboard) Stats(context.Context) (models.DashboardStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats, m.err
}

// set swaps the counts and error while a stream is polling.
func (m *mockDashboard) set(st models.DashboardStats, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats, m.err = st, err
}

type mockPrediction struct {
	pred models.Prediction
	err  error

	calls        int
	lastFilename string
	lastBody     []byte
}

func (m *mockPrediction) Predict(_ context.Context, filename string, r io.Reader) (models.Prediction, error) {
	m.calls++
	m.lastFilename = filename
	m.lastBody, _ = io.ReadAll(r)
	return m.pred, m.err
}

// ---- Shared Test Helpers ----

func testConfig() Config {
	return Config{
		SessionName:    "test_session",
		SessionSecret:  "test-session-secret",
		SessionMaxAge:  3600,
		MaxUploadBytes: 1 << 20,
	}
}

func newTestRouter(s *service.Service) *gin.Engine {
	return newTestRouterWithConfig(s, testConfig())
}

func newTestRouterWithConfig(s *service.Service, cfg Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, cfg)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
