package handlers

import (
	"context"
	"net/http"
	"time"

	"home_climate/internal/models"
	"home_climate/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseAdmin    bool
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (*service.Claims, error) {
	m.lastParseToken = token
	if m.parseErr != nil {
		return nil, m.parseErr
	}
	return &service.Claims{UserID: m.parseID, Admin: m.parseAdmin}, nil
}

type mockClimate struct {
	latest    models.ClimateReading
	latestErr error
	history   []models.ClimateReading
	histErr   error
	lastDays  int
}

func (m *mockClimate) Latest(ctx context.Context) (models.ClimateReading, error) {
	return m.latest, m.latestErr
}
func (m *mockClimate) History(ctx context.Context, days int) ([]models.ClimateReading, error) {
	m.lastDays = days
	return m.history, m.histErr
}
func (m *mockClimate) Record(ctx context.Context, r models.ClimateReading) (models.ClimateReading, error) {
	return r, nil
}
func (m *mockClimate) ApplySettings(ctx context.Context, s models.ClimateSettings) (models.ClimateReading, error) {
	return m.latest, m.latestErr
}

type mockPrograms struct {
	list      []models.ClimateProgram
	active    *models.ClimateProgram
	get       models.ClimateProgram
	getErr    error
	activeErr error
	lastGetID int64
}

func (m *mockPrograms) Create(ctx context.Context, p models.ClimateProgram) (models.ClimateProgram, error) {
	return p, nil
}
func (m *mockPrograms) Select(ctx context.Context, id int64) (service.Selection, error) {
	return service.Selection{}, nil
}
func (m *mockPrograms) Update(ctx context.Context, id int64, patch models.ProgramPatch) (models.ClimateProgram, error) {
	return m.get, nil
}
func (m *mockPrograms) Delete(ctx context.Context, id int64) (service.DeleteResult, error) {
	return service.DeleteResult{}, nil
}
func (m *mockPrograms) Applied(ctx context.Context, ack models.ProgramAck) (*models.ClimateProgram, error) {
	return m.active, nil
}
func (m *mockPrograms) Active(ctx context.Context) (*models.ClimateProgram, error) {
	return m.active, m.activeErr
}
func (m *mockPrograms) List(ctx context.Context) ([]models.ClimateProgram, error) {
	return m.list, nil
}
func (m *mockPrograms) Get(ctx context.Context, id int64) (models.ClimateProgram, error) {
	m.lastGetID = id
	return m.get, m.getErr
}

type mockGarage struct {
	door models.GarageDoor
	err  error
}

func (m *mockGarage) Status(ctx context.Context) (models.GarageDoor, error) {
	return m.door, m.err
}
func (m *mockGarage) Operate(ctx context.Context, patch models.GarageDoorPatch) (models.GarageDoor, error) {
	return m.door, m.err
}

type mockVideos struct {
	videos       []models.Video
	lastLocation string
	lastLimit    int
}

func (m *mockVideos) Register(ctx context.Context, v models.Video) (models.Video, error) {
	return v, nil
}
func (m *mockVideos) Recent(ctx context.Context, limit int) ([]models.Video, error) {
	m.lastLimit = limit
	return m.videos, nil
}
func (m *mockVideos) ByLocation(ctx context.Context, location string, limit int) ([]models.Video, error) {
	m.lastLocation = location
	m.lastLimit = limit
	return m.videos, nil
}
func (m *mockVideos) Remove(ctx context.Context, filename string) (models.Video, error) {
	return models.Video{Filename: filename}, nil
}

type mockEventLog struct {
	resp     []models.ClimateEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ClimateEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

const testNodeKey = "node-secret"

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil, Options{NodeKey: testNodeKey}, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
