package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vital-portal/vital/internal/api/http/handlers"
	"github.com/vital-portal/vital/internal/auth"
	"github.com/vital-portal/vital/internal/config"
	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/observability"
	"github.com/vital-portal/vital/internal/repository"
	"github.com/vital-portal/vital/internal/service"
	"github.com/vital-portal/vital/internal/storage"
	apperrors "github.com/vital-portal/vital/pkg/util/errorutil"
)

var halli = domain.Jurisdiction{
	District: "Mysuru", DistrictID: "d1",
	Taluk: "Hunsur", TalukID: "t1",
	PanchayatID: "gp1", PanchayatName: "Halli",
}

type memoryIssues struct {
	mu     sync.Mutex
	issues map[string]*domain.Issue
	seq    int
}

func (m *memoryIssues) Create(_ context.Context, issue *domain.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	issue.ID = "issue-" + strconv.Itoa(m.seq)
	m.issues[issue.ID] = issue.Clone()
	return nil
}

func (m *memoryIssues) Update(_ context.Context, issue *domain.Issue, from domain.IssueStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.issues[issue.ID]; !ok || current.Status != from {
		return pgx.ErrNoRows
	}
	m.issues[issue.ID] = issue.Clone()
	return nil
}

func (m *memoryIssues) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return issue.Clone(), nil
}

func (m *memoryIssues) List(_ context.Context, _ repository.IssueFilter) ([]*domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Issue, 0, len(m.issues))
	for _, issue := range m.issues {
		out = append(out, issue.Clone())
	}
	return out, nil
}

type noFunds struct{}

func (noFunds) Create(context.Context, *domain.FundRequest) error { return nil }
func (noFunds) Update(context.Context, *domain.FundRequest) error { return nil }
func (noFunds) GetByID(context.Context, string) (*domain.FundRequest, error) {
	return nil, pgx.ErrNoRows
}
func (noFunds) List(context.Context, repository.FundRequestFilter) ([]*domain.FundRequest, error) {
	return nil, nil
}

type resolverFunc func(ctx context.Context, uid string) (domain.Principal, error)

func (f resolverFunc) ResolvePrincipal(ctx context.Context, uid string) (domain.Principal, error) {
	return f(ctx, uid)
}

type storeFunc func(ctx context.Context, prefix, contentType string, data []byte) (string, error)

func (f storeFunc) Upload(ctx context.Context, prefix, contentType string, data []byte) (string, error) {
	return f(ctx, prefix, contentType, data)
}

var principals = map[string]domain.Principal{
	"villager": {UID: "villager", Role: domain.RoleVillager, Jurisdiction: halli, Verified: true},
	"vi":       {UID: "vi", Role: domain.RoleVillageIncharge, Jurisdiction: halli, Verified: true},
	"pdo":      {UID: "pdo", Role: domain.RolePDO, Jurisdiction: halli, Verified: true},
	"tdo":      {UID: "tdo", Role: domain.RoleTDO, Jurisdiction: halli, Verified: true},
}

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 30, BcryptCost: 4}}

	issueRepo := &memoryIssues{issues: map[string]*domain.Issue{}}
	issues := service.NewIssueService(service.IssueDependencies{IssueRepo: issueRepo, Logger: logger})
	funds := service.NewFundService(service.FundDependencies{FundRequestRepo: noFunds{}, IssueRepo: issueRepo, Logger: logger})
	reports := service.NewReportService(issueRepo, noFunds{}, 6)
	reports.Now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	authService := service.NewAuthService(cfg, service.AuthDependencies{Logger: logger})

	resolver := resolverFunc(func(_ context.Context, uid string) (domain.Principal, error) {
		if uid == "pending" {
			return domain.Principal{}, apperrors.NewUnverified("pending", "")
		}
		p, ok := principals[uid]
		if !ok {
			return domain.Principal{}, apperrors.NewProfileMissing(uid)
		}
		return p, nil
	})
	store := storeFunc(func(_ context.Context, prefix, contentType string, _ []byte) (string, error) {
		if contentType != "image/png" {
			return "", storage.ErrUnsupportedType
		}
		return "https://cdn.example/" + prefix + "/photo.png", nil
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("vital-portal", "test", nil),
		Auth:           handlers.NewAuthHandler(authService, false),
		Issues:         handlers.NewIssuesHandler(issues),
		Funds:          handlers.NewFundsHandler(funds),
		Workers:        handlers.NewWorkersHandler(service.NewWorkerService(nil)),
		Reports:        handlers.NewReportsHandler(reports),
		Admin:          handlers.NewAdminHandler(authService, issues, metrics, 7*24*time.Hour),
		Stream:         handlers.NewStreamHandler(issues, logger),
		Uploads:        handlers.NewUploadsHandler(store, 1<<20),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), resolver),
	})
	return &testServer{app: app, tokens: authService.TokenManager()}
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, uid string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if uid != "" {
		token, _, err := s.tokens.GenerateToken(uid)
		require.NoError(t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRoutes_Gates(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name     string
		method   string
		path     string
		uid      string
		status   int
		code     string
		redirect string
	}{
		{"anonymous", http.MethodGet, "/villager/issues", "", 401, apperrors.CodeNotAuthenticated, "/login"},
		{"no profile", http.MethodGet, "/villager/issues", "ghost", 403, apperrors.CodeProfileMissing, "/register"},
		{"pending authority", http.MethodGet, "/authority/pdo/dashboard", "pending", 403, apperrors.CodeUnverified, "/authority/status?state=pending"},
		{"villager on authority page", http.MethodGet, "/authority/pdo/dashboard", "villager", 403, apperrors.CodeNotAuthorized, "/villager/dashboard"},
		{"other authority role", http.MethodGet, "/authority/tdo/dashboard", "pdo", 403, apperrors.CodeNotAuthorized, "/authority/pdo/dashboard"},
		{"authority on villager page", http.MethodGet, "/villager/dashboard", "vi", 403, apperrors.CodeNotAuthorized, "/authority/vi/dashboard"},
		{"non admin", http.MethodGet, "/admin/metrics", "tdo", 403, apperrors.CodeNotAuthorized, "/authority/tdo/dashboard"},
		{"workers are pdo only", http.MethodGet, "/authority/vi/workers", "vi", 403, apperrors.CodeNotAuthorized, "/authority/vi/dashboard"},
		{"decision is tdo only", http.MethodPost, "/authority/pdo/fund-requests/f1/decision", "pdo", 403, apperrors.CodeNotAuthorized, "/authority/pdo/dashboard"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := s.do(t, tc.method, tc.path, tc.uid, nil)
			assert.Equal(t, tc.status, resp.StatusCode)
			body := decode[errorBody](t, resp)
			assert.Equal(t, tc.code, body.Error.Code)
			assert.Equal(t, tc.redirect, body.Error.Details["redirect"])
		})
	}
}

func TestRoutes_IssueFlow(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/villager/issues", "villager", map[string]any{
		"category":    "Water Supply",
		"title":       "Broken pipe",
		"description": "Main line leaking near the school",
		"jurisdiction": map[string]any{
			"districtId": "d1", "talukId": "t1",
			"gramPanchayatId": "gp1", "gramPanchayat": "Halli",
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[struct {
		Data struct {
			Issue struct {
				ID           string `json:"id"`
				Status       string `json:"status"`
				Jurisdiction struct {
					PanchayatID   string `json:"panchayatId"`
					PanchayatName string `json:"panchayatName"`
				} `json:"jurisdiction"`
			} `json:"issue"`
		} `json:"data"`
	}](t, resp)
	issueID := created.Data.Issue.ID
	assert.Equal(t, "submitted", created.Data.Issue.Status)
	assert.Equal(t, "gp1", created.Data.Issue.Jurisdiction.PanchayatID)
	assert.Equal(t, "Halli", created.Data.Issue.Jurisdiction.PanchayatName)

	resp = s.do(t, http.MethodPost, "/authority/pdo/issues/"+issueID+"/transitions", "pdo", map[string]any{"status": "vi_verified"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apperrors.CodeNotAuthorized, decode[errorBody](t, resp).Error.Code)

	resp = s.do(t, http.MethodPost, "/authority/vi/issues/"+issueID+"/transitions", "vi", map[string]any{"status": "resolved"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, apperrors.CodeInvalidTransition, decode[errorBody](t, resp).Error.Code)

	resp = s.do(t, http.MethodPost, "/authority/vi/issues/"+issueID+"/transitions", "vi", map[string]any{
		"status":  "vi_verified",
		"comment": "checked on site",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	verified := decode[struct {
		Data struct {
			Issue struct {
				Status     string     `json:"status"`
				VerifiedAt *time.Time `json:"verifiedAt"`
			} `json:"issue"`
		} `json:"data"`
	}](t, resp)
	assert.Equal(t, "vi_verified", verified.Data.Issue.Status)
	assert.NotNil(t, verified.Data.Issue.VerifiedAt)

	resp = s.do(t, http.MethodPatch, "/villager/issues/"+issueID, "villager", map[string]any{"title": "too late"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/villager/issues/"+issueID, "villager", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/villager/issues?status=bogus", "villager", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutes_ReportExport(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodPost, "/villager/issues", "villager", map[string]any{
		"category": "Roads", "title": "Pothole", "description": "Deep pothole",
		"jurisdiction": map[string]any{"panchayatId": "gp1", "panchayatName": "Halli"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/reports/summary?format=csv", "pdo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "summary-2024-03-15.csv")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Total,Resolved,Pending")

	resp = s.do(t, http.MethodGet, "/reports/summary?format=pdf", "pdo", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/reports/summary", "villager", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRoutes_UnknownRouteRendersDomainError(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperrors.CodeNotFound, decode[errorBody](t, resp).Error.Code)

	resp = s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutes_Upload(t *testing.T) {
	s := newTestServer(t)
	upload := func(data []byte) *http.Response {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("photo", "photo.bin")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/uploads", &body)
		req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
		token, _, err := s.tokens.GenerateToken("villager")
		require.NoError(t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, err := s.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	resp := upload(png)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}](t, resp)
	assert.Equal(t, "https://cdn.example/photos/villager/photo.png", out.Data.URL)

	resp = upload([]byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
