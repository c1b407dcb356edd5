package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClusterMST/internal/application/dashboard"
	"github.com/turtacn/ClusterMST/internal/config"
	"github.com/turtacn/ClusterMST/internal/domain/result"
	"github.com/turtacn/ClusterMST/internal/interfaces/http/web"
	"github.com/turtacn/ClusterMST/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock Dashboard Service ---

type mockDashboardService struct {
	mock.Mock
}

func (m *mockDashboardService) Run(ctx context.Context, in *dashboard.RunInput) (*dashboard.View, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.View), args.Error(1)
}

func (m *mockDashboardService) View(ctx context.Context, id string) (*dashboard.View, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.View), args.Error(1)
}

func (m *mockDashboardService) Selection(ctx context.Context, id string, indices []int) (*dashboard.SelectionView, error) {
	args := m.Called(ctx, id, indices)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.SelectionView), args.Error(1)
}

func (m *mockDashboardService) Export(ctx context.Context, id string, kind result.ExportKind, indices []int) (*dashboard.Download, error) {
	args := m.Called(ctx, id, kind, indices)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Download), args.Error(1)
}

func (m *mockDashboardService) Image(ctx context.Context, id string, row int) ([]byte, error) {
	args := m.Called(ctx, id, row)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockDashboardService) Defaults() dashboard.Form {
	return dashboard.DefaultForm(config.Default().Cluster)
}

func (m *mockDashboardService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestEngine(t *testing.T, svc dashboard.Service) *gin.Engine {
	e, _ := newLoggedEngine(t, svc)
	return e
}

// newLoggedEngine also returns the logger both handlers write to.
func newLoggedEngine(t *testing.T, svc dashboard.Service) (*gin.Engine, *testutil.MockLogger) {
	t.Helper()
	tmpl, err := web.Templates()
	require.NoError(t, err)
	e := gin.New()
	e.SetHTMLTemplate(tmpl)

	logger := testutil.NewMockLogger()
	dh, err := NewDashboardHandler(svc, logger.Named("http"))
	require.NoError(t, err)
	dh.RegisterRoutes(e)
	NewAPIHandler(svc, logger.Named("api")).RegisterRoutes(e.Group("/api/v1"))
	return e, logger
}

func serve(e http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	return w
}

// multipartRequest builds a form post. A nil file sends no file part.
func multipartRequest(t *testing.T, target string, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "compounds.tsv")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	r := httptest.NewRequest(http.MethodPost, target, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}
