package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	loginCreds string
	loginErr   error
	resolveErr error
	logoutErr  error
}

func (s *stubSessions) Login(ctx context.Context, creds string) (string, error) {
	s.loginCreds = creds
	if s.loginErr != nil {
		return "", s.loginErr
	}
	return "tok", nil
}

func (s *stubSessions) Logout(ctx context.Context, token string) error { return s.logoutErr }

func (s *stubSessions) ResolveSession(ctx context.Context, token string) (string, error) {
	if s.resolveErr != nil {
		return "", s.resolveErr
	}
	return "user-" + token, nil
}

type stubFiles struct {
	lastUser   string
	lastCreate *services.CreateFileRequest
	lastFilter services.ListFilter
	err        error
}

func (f *stubFiles) Create(ctx context.Context, userID string, req *services.CreateFileRequest) (*models.File, error) {
	f.lastUser, f.lastCreate = userID, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.File{ID: "f1", UserID: userID, Name: req.Name, Type: models.FileType(req.Type), ParentID: req.ParentID}, nil
}

func (f *stubFiles) Get(ctx context.Context, userID, fileID string) (*models.File, error) {
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return &models.File{ID: fileID, UserID: userID}, nil
}

func (f *stubFiles) List(ctx context.Context, userID string, filter services.ListFilter) ([]*models.File, error) {
	f.lastUser, f.lastFilter = userID, filter
	return []*models.File{}, f.err
}

func (f *stubFiles) SetVisibility(ctx context.Context, userID, fileID string, isPublic bool) (*models.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.File{ID: fileID, UserID: userID, IsPublic: isPublic}, nil
}

func (f *stubFiles) ResolveContent(ctx context.Context, fileID, token, size string) (*services.Content, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.Content{Name: "a.txt", MimeType: "text/plain", Data: []byte(token + "|" + size)}, nil
}

type stubApp struct{ err error }

func (a stubApp) Status(context.Context) services.Status { return services.Status{DB: true} }
func (a stubApp) Stats(context.Context) (services.Stats, error) {
	return services.Stats{Users: 2, Files: 3}, a.err
}

func newStubServer(ss *stubSessions, fs *stubFiles, app stubApp) *HTTPServer {
	return NewHTTPServer(":0", time.Second, logging.Nop{}, ss, nil, fs, app)
}

func TestWriteError(t *testing.T) {
	s := newStubServer(&stubSessions{}, &stubFiles{}, stubApp{})

	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{common.ErrorUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{common.NewValidationError("Missing name"), http.StatusBadRequest, "Missing name"},
		{common.ErrorNoContent, http.StatusBadRequest, "A folder doesn't have content"},
		{common.ErrorStorageWrite, http.StatusBadRequest, "Cannot store file"},
		{common.ErrorNotFound, http.StatusNotFound, "Not found"},
		{common.ErrorForbidden, http.StatusNotFound, "Not found"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			s.writeError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, decodeBody[errorResponse](t, w).Error)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	ss := &stubSessions{}
	h := newStubServer(ss, &stubFiles{}, stubApp{}).Handler()

	w := doRequest(t, h, http.MethodGet, "/files", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ss.resolveErr = common.ErrorUnauthorized
	w = doRequest(t, h, http.MethodGet, "/files/abc", nil, withToken("bad"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ss.resolveErr = common.ErrorInternal
	w = doRequest(t, h, http.MethodGet, "/files/abc", nil, withToken("t"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestConnect(t *testing.T) {
	ss := &stubSessions{}
	h := newStubServer(ss, &stubFiles{}, stubApp{}).Handler()

	w := doRequest(t, h, http.MethodGet, "/connect", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, h, http.MethodGet, "/connect", nil, withHeader("Authorization", "Bearer abc"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, h, http.MethodGet, "/connect", nil, withHeader("Authorization", "Basic YTpi"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok", decodeBody[tokenResponse](t, w).Token)
	assert.Equal(t, "YTpi", ss.loginCreds)

	ss.loginErr = common.ErrorUnauthorized
	w = doRequest(t, h, http.MethodGet, "/connect", nil, withHeader("Authorization", "Basic YTpi"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDisconnect(t *testing.T) {
	ss := &stubSessions{}
	h := newStubServer(ss, &stubFiles{}, stubApp{}).Handler()

	w := doRequest(t, h, http.MethodGet, "/disconnect", nil, withToken("t"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	ss.logoutErr = common.ErrorUnauthorized
	w = doRequest(t, h, http.MethodGet, "/disconnect", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostFile(t *testing.T) {
	fs := &stubFiles{}
	h := newStubServer(&stubSessions{}, fs, stubApp{}).Handler()

	w := doRequest(t, h, http.MethodPost, "/files", map[string]any{
		"name": "docs", "type": "folder", "parentId": 0, "isPublic": true,
	}, withToken("t"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "user-t", fs.lastUser)
	assert.Equal(t, &services.CreateFileRequest{Name: "docs", Type: "folder", ParentID: "0", IsPublic: true}, fs.lastCreate)

	got := decodeBody[map[string]any](t, w)
	assert.Equal(t, "f1", got["id"])
	assert.Equal(t, "user-t", got["userId"])
	assert.NotContains(t, got, "StorageKey")

	w = doRequest(t, h, http.MethodPost, "/files", "{not json", withToken("t"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	fs.err = common.NewValidationError("Missing type")
	w = doRequest(t, h, http.MethodPost, "/files", map[string]any{"name": "a"}, withToken("t"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing type", decodeBody[errorResponse](t, w).Error)
}

func TestGetFilesQuery(t *testing.T) {
	fs := &stubFiles{}
	h := newStubServer(&stubSessions{}, fs, stubApp{}).Handler()

	w := doRequest(t, h, http.MethodGet, "/files", nil, withToken("t"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
	assert.Nil(t, fs.lastFilter.ParentID)
	assert.Nil(t, fs.lastFilter.Page)

	w = doRequest(t, h, http.MethodGet, "/files?parentId=p1&page=2", nil, withToken("t"))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, fs.lastFilter.ParentID)
	assert.Equal(t, "p1", *fs.lastFilter.ParentID)
	require.NotNil(t, fs.lastFilter.Page)
	assert.Equal(t, 2, *fs.lastFilter.Page)

	doRequest(t, h, http.MethodGet, "/files?page=abc", nil, withToken("t"))
	require.NotNil(t, fs.lastFilter.Page)
	assert.Equal(t, 0, *fs.lastFilter.Page)
}

func TestVisibilityRoutes(t *testing.T) {
	fs := &stubFiles{}
	h := newStubServer(&stubSessions{}, fs, stubApp{}).Handler()

	w := doRequest(t, h, http.MethodPut, "/files/x/publish", nil, withToken("t"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody[map[string]any](t, w)["isPublic"])

	w = doRequest(t, h, http.MethodPut, "/files/x/unpublish", nil, withToken("t"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody[map[string]any](t, w)["isPublic"])

	fs.err = common.ErrorNotFound
	w = doRequest(t, h, http.MethodPut, "/files/x/publish", nil, withToken("t"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFileData(t *testing.T) {
	fs := &stubFiles{}
	h := newStubServer(&stubSessions{}, fs, stubApp{}).Handler()

	w := doRequest(t, h, http.MethodGet, "/files/x/data?size=250", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Equal(t, "|250", w.Body.String())

	w = doRequest(t, h, http.MethodGet, "/files/x/data", nil, withToken("t"))
	assert.Equal(t, "t|", w.Body.String())

	fs.err = common.ErrorForbidden
	w = doRequest(t, h, http.MethodGet, "/files/x/data", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusAndStats(t *testing.T) {
	h := newStubServer(&stubSessions{}, &stubFiles{}, stubApp{}).Handler()

	w := doRequest(t, h, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"db":true,"cache":false}`, w.Body.String())

	w = doRequest(t, h, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"users":2,"files":3}`, w.Body.String())

	h = newStubServer(&stubSessions{}, &stubFiles{}, stubApp{err: errors.New("db down")}).Handler()
	w = doRequest(t, h, http.MethodGet, "/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestParentRef(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`"abc"`, "abc", false},
		{`0`, "0", false},
		{`17`, "17", false},
		{`null`, "", false},
		{`true`, "", true},
		{`{}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var p parentRef
			err := json.Unmarshal([]byte(tt.in), &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(p))
		})
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := NewHTTPServer("127.0.0.1:0", time.Second, logging.Nop{}, &stubSessions{}, nil, &stubFiles{}, stubApp{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
