package controller

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/greenpoints/gp-ui/database"
	"github.com/greenpoints/gp-ui/logger"
	"github.com/greenpoints/gp-ui/web/entity"
	"github.com/greenpoints/gp-ui/web/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logDir, _ := os.MkdirTemp("", "gp-ui-test-logs")
	os.Setenv("GP_LOG_FOLDER", logDir)
	logger.InitLogger(logging.DEBUG)

	os.Remove("test.db")
	if err := database.InitDB("test.db"); err != nil {
		panic(err)
	}

	code := m.Run()

	db, _ := database.GetDB().DB()
	db.Close()
	os.Remove("test.db")
	logger.CloseLogger()
	os.RemoveAll(logDir)
	os.Exit(code)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(sessions.Sessions("gp-ui", cookie.NewStore([]byte("test-secret"))))
	engine.Use(func(c *gin.Context) {
		c.Set("base_path", "/")
	})

	profileService := service.NewProfileService(database.NewMemoryKV())
	insightsService := &service.InsightsService{}

	g := engine.Group("/")
	NewIndexController(g, profileService)
	NewPanelController(g, profileService, insightsService)
	NewPortalController(g, profileService)

	return engine
}

func doJSON(engine *gin.Engine, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeMsg(t *testing.T, w *httptest.ResponseRecorder) entity.Msg {
	t.Helper()
	var msg entity.Msg
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	return msg
}

func TestSignupRoutesUserToPortal(t *testing.T) {
	engine := setupRouter()

	w := doJSON(engine, http.MethodPost, "/signup",
		`{"role":"USER","id":"ID-1002","name":"Jamie","password":"hunter2"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	msg := decodeMsg(t, w)
	require.True(t, msg.Success, msg.Msg)
	obj := msg.Obj.(map[string]any)
	assert.Equal(t, "/portal/", obj["redirect"])

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = doJSON(engine, http.MethodGet, "/portal/api/profile", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	msg = decodeMsg(t, w)
	require.True(t, msg.Success)
	profile := msg.Obj.(map[string]any)
	assert.Equal(t, "ID-1002", profile["id"])
	assert.Equal(t, float64(0), profile["points"])
}

func TestLoginRoutesAdminToPanel(t *testing.T) {
	engine := setupRouter()

	w := doJSON(engine, http.MethodPost, "/login",
		`{"role":"ADMIN","id":"admin","password":"password123"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	msg := decodeMsg(t, w)
	require.True(t, msg.Success, msg.Msg)
	obj := msg.Obj.(map[string]any)
	assert.Equal(t, "/panel/", obj["redirect"])

	cookies := w.Result().Cookies()
	w = doJSON(engine, http.MethodGet, "/panel/api/users", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeMsg(t, w).Success)
}

func TestLoginRejectsWrongCredentials(t *testing.T) {
	engine := setupRouter()

	w := doJSON(engine, http.MethodPost, "/signup",
		`{"role":"USER","id":"ID-1002","name":"Jamie","password":"hunter2"}`, nil)
	require.True(t, decodeMsg(t, w).Success)

	w = doJSON(engine, http.MethodPost, "/login",
		`{"role":"USER","id":"ID-1002","password":"wrong"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	msg := decodeMsg(t, w)
	assert.False(t, msg.Success)
	assert.Empty(t, w.Result().Cookies())
}

func TestSignupConflict(t *testing.T) {
	engine := setupRouter()

	body := `{"role":"USER","id":"ID-1002","name":"Jamie","password":"hunter2"}`
	w := doJSON(engine, http.MethodPost, "/signup", body, nil)
	require.True(t, decodeMsg(t, w).Success)

	w = doJSON(engine, http.MethodPost, "/signup", body, nil)
	msg := decodeMsg(t, w)
	assert.False(t, msg.Success)
	assert.Contains(t, msg.Msg, "already registered")
}

func TestUserCannotAccessPanel(t *testing.T) {
	engine := setupRouter()

	w := doJSON(engine, http.MethodPost, "/signup",
		`{"role":"USER","id":"ID-1002","name":"Jamie","password":"hunter2"}`, nil)
	cookies := w.Result().Cookies()

	w = doJSON(engine, http.MethodGet, "/panel/api/users", "", cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDepositOverPortal(t *testing.T) {
	engine := setupRouter()

	w := doJSON(engine, http.MethodPost, "/signup",
		`{"role":"USER","id":"ID-1002","name":"Jamie","password":"hunter2"}`, nil)
	cookies := w.Result().Cookies()

	w = doJSON(engine, http.MethodPost, "/portal/api/deposit", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	msg := decodeMsg(t, w)
	require.True(t, msg.Success, msg.Msg)
	obj := msg.Obj.(map[string]any)
	assert.NotEmpty(t, obj["receipt"])

	w = doJSON(engine, http.MethodPost, "/portal/api/deposit", "", cookies)
	msg = decodeMsg(t, w)
	require.True(t, msg.Success)
	profile := msg.Obj.(map[string]any)["profile"].(map[string]any)
	assert.Equal(t, float64(100), profile["points"])
	assert.Equal(t, float64(2), profile["bottles"])

	w = doJSON(engine, http.MethodGet, "/portal/api/impact", "", cookies)
	msg = decodeMsg(t, w)
	require.True(t, msg.Success)
	impact := msg.Obj.(map[string]any)
	assert.InDelta(t, 0.16, impact["co2Kg"].(float64), 1e-9)
	assert.InDelta(t, 1.0, impact["energyKwh"].(float64), 1e-9)
}

func TestRenameUpdatesStoreAndSession(t *testing.T) {
	engine := setupRouter()

	w := doJSON(engine, http.MethodPost, "/signup",
		`{"role":"USER","id":"ID-1002","name":"Jamie","password":"hunter2"}`, nil)
	cookies := w.Result().Cookies()

	w = doJSON(engine, http.MethodPost, "/portal/api/name", `{"name":"Jamie L."}`, cookies)
	msg := decodeMsg(t, w)
	require.True(t, msg.Success, msg.Msg)

	// The session cookie was rewritten with the new profile.
	if renamed := w.Result().Cookies(); len(renamed) > 0 {
		cookies = renamed
	}
	w = doJSON(engine, http.MethodGet, "/portal/api/profile", "", cookies)
	msg = decodeMsg(t, w)
	require.True(t, msg.Success)
	assert.Equal(t, "Jamie L.", msg.Obj.(map[string]any)["name"])
}

func TestLogoutEndsSession(t *testing.T) {
	engine := setupRouter()

	w := doJSON(engine, http.MethodPost, "/signup",
		`{"role":"USER","id":"ID-1002","name":"Jamie","password":"hunter2"}`, nil)
	cookies := w.Result().Cookies()

	w = doJSON(engine, http.MethodGet, "/logout", "", cookies)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	cleared := w.Result().Cookies()

	w = doJSON(engine, http.MethodGet, "/portal/api/profile", "", cleared)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
}

func TestInsightsServesFallbackWhenDisabled(t *testing.T) {
	engine := setupRouter()

	w := doJSON(engine, http.MethodPost, "/login",
		`{"role":"ADMIN","id":"admin","password":"password123"}`, nil)
	cookies := w.Result().Cookies()

	w = doJSON(engine, http.MethodGet, "/panel/api/insights", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	msg := decodeMsg(t, w)
	require.True(t, msg.Success)
	obj := msg.Obj.(map[string]any)
	assert.Contains(t, obj["insight"], "Unable to generate insights")
}
