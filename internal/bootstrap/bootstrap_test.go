package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/studygraph/internal/config"
	"github.com/yigit/studygraph/internal/pkg/logger"
)

type apiEnv struct {
	t      *testing.T
	router *gin.Engine
	deps   *Dependencies
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORAGE_DRIVER", config.DriverMemory)
	t.Setenv("UPLOADS_DIR", t.TempDir())
	t.Setenv("UPLOADS_MAX_SIZE_BYTES", "4096")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("PLANNER_MOCK_SEED", "7")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "none.yaml"), filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)

	lgr := zerolog.Nop()
	storage, err := SetupStorage(context.Background(), cfg, lgr)
	require.NoError(t, err)

	deps, err := BuildDependencies(cfg, storage.Repos, lgr)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, deps.Start(ctx))
	t.Cleanup(func() {
		cancel()
		deps.Close()
	})

	return &apiEnv{t: t, router: SetupRouter(cfg, deps, lgr), deps: deps}
}

func (e *apiEnv) do(req *http.Request, token string) (int, envelope) {
	e.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var body envelope
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func (e *apiEnv) doJSON(method, path, token string, payload interface{}) (int, envelope) {
	e.t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(e.t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return e.do(req, token)
}

func (e *apiEnv) upload(token, fileName, content string) (int, envelope) {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(e.t, err)
	_, err = part.Write([]byte(content))
	require.NoError(e.t, err)
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(req, token)
}

func (e *apiEnv) register(email, password, username string) string {
	e.t.Helper()
	code, body := e.doJSON(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": password, "username": username,
	})
	require.Equal(e.t, http.StatusCreated, code, body.Message)

	var auth struct {
		Token struct {
			AccessToken string `json:"accessToken"`
		} `json:"token"`
	}
	require.NoError(e.t, json.Unmarshal(body.Data, &auth))
	require.NotEmpty(e.t, auth.Token.AccessToken)
	return auth.Token.AccessToken
}

func decodeData(t *testing.T, body envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body.Data, out))
}

const (
	ameliaSchedule = "Course Name,Professor,Location,Time\n" +
		"CS 18000,Prof. Li,Lawson 1142,MWF 10:30a\n" +
		"MA 26100,Dr. Owens,WALC 1055,TR 12:00p\n"
	rahulSchedule = "Course Name,Professor,Location,Time\n" +
		"CS 18000,Prof. Li,Lawson 1142,MWF 10:30a\n"
)

func TestAPI_RegisterUploadMatchAndSuggest(t *testing.T) {
	env := newAPIEnv(t)
	amelia := env.register("amelia@purdue.edu", "Boiler#1", "amelia")
	rahul := env.register("rahul@purdue.edu", "Boiler#2", "rahul")

	code, body := env.upload(amelia, "amelia.csv", ameliaSchedule)
	require.Equal(t, http.StatusOK, code, body.Message)
	var uploaded struct {
		Courses []struct {
			CourseName string `json:"courseName"`
		} `json:"courses"`
		FileURL string `json:"fileUrl"`
	}
	decodeData(t, body, &uploaded)
	assert.Len(t, uploaded.Courses, 2)
	assert.Contains(t, uploaded.FileURL, UploadsRoute)

	code, _ = env.upload(rahul, "rahul.csv", rahulSchedule)
	require.Equal(t, http.StatusOK, code)

	code, body = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/matches", nil), amelia)
	require.Equal(t, http.StatusOK, code)
	var matches struct {
		Matches []struct {
			Username string `json:"username"`
			Score    int    `json:"score"`
		} `json:"matches"`
	}
	decodeData(t, body, &matches)
	require.Len(t, matches.Matches, 1)
	assert.Equal(t, "rahul", matches.Matches[0].Username)
	assert.Equal(t, 50, matches.Matches[0].Score)

	code, body = env.doJSON(http.MethodPost, "/api/v1/friends", amelia, map[string]string{"username": "rahul"})
	require.Equal(t, http.StatusOK, code, body.Message)
	var friends struct {
		Friends []string `json:"friends"`
	}
	decodeData(t, body, &friends)
	assert.Equal(t, []string{"rahul"}, friends.Friends)

	code, body = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/friends", nil), rahul)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, body, &friends)
	assert.Equal(t, []string{"amelia"}, friends.Friends)

	var state struct {
		Status      string `json:"status"`
		Counterpart string `json:"counterpart"`
		Suggestions []struct {
			CourseName     string `json:"courseName"`
			DistanceSource string `json:"distanceSource"`
		} `json:"suggestions"`
	}
	require.Eventually(t, func() bool {
		code, body := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/suggestions", nil), amelia)
		if code != http.StatusOK {
			return false
		}
		decodeData(t, body, &state)
		return state.Status == "success"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "rahul", state.Counterpart)
	require.Len(t, state.Suggestions, 3)
	assert.Equal(t, "CS 18000", state.Suggestions[0].CourseName)
}

func TestAPI_RegisterExistingEmailSignsIn(t *testing.T) {
	env := newAPIEnv(t)
	env.register("amelia@purdue.edu", "Boiler#1", "amelia")

	code, body := env.doJSON(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "amelia@purdue.edu", "password": "Boiler#1",
	})
	assert.Equal(t, http.StatusOK, code)
	var auth struct {
		IsNew bool `json:"isNew"`
	}
	decodeData(t, body, &auth)
	assert.False(t, auth.IsNew)

	code, body = env.doJSON(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "amelia@purdue.edu", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, body.Error)
}

func TestAPI_UploadErrors(t *testing.T) {
	env := newAPIEnv(t)
	token := env.register("linh@purdue.edu", "Boiler#3", "linh")

	code, body := env.upload(token, "empty.csv", "Course Name,Location\n,\n")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, body.Error)

	code, _ = env.upload(token, "big.csv", string(bytes.Repeat([]byte("x"), 5000)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/upload", nil)
	code, _ = env.do(req, token)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAPI_SelectIgnoresInvalidPayload(t *testing.T) {
	env := newAPIEnv(t)
	token := env.register("amelia@purdue.edu", "Boiler#1", "amelia")

	code, body := env.doJSON(http.MethodPost, "/api/v1/suggestions/select", token, map[string]interface{}{
		"username": "rahul", "sharedCourses": "not-a-list",
	})
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "Selection ignored", body.Message)

	code, body = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/suggestions", nil), token)
	require.Equal(t, http.StatusOK, code)
	var state struct {
		Status string `json:"status"`
	}
	decodeData(t, body, &state)
	assert.Equal(t, "idle", state.Status)
}

func TestAPI_RequiresToken(t *testing.T) {
	env := newAPIEnv(t)

	code, body := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/matches", nil), "")
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, body.Error)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_DirectoryPaginates(t *testing.T) {
	env := newAPIEnv(t)
	token := env.register("amelia@purdue.edu", "Boiler#1", "amelia")
	env.register("rahul@purdue.edu", "Boiler#2", "rahul")
	env.register("linh@purdue.edu", "Boiler#3", "linh")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users?page=2&size=2", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Username string `json:"username"`
		} `json:"data"`
		Pagination struct {
			CurrentPage int   `json:"currentPage"`
			TotalItems  int64 `json:"totalItems"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "linh", resp.Data[0].Username)
	assert.Equal(t, 2, resp.Pagination.CurrentPage)
	assert.Equal(t, int64(3), resp.Pagination.TotalItems)
}

func TestAPI_PreviewEmptyCourses(t *testing.T) {
	env := newAPIEnv(t)
	token := env.register("amelia@purdue.edu", "Boiler#1", "amelia")

	code, body := env.doJSON(http.MethodPost, "/api/v1/suggestions/preview", token, map[string]interface{}{
		"courses": []interface{}{}, "origin": "X",
	})
	require.Equal(t, http.StatusOK, code, body.Message)
	assert.True(t, body.Success)
	assert.JSONEq(t, `{"suggestions":[]}`, string(body.Data))

	code, body = env.doJSON(http.MethodPost, "/api/v1/suggestions/preview", token, map[string]interface{}{"origin": "X"})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, body.Error)
}

func TestAPI_AddFriendByEmailStartsSuggestions(t *testing.T) {
	env := newAPIEnv(t)
	amelia := env.register("amelia@purdue.edu", "Boiler#1", "amelia")
	rahul := env.register("rahul@purdue.edu", "Boiler#2", "rahul")
	code, _ := env.upload(amelia, "amelia.csv", ameliaSchedule)
	require.Equal(t, http.StatusOK, code)
	code, _ = env.upload(rahul, "rahul.csv", rahulSchedule)
	require.Equal(t, http.StatusOK, code)

	code, body := env.doJSON(http.MethodPost, "/api/v1/friends", amelia, map[string]string{"username": "rahul@purdue.edu"})
	require.Equal(t, http.StatusOK, code, body.Message)
	var friends struct {
		Friends []string `json:"friends"`
	}
	decodeData(t, body, &friends)
	assert.Equal(t, []string{"rahul"}, friends.Friends)

	var state struct {
		Status      string `json:"status"`
		Counterpart string `json:"counterpart"`
		Suggestions []struct {
			CourseName string `json:"courseName"`
		} `json:"suggestions"`
	}
	require.Eventually(t, func() bool {
		code, body := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/suggestions", nil), amelia)
		if code != http.StatusOK {
			return false
		}
		decodeData(t, body, &state)
		return state.Status == "success"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "rahul", state.Counterpart)
	require.NotEmpty(t, state.Suggestions)
	assert.Equal(t, "CS 18000", state.Suggestions[0].CourseName)
}

func TestAPI_ComponentLogsFollowInjectedLogger(t *testing.T) {
	var global bytes.Buffer
	logger.Configure(logger.Config{Level: logger.DebugLevel, Output: &global})
	t.Cleanup(func() { logger.Configure(logger.Config{Level: logger.InfoLevel}) })

	env := newAPIEnv(t)
	token := env.register("amelia@purdue.edu", "Boiler#1", "amelia")
	code, _ := env.upload(token, "amelia.csv", ameliaSchedule)
	require.Equal(t, http.StatusOK, code)
	code, _ = env.doJSON(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "amelia@purdue.edu", "password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, code)

	assert.Empty(t, global.String())
}
