package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/app/repositories"
	"github.com/yigit/studygraph/internal/app/repositories/memory"
	"github.com/yigit/studygraph/internal/app/services"
	"github.com/yigit/studygraph/internal/pkg/planner"
)

type streamEnv struct {
	repos  *repositories.Repositories
	feed   *services.ProfileFeed
	server *httptest.Server
}

func createUser(t *testing.T, repos *repositories.Repositories, username string, courses ...models.Course) {
	t.Helper()
	ctx := context.Background()
	u := &models.User{ID: username + "-id", Email: username + "@purdue.edu", Username: username}
	require.NoError(t, repos.UserRepository.Create(ctx, u))
	require.NoError(t, repos.UserRepository.ReplaceCourses(ctx, u.ID, courses, nil))
}

func newStreamEnv(t *testing.T) *streamEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zerolog.Nop()
	repos := memory.NewRepositories()

	createUser(t, repos, "amelia",
		models.Course{ID: "cs180-amelia", CourseName: "CS 18000", Professor: "Prof. Li", Location: "Lawson 1142", Time: "MWF 10:30a"},
		models.Course{ID: "math261-amelia", CourseName: "MA 26100", Professor: "Dr. Owens", Location: "WALC 1055", Time: "TR 12:00p"},
	)
	createUser(t, repos, "rahul",
		models.Course{ID: "cs180-rahul", CourseName: "CS 18000", Professor: "Prof. Li", Location: "Lawson 1142", Time: "MWF 10:30a"},
	)

	feed := services.NewProfileFeed(repos.UserRepository, logger)
	_, err := feed.Refresh(context.Background())
	require.NoError(t, err)
	matches := services.NewMatchService(feed, logger)
	p := planner.New(nil, nil, planner.Options{Seed: 1}, logger)
	suggestions := services.NewSuggestionService(p, matches, "", logger)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger)
	NewMessageHandler(hub, feed, matches, suggestions, logger).Start(ctx)
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		u, err := repos.UserRepository.GetByUsername(c.Request.Context(), c.Query("user"))
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("user", u)
		c.Next()
	}, NewHandler(hub, nil, logger).HandleConnection)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		cancel()
		suggestions.Close()
		matches.Close()
	})
	return &streamEnv{repos: repos, feed: feed, server: server}
}

func (e *streamEnv) dial(t *testing.T, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?user=" + user
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestMatchStream_PushesMatchesOnProfileChanges(t *testing.T) {
	env := newStreamEnv(t)
	conn := env.dial(t, "amelia")

	initial := readMessage(t, conn)
	assert.Equal(t, TypeMatches, initial.Type)
	require.Len(t, initial.Matches, 1)
	assert.Equal(t, "rahul", initial.Matches[0].Username)
	assert.Equal(t, 50, initial.Matches[0].Score)

	createUser(t, env.repos, "linh",
		models.Course{ID: "math261-linh", CourseName: "MA 26100", Professor: "Dr. Owens", Location: "WALC 1055", Time: "TR 12:00p"},
		models.Course{ID: "cs180-linh", CourseName: "CS 18000", Professor: "Prof. Li", Location: "Lawson 1142", Time: "MWF 10:30a"},
	)
	_, err := env.feed.Refresh(context.Background())
	require.NoError(t, err)

	pushed := readMessage(t, conn)
	assert.Equal(t, TypeMatches, pushed.Type)
	assert.Equal(t, uint64(2), pushed.Version)
	require.Len(t, pushed.Matches, 2)
	assert.Equal(t, "linh", pushed.Matches[0].Username)
	assert.Equal(t, 100, pushed.Matches[0].Score)
}

func TestMatchStream_ClientMessages(t *testing.T) {
	env := newStreamEnv(t)
	conn := env.dial(t, "amelia")
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: TypePing}))
	assert.Equal(t, TypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: "shout"}))
	assert.Equal(t, TypeError, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, TypeError, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeSelect, Username: "rahul"}))
	first := readMessage(t, conn)
	require.Equal(t, TypeSuggestions, first.Type)
	require.NotNil(t, first.Suggestions)
	assert.Equal(t, planner.StatusLoading, first.Suggestions.Status)
	assert.Equal(t, "rahul", first.Suggestions.Counterpart)

	final := readMessage(t, conn)
	require.Equal(t, TypeSuggestions, final.Type)
	require.NotNil(t, final.Suggestions)
	assert.Equal(t, planner.StatusSuccess, final.Suggestions.Status)
	require.Len(t, final.Suggestions.Suggestions, 3)
	assert.Equal(t, "CS 18000", final.Suggestions.Suggestions[0].CourseName)
}

func TestHandleConnection_RequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(zerolog.Nop())
	router := gin.New()
	router.GET("/ws", NewHandler(hub, nil, zerolog.Nop()).HandleConnection)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://evil.example")

	assert.True(t, NewUpgrader(nil).CheckOrigin(req))
	assert.True(t, NewUpgrader([]string{"*"}).CheckOrigin(req))
	assert.False(t, NewUpgrader([]string{"http://localhost:5173"}).CheckOrigin(req))

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, NewUpgrader([]string{"http://localhost:5173"}).CheckOrigin(req))
}
