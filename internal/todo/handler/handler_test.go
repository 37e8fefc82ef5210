package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/todo-service/internal/repository"
	"github.com/gogotex/todo-service/internal/todo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() { gin.SetMode(gin.TestMode) }

type envelope struct {
	OK      bool                             `json:"ok"`
	Data    map[string][]map[string]any      `json:"data"`
	Error   string                           `json:"error"`
	Details map[string]repository.FieldError `json:"details"`
}

func newEngine() *gin.Engine {
	g := gin.New()
	store := repository.NewMemoryStore(todo.Schema)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	New(todo.NewRepository(store, repository.WithClock(clock))).Register(g)
	return g
}

func do(t *testing.T, g *gin.Engine, method, target, body string) envelope {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func createTodo(t *testing.T, g *gin.Engine, name string) string {
	t.Helper()
	env := do(t, g, http.MethodPost, "/todo.create", `{"name":"`+name+`","name_ar":"`+name+`-ar"}`)
	require.True(t, env.OK, env.Error)
	require.Len(t, env.Data["todo"], 1)
	id, ok := env.Data["todo"][0]["_id"].(string)
	require.True(t, ok)
	return id
}

func TestCreate(t *testing.T) {
	g := newEngine()

	env := do(t, g, http.MethodPost, "/todo.create",
		`{"name":"buy milk","name_ar":"شراء الحليب","description":"2L","created_at":"1999-01-01T00:00:00Z","is_active":false}`)
	require.True(t, env.OK)
	require.Len(t, env.Data["todo"], 1)
	got := env.Data["todo"][0]
	assert.Equal(t, "buy milk", got["name"])
	assert.Equal(t, "2L", got["description"])
	assert.Equal(t, true, got["is_active"])
	assert.NotContains(t, got["created_at"], "1999")
	assert.NotEmpty(t, got["_id"])
}

func TestCreate_Invalid(t *testing.T) {
	g := newEngine()

	env := do(t, g, http.MethodPost, "/todo.create", "")
	require.False(t, env.OK)
	require.Equal(t, "module.invalid_data", env.Error)
	require.Contains(t, env.Details, "name")
	require.Contains(t, env.Details, "name_ar")

	createTodo(t, g, "same")
	env = do(t, g, http.MethodPost, "/todo.create", `{"name":"same","name_ar":"other"}`)
	require.Equal(t, "module.invalid_data", env.Error)
	require.Equal(t, "unique", env.Details["name"].Kind)

	env = do(t, g, http.MethodPost, "/todo.create", `{"name":`)
	require.Equal(t, "module.internal_server_error:101", env.Error)
}

func TestInfo(t *testing.T) {
	g := newEngine()
	first := createTodo(t, g, "first")
	createTodo(t, g, "second")

	env := do(t, g, http.MethodGet, "/todo.info?_id="+first, "")
	require.True(t, env.OK)
	require.Equal(t, "first", env.Data["todo"][0]["name"])

	env = do(t, g, http.MethodGet, "/todo.info?_id="+primitive.NewObjectID().Hex(), "")
	require.False(t, env.OK)
	require.Equal(t, "module.not_existing", env.Error)

	env = do(t, g, http.MethodGet, "/todo.info?_id=123", "")
	require.Equal(t, "module.internal_server_error:201", env.Error)

	env = do(t, g, http.MethodGet, "/todo.info", "")
	require.True(t, env.OK)
	require.Len(t, env.Data["todo"], 2)
	require.Equal(t, "first", env.Data["todo"][0]["name"])

	env = do(t, g, http.MethodGet, "/todo.info?limit=1&page=2", "")
	require.True(t, env.OK)
	require.Len(t, env.Data["todo"], 1)
	page := env.Data["todo"][0]
	assert.Equal(t, float64(2), page["totalDocs"])
	assert.Equal(t, float64(2), page["page"])
	docs, ok := page["docs"].([]any)
	require.True(t, ok)
	require.Len(t, docs, 1)
	assert.Equal(t, "first", docs[0].(map[string]any)["name"])

	q := url.QueryEscape(`{"name":"second"}`)
	env = do(t, g, http.MethodGet, "/todo.info?q="+q, "")
	require.True(t, env.OK)
	require.Len(t, env.Data["todo"], 1)
	require.Equal(t, "second", env.Data["todo"][0]["name"])

	env = do(t, g, http.MethodGet, "/todo.info?q=%7Bbroken", "")
	require.Equal(t, "module.internal_server_error:201", env.Error)

	env = do(t, g, http.MethodGet, "/todo.info?limit=abc", "")
	require.Equal(t, "module.internal_server_error:201", env.Error)

	// an empty _id is a lookup, not a listing
	env = do(t, g, http.MethodGet, "/todo.info?_id=", "")
	require.False(t, env.OK)
	require.Equal(t, "module.internal_server_error:201", env.Error)
}

func TestInfo_FilterByID(t *testing.T) {
	g := newEngine()
	id := createTodo(t, g, "target")
	createTodo(t, g, "noise")

	env := do(t, g, http.MethodGet, "/todo.info?q="+url.QueryEscape(`{"_id":"`+id+`"}`), "")
	require.True(t, env.OK)
	require.Len(t, env.Data["todo"], 1)
	require.Equal(t, "target", env.Data["todo"][0]["name"])

	env = do(t, g, http.MethodGet, "/todo.info?q="+url.QueryEscape(`{"_id":"nope"}`), "")
	require.Equal(t, "module.internal_server_error:201", env.Error)
}

func TestSearch(t *testing.T) {
	g := newEngine()
	id := createTodo(t, g, "findme")
	createTodo(t, g, "other")

	do(t, g, http.MethodPost, "/todo.remove", `{"_id":"`+id+`"}`)

	env := do(t, g, http.MethodGet, "/todo.search?name=findme", "")
	require.True(t, env.OK)
	require.Len(t, env.Data["todo"], 1)
	require.Equal(t, false, env.Data["todo"][0]["is_active"])

	env = do(t, g, http.MethodGet, "/todo.search?is_active=true", "")
	require.True(t, env.OK)
	require.Len(t, env.Data["todo"], 1)
	require.Equal(t, "other", env.Data["todo"][0]["name"])

	env = do(t, g, http.MethodGet, "/todo.search?name=nobody", "")
	require.True(t, env.OK)
	require.NotNil(t, env.Data["todo"])
	require.Empty(t, env.Data["todo"])

	// _id is matched as an ObjectId, soft-deleted records included
	env = do(t, g, http.MethodGet, "/todo.search?_id="+id, "")
	require.True(t, env.OK)
	require.Len(t, env.Data["todo"], 1)
	require.Equal(t, "findme", env.Data["todo"][0]["name"])

	env = do(t, g, http.MethodGet, "/todo.search?_id=zzz", "")
	require.Equal(t, "module.internal_server_error:201", env.Error)
}

func TestUpdateRemoveRestore(t *testing.T) {
	g := newEngine()
	id := createTodo(t, g, "task")

	env := do(t, g, http.MethodPost, "/todo.update", `{"_id":"`+id+`","description":"details"}`)
	require.True(t, env.OK)
	got := env.Data["todo"][0]
	assert.Equal(t, "task", got["name"])
	assert.Equal(t, "details", got["description"])
	assert.NotEmpty(t, got["updated_at"])

	env = do(t, g, http.MethodPost, "/todo.remove", `{"_id":"`+id+`"}`)
	require.True(t, env.OK)
	require.Equal(t, false, env.Data["todo"][0]["is_active"])

	env = do(t, g, http.MethodGet, "/todo.info", "")
	require.True(t, env.OK)
	require.Empty(t, env.Data["todo"])

	env = do(t, g, http.MethodPost, "/todo.restore", `{"_id":"`+id+`"}`)
	require.True(t, env.OK)
	require.Equal(t, true, env.Data["todo"][0]["is_active"])

	env = do(t, g, http.MethodPost, "/todo.update", `{"_id":"`+primitive.NewObjectID().Hex()+`","name":"x"}`)
	require.Equal(t, "module.not_existing", env.Error)

	env = do(t, g, http.MethodPost, "/todo.update", `{"_id":"`+id+`","name":""}`)
	require.Equal(t, "module.invalid_data", env.Error)

	env = do(t, g, http.MethodPost, "/todo.remove", `{"_id":"bad"}`)
	require.Equal(t, "module.internal_server_error:401", env.Error)
}

func TestMissingID(t *testing.T) {
	g := newEngine()
	for _, route := range []string{"/todo.update", "/todo.remove", "/todo.restore"} {
		env := do(t, g, http.MethodPost, route, `{"name":"x"}`)
		require.False(t, env.OK, route)
		require.Equal(t, "todo.missing_id", env.Error, route)

		env = do(t, g, http.MethodPost, route, "")
		require.Equal(t, "todo.missing_id", env.Error, route)
	}
}
