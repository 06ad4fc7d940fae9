package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"storyhub/internal/auth"
	"storyhub/internal/bookmark"
	"storyhub/internal/comment"
	"storyhub/internal/live"
	"storyhub/internal/story"
	"storyhub/internal/upload"
	"storyhub/internal/user"
	"storyhub/pkg/database/dbtest"
)

const testSecret = "test-secret"

type obj map[string]any

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

type harness struct {
	t      *testing.T
	db     *sqlx.DB
	issuer *auth.Issuer
	hub    *live.Hub
	store  *upload.Store
	logs   *observer.ObservedLogs
	router *gin.Engine
}

func newHarness(t *testing.T, mode auth.Mode) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	policy, err := auth.NewPolicy(string(mode))
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core).Sugar()

	hub := live.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	issuer := auth.NewIssuer([]byte(testSecret), auth.DefaultTTL)
	store := upload.NewStore(t.TempDir(), 1<<20)
	srv := New(Deps{
		Users:     user.NewService(user.NewRepo(db)).WithCost(bcrypt.MinCost),
		Stories:   story.NewRepo(db),
		Comments:  comment.NewRepo(db),
		Bookmarks: bookmark.NewRepo(db),
		Issuer:    issuer,
		Policy:    policy,
		Uploads:   store,
		Hub:       hub,
		Logger:    logger,
	})
	return &harness{t: t, db: db, issuer: issuer, hub: hub, store: store, logs: logs, router: srv.Router()}
}

// user inserts an account and returns its id and a valid token.
func (h *harness) user(name string, admin bool) (int64, string) {
	h.t.Helper()
	id := dbtest.InsertUser(h.t, h.db, name, admin)
	tok, _, err := h.issuer.Issue(auth.Identity{ID: id, Email: name + "@example.com", IsAdmin: admin})
	require.NoError(h.t, err)
	return id, tok
}

func (h *harness) story(authorID int64, title string) int64 {
	h.t.Helper()
	return dbtest.InsertStory(h.t, h.db, authorID, title, "Fantasy")
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.serve(req)
}

func (h *harness) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) count(table string) int {
	h.t.Helper()
	var n int
	require.NoError(h.t, h.db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}
