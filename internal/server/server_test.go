package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/auth"
	"taskboard/internal/lookup"
	"taskboard/internal/models"
	"taskboard/internal/ratelimit"
	"taskboard/internal/storage/sqlite"
	"taskboard/internal/workflow"
)

const prodOrigin = "https://board.example.com"

type harness struct {
	t     *testing.T
	srv   *Server
	store *sqlite.Store
	logs  *bytes.Buffer
}

func newHarness(t *testing.T, staticDir string) *harness {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))

	store, err := sqlite.Open(sqlite.DriverPure, filepath.Join(t.TempDir(), "board.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := auth.NewTokens("test-secret", "taskboard", time.Hour, nil)
	require.NoError(t, err)

	limiter := ratelimit.New(ratelimit.NewMemoryStore(), 10, time.Minute)
	finder := lookup.NewService(tokens, limiter, store, store, lookup.Config{}, logger)

	srv := New(Deps{
		Store:  store,
		Tokens: tokens,
		Lookup: finder,
		CORS: CORS{
			Allowed:  []string{prodOrigin, "http://localhost:5173"},
			Suffix:   ".vercel.app",
			Fallback: prodOrigin,
		},
		StaticDir: staticDir,
		Logger:    logger,
	})
	return &harness{t: t, srv: srv, store: store, logs: logs}
}

func (h *harness) do(method, path, token string, body any, header ...string) *httptest.ResponseRecorder {
	h.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type account struct {
	id    string
	token string
}

func (h *harness) signUp(email, name string) account {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": "secret123", "name": name,
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode(h.t, rec)
	user := out["user"].(map[string]any)
	return account{id: user["id"].(string), token: out["token"].(string)}
}

func (h *harness) createProject(owner account, name string) int64 {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/projects", owner.token, map[string]string{"name": name})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode(h.t, rec)["project"].(map[string]any)["id"].(float64))
}

func (h *harness) addMember(owner account, projectID int64, userID, role string) {
	h.t.Helper()
	rec := h.do(http.MethodPost, fmt.Sprintf("/api/projects/%d/members", projectID), owner.token,
		map[string]string{"user_id": userID, "role": role})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (h *harness) createTask(who account, projectID int64, body map[string]any) map[string]any {
	h.t.Helper()
	rec := h.do(http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", projectID), who.token, body)
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(h.t, rec)["task"].(map[string]any)
}

func taskPath(task map[string]any, suffix string) string {
	return fmt.Sprintf("/api/tasks/%d%s", int64(task["id"].(float64)), suffix)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, "")
	rec := h.do(http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSignUpAndSignIn(t *testing.T) {
	h := newHarness(t, "")
	ada := h.signUp("Ada@Example.com", "Ada")

	rec := h.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "ada@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "bad", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, lookup.MsgInvalidEmail, decode(t, rec)["error"])

	rec = h.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "bob@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "ada@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid login credentials", decode(t, rec)["error"])

	rec = h.do(http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "ada@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode(t, rec)["token"].(string)

	rec = h.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, ada.id, out["user"].(map[string]any)["id"])
	assert.Equal(t, "Ada", out["profile"].(map[string]any)["name"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = h.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = h.do(http.MethodGet, "/api/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvalidBodyIsBadRequest(t *testing.T) {
	h := newHarness(t, "")
	rec := h.do(http.MethodPost, "/api/auth/signin", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, lookup.MsgInvalidBody, decode(t, rec)["error"])
}

func TestProjectVisibility(t *testing.T) {
	h := newHarness(t, "")
	owner := h.signUp("owner@example.com", "Owner")
	outsider := h.signUp("outsider@example.com", "Outsider")
	member := h.signUp("member@example.com", "Member")
	pid := h.createProject(owner, "Launch")

	rec := h.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/tasks", pid), outsider.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "project not found", decode(t, rec)["error"])

	rec = h.do(http.MethodGet, "/api/projects", outsider.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["projects"])

	h.addMember(owner, pid, member.id, "member")

	rec = h.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/role", pid), member.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"role":"member","read_only":false}`, rec.Body.String())

	rec = h.do(http.MethodDelete, fmt.Sprintf("/api/projects/%d", pid), member.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Only the project owner can delete this project", decode(t, rec)["error"])

	rec = h.do(http.MethodPut, fmt.Sprintf("/api/projects/%d", pid), owner.token, map[string]string{"name": "Relaunch"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Relaunch", decode(t, rec)["project"].(map[string]any)["name"])

	rec = h.do(http.MethodDelete, fmt.Sprintf("/api/projects/%d", pid), owner.token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMemberManagement(t *testing.T) {
	h := newHarness(t, "")
	owner := h.signUp("owner@example.com", "Owner")
	worker := h.signUp("worker@example.com", "Worker")
	pid := h.createProject(owner, "Launch")
	h.addMember(owner, pid, worker.id, "worker")

	rec := h.do(http.MethodPost, fmt.Sprintf("/api/projects/%d/members", pid), owner.token,
		map[string]string{"user_id": worker.id, "role": "member"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User is already a project member", decode(t, rec)["error"])

	rec = h.do(http.MethodPost, fmt.Sprintf("/api/projects/%d/members", pid), worker.token,
		map[string]string{"user_id": owner.id, "role": "member"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/members", pid), worker.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	members := decode(t, rec)["members"].([]any)
	require.Len(t, members, 2)
	ownerRow := members[0].(map[string]any)
	workerRow := members[1].(map[string]any)
	assert.Equal(t, "owner", ownerRow["role"])

	rec = h.do(http.MethodDelete, fmt.Sprintf("/api/projects/%d/members/%d", pid, int64(ownerRow["id"].(float64))), owner.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	workerPath := fmt.Sprintf("/api/projects/%d/members/%d", pid, int64(workerRow["id"].(float64)))
	rec = h.do(http.MethodPut, workerPath, owner.token, map[string]string{"role": "member"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "member", decode(t, rec)["member"].(map[string]any)["role"])

	other := h.createProject(owner, "Other")
	rec = h.do(http.MethodDelete, fmt.Sprintf("/api/projects/%d/members/%d", other, int64(workerRow["id"].(float64))), owner.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodDelete, workerPath, owner.token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkerMoveIsRedirectedToReview(t *testing.T) {
	h := newHarness(t, "")
	owner := h.signUp("owner@example.com", "Owner")
	worker := h.signUp("worker@example.com", "Worker")
	pid := h.createProject(owner, "Launch")
	h.addMember(owner, pid, worker.id, "worker")

	rec := h.do(http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", pid), worker.token, map[string]string{"title": "Nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	task := h.createTask(owner, pid, map[string]any{"title": "Write copy", "executor_id": worker.id})

	rec = h.do(http.MethodPost, taskPath(task, "/move"), worker.token, map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "review", out["task"].(map[string]any)["status"])
	assert.Equal(t, workflow.NoticeSentForReview, out["notice"])
	assertLogged(t, h.logs, "task move redirected", map[string]any{
		"task":      task["id"],
		"requested": "done",
		"effective": "review",
	})

	rec = h.do(http.MethodPost, taskPath(task, "/approve"), worker.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPost, taskPath(task, "/approve"), owner.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode(t, rec)["task"].(map[string]any)
	assert.Equal(t, "done", approved["status"])
	assert.Equal(t, true, approved["was_completed"])

	rec = h.do(http.MethodPost, taskPath(task, "/move"), worker.token, map[string]string{"status": "in_progress"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, workflow.ErrDoneIsLocked, decode(t, rec)["error"])

	rec = h.do(http.MethodPost, taskPath(task, "/move"), owner.token, map[string]string{"status": "todo"})
	require.Equal(t, http.StatusOK, rec.Code)
	_, hasNotice := decode(t, rec)["notice"]
	assert.False(t, hasNotice)

	rec = h.do(http.MethodPost, taskPath(task, "/move"), worker.token, map[string]string{"status": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/tasks?filter=my", pid), worker.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode(t, rec)
	assert.Len(t, out["tasks"], 1)
	assert.Equal(t, true, out["read_only"])
}

func TestMemberCannotApproveThroughEdit(t *testing.T) {
	h := newHarness(t, "")
	owner := h.signUp("owner@example.com", "Owner")
	member := h.signUp("member@example.com", "Member")
	pid := h.createProject(owner, "Launch")
	h.addMember(owner, pid, member.id, "member")

	task := h.createTask(member, pid, map[string]any{"title": "Draft", "status": "review", "priority": "high"})
	assert.Equal(t, "high", task["priority"])

	rec := h.do(http.MethodPut, taskPath(task, ""), member.token, map[string]string{"status": "done"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, workflow.ErrOwnerApproves, decode(t, rec)["error"])

	rec = h.do(http.MethodPut, taskPath(task, ""), member.token, map[string]string{"title": "Final draft", "deadline": "2026-09-01"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode(t, rec)["task"].(map[string]any)
	assert.Equal(t, "Final draft", edited["title"])
	assert.Equal(t, "review", edited["status"])
	assert.NotEmpty(t, edited["deadline"])

	rec = h.do(http.MethodPut, taskPath(task, ""), member.token, map[string]string{"assignee_id": member.id, "executor_id": member.id})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Assignee and Executor cannot be the same person", decode(t, rec)["error"])

	outsider := h.signUp("outsider@example.com", "Outsider")
	rec = h.do(http.MethodPut, taskPath(task, ""), member.token, map[string]string{"executor_id": outsider.id})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPut, taskPath(task, ""), outsider.token, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRejectRecordsReason(t *testing.T) {
	h := newHarness(t, "")
	owner := h.signUp("owner@example.com", "Owner")
	pid := h.createProject(owner, "Launch")
	task := h.createTask(owner, pid, map[string]any{"title": "Draft", "status": "review"})

	rec := h.do(http.MethodPost, taskPath(task, "/reject"), owner.token, map[string]string{"reason": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, taskPath(task, "/reject"), owner.token, map[string]string{"reason": " Needs sources "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "todo", out["task"].(map[string]any)["status"])
	assert.Equal(t, "Needs sources", out["comment"].(map[string]any)["content"])

	rec = h.do(http.MethodGet, taskPath(task, "/comments"), owner.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["comments"], 1)

	rec = h.do(http.MethodPost, taskPath(task, "/reject"), owner.token, map[string]string{"reason": "again"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommentDeletion(t *testing.T) {
	h := newHarness(t, "")
	owner := h.signUp("owner@example.com", "Owner")
	worker := h.signUp("worker@example.com", "Worker")
	member := h.signUp("member@example.com", "Member")
	pid := h.createProject(owner, "Launch")
	h.addMember(owner, pid, worker.id, "worker")
	h.addMember(owner, pid, member.id, "member")
	task := h.createTask(owner, pid, map[string]any{"title": "Draft"})

	rec := h.do(http.MethodPost, taskPath(task, "/comments"), worker.token, map[string]string{"content": "On it"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	commentID := int64(decode(t, rec)["comment"].(map[string]any)["id"].(float64))
	path := fmt.Sprintf("/api/comments/%d", commentID)

	rec = h.do(http.MethodDelete, path, member.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodDelete, path, owner.token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodDelete, path, owner.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodDelete, taskPath(task, ""), worker.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = h.do(http.MethodDelete, taskPath(task, ""), member.token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalytics(t *testing.T) {
	h := newHarness(t, "")
	owner := h.signUp("owner@example.com", "Owner")
	worker := h.signUp("worker@example.com", "Worker")
	pid := h.createProject(owner, "Launch")
	h.addMember(owner, pid, worker.id, "worker")

	h.createTask(owner, pid, map[string]any{"title": "Done", "status": "done", "executor_id": worker.id})
	h.createTask(owner, pid, map[string]any{"title": "Late", "deadline": "2020-01-01", "executor_id": worker.id})
	h.createTask(owner, pid, map[string]any{"title": "Open"})

	rec := h.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/analytics", pid), worker.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	stats := out["stats"].(map[string]any)
	assert.EqualValues(t, 3, stats["total"])
	assert.EqualValues(t, 1, stats["overdue"])
	assert.EqualValues(t, 33, stats["completion_rate"])
	assert.EqualValues(t, 1, stats["by_status"].(map[string]any)["done"])

	members := out["members"].([]any)
	require.Len(t, members, 2)
	first := members[0].(map[string]any)
	assert.Equal(t, "Worker", first["profile"].(map[string]any)["name"])
	assert.EqualValues(t, 2, first["stats"].(map[string]any)["total"])

	rec = h.do(http.MethodGet, "/api/analytics", owner.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode(t, rec)
	assert.EqualValues(t, 3, out["stats"].(map[string]any)["total"])
	assert.Len(t, out["projects"], 1)
}

func TestLargeBoardIsNotTruncated(t *testing.T) {
	h := newHarness(t, "")
	owner := h.signUp("owner@example.com", "Owner")
	worker := h.signUp("worker@example.com", "Worker")
	pid := h.createProject(owner, "Backlog")
	h.addMember(owner, pid, worker.id, "worker")

	ctx := context.Background()
	for i := range 600 {
		task := models.Task{ProjectID: pid, Title: fmt.Sprintf("Task %d", i), CreatorID: owner.id, Status: models.StatusTodo}
		if i < 100 {
			task.Status = models.StatusDone
			task.ExecutorID = worker.id
		}
		_, err := h.store.CreateTask(ctx, task)
		require.NoError(t, err)
	}

	rec := h.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/tasks", pid), owner.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decode(t, rec)["tasks"].([]any)
	require.Len(t, tasks, 600)
	assert.Equal(t, "todo", tasks[0].(map[string]any)["status"])
	assert.Equal(t, "done", tasks[599].(map[string]any)["status"])

	rec = h.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/analytics", pid), owner.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	stats := out["stats"].(map[string]any)
	assert.EqualValues(t, 600, stats["total"])
	assert.EqualValues(t, 100, stats["completed"])
	assert.EqualValues(t, 17, stats["completion_rate"])
	assert.EqualValues(t, 500, stats["by_status"].(map[string]any)["todo"])

	first := out["members"].([]any)[0].(map[string]any)
	assert.Equal(t, "Worker", first["profile"].(map[string]any)["name"])
	assert.EqualValues(t, 100, first["stats"].(map[string]any)["total"])
	assert.EqualValues(t, 100, first["stats"].(map[string]any)["completion_rate"])

	rec = h.do(http.MethodGet, "/api/analytics", owner.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode(t, rec)
	assert.EqualValues(t, 600, out["stats"].(map[string]any)["total"])
	assert.EqualValues(t, 17, out["stats"].(map[string]any)["completion_rate"])
	project := out["projects"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 600, project["stats"].(map[string]any)["total"])
}

func TestFindUserByEmail(t *testing.T) {
	h := newHarness(t, "")
	caller := h.signUp("caller@example.com", "Caller")
	h.signUp("target@example.com", "Target Person")

	const path = "/functions/v1/find-user-by-email"

	rec := h.do(http.MethodOptions, path, "", nil, "Origin", "https://preview-42.vercel.app")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "https://preview-42.vercel.app", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "x-client-info")

	rec = h.do(http.MethodPost, path, "", map[string]string{"email": "target@example.com"}, "Origin", "https://evil.example")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decode(t, rec)["error"])
	assert.Equal(t, prodOrigin, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = h.do(http.MethodPost, path, caller.token, map[string]string{"email": "  TARGET@example.com "}, "Origin", "http://localhost:5173")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	out := decode(t, rec)
	assert.Equal(t, "Target Person", out["name"])
	assert.Len(t, out, 2)

	rec = h.do(http.MethodPost, path, caller.token, map[string]any{"email": 42})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, lookup.MsgEmailRequired, decode(t, rec)["error"])

	rec = h.do(http.MethodPost, path, caller.token, map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, lookup.MsgUserNotFound, decode(t, rec)["error"])
}

func TestFindUserByEmailRateLimit(t *testing.T) {
	h := newHarness(t, "")
	caller := h.signUp("caller@example.com", "Caller")
	const path = "/functions/v1/find-user-by-email"

	for i := 0; i < 10; i++ {
		rec := h.do(http.MethodPost, path, caller.token, map[string]string{"email": "caller@example.com"})
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}
	rec := h.do(http.MethodPost, path, caller.token, map[string]string{"email": "caller@example.com"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, lookup.MsgTooManyRequests, decode(t, rec)["error"])
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>board</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "robots.txt"), []byte("User-agent: *"), 0o644))
	h := newHarness(t, dir)

	rec := h.do(http.MethodGet, "/projects/12", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "board")

	rec = h.do(http.MethodGet, "/robots.txt", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User-agent")

	rec = h.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "endpoint not found", decode(t, rec)["error"])
}

func TestCORSAllowOrigin(t *testing.T) {
	c := CORS{Allowed: []string{"", prodOrigin}, Suffix: ".vercel.app", Fallback: prodOrigin}
	assert.Equal(t, prodOrigin, c.AllowOrigin(""))
	assert.Equal(t, prodOrigin, c.AllowOrigin("https://evil.example"))
	assert.Equal(t, "https://x.vercel.app", c.AllowOrigin("https://x.vercel.app"))
}

// assertLogged finds the JSON log record with msg and checks its attributes.
func assertLogged(t *testing.T, logs *bytes.Buffer, msg string, attrs map[string]any) {
	t.Helper()
	for _, line := range bytes.Split(logs.Bytes(), []byte("\n")) {
		var record map[string]any
		if json.Unmarshal(line, &record) != nil || record["msg"] != msg {
			continue
		}
		for k, v := range attrs {
			assert.Equal(t, v, record[k], "attribute %s", k)
		}
		return
	}
	t.Fatalf("no %q record in logs:\n%s", msg, logs.String())
}
