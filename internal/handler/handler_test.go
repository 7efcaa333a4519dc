package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weibaohui/skillsync/backend/config"
	"github.com/weibaohui/skillsync/backend/internal/model"
	"github.com/weibaohui/skillsync/backend/internal/pkg/skills"
	"github.com/weibaohui/skillsync/backend/internal/pkg/tools"
	"github.com/weibaohui/skillsync/backend/internal/repository"
	syncservice "github.com/weibaohui/skillsync/backend/internal/service/sync"
)

var handlerTestDefinitions = []tools.Definition{
	{ID: "alpha", Name: "alpha", DisplayName: "Alpha", Category: tools.CategoryCLI, SkillPath: ".alpha/skills"},
	{ID: "ghost", Name: "ghost", DisplayName: "Ghost", Category: tools.CategoryCLI, SkillPath: ".ghost/skills"},
}

type mockSyncEventRepo struct {
	events     []model.SyncEvent
	lastFilter repository.SyncEventFilter
	err        error
}

// Create 记录事件
func (m *mockSyncEventRepo) Create(ctx context.Context, event *model.SyncEvent) error {
	m.events = append(m.events, *event)
	return m.err
}

// List 返回全部事件并记录过滤条件
func (m *mockSyncEventRepo) List(ctx context.Context, filter repository.SyncEventFilter) ([]model.SyncEvent, error) {
	m.lastFilter = filter
	return m.events, m.err
}

// DeleteBefore 不做任何事
func (m *mockSyncEventRepo) DeleteBefore(ctx context.Context, id uint) (int64, error) {
	return 0, nil
}

type testEnv struct {
	home   string
	repo   string
	store  *skills.Store
	events *mockSyncEventRepo
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	for _, key := range []string{"SKILL_SYNC_REPO_PATH", "PORT", "HOST", "DB_TYPE", "DB_DSN"} {
		t.Setenv(key, "")
	}

	home := t.TempDir()
	repoPath := filepath.Join(home, "repo")
	cfg, err := config.Load(filepath.Join(home, "conf", "config.yaml"))
	require.NoError(t, err)
	_, err = cfg.Update(config.Patch{SkillRepoPath: &repoPath})
	require.NoError(t, err)

	store := skills.NewStore(cfg)
	detector := tools.NewDetector(
		tools.WithHomeDir(home),
		tools.WithDefinitions(handlerTestDefinitions),
		tools.WithLookPath(func(file string) (string, error) {
			if file == "alpha" {
				return "/usr/bin/alpha", nil
			}
			return "", errors.New("not found")
		}),
	)
	engine := syncservice.New(store, detector, syncservice.WithMethod(syncservice.MethodCopy))
	events := &mockSyncEventRepo{}

	r := gin.New()
	api := r.Group("/api")
	NewSystemHandler(func() string { return string(engine.Method()) }).RegisterRoutes(api)
	NewToolHandler(detector, engine).RegisterRoutes(api)
	NewSkillHandler(store).RegisterRoutes(api)
	NewConfigHandler(cfg).RegisterRoutes(api)
	NewSyncHandler(engine, detector, events).RegisterRoutes(api)
	NewImportHandler(engine).RegisterRoutes(api)

	return &testEnv{home: home, repo: repoPath, store: store, events: events, router: r}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestSystem(t *testing.T) {
	env := newTestEnv(t)
	code, resp := env.do(t, http.MethodGet, "/api/system", nil)
	require.Equal(t, http.StatusOK, code)

	var info systemInfo
	require.NoError(t, json.Unmarshal(resp.Data, &info))
	assert.Equal(t, "copy", info.SyncMethod)
	assert.NotEmpty(t, info.GOOS)
}

func TestTools(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/tools", nil)
	require.Equal(t, http.StatusOK, code)
	var list []tools.Tool
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 2)
	assert.True(t, list[0].Detected)
	assert.False(t, list[1].Detected)

	code, resp = env.do(t, http.MethodGet, "/api/tools/alpha", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	code, resp = env.do(t, http.MethodGet, "/api/tools/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
}

func TestSkillLifecycle(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/skills", map[string]string{"name": "review", "description": "Code review"})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	assert.Contains(t, resp.Message, "created")

	code, _ = env.do(t, http.MethodPost, "/api/skills", map[string]string{"name": "review"})
	assert.Equal(t, http.StatusConflict, code)

	code, resp = env.do(t, http.MethodPost, "/api/skills", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Skill name is required", resp.Error)

	code, resp = env.do(t, http.MethodGet, "/api/skills/review", nil)
	require.Equal(t, http.StatusOK, code)
	var skill skills.Skill
	require.NoError(t, json.Unmarshal(resp.Data, &skill))
	assert.Equal(t, "Code review", skill.Description)

	code, _ = env.do(t, http.MethodPut, "/api/skills/review/files/docs/guide.md", map[string]string{"content": "guide"})
	require.Equal(t, http.StatusOK, code)

	code, resp = env.do(t, http.MethodGet, "/api/skills/review/files/docs/guide.md", nil)
	require.Equal(t, http.StatusOK, code)
	var content string
	require.NoError(t, json.Unmarshal(resp.Data, &content))
	assert.Equal(t, "guide", content)

	code, _ = env.do(t, http.MethodGet, "/api/skills/review/files/..%2F..%2Fetc%2Fpasswd", nil)
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusNotFound}, code)

	code, _ = env.do(t, http.MethodDelete, "/api/skills/review/files/docs/guide.md", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodGet, "/api/skills/review/files/docs/guide.md", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = env.do(t, http.MethodGet, "/api/skills", nil)
	require.Equal(t, http.StatusOK, code)
	var list []skills.Skill
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Len(t, list, 1)

	code, _ = env.do(t, http.MethodDelete, "/api/skills/review", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodDelete, "/api/skills/review", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = env.do(t, http.MethodGet, "/api/skills/review", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUpdateFile_MissingSkill(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodPut, "/api/skills/ghost/files/a.md", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.NoDirExists(t, filepath.Join(env.repo, "ghost"))
}

func TestConfigRoutes(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, code)
	var settings config.Settings
	require.NoError(t, json.Unmarshal(resp.Data, &settings))
	assert.Equal(t, env.repo, settings.SkillRepoPath)

	code, resp = env.do(t, http.MethodPut, "/api/config", map[string]any{"theme": "dark", "autoSync": true})
	require.Equal(t, http.StatusOK, code, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Data, &settings))
	assert.Equal(t, "dark", settings.Theme)
	assert.True(t, settings.AutoSync)

	code, _ = env.do(t, http.MethodPut, "/api/config", map[string]any{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSyncRoutes(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.store.Create("one", "", "")
	require.NoError(t, err)
	_, err = env.store.Create("two", "", "")
	require.NoError(t, err)

	code, resp := env.do(t, http.MethodPost, "/api/sync/skill", map[string]string{"skillId": "one", "toolId": "alpha"})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success, resp.Error)
	assert.DirExists(t, filepath.Join(env.home, ".alpha", "skills", "one"))

	code, resp = env.do(t, http.MethodPost, "/api/sync/skill", map[string]string{"skillId": "missing", "toolId": "alpha"})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "not found")

	code, _ = env.do(t, http.MethodPost, "/api/sync/skill", map[string]string{"skillId": "one"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = env.do(t, http.MethodPost, "/api/sync/all", nil)
	require.Equal(t, http.StatusOK, code)
	var batch struct {
		Results   []syncservice.SyncResult `json:"results"`
		Succeeded int                      `json:"succeeded"`
		Failed    int                      `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &batch))
	assert.Len(t, batch.Results, 2, "只同步到已探测的工具")
	assert.Equal(t, 2, batch.Succeeded)

	code, resp = env.do(t, http.MethodPost, "/api/sync/tool/ghost", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &batch))
	assert.Equal(t, 2, batch.Succeeded)

	code, _ = env.do(t, http.MethodPost, "/api/sync/tool/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = env.do(t, http.MethodPost, "/api/sync/skill/one/all", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &batch))
	assert.Len(t, batch.Results, 1)

	code, resp = env.do(t, http.MethodGet, "/api/sync/status/alpha", nil)
	require.Equal(t, http.StatusOK, code)
	var statuses []syncservice.SyncStatus
	require.NoError(t, json.Unmarshal(resp.Data, &statuses))
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.Equal(t, syncservice.StatusSynced, s.Status)
	}

	code, resp = env.do(t, http.MethodGet, "/api/sync/status", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &statuses))
	assert.Len(t, statuses, 2)

	code, _ = env.do(t, http.MethodGet, "/api/sync/status/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSyncEventsRoute(t *testing.T) {
	env := newTestEnv(t)
	env.events.events = []model.SyncEvent{{ID: 1, EventType: "SkillSynced", ToolID: "alpha", SkillID: "one", Success: true}}

	code, resp := env.do(t, http.MethodGet, "/api/sync/events?toolId=alpha&type=SkillSynced&limit=5", nil)
	require.Equal(t, http.StatusOK, code)
	var events []model.SyncEvent
	require.NoError(t, json.Unmarshal(resp.Data, &events))
	assert.Len(t, events, 1)
	assert.Equal(t, "alpha", env.events.lastFilter.ToolID)
	assert.Equal(t, []string{"SkillSynced"}, env.events.lastFilter.EventTypes)
	assert.Equal(t, 5, env.events.lastFilter.Limit)

	code, _ = env.do(t, http.MethodGet, "/api/sync/events?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestImportAndMergeRoutes(t *testing.T) {
	env := newTestEnv(t)
	toolSkill := filepath.Join(env.home, ".alpha", "skills", "imported")
	require.NoError(t, os.MkdirAll(toolSkill, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(toolSkill, "SKILL.md"), []byte("# Imported skill\n"), 0644))

	code, resp := env.do(t, http.MethodGet, "/api/tools/skills", nil)
	require.Equal(t, http.StatusOK, code)
	var found []syncservice.ImportedSkill
	require.NoError(t, json.Unmarshal(resp.Data, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Imported skill", found[0].Description)

	code, resp = env.do(t, http.MethodGet, "/api/merge/preview/alpha", nil)
	require.Equal(t, http.StatusOK, code)
	var previews []syncservice.MergePreview
	require.NoError(t, json.Unmarshal(resp.Data, &previews))
	require.Len(t, previews, 1)
	assert.False(t, previews[0].HasConflicts)

	code, resp = env.do(t, http.MethodPost, "/api/import", map[string]any{"toolId": "alpha", "skillName": "imported", "useSymlink": true})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success, resp.Error)
	assert.FileExists(t, filepath.Join(env.repo, "imported", "SKILL.md"))

	code, resp = env.do(t, http.MethodPost, "/api/merge/execute", map[string]any{"toolId": "alpha", "skillName": "imported"})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "already exists")

	code, resp = env.do(t, http.MethodPost, "/api/merge/execute", map[string]any{"toolId": "alpha", "skillName": "imported", "overwrite": true})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success, resp.Error)

	code, resp = env.do(t, http.MethodPost, "/api/import/restore", map[string]any{"toolId": "alpha", "skillName": "imported"})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success, resp.Error)
	info, err := os.Lstat(toolSkill)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	code, resp = env.do(t, http.MethodPost, "/api/import/all", map[string]any{"toolId": "alpha"})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, resp.Success, "未允许覆盖时已存在的技能导入失败")

	code, _ = env.do(t, http.MethodPost, "/api/import", map[string]any{"toolId": "alpha"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodGet, "/api/merge/preview/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
