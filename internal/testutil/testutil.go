package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/raids-lab/buildtracker/dao/migrate"
	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal"
	"github.com/raids-lab/buildtracker/internal/handler"
	"github.com/raids-lab/buildtracker/internal/util"
	"github.com/raids-lab/buildtracker/pkg/config"
)

const (
	AdminUsername = "admin"
	Password      = "Secret-pass1"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB       *gorm.DB
	Query    *query.Query
	Config   *config.Config
	TokenMgr *util.TokenManager
	Alerter  *FakeAlerter
	Router   *gin.Engine
	T        *testing.T
}

// SetupTestDB opens an in-memory sqlite database private to the test and migrates it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// 单连接，内存库在连接关闭前一直存在
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migrate.Run(db))
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// TestConfig returns a config with fixed secrets and the defaults applied.
func TestConfig() *config.Config {
	conf := &config.Config{}
	conf.Auth.AccessTokenSecret = "test-access-secret"
	conf.Auth.RefreshTokenSecret = "test-refresh-secret"
	conf.Auth.AdminUsername = AdminUsername
	conf.Notify.Recipients = []string{"builds@example.com"}
	conf.SetDefaults()
	return conf
}

// Setup builds the full router on a fresh database.
func Setup(t *testing.T) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := SetupTestDB(t)
	conf := TestConfig()
	env := &TestEnv{
		DB:       db,
		Query:    query.Use(db),
		Config:   conf,
		TokenMgr: util.NewTokenManager(config.NewTokenConf(conf)),
		Alerter:  NewFakeAlerter(model.ItemStatus(conf.Notify.TerminalStatus)),
		T:        t,
	}
	env.Router = internal.Register(&handler.RegisterConfig{
		Query:    env.Query,
		Config:   conf,
		TokenMgr: env.TokenMgr,
		Alerter:  env.Alerter,
	})
	return env
}

// SeedUser creates a user whose password is Password.
func (env *TestEnv) SeedUser(username string, staff, superuser bool) *model.User {
	env.T.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(env.T, err)
	password := string(hashed)
	user := &model.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    &password,
		IsStaff:     staff,
		IsSuperuser: superuser,
	}
	require.NoError(env.T, env.Query.CreateUser(context.Background(), user))
	return user
}

// TokenFor issues an access token for user.
func (env *TestEnv) TokenFor(user *model.User) string {
	env.T.Helper()
	access, _, err := env.TokenMgr.CreateTokens(&util.JWTMessage{
		UserID:      user.ID,
		Username:    user.Username,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
	})
	require.NoError(env.T, err)
	return access
}

// SeedPLO creates an owner with the given name.
func (env *TestEnv) SeedPLO(name string) *model.PLO {
	env.T.Helper()
	plo := &model.PLO{Name: name}
	require.NoError(env.T, env.Query.SavePLO(context.Background(), plo))
	return plo
}

func (env *TestEnv) SeedProcessor(name string) *model.Processor {
	env.T.Helper()
	processor := &model.Processor{Name: name}
	require.NoError(env.T, env.Query.SaveProcessor(context.Background(), processor))
	return processor
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reqBody = strings.NewReader(b)
	default:
		jsonBytes, _ := json.Marshal(b)
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DoUpload posts content as the multipart field "file".
func DoUpload(r http.Handler, path, filename string, content []byte, token string) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", filename)
	_, _ = part.Write(content)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Response mirrors the envelope of resputil.
type Response struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
}

// ParseResponse decodes the envelope and, when data is not nil, its payload.
func ParseResponse(t *testing.T, w *httptest.ResponseRecorder, data any) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data), string(resp.Data))
	}
	return resp
}

// StatusUpdateCall is one recorded FakeAlerter.StatusUpdate call.
type StatusUpdateCall struct {
	SID     string
	Status  string
	Details map[string]any
}

// FakeAlerter records notifications instead of sending them.
type FakeAlerter struct {
	mu       sync.Mutex
	terminal model.ItemStatus
	// Err is returned by every call when set.
	Err           error
	HandedOver    []string
	StatusUpdates []StatusUpdateCall
}

func NewFakeAlerter(terminal model.ItemStatus) *FakeAlerter {
	return &FakeAlerter{terminal: terminal}
}

func (f *FakeAlerter) TerminalStatus() model.ItemStatus { return f.terminal }

func (f *FakeAlerter) ItemHandedOver(_ context.Context, item *model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HandedOver = append(f.HandedOver, item.SID)
	return f.Err
}

func (f *FakeAlerter) StatusUpdate(_ context.Context, sid, status string, details map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatusUpdates = append(f.StatusUpdates, StatusUpdateCall{SID: sid, Status: status, Details: details})
	return f.Err
}

// XLSX builds a workbook whose first sheet holds rows, the first row being the header.
func XLSX(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
