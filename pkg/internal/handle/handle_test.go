package handle_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/studyvault/pkg/configs"
	"github.com/yeisme/studyvault/pkg/internal/model"
	"github.com/yeisme/studyvault/pkg/internal/notify"
	"github.com/yeisme/studyvault/pkg/internal/router"
	"github.com/yeisme/studyvault/pkg/internal/storage"
	"github.com/yeisme/studyvault/pkg/internal/storage/db"
	"github.com/yeisme/studyvault/pkg/internal/storage/kv"
	"github.com/yeisme/studyvault/pkg/middleware"
)

var configOnce sync.Once

// initTestConfig 加载默认配置（关闭热重载，附件落到临时目录）.
func initTestConfig(t *testing.T) {
	t.Helper()

	configOnce.Do(func() {
		dir, err := os.MkdirTemp("", "studyvault-handle-test")
		if err != nil {
			t.Fatalf("failed to create temp dir: %v", err)
		}

		cfgFile := filepath.Join(dir, "config.yaml")
		content := fmt.Sprintf("server:\n  reload_config: false\n  debug: false\n  upload_dir: %s\n",
			filepath.Join(dir, "uploads"))

		if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if err := configs.InitConfig(cfgFile); err != nil {
			t.Fatalf("failed to init config: %v", err)
		}
	})
}

// testServer 聚合测试用的引擎与可观察的通知后端.
type testServer struct {
	engine  *gin.Engine
	manager *storage.Manager
	console *notify.ConsoleSender
}

// failingSender 外发始终失败的通知后端.
type failingSender struct{}

func (failingSender) SendMail(context.Context, *notify.Mail) error {
	return errSendFailed
}

func (failingSender) SendText(context.Context, *notify.Text) error {
	return errSendFailed
}

var errSendFailed = errors.New("notification gateway unreachable")

// newTestServer 构建使用内存数据库的完整路由栈.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	console := notify.NewConsoleSender()
	srv := newTestServerNotify(t, console)
	srv.console = console

	return srv
}

// newTestServerNotify 构建使用指定通知后端的路由栈.
func newTestServerNotify(t *testing.T, notifier notify.Dispatcher) *testServer {
	t.Helper()

	initTestConfig(t)
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	if err := gdb.AutoMigrate(&model.User{}, &model.Material{}, &model.Delivery{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	manager := &storage.Manager{
		DB: &db.Client{DB: gdb},
		KV: kv.NewMemoryStore(),
	}

	engine := gin.New()
	engine.Use(middleware.StorageMiddleware(manager, notifier))
	router.RegisterAPIRoutes(engine)

	return &testServer{engine: engine, manager: manager}
}

// envelope 通用响应信封.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// doJSON 发送 JSON 请求，token 非空时附带 Bearer 头.
func (s *testServer) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

// decodeData 解出响应信封中的 data 字段.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response envelope: %v (body %s)", err, w.Body.String())
	}

	if !env.Success {
		t.Fatalf("expected success envelope, got error %q", env.Error)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("failed to decode data: %v (data %s)", err, string(env.Data))
		}
	}
}

// registerAndLogin 注册并登录用户，返回 JWT 与用户 ID.
func (s *testServer) registerAndLogin(t *testing.T, name, email, role string) (string, uint) {
	t.Helper()

	w := s.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "secret123",
		"role":     role,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", w.Code, w.Body.String())
	}

	var user struct {
		ID uint `json:"id"`
	}

	decodeData(t, w, &user)

	w = s.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", w.Code, w.Body.String())
	}

	var login struct {
		Token string `json:"token"`
	}

	decodeData(t, w, &login)

	if login.Token == "" {
		t.Fatal("expected non-empty token from login")
	}

	return login.Token, user.ID
}

// createMaterial 创建资料并返回 ID.
func (s *testServer) createMaterial(t *testing.T, token, title string) uint {
	t.Helper()

	w := s.doJSON(t, http.MethodPost, "/api/v1/materials", token, gin.H{
		"title":   title,
		"subject": "physics",
		"price":   0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create material returned %d: %s", w.Code, w.Body.String())
	}

	var material struct {
		ID uint `json:"id"`
	}

	decodeData(t, w, &material)

	return material.ID
}

// uploadFile 上传附件.
func (s *testServer) uploadFile(t *testing.T, token string, materialID uint, name, content string) {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}

	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/materials/%d/file", materialID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("upload returned %d: %s", w.Code, w.Body.String())
	}
}

var tokenPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)

func TestFullDeliveryFlow(t *testing.T) {
	srv := newTestServer(t)

	senderToken, _ := srv.registerAndLogin(t, "Alice", "alice@example.com", "teacher")
	recipientToken, recipientID := srv.registerAndLogin(t, "Bob", "bob@example.com", "student")

	materialID := srv.createMaterial(t, senderToken, "Mechanics Notes")
	srv.uploadFile(t, senderToken, materialID, "notes.pdf", "chapter one")

	// 邮件投递并立即外发
	w := srv.doJSON(t, http.MethodPost,
		fmt.Sprintf("/api/v1/materials/%d/deliver/email", materialID), senderToken, gin.H{
			"user_id": recipientID,
			"address": "bob@example.com",
		})
	if w.Code != http.StatusOK {
		t.Fatalf("deliver returned %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		Delivery struct {
			DeliveryID string `json:"delivery_id"`
			Status     string `json:"status"`
		} `json:"delivery"`
		DownloadLink string `json:"download_link"`
	}

	decodeData(t, w, &result)

	delivery := result.Delivery

	if delivery.Status != model.DeliveryStatusDelivered {
		t.Fatalf("expected delivered status after dispatch, got %q", delivery.Status)
	}

	if tokenPattern.FindStringSubmatch(result.DownloadLink) == nil {
		t.Fatalf("download link has no token: %q", result.DownloadLink)
	}

	mails := srv.console.SentMails()
	if len(mails) != 1 {
		t.Fatalf("expected 1 sent mail, got %d", len(mails))
	}

	match := tokenPattern.FindStringSubmatch(mails[0].PlainText)
	if match == nil {
		t.Fatalf("mail body has no download token: %q", mails[0].PlainText)
	}

	downloadToken := match[1]

	// 凭令牌下载，无需登录
	downloadPath := fmt.Sprintf("/api/v1/materials/%d/download?token=%s", materialID, downloadToken)

	req := httptest.NewRequest(http.MethodGet, downloadPath, nil)
	dw := httptest.NewRecorder()
	srv.engine.ServeHTTP(dw, req)

	if dw.Code != http.StatusOK {
		t.Fatalf("download returned %d: %s", dw.Code, dw.Body.String())
	}

	if dw.Body.String() != "chapter one" {
		t.Fatalf("unexpected download body: %q", dw.Body.String())
	}

	// 接收者能看到这条投递
	w = srv.doJSON(t, http.MethodGet, "/api/v1/deliveries", recipientToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list deliveries returned %d: %s", w.Code, w.Body.String())
	}

	var list struct {
		Items []struct {
			DeliveryID    string `json:"delivery_id"`
			DownloadCount int64  `json:"download_count"`
		} `json:"items"`
		Total int64 `json:"total"`
	}

	decodeData(t, w, &list)

	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("expected exactly 1 delivery, got total=%d items=%d", list.Total, len(list.Items))
	}

	if list.Items[0].DownloadCount != 1 {
		t.Fatalf("expected download_count 1, got %d", list.Items[0].DownloadCount)
	}

	// 取消后令牌失效
	w = srv.doJSON(t, http.MethodPost,
		"/api/v1/deliveries/"+delivery.DeliveryID+"/cancel", senderToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel returned %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, downloadPath, nil)
	dw = httptest.NewRecorder()
	srv.engine.ServeHTTP(dw, req)

	if dw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 after cancel, got %d", dw.Code)
	}
}

func TestDownloadGate(t *testing.T) {
	srv := newTestServer(t)

	token, _ := srv.registerAndLogin(t, "Carol", "carol@example.com", "teacher")
	materialID := srv.createMaterial(t, token, "Algebra Drills")

	bogus := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

	// 资料不存在优先返回 404，即使带了令牌
	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/materials/424242/download?token=%s", bogus), nil)
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing material, got %d", w.Code)
	}

	// 缺少令牌
	req = httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/materials/%d/download", materialID), nil)
	w = httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without token, got %d", w.Code)
	}

	// 未知令牌
	req = httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/materials/%d/download?token=%s", materialID, bogus), nil)
	w = httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", w.Code)
	}
}

func TestDeliverToOwnerForbidden(t *testing.T) {
	srv := newTestServer(t)

	ownerToken, ownerID := srv.registerAndLogin(t, "Olive", "olive@example.com", "teacher")
	materialID := srv.createMaterial(t, ownerToken, "Own Notes")

	w := srv.doJSON(t, http.MethodPost,
		fmt.Sprintf("/api/v1/materials/%d/deliver/email", materialID), ownerToken, gin.H{
			"user_id": ownerID,
			"address": "olive@example.com",
		})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 delivering to owner, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	srv := newTestServer(t)

	token, _ := srv.registerAndLogin(t, "Ivy", "ivy@example.com", "student")

	w := srv.doJSON(t, http.MethodGet, "/api/v1/users/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me before logout returned %d", w.Code)
	}

	w = srv.doJSON(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout returned %d: %s", w.Code, w.Body.String())
	}

	w = srv.doJSON(t, http.MethodGet, "/api/v1/users/me", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}

func TestChangePassword(t *testing.T) {
	srv := newTestServer(t)

	token, _ := srv.registerAndLogin(t, "Jack", "jack@example.com", "student")

	// 旧密码不对
	w := srv.doJSON(t, http.MethodPut, "/api/v1/users/me/password", token, gin.H{
		"old_password": "wrongpass",
		"new_password": "newsecret123",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong old password, got %d", w.Code)
	}

	w = srv.doJSON(t, http.MethodPut, "/api/v1/users/me/password", token, gin.H{
		"old_password": "secret123",
		"new_password": "newsecret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("change password returned %d: %s", w.Code, w.Body.String())
	}

	// 新密码生效
	w = srv.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "jack@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with old password, got %d", w.Code)
	}

	w = srv.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "jack@example.com",
		"password": "newsecret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login with new password returned %d: %s", w.Code, w.Body.String())
	}
}

func TestDeliverWhatsAppSendsText(t *testing.T) {
	srv := newTestServer(t)

	senderToken, _ := srv.registerAndLogin(t, "Dave", "dave@example.com", "teacher")
	_, recipientID := srv.registerAndLogin(t, "Erin", "erin@example.com", "student")

	materialID := srv.createMaterial(t, senderToken, "Chemistry Labs")
	srv.uploadFile(t, senderToken, materialID, "labs.pdf", "lab manual")

	w := srv.doJSON(t, http.MethodPost,
		fmt.Sprintf("/api/v1/materials/%d/deliver/whatsapp", materialID), senderToken, gin.H{
			"user_id": recipientID,
			"address": "+8613800138000",
		})
	if w.Code != http.StatusOK {
		t.Fatalf("deliver returned %d: %s", w.Code, w.Body.String())
	}

	texts := srv.console.SentTexts()
	if len(texts) != 1 {
		t.Fatalf("expected 1 sent text, got %d", len(texts))
	}

	if !texts[0].WhatsApp {
		t.Fatal("expected WhatsApp flag on sent text")
	}

	if tokenPattern.FindStringSubmatch(texts[0].Body) == nil {
		t.Fatalf("text body has no download token: %q", texts[0].Body)
	}
}

func TestDuplicateDeliveryRejected(t *testing.T) {
	srv := newTestServer(t)

	senderToken, _ := srv.registerAndLogin(t, "Frank", "frank@example.com", "teacher")
	_, recipientID := srv.registerAndLogin(t, "Grace", "grace@example.com", "student")

	materialID := srv.createMaterial(t, senderToken, "History Essays")
	srv.uploadFile(t, senderToken, materialID, "essays.pdf", "essays")

	body := gin.H{"user_id": recipientID, "address": "grace@example.com"}

	w := srv.doJSON(t, http.MethodPost,
		fmt.Sprintf("/api/v1/materials/%d/deliver/email", materialID), senderToken, body)
	if w.Code != http.StatusOK {
		t.Fatalf("first deliver returned %d: %s", w.Code, w.Body.String())
	}

	w = srv.doJSON(t, http.MethodPost,
		fmt.Sprintf("/api/v1/materials/%d/deliver/email", materialID), senderToken, body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate delivery, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDeliverDispatchFailure(t *testing.T) {
	srv := newTestServerNotify(t, failingSender{})

	senderToken, _ := srv.registerAndLogin(t, "Kate", "kate@example.com", "teacher")
	_, recipientID := srv.registerAndLogin(t, "Liam", "liam@example.com", "student")

	materialID := srv.createMaterial(t, senderToken, "Biology Slides")

	w := srv.doJSON(t, http.MethodPost,
		fmt.Sprintf("/api/v1/materials/%d/deliver/email", materialID), senderToken, gin.H{
			"user_id": recipientID,
			"address": "liam@example.com",
		})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on dispatch failure, got %d: %s", w.Code, w.Body.String())
	}

	// 投递记录保留并标记为 failed，错误信息落库
	var delivery model.Delivery
	if err := srv.manager.DB.DB.Where("material_id = ?", materialID).First(&delivery).Error; err != nil {
		t.Fatalf("failed to load delivery: %v", err)
	}

	if delivery.Status != model.DeliveryStatusFailed {
		t.Errorf("expected failed status, got %q", delivery.Status)
	}

	if delivery.ErrorMessage == "" {
		t.Error("expected error message on failed delivery")
	}
}

func TestAuthAndRoleGates(t *testing.T) {
	srv := newTestServer(t)

	// 未登录不能建资料
	w := srv.doJSON(t, http.MethodPost, "/api/v1/materials", "", gin.H{"title": "x"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	studentToken, studentID := srv.registerAndLogin(t, "Henry", "henry@example.com", "student")

	// 学生不能访问管理员接口
	w = srv.doJSON(t, http.MethodGet, "/api/v1/users", studentToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student on admin route, got %d", w.Code)
	}

	// 提升为管理员后重新登录即可访问
	if err := srv.manager.DB.DB.Model(&model.User{}).
		Where("id = ?", studentID).
		Update("role", model.RoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote user: %v", err)
	}

	w = srv.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "henry@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("re-login returned %d: %s", w.Code, w.Body.String())
	}

	var login struct {
		Token string `json:"token"`
	}

	decodeData(t, w, &login)

	w = srv.doJSON(t, http.MethodGet, "/api/v1/users", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin on admin route, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHealthPing(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/ping", nil)
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("ping returned %d", w.Code)
	}
}
