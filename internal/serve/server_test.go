package serve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/security"
	"github.com/crewhq/crew/internal/settings"
)

// setupServer creates an initialized database with one admin and one
// member, and returns a test server plus a logged-in admin token.
func setupServer(t *testing.T) (*httptest.Server, *db.DB, string) {
	t.Helper()

	database, err := db.Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("initialize db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	for _, u := range []struct {
		username string
		role     models.Role
	}{
		{"boss", models.RoleAdmin},
		{"worker", models.RoleMember},
	} {
		hash, err := security.HashPassword("password123")
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		if err := database.CreateUser(&models.User{
			Username:     u.username,
			Role:         u.role,
			PasswordHash: hash,
			Active:       true,
		}); err != nil {
			t.Fatalf("create user %s: %v", u.username, err)
		}
	}

	srv := NewServer(database, database.BaseDir(), settings.Defaults(), Config{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts, database, login(t, ts, "boss", "password123")
}

func login(t *testing.T, ts *httptest.Server, username, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(ts.URL+"/v1/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}

	var env struct {
		OK   bool `json:"ok"`
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if !env.OK || env.Data.Token == "" {
		t.Fatalf("login envelope = %+v", env)
	}
	return env.Data.Token
}

// doJSON issues an authenticated request and decodes the envelope.
func doJSON(t *testing.T, ts *httptest.Server, token, method, path string, body interface{}) (*http.Response, Envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp, env
}

func TestHealthNoAuth(t *testing.T) {
	ts, _, _ := setupServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	ts, _, _ := setupServer(t)

	resp, env := doJSON(t, ts, "", http.MethodGet, "/v1/tasks", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if env.OK || env.Error == nil || env.Error.Code != ErrUnauthorized {
		t.Errorf("envelope = %+v", env)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ts, _, _ := setupServer(t)

	body, _ := json.Marshal(map[string]string{"username": "boss", "password": "wrong-password"})
	resp, err := http.Post(ts.URL+"/v1/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	ts, _, _ := setupServer(t)

	resp, _ := doJSON(t, ts, "not-a-real-token", http.MethodGet, "/v1/tasks", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	ts, _, token := setupServer(t)

	resp, _ := doJSON(t, ts, token, http.MethodPost, "/v1/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, ts, token, http.MethodGet, "/v1/tasks", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status after logout = %d, want 401", resp.StatusCode)
	}
}

func TestListTasks(t *testing.T) {
	ts, database, token := setupServer(t)

	boss, err := database.GetUserByUsername("boss")
	if err != nil {
		t.Fatalf("get boss: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := database.CreateTask(&models.Task{
			Title:      fmt.Sprintf("task %d", i),
			AssigneeID: boss.ID,
			AssignerID: boss.ID,
			DueAt:      time.Now().AddDate(0, 0, i+1),
		}); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}

	resp, env := doJSON(t, ts, token, http.MethodGet, "/v1/tasks?status=pending", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	tasks, ok := env.Data.([]interface{})
	if !ok || len(tasks) != 3 {
		t.Errorf("data = %v, want 3 tasks", env.Data)
	}
}

func TestListTasksRejectsBadStatus(t *testing.T) {
	ts, _, token := setupServer(t)

	resp, env := doJSON(t, ts, token, http.MethodGet, "/v1/tasks?status=bogus", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != ErrValidation {
		t.Errorf("envelope = %+v", env)
	}
}

func TestWeeklyReportForbiddenForMember(t *testing.T) {
	ts, _, _ := setupServer(t)
	memberToken := login(t, ts, "worker", "password123")

	resp, env := doJSON(t, ts, memberToken, http.MethodGet, "/v1/report/weekly", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != ErrForbidden {
		t.Errorf("envelope = %+v", env)
	}
}
