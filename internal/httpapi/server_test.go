package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ashvale/gatewarden/internal/gatewarden/service"
	"github.com/ashvale/gatewarden/internal/gatewarden/store/memory"
	"github.com/ashvale/gatewarden/internal/httpapi"
	"github.com/ashvale/gatewarden/internal/metrics"
	"github.com/ashvale/gatewarden/internal/roblox"
)

type fakeResolver struct {
	byName map[string]roblox.User
}

func (r *fakeResolver) ResolveByName(_ context.Context, name string) (roblox.User, error) {
	if u, ok := r.byName[name]; ok {
		return u, nil
	}
	return roblox.User{}, roblox.ErrNotFound
}

func (r *fakeResolver) ResolveByID(_ context.Context, id int64) (roblox.User, error) {
	for _, u := range r.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return roblox.User{}, roblox.ErrNotFound
}

// newTestServer serves the full API over a memory store that already
// knows user 900 ("Neo").
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st := memory.New(nil)
	resolver := &fakeResolver{byName: map[string]roblox.User{
		"Neo": {ID: 900, Username: "Neo"},
	}}
	gateway := service.NewGateway(st, resolver, service.NewAdminPolicy(nil), nil)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Gateway:   gateway,
		Resolver:  resolver,
		Metrics:   metrics.New(),
		PublicURL: "http://localhost:8080",
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode, body
}

func postJSON(t *testing.T, url string, payload any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode, body
}

// addUser admits a user through the webhook route, the same path the
// approval bot uses.
func addUser(t *testing.T, ts *httptest.Server, userID int64, username string) {
	t.Helper()
	status, body := postJSON(t, ts.URL+"/webhook_verify", map[string]any{
		"user_id":      userID,
		"action":       "add",
		"username":     username,
		"discord_user": "Trinity",
	})
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("webhook add failed: status=%d body=%v", status, body)
	}
}

func TestHome(t *testing.T) {
	ts := newTestServer(t)

	status, body := getJSON(t, ts.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["status"] != "online" {
		t.Errorf("expected online status, got %v", body["status"])
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	status, body := getJSON(t, ts.URL+"/healthz")
	if status != http.StatusOK || body["ok"] != true {
		t.Errorf("expected healthy response, got %d %v", status, body)
	}
}

func TestCheckWhitelist(t *testing.T) {
	ts := newTestServer(t)

	status, body := getJSON(t, ts.URL+"/check_whitelist?user_id=900")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["whitelisted"] != false {
		t.Errorf("expected not whitelisted before add, got %v", body)
	}

	addUser(t, ts, 900, "Neo")

	_, body = getJSON(t, ts.URL+"/check_whitelist?user_id=900")
	if body["whitelisted"] != true {
		t.Errorf("expected whitelisted after add, got %v", body)
	}
	if body["username"] != "Neo" {
		t.Errorf("expected stored username, got %v", body["username"])
	}
}

func TestCheckWhitelist_BadRequest(t *testing.T) {
	ts := newTestServer(t)

	for _, q := range []string{"", "?user_id=abc", "?user_id=-5"} {
		resp, err := http.Get(ts.URL + "/check_whitelist" + q)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestVerify(t *testing.T) {
	ts := newTestServer(t)

	status, body := getJSON(t, ts.URL+"/verify?username=Neo")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["username"] != "Neo" || body["whitelisted"] != false {
		t.Errorf("unexpected verify body %v", body)
	}
	if body["profile_url"] != "https://www.roblox.com/users/900/profile" {
		t.Errorf("unexpected profile url %v", body["profile_url"])
	}

	status, body = getJSON(t, ts.URL+"/verify?username=Nobody")
	if status != http.StatusNotFound || body["success"] != false {
		t.Errorf("expected 404 for unknown name, got %d %v", status, body)
	}
}

func TestWebhookVerify_CheckAction(t *testing.T) {
	ts := newTestServer(t)
	addUser(t, ts, 900, "Neo")

	// Empty action defaults to check; extra fields are tolerated.
	status, body := postJSON(t, ts.URL+"/webhook_verify", map[string]any{
		"user_id":   900,
		"timestamp": 1724900000,
	})
	if status != http.StatusOK || body["whitelisted"] != true {
		t.Errorf("expected whitelisted check, got %d %v", status, body)
	}
}

func TestWebhookVerify_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	status, _ := postJSON(t, ts.URL+"/webhook_verify", map[string]any{"action": "check"})
	if status != http.StatusBadRequest {
		t.Errorf("missing user_id: expected 400, got %d", status)
	}

	status, _ = postJSON(t, ts.URL+"/webhook_verify", map[string]any{
		"user_id": 900,
		"action":  "explode",
	})
	if status != http.StatusBadRequest {
		t.Errorf("unknown action: expected 400, got %d", status)
	}
}

func TestWhitelistList(t *testing.T) {
	ts := newTestServer(t)
	addUser(t, ts, 900, "Neo")
	addUser(t, ts, 901, "Morpheus")

	status, body := getJSON(t, ts.URL+"/whitelist")
	if status != http.StatusOK || body["status"] != "success" {
		t.Fatalf("expected success, got %d %v", status, body)
	}
	if body["count"] != float64(2) {
		t.Errorf("expected count 2, got %v", body["count"])
	}
	ids, ok := body["whitelist"].([]any)
	if !ok || len(ids) != 2 {
		t.Fatalf("expected two ids, got %v", body["whitelist"])
	}
	if ids[0] != float64(900) || ids[1] != float64(901) {
		t.Errorf("expected insertion order [900 901], got %v", ids)
	}
}

func TestRemove_Post(t *testing.T) {
	ts := newTestServer(t)
	addUser(t, ts, 900, "Neo")

	status, body := postJSON(t, ts.URL+"/whitelist/remove", map[string]any{"user_id": 900})
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("expected removal, got %d %v", status, body)
	}
	if body["username"] != "Neo" {
		t.Errorf("expected removed entry echoed back, got %v", body)
	}

	status, _ = postJSON(t, ts.URL+"/whitelist/remove", map[string]any{"user_id": 900})
	if status != http.StatusNotFound {
		t.Errorf("double remove: expected 404, got %d", status)
	}
}

func TestRemove_Delete(t *testing.T) {
	ts := newTestServer(t)
	addUser(t, ts, 900, "Neo")

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/whitelist/900", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	_, body := getJSON(t, ts.URL+"/check_whitelist?user_id=900")
	if body["whitelisted"] != false {
		t.Errorf("expected user gone after delete, got %v", body)
	}
}

func TestAdminPage(t *testing.T) {
	ts := newTestServer(t)
	addUser(t, ts, 900, "Neo")

	resp, err := http.Get(ts.URL + "/admin")
	if err != nil {
		t.Fatalf("GET /admin: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	page, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(page), "Neo") {
		t.Error("expected whitelisted user on the admin page")
	}
}

func TestAdminAddAndRemoveForms(t *testing.T) {
	ts := newTestServer(t)

	// The forms redirect back to the panel; follow redirects off to see
	// the 303 itself.
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.PostForm(ts.URL+"/admin/add", map[string][]string{
		"user_id": {"900"},
	})
	if err != nil {
		t.Fatalf("POST /admin/add: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}

	_, body := getJSON(t, ts.URL+"/check_whitelist?user_id=900")
	if body["whitelisted"] != true {
		t.Fatalf("expected form add to admit user, got %v", body)
	}

	resp, err = client.PostForm(ts.URL+"/admin/remove", map[string][]string{
		"user_id": {"900"},
	})
	if err != nil {
		t.Fatalf("POST /admin/remove: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}

	_, body = getJSON(t, ts.URL+"/check_whitelist?user_id=900")
	if body["whitelisted"] != false {
		t.Errorf("expected form remove to revoke user, got %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	// Generate one observed request first.
	if _, err := http.Get(ts.URL + "/healthz"); err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	page, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(page), "gatewarden_http_requests_total") {
		t.Error("expected request counter in exposition")
	}
}

func TestListOrderSurvivesOverwrite(t *testing.T) {
	ts := newTestServer(t)
	addUser(t, ts, 900, "Neo")
	addUser(t, ts, 901, "Morpheus")
	addUser(t, ts, 900, "TheOne") // overwrite keeps position

	status, body := getJSON(t, ts.URL+"/whitelist")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["count"] != float64(2) {
		t.Fatalf("overwrite must not grow the list, got %v", body["count"])
	}

	_, check := getJSON(t, ts.URL+fmt.Sprintf("/check_whitelist?user_id=%d", 900))
	if check["username"] != "TheOne" {
		t.Errorf("expected last write to win, got %v", check["username"])
	}
}
