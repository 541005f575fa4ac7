package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"moonui/internal/licenseapi"
	"moonui/internal/models"
	"moonui/internal/notifier"
	"moonui/internal/notify"
)

// fakeLicenseSource feeds the expiry notifier without a database.
type fakeLicenseSource struct {
	licenses []models.License
}

func (f *fakeLicenseSource) ListExpiringOn(time.Time) ([]models.License, error) {
	return f.licenses, nil
}

// noopMailer satisfies the notifier's mailer dependency.
type noopMailer struct{ sent int }

func (m *noopMailer) SendExpiryWarning(context.Context, string, string, string) error {
	m.sent++
	return nil
}

func newTestAPI(cronSecret string, expiry *notifier.Notifier, telegram *notify.Telegram) *API {
	if telegram == nil {
		telegram = notify.NewTelegram("", "")
	}
	return NewAPI(cronSecret, true, nil, nil, nil, nil, nil, nil, expiry, licenseapi.New("", ""), telegram)
}

func TestCronCheckExpiryRejectsMissingSecret(t *testing.T) {
	api := newTestAPI("topsecret", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cron/check-expiry", nil)
	rr := httptest.NewRecorder()
	api.CronCheckExpiry(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
	env := decodeEnvelope(t, rr)
	if env.Code != "unauthorized" {
		t.Errorf("code: got %q, want unauthorized", env.Code)
	}
}

func TestCronCheckExpiryRejectsEmptySecret(t *testing.T) {
	api := newTestAPI("", nil, nil)

	// With no secret configured, an empty bearer token must not slip
	// through the constant-time compare of two empty strings.
	req := httptest.NewRequest(http.MethodGet, "/api/cron/check-expiry", nil)
	req.Header.Set("Authorization", "Bearer ")
	rr := httptest.NewRecorder()
	api.CronCheckExpiry(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestCronCheckExpiryRejectsWrongSecret(t *testing.T) {
	api := newTestAPI("topsecret", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cron/check-expiry", nil)
	req.Header.Set("Authorization", "Bearer not-the-secret")
	rr := httptest.NewRecorder()
	api.CronCheckExpiry(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestCronCheckExpiryRunsSweep(t *testing.T) {
	owner := "owner@test.local"
	source := &fakeLicenseSource{licenses: []models.License{
		{Key: "MU-1", OwnerEmail: &owner},
		{Key: "MU-2", OwnerEmail: &owner},
	}}
	mailer := &noopMailer{}
	api := newTestAPI("topsecret", notifier.New(source, mailer), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cron/check-expiry", nil)
	req.Header.Set("Authorization", "Bearer topsecret")
	rr := httptest.NewRecorder()
	api.CronCheckExpiry(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	if !env.Success {
		t.Error("expected success envelope")
	}

	data, _ := json.Marshal(env.Data)
	var result notifier.Result
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode sweep result: %v", err)
	}
	if result.Matched != 2 || result.Sent != 2 {
		t.Errorf("result = %+v, want matched 2 sent 2", result)
	}
	if mailer.sent != 2 {
		t.Errorf("mailer sent %d, want 2", mailer.sent)
	}
}

func TestSentryWebhookRejectsBadPayload(t *testing.T) {
	api := newTestAPI("s", nil, nil)

	rr := httptest.NewRecorder()
	api.SentryWebhook(rr, jsonRequest(http.MethodPost, "/api/webhooks/sentry", "{not json"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad JSON: got %d, want 400", rr.Code)
	}

	rr = httptest.NewRecorder()
	api.SentryWebhook(rr, jsonRequest(http.MethodPost, "/api/webhooks/sentry", `{"project_name":"moonui"}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing message: got %d, want 400", rr.Code)
	}
}

func TestSentryWebhookRelaysToTelegram(t *testing.T) {
	var received map[string]any
	tg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer tg.Close()

	telegram := notify.NewTelegram("tok", "chat").WithBaseURL(tg.URL)
	api := newTestAPI("s", nil, telegram)

	body := `{"project_name":"moonui","level":"error","message":"db timeout","url":"https://sentry.example/1"}`
	rr := httptest.NewRecorder()
	api.SentryWebhook(rr, jsonRequest(http.MethodPost, "/api/webhooks/sentry", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if received == nil {
		t.Fatal("expected a Telegram sendMessage call")
	}
	text, _ := received["text"].(string)
	if !strings.Contains(text, "db timeout") || !strings.Contains(text, "moonui") {
		t.Errorf("relayed text %q missing event fields", text)
	}
}

// chiRequest attaches URL params the way the router would.
func chiRequest(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestIncrementStatRejectsBadParams(t *testing.T) {
	api := newTestAPI("s", nil, nil)

	cases := []struct {
		name   string
		params map[string]string
		code   string
	}{
		{"bad kind", map[string]string{"kind": "widget", "id": "x", "stat": "view"}, "bad_kind"},
		{"bad stat", map[string]string{"kind": "component", "id": "x", "stat": "likes"}, "bad_stat"},
		{"bad id", map[string]string{"kind": "component", "id": "not-a-uuid", "stat": "view"}, "bad_id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := chiRequest(httptest.NewRequest(http.MethodPost, "/api/stats", nil), tc.params)
			rr := httptest.NewRecorder()
			api.IncrementStat(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rr.Code)
			}
			if env := decodeEnvelope(t, rr); env.Code != tc.code {
				t.Errorf("code: got %q, want %q", env.Code, tc.code)
			}
		})
	}
}

func TestStatFromParam(t *testing.T) {
	cases := map[string]models.StatField{
		"view":     models.StatView,
		"copy":     models.StatCopy,
		"download": models.StatDownload,
	}
	for name, want := range cases {
		got, ok := statFromParam(name)
		if !ok || got != want {
			t.Errorf("statFromParam(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := statFromParam("share"); ok {
		t.Error("unexpected stat accepted")
	}
}

func TestActivateLicenseValidation(t *testing.T) {
	api := newTestAPI("s", nil, nil)

	rr := httptest.NewRecorder()
	api.ActivateLicense(rr, jsonRequest(http.MethodPost, "/api/license/activate", `{"key":""}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty payload: got %d, want 400", rr.Code)
	}

	rr = httptest.NewRecorder()
	api.ActivateLicense(rr, jsonRequest(http.MethodPost, "/api/license/activate", `{"key":"MU-PRO-12345678","email":"not-an-email"}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad email: got %d, want 400", rr.Code)
	}
}

func TestNewsletterValidation(t *testing.T) {
	api := newTestAPI("s", nil, nil)

	rr := httptest.NewRecorder()
	api.NewsletterSubscribe(rr, jsonRequest(http.MethodPost, "/api/newsletter/subscribe", `{"email":"nope"}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.Code != "validation_failed" {
		t.Errorf("code: got %q, want validation_failed", env.Code)
	}
}
