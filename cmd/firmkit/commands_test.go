package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kalambet/firmkit/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"errors":[{"message":"Not Found"}]}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

var fixedNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

// useTestApp points loadApp at ts with a throwaway auth config.
func useTestApp(t *testing.T, ts *testServer) {
	t.Helper()

	authFile := filepath.Join(t.TempDir(), "auth.json")
	if err := os.WriteFile(authFile, []byte(`{"firmware":{"type":"api","key":"fw-key"}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{
		Firmware: config.FirmwareConfig{BaseURL: ts.server.URL, Provider: "firmware", AuthFile: authFile, Timeout: "5s"},
		Quota:    config.QuotaConfig{Window: "5h", TimeZone: "UTC", Width: 26},
		Gemini:   config.GeminiConfig{BaseURL: ts.server.URL, Model: "gemini-test", Timeout: "5s", APIKey: "g-key"},
		Log:      config.LogConfig{Level: "error"},
	}

	old := loadApp
	loadApp = func() (*app, error) { return newApp(cfg, func() time.Time { return fixedNow }), nil }
	t.Cleanup(func() { loadApp = old })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		resetFlags(rootCmd)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestResearchStart(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /research": `{"id":"job-7","status":"queued"}`,
	})
	useTestApp(t, ts)

	out, err := execute(t, "research", "start", "--session", "ses_cli", "battery chemistry")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out) != "job-7" {
		t.Errorf("output = %q, want job-7", out)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("got %d requests, want 1", len(ts.requests))
	}
	req := ts.requests[0]
	if req.Auth != "Bearer fw-key" {
		t.Errorf("Authorization = %q", req.Auth)
	}
	var body map[string]string
	json.Unmarshal([]byte(req.Body), &body)
	if body["topic"] != "---\nSESSION:ses_cli\n---\nbattery chemistry" {
		t.Errorf("topic = %q", body["topic"])
	}
}

func TestResearchGet_SavesReport(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /research/job-7": `{"id":"job-7","status":"succeeded","title":"Batteries","topic":"---\nSESSION:x\n---\nbattery chemistry","report":"# Findings"}`,
	})
	useTestApp(t, ts)

	path := filepath.Join(t.TempDir(), "report.md")
	out, err := execute(t, "research", "get", "job-7", "--output", path)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "Topic: battery chemistry") || !strings.Contains(out, "Report saved to: "+path) {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "# Findings" {
		t.Errorf("report = %q, %v", data, err)
	}
}

func TestResearchGet_NotFound(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	useTestApp(t, ts)

	_, err := execute(t, "research", "get", "missing", "--output", filepath.Join(t.TempDir(), "r.md"))
	if err == nil || !strings.Contains(err.Error(), "Research job not found") {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestResearchList(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /research": `{"docs":[{"id":"a","status":"queued","title":"A","topic":"t","createdAt":"c","updatedAt":"u"}],"totalDocs":1}`,
	})
	useTestApp(t, ts)

	out, err := execute(t, "research", "list", "--session", "ses_cli", "--limit", "2", "--sort", "-createdAt")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out, "Found 1 of 1 total research jobs:") {
		t.Errorf("output = %q", out)
	}
	q := ts.requests[0].Query
	for _, want := range []string{"limit=2", "sort=-createdAt", "SESSION%3Ases_cli"} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}
}

func TestResearchList_InvalidWhere(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	useTestApp(t, ts)

	_, err := execute(t, "research", "list", "--where", "[1]")
	if err == nil || err.Error() != "Error: where filter must be a JSON object" {
		t.Errorf("err = %v", err)
	}
	if len(ts.requests) != 0 {
		t.Errorf("sent %d requests for an invalid filter", len(ts.requests))
	}
}

func TestQuota(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /quota": `{"used":0.5,"reset":"2026-06-01T11:05:00Z"}`,
	})
	useTestApp(t, ts)

	out, err := execute(t, "quota")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"Quota Window", " 50%", "2h 5m", "(Resets at Jun 1, 2026, 11:05 AM UTC)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestQuota_Unauthorized(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	useTestApp(t, ts)

	_, err := execute(t, "quota")
	if err == nil || !strings.HasPrefix(err.Error(), "Error: 404 Not Found") {
		t.Errorf("err = %v", err)
	}
}

func TestAnalyse(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /models/gemini-test:generateContent": `{"candidates":[{"content":{"parts":[{"text":"a receipt"}]}}]}`,
	})
	useTestApp(t, ts)

	img := filepath.Join(t.TempDir(), "r.webp")
	os.WriteFile(img, []byte("img"), 0o600)

	out, err := execute(t, "analyse", img, "what is it?")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out) != "a receipt" {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(ts.requests[0].Query, "key=g-key") {
		t.Errorf("query = %q, want api key", ts.requests[0].Query)
	}
}

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if result := colorize(colorRed, "hi"); result != "hi" {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}

	noColor = false
	if result := colorize(colorRed, "hi"); !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestSetupLogging(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		setupLogging(level)
	}
}

func TestServe_UnknownTransport(t *testing.T) {
	a := &app{cfg: config.Config{Server: config.ServerConfig{Transport: "pigeon"}}}
	err := serve(context.Background(), a)
	if err == nil || !strings.Contains(err.Error(), `unknown transport "pigeon"`) {
		t.Errorf("err = %v", err)
	}
}

func TestRunCommand_Unknown(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	useTestApp(t, ts)
	a, _ := loadApp()

	var out bytes.Buffer
	err := runCommand(context.Background(), a.commands, "compact", &out)
	if err == nil || err.Error() != `unknown command "compact"` {
		t.Errorf("err = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want none", out.String())
	}
}

func TestConfigSetShowUnset(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("FIRMKIT_QUOTA_WIDTH", "")

	if _, err := execute(t, "config", "set", "quota.width", "30"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	out, err := execute(t, "--no-color", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "quota.width = 30 (file)") {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, "config", "set", "firmware.timeout", "soon"); err == nil {
		t.Error("config set accepted an invalid duration")
	}

	if _, err := execute(t, "config", "unset", "quota.width"); err != nil {
		t.Fatalf("config unset: %v", err)
	}
	out, _ = execute(t, "--no-color", "config", "show")
	if !strings.Contains(out, "quota.width = 26 (default)") {
		t.Errorf("output after unset = %q", out)
	}
}
