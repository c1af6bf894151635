package fiber

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toxmod/internal/domain"
	dommetrics "github.com/kailas-cloud/toxmod/internal/domain/metrics"
	"github.com/kailas-cloud/toxmod/web"
)

// --- Mocks ---

type mockAPI struct {
	response domain.LabelMap
	err      error

	gotText   string
	gotLabels domain.LabelMap
	calls     int
}

func (m *mockAPI) Predict(_ context.Context, text string, trueLabels domain.LabelMap) (domain.PredictionRecord, error) {
	m.calls++
	m.gotText = text
	m.gotLabels = trueLabels
	if m.err != nil {
		return domain.PredictionRecord{}, m.err
	}
	return domain.PredictionRecord{RequestText: text, Response: m.response, TrueLabels: trueLabels}, nil
}

type mockLogs struct {
	records []domain.PredictionRecord
	err     error
}

func (m *mockLogs) List(context.Context) ([]domain.PredictionRecord, error) {
	return m.records, m.err
}

func newTestServer(api PredictionAPI, logs LogReader) *Server {
	return New(Config{
		Labels:         domain.DefaultLabels,
		AlertThreshold: 0.5,
		Views:          web.Views(),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("toxmod_monitoring_up 1\n"))
		}),
	}, api, logs, zap.NewNop())
}

func send(t *testing.T, s *Server, req *http.Request) (int, string) {
	t.Helper()
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func postForm(form url.Values) *http.Request {
	req, _ := http.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func record(pred, truth domain.LabelMap) domain.PredictionRecord {
	return domain.PredictionRecord{Response: pred.Normalize(domain.DefaultLabels), TrueLabels: truth}
}

// --- Tests ---

func TestOperatorForm_ListsPrettyLabels(t *testing.T) {
	s := newTestServer(&mockAPI{}, &mockLogs{})

	req, _ := http.NewRequest(http.MethodGet, "/", http.NoBody)
	code, body := send(t, s, req)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	for _, want := range []string{"Toxic", "Severe Toxic", "Obscene", "Threat", "Insult", "Identity Hate", `name="severe_toxic"`} {
		if !strings.Contains(body, want) {
			t.Errorf("form missing %q", want)
		}
	}
}

func TestOperatorSubmit_RendersPerLabelComparison(t *testing.T) {
	api := &mockAPI{response: domain.LabelMap{
		"toxic": 1, "severe_toxic": 0, "obscene": 0, "threat": 0, "insult": 1, "identity_hate": 0,
	}}
	s := newTestServer(api, &mockLogs{})

	code, body := send(t, s, postForm(url.Values{
		"comment": {"  you absolute idiot  "},
		"insult":  {"1"},
	}))
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if api.gotText != "you absolute idiot" {
		t.Errorf("text sent = %q, want trimmed", api.gotText)
	}
	wantLabels := domain.LabelMap{"toxic": 0, "severe_toxic": 0, "obscene": 0, "threat": 0, "insult": 1, "identity_hate": 0}
	if len(api.gotLabels) != len(wantLabels) {
		t.Fatalf("labels sent = %v", api.gotLabels)
	}
	for k, v := range wantLabels {
		if api.gotLabels[k] != v {
			t.Errorf("labels[%s] = %d, want %d", k, api.gotLabels[k], v)
		}
	}
	if strings.Count(body, "Predicted: ") != 6 {
		t.Errorf("want 6 label rows, body:\n%s", body)
	}
	if !strings.Contains(body, "Predicted: 1 | True: 1") {
		t.Error("insult row missing")
	}
	if !strings.Contains(body, "Predicted: 1 | True: 0") {
		t.Error("toxic row missing")
	}
}

func TestOperatorSubmit_EmptyComment(t *testing.T) {
	api := &mockAPI{}
	s := newTestServer(api, &mockLogs{})

	code, body := send(t, s, postForm(url.Values{"comment": {"   "}}))
	if code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", code)
	}
	if !strings.Contains(body, MsgEmptyComment) {
		t.Error("empty-comment message missing")
	}
	if api.calls != 0 {
		t.Error("api must not be called for an empty comment")
	}
}

func TestOperatorSubmit_APIFailure(t *testing.T) {
	s := newTestServer(&mockAPI{err: errors.New("connection refused")}, &mockLogs{})

	code, body := send(t, s, postForm(url.Values{"comment": {"hello"}}))
	if code != http.StatusBadGateway {
		t.Errorf("status = %d", code)
	}
	if !strings.Contains(body, MsgAPIFailure) {
		t.Error("api failure message missing")
	}
	if strings.Contains(body, "Predicted:") {
		t.Error("no results expected on failure")
	}
}

func TestMonitoring_RendersReportAndAlert(t *testing.T) {
	logs := &mockLogs{records: []domain.PredictionRecord{
		record(domain.LabelMap{"toxic": 1}, domain.LabelMap{"toxic": 1}),
		record(domain.LabelMap{"toxic": 1}, nil),
		record(domain.LabelMap{"insult": 1}, domain.LabelMap{"toxic": 1}),
	}}
	s := newTestServer(&mockAPI{}, logs)

	req, _ := http.NewRequest(http.MethodGet, "/monitoring", http.NoBody)
	code, body := send(t, s, req)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	for _, want := range []string{
		"Total Logs: 3",
		"Exact Match Accuracy",
		"33.33%",
		"Warning: Model accuracy dropped to 33.33%!",
		"Per Label Precision",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("monitoring page missing %q", want)
		}
	}
}

func TestMonitoring_NoAlertWhenEmpty(t *testing.T) {
	s := newTestServer(&mockAPI{}, &mockLogs{})

	req, _ := http.NewRequest(http.MethodGet, "/monitoring", http.NoBody)
	code, body := send(t, s, req)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !strings.Contains(body, "Total Logs: 0") {
		t.Error("total missing")
	}
	if strings.Contains(body, "Warning:") {
		t.Error("no alert expected without logs")
	}
}

func TestMonitoringJSON(t *testing.T) {
	logs := &mockLogs{records: []domain.PredictionRecord{
		record(domain.LabelMap{"toxic": 1}, domain.LabelMap{"toxic": 1}),
		record(domain.LabelMap{}, domain.LabelMap{}),
	}}
	s := newTestServer(&mockAPI{}, logs)

	req, _ := http.NewRequest(http.MethodGet, "/monitoring.json", http.NoBody)
	code, body := send(t, s, req)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var rep dommetrics.Report
	if err := json.Unmarshal([]byte(body), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Total != 2 || rep.ExactMatch != 1 || rep.Alert {
		t.Errorf("report = %+v", rep)
	}
	if len(rep.Labels) != 6 || rep.Labels[0].Label != "toxic" || rep.Labels[0].PredictedPositive != 0.5 {
		t.Errorf("labels = %+v", rep.Labels)
	}
}

func TestMonitoring_LogUnavailable(t *testing.T) {
	s := newTestServer(&mockAPI{}, &mockLogs{err: errors.New("throttled")})

	req, _ := http.NewRequest(http.MethodGet, "/monitoring", http.NoBody)
	code, body := send(t, s, req)
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", code)
	}
	if !strings.Contains(body, "Could not read the prediction log.") {
		t.Error("error page missing message")
	}
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(&mockAPI{}, &mockLogs{})

	req, _ := http.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	code, body := send(t, s, req)
	if code != http.StatusOK || !strings.Contains(body, "toxmod_monitoring_up 1") {
		t.Errorf("got %d %q", code, body)
	}
}

func TestBarWidthClamps(t *testing.T) {
	tests := map[float64]string{
		-1:   "width: 0.0%",
		0.25: "width: 25.0%",
		2:    "width: 100.0%",
	}
	for in, want := range tests {
		if got := string(barWidth(in)); got != want {
			t.Errorf("barWidth(%v) = %q, want %q", in, got, want)
		}
	}
}
