package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"designate/pkg/logging"
)

func TestFormatLogLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "rebuild line",
			input: `time=2026-01-18T06:50:46.074+01:00 level=INFO msg="Designator: registry rebuilt" rebuild_id=5f0c1f4e-8a43-4c55-9b8e-3f8a0d2b9c11 reason="settings:orders " entries=7 generation=3`,
			want:  "06:50:46 Designator: registry rebuilt (entries=7, generation=3, reason=settings:orders)",
		},
		{
			name:  "no attributes",
			input: `time=2026-01-18T06:50:46Z level=WARN msg=Hello`,
			want:  "06:50:46 Hello",
		},
		{
			name:  "not slog",
			input: "plain text line\n",
			want:  "plain text line",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLogLine(tt.input); got != tt.want {
				t.Errorf("formatLogLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleLatestLog(t *testing.T) {
	_, _ = logging.GlobalLogCapture.Write([]byte(`time=2026-01-18T06:50:46Z level=INFO msg="Dispatch: selected tool" tool=HuntAll`))
	_, _ = logging.GlobalEventCapture.Write([]byte("[2026-01-18 06:50:46] [select] HuntAll\n"))

	rec := httptest.NewRecorder()
	handleLatestLog(rec, httptest.NewRequest(http.MethodGet, "/api/log/latest", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp LogResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Log != "06:50:46 Dispatch: selected tool (tool=HuntAll)" {
		t.Errorf("log = %q", resp.Log)
	}
	if resp.Event != "[2026-01-18 06:50:46] [select] HuntAll" {
		t.Errorf("event = %q", resp.Event)
	}
}
