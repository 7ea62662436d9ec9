package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shjno191/graviti/internal/flowgraph"
)

const javaSource = `
class Student {
	public void study() {
		prepare();
		teacher.ask();
	}
	private void prepare() {}
}
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := New(Config{Port: 0}, flowgraph.RenderOptions{})
	if err := s.Update("Student.java", []byte(javaSource)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestServer(t), "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want 200", rec.Code)
	}
}

func TestIndexPage(t *testing.T) {
	rec := get(t, newTestServer(t), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "mermaid") {
		t.Errorf("index page does not load mermaid:\n%s", body)
	}
	if !strings.Contains(body, "/api/diagram") {
		t.Errorf("index page does not fetch the diagram API:\n%s", body)
	}
}

func TestGraphEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/graph")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/graph status = %d, want 200", rec.Code)
	}

	var resp struct {
		File  string               `json:"file"`
		Graph *flowgraph.CallGraph `json:"graph"`
		Stale bool                 `json:"stale"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.File != "Student.java" {
		t.Errorf("file = %q, want Student.java", resp.File)
	}
	if resp.Stale {
		t.Error("stale = true for a clean parse")
	}
	if _, ok := resp.Graph.Nodes["study"]; !ok {
		t.Errorf("graph missing node study: %v", resp.Graph.Nodes)
	}
}

func TestDiagramEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/diagram")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/diagram status = %d, want 200", rec.Code)
	}

	var resp struct {
		Diagram          string   `json:"diagram"`
		ExternalServices []string `json:"external_services"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp.Diagram, "flowchart TD\n") {
		t.Errorf("diagram does not start with flowchart TD:\n%s", resp.Diagram)
	}
	if len(resp.ExternalServices) != 1 || resp.ExternalServices[0] != "teacher" {
		t.Errorf("external services = %v, want [teacher]", resp.ExternalServices)
	}
}

func TestDiagramQueryOverrides(t *testing.T) {
	s := newTestServer(t)

	plain := get(t, s, "/api/diagram")
	refs := get(t, s, "/api/diagram?refs=true")
	if strings.Contains(plain.Body.String(), " (L") {
		t.Error("line references present without refs=true")
	}
	if !strings.Contains(refs.Body.String(), " (L") {
		t.Error("line references missing with refs=true")
	}

	targeted := get(t, s, "/api/diagram?method=prepare")
	if !strings.Contains(targeted.Body.String(), "subgraph prepare") {
		t.Errorf("method override not applied:\n%s", targeted.Body.String())
	}
}

func TestReportEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/report status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Method flows: Student.java") {
		t.Errorf("report page missing title:\n%s", body)
	}
	if !strings.Contains(body, "language-mermaid") {
		t.Errorf("report page has no mermaid code blocks:\n%s", body)
	}
}

func TestEndpointsBeforeFirstUpdate(t *testing.T) {
	s := New(Config{Port: 0}, flowgraph.RenderOptions{})
	for _, path := range []string{"/api/graph", "/api/diagram", "/api/report"} {
		if rec := get(t, s, path); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s before update: status = %d, want 404", path, rec.Code)
		}
	}
}

func TestUpdateKeepsLastGoodGraph(t *testing.T) {
	s := newTestServer(t)

	// tree-sitter recovers from almost anything, so a parse failure is rare;
	// the contract is that a failed Update leaves the old graph serving.
	if err := s.Update("Student.java", []byte("class Broken {")); err != nil {
		t.Logf("Update with broken source returned error: %v", err)
	}

	rec := get(t, s, "/api/graph")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/graph after bad update: status = %d, want 200", rec.Code)
	}
}
