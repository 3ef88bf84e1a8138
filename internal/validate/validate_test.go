package validate

import (
	"os"
	"path/filepath"
	"testing"
)

const validSnapshot = `{
  "subject": "Coffee Culture",
  "xAxis": {"minLabel": "Minimalist", "maxLabel": "Ceremonial"},
  "yAxis": {"minLabel": "Solitary", "maxLabel": "Communal"},
  "manifestations": [
    {"id": "a", "x": 0, "y": 0, "name": "Flat White", "description": "See [Flat white](https://en.wikipedia.org/wiki/Flat_white).", "reasoning": "Balanced.", "isHallucination": false},
    {"id": "b", "x": 100, "y": 100, "name": "Impossible Coordinate", "description": "No.", "isImpossible": true, "impossibleExplanation": "No.", "isHallucination": false}
  ],
  "subjectGeneratedFrom": null,
  "savedAt": "2026-03-01T12:00:00Z"
}`

func TestRun_ValidSnapshot(t *testing.T) {
	report := Run([]byte(validSnapshot))
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %#v", report.Issues)
	}
	if report.HasErrors() {
		t.Fatalf("expected no errors")
	}
}

func TestRun_InvalidJSON(t *testing.T) {
	report := Run([]byte("not json"))
	if !hasIssueCode(report.Issues, codeInvalidJSON) {
		t.Fatalf("expected invalid json issue")
	}
}

func TestRun_MissingTopLevelFields(t *testing.T) {
	report := Run([]byte(`{"xAxis": {"minLabel": "", "maxLabel": "Ceremonial"}, "manifestations": {}}`))
	for _, code := range []string{codeMissingSubject, codeMissingAxis, codeEmptyAxisLabel, codeManifestationsShape} {
		if !hasIssueCode(report.Issues, code) {
			t.Fatalf("expected %s issue, got %#v", code, report.Issues)
		}
	}
	if report.Count(SeverityError) != 4 {
		t.Fatalf("expected 4 errors, got %d", report.Count(SeverityError))
	}
}

func TestRun_ManifestationChecks(t *testing.T) {
	snapshot := `{
  "subject": "Coffee Culture",
  "xAxis": {"minLabel": "Minimalist", "maxLabel": "Ceremonial"},
  "yAxis": {"minLabel": "Solitary", "maxLabel": "Communal"},
  "manifestations": [
    {"id": "a", "x": 10, "y": 10, "name": "Latte", "description": "d", "reasoning": "r"},
    {"id": "a", "x": 10, "y": 10, "name": "latte", "description": "d", "reasoning": "r"},
    {"id": "c", "x": 150, "y": 0, "name": "Ristretto", "description": "d", "reasoning": "r", "isHallucination": true},
    {"id": "d", "x": 90, "y": 0, "name": "Affogato", "description": "[local](file:///tmp/x)", "reasoning": "r"},
    {"id": "e", "x": -100, "y": -100, "isImpossible": true}
  ]
}`
	report := Run([]byte(snapshot))

	errorsWanted := []string{codeDuplicateID, codeCoordinateCollision, codeOutOfRange}
	for _, code := range errorsWanted {
		if !hasIssue(report.Issues, code, SeverityError) {
			t.Fatalf("expected error %s, got %#v", code, report.Issues)
		}
	}
	warningsWanted := []string{codeDuplicateName, codeHallucinationMismatch, codeNonWebLink, codeParadoxNoExplanation}
	for _, code := range warningsWanted {
		if !hasIssue(report.Issues, code, SeverityWarn) {
			t.Fatalf("expected warning %s, got %#v", code, report.Issues)
		}
	}
}

func TestRun_GeneratedFromCount(t *testing.T) {
	snapshot := `{
  "subject": "Coffee Culture",
  "xAxis": {"minLabel": "Minimalist", "maxLabel": "Ceremonial"},
  "yAxis": {"minLabel": "Solitary", "maxLabel": "Communal"},
  "manifestations": [],
  "subjectGeneratedFrom": ["Espresso", "Latte"]
}`
	report := Run([]byte(snapshot))
	if !hasIssue(report.Issues, codeGeneratedFromCount, SeverityWarn) {
		t.Fatalf("expected generated-from warning")
	}
	if report.HasErrors() {
		t.Fatalf("expected warnings only, got %#v", report.Issues)
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "curio.json")
	if err := os.WriteFile(path, []byte(validSnapshot), 0o600); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	report, err := RunFile(path)
	if err != nil {
		t.Fatalf("run file: %v", err)
	}
	if report.HasErrors() {
		t.Fatalf("expected no errors, got %#v", report.Issues)
	}

	if _, err := RunFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func hasIssueCode(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func hasIssue(issues []Issue, code string, severity Severity) bool {
	for _, issue := range issues {
		if issue.Code == code && issue.Severity == severity {
			return true
		}
	}
	return false
}
