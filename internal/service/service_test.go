package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/dpshade/pocket-nodes/internal/catalog"
	"github.com/dpshade/pocket-nodes/internal/catalog/builtin"
	"github.com/dpshade/pocket-nodes/internal/clipboard"
	apperrors "github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/models"
	"github.com/dpshade/pocket-nodes/internal/notify"
	"github.com/dpshade/pocket-nodes/internal/renderer"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(
		[]models.Node{
			{ID: "greet", Stage: models.StagePlanning, DefaultPrompt: "Hello [name], welcome to [place]."},
			{ID: "plan", Stage: models.StagePlanning, DefaultPrompt: "Plan [feature]."},
			{ID: "build", Stage: models.StageImplementation, DefaultPrompt: "Build [feature].\n\nUse [language] with [framework]."},
			{ID: "empty", Stage: models.StageMaintenance},
		},
		[]models.RawTemplate{
			{ID: "build-alt", NodeID: "build", Content: "Alternative for [feature]."},
		},
	)
	if err != nil {
		t.Fatalf("Failed to build catalogue: %v", err)
	}
	return c
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := NewService(testCatalog(t), opts...)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	return s
}

func TestInitialSelection(t *testing.T) {
	s := newTestService(t)

	if s.CurrentNode().ID != "greet" {
		t.Errorf("Expected first node selected, got %q", s.CurrentNode().ID)
	}
	tmpl, ok := s.CurrentTemplate()
	if !ok || tmpl.ID != "greet" {
		t.Errorf("Expected default template selected, got %v", tmpl)
	}
	if s.Policy() != renderer.PolicyPreserve {
		t.Errorf("Expected preserve policy by default")
	}
	if s.SessionID() == "" {
		t.Error("Session id should be set")
	}
}

func TestNewServiceRequiresCatalog(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Error("Expected an error without a catalogue")
	}
}

func TestHelloScenario(t *testing.T) {
	s := newTestService(t)

	if got := s.Render(); got != "Hello [name], welcome to [place]." {
		t.Errorf("Unexpected initial render %q", got)
	}

	s.SetInput("name", "Ada")
	if got := s.Render(); got != "Hello Ada, welcome to [place]." {
		t.Errorf("Unexpected partial render %q", got)
	}

	s.SetInput("place", " Paris ")
	if got := s.Render(); got != "Hello Ada, welcome to Paris." {
		t.Errorf("Unexpected full render %q", got)
	}
	if got := s.Input("place"); got != " Paris " {
		t.Errorf("Inputs should be stored raw, got %q", got)
	}
}

func TestTwoParagraphCompleteOnly(t *testing.T) {
	s := newTestService(t, WithPolicy(renderer.PolicyCompleteOnly))
	s.SelectNode("build")
	s.SetInput("feature", "login")

	if got := s.Render(); got != "Build login." {
		t.Errorf("Unexpected render %q", got)
	}
	if got := s.IncompleteSentences(); len(got) != 1 || got[0] != 1 {
		t.Errorf("Expected sentence 1 incomplete, got %v", got)
	}

	s.SetInput("language", "Go")
	s.SetInput("framework", "bubbletea")
	if got := s.Render(); got != "Build login.\nUse Go with bubbletea." {
		t.Errorf("Unexpected render %q", got)
	}

	if s.TogglePolicy() != renderer.PolicyPreserve {
		t.Error("Toggle should switch back to preserve")
	}
	if got := s.Render(); got != "Build login.\n\nUse Go with bubbletea." {
		t.Errorf("Unexpected preserve render %q", got)
	}
}

func TestSelectNodeClearsScopedInputs(t *testing.T) {
	s := newTestService(t)
	s.SetInput("name", "Ada")

	s.SelectNode("build")
	s.SetInput("feature", "login")
	s.SelectTemplate("build-alt")
	s.SetInput("feature", "search")

	// Switching away keeps build's inputs; switching back clears them
	s.SelectNode("plan")
	if s.Inputs()["build-feature"] != "login" {
		t.Error("Inputs of other nodes should survive a node switch")
	}
	if s.Inputs()["greet-name"] != "Ada" {
		t.Error("greet inputs should survive selecting plan")
	}

	s.SelectNode("build")
	snapshot := s.Inputs()
	if _, ok := snapshot["build-feature"]; ok {
		t.Error("build inputs should be cleared when selecting build")
	}
	if _, ok := snapshot["build-alt-feature"]; ok {
		t.Error("build-alt inputs should be cleared when selecting build")
	}
	if snapshot["greet-name"] != "Ada" {
		t.Error("greet inputs must be untouched")
	}

	tmpl, _ := s.CurrentTemplate()
	if tmpl.ID != "build" {
		t.Errorf("Selecting a node should select its default template, got %q", tmpl.ID)
	}
}

func TestSelectUnknownIsNoop(t *testing.T) {
	s := newTestService(t)
	s.SetInput("name", "Ada")

	if s.SelectNode("missing") {
		t.Error("Unknown node should be rejected")
	}
	if s.SelectTemplate("build-alt") {
		t.Error("Templates of other nodes should be rejected")
	}
	if s.SelectTemplate("missing") {
		t.Error("Unknown template should be rejected")
	}

	if s.CurrentNode().ID != "greet" || s.Input("name") != "Ada" {
		t.Error("State should be unchanged after rejected selections")
	}
}

func TestSelectTemplateKeepsInputs(t *testing.T) {
	s := newTestService(t)
	s.SelectNode("build")
	s.SetInput("feature", "login")

	if !s.SelectTemplate("build-alt") {
		t.Fatal("Expected build-alt to be selectable")
	}
	if got := s.Render(); got != "Alternative for [feature]." {
		t.Errorf("Inputs are per template, got %q", got)
	}

	s.SelectTemplate("build")
	if got := s.Input("feature"); got != "login" {
		t.Errorf("Switching templates should keep inputs, got %q", got)
	}
}

func TestSelectStage(t *testing.T) {
	s := newTestService(t)
	s.SetInput("name", "Ada")

	// Same stage keeps everything
	if !s.SelectStage(models.StagePlanning) || s.CurrentNode().ID != "greet" || s.Input("name") != "Ada" {
		t.Error("Selecting the current stage should be a no-op")
	}

	if !s.SelectStage(models.StageImplementation) {
		t.Fatal("Expected implementation stage to be selectable")
	}
	if s.CurrentNode().ID != "build" {
		t.Errorf("Expected first implementation node, got %q", s.CurrentNode().ID)
	}
	if len(s.Inputs()) != 0 {
		t.Errorf("Changing stage should clear all inputs, got %v", s.Inputs())
	}

	if s.SelectStage("release") {
		t.Error("Unknown stage should be rejected")
	}
}

func TestNodeWithoutTemplate(t *testing.T) {
	s := newTestService(t)
	s.SelectNode("empty")

	if _, ok := s.CurrentTemplate(); ok {
		t.Error("empty node has no template")
	}
	if s.SetInput("x", "y") {
		t.Error("SetInput should fail without a template")
	}
	if s.Render() != "" || s.Preview() != MessageNothingToPreview {
		t.Errorf("Unexpected render for empty node: %q / %q", s.Render(), s.Preview())
	}
}

func TestCopy(t *testing.T) {
	sink := &clipboard.Memory{}
	rec := &notify.Recorder{}
	s := newTestService(t, WithClipboard(sink), WithNotifier(rec))

	text, level, err := s.Copy()
	if err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}
	if level != notify.LevelSuccess || text != "Hello [name], welcome to [place]." {
		t.Errorf("Unexpected copy result %q %s", text, level)
	}
	if sink.Text() != text {
		t.Errorf("Clipboard should hold the rendered text, got %q", sink.Text())
	}
	if last, _ := rec.Last(); last.Level != notify.LevelSuccess {
		t.Errorf("Expected success notification, got %+v", last)
	}
}

func TestCopyNothing(t *testing.T) {
	sink := &clipboard.Memory{}
	rec := &notify.Recorder{}
	s := newTestService(t, WithClipboard(sink), WithNotifier(rec), WithPolicy(renderer.PolicyCompleteOnly))

	_, level, err := s.Copy()
	if level != notify.LevelWarning || err != nil {
		t.Errorf("Expected warning, got %s", level)
	}
	last, _ := rec.Last()
	if last.Level != notify.LevelWarning || last.Message != MessageNothingToCopy {
		t.Errorf("Unexpected notification %+v", last)
	}
	if sink.Text() != "" {
		t.Error("Nothing should reach the clipboard")
	}
}

func TestCopyClipboardFailure(t *testing.T) {
	rec := &notify.Recorder{}
	s := newTestService(t, WithClipboard(&clipboard.Memory{Err: errors.New("no display")}), WithNotifier(rec))

	_, level, err := s.Copy()
	if level != notify.LevelError {
		t.Errorf("Expected error level, got %s", level)
	}
	if err == nil || !strings.Contains(err.Error(), "no display") {
		t.Errorf("Expected the sink's error, got %v", err)
	}
	if last, _ := rec.Last(); last.Level != notify.LevelError {
		t.Errorf("Expected error notification, got %+v", last)
	}
}

func TestClearInputs(t *testing.T) {
	s := newTestService(t)
	s.SetInput("name", "Ada")
	s.SetInput("place", "Paris")
	s.SetInputKey("build-feature", "login")

	s.ClearInput("name")
	if s.Input("name") != "" || s.Input("place") != "Paris" {
		t.Error("ClearInput should remove only one placeholder")
	}

	s.ClearNodeInputs()
	if s.HasInputs() {
		t.Error("Node inputs should be cleared")
	}
	if s.Inputs()["build-feature"] != "login" {
		t.Error("Other nodes keep their inputs")
	}

	s.ClearAllInputs()
	if len(s.Inputs()) != 0 {
		t.Error("Expected an empty store")
	}
}

func TestProgressAndSearch(t *testing.T) {
	s := newTestService(t)
	s.SetInput("name", "Ada")

	if filled, total := s.Progress(); filled != 1 || total != 2 {
		t.Errorf("Expected 1/2, got %d/%d", filled, total)
	}

	results := s.Search("Alternative")
	if len(results) == 0 || results[0].ID != "build-alt" {
		t.Errorf("Expected build-alt in results, got %v", results)
	}
}

func TestRenderValues(t *testing.T) {
	c, err := builtin.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	out, err := RenderValues(c, "merge-conflict", map[string]string{
		"Briefly describe the feature's purpose": "add login",
	}, renderer.PolicyCompleteOnly)
	if err != nil {
		t.Fatalf("RenderValues: %v", err)
	}
	want := "The feature I'm trying to merge aims to: add login\nPlease help me resolve this conflict by:\n1. Analyzing both versions of the code\n2. Suggesting the best way to combine the changes\n3. Providing a resolved version of the code\n4. Explaining the reasoning behind the suggested resolution"
	if out != want {
		t.Errorf("Unexpected render:\n%q\nwant\n%q", out, want)
	}

	_, err = RenderValues(c, "missing", nil, renderer.PolicyPreserve)
	if !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("Expected NOT_FOUND, got %v", err)
	}
}
