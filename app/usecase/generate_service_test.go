package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"flowdiagram/internal/domain/entity"
	"flowdiagram/internal/infrastructure/validator"
)

type fakeGenerator struct {
	calls  int
	result entity.GenerationResult
	err    error
}

func (f *fakeGenerator) GenerateDiagram(_ context.Context, _ string, _ entity.Prompt) (entity.GenerationResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeRepo struct {
	saved []*entity.Diagram
	err   error
}

func (f *fakeRepo) Save(_ context.Context, d *entity.Diagram) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, d)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*entity.Diagram, error) {
	for _, d := range f.saved {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) List(_ context.Context) ([]*entity.Diagram, error) {
	return f.saved, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	for i, d := range f.saved {
		if d.ID == id {
			f.saved = append(f.saved[:i], f.saved[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

type fakeArchive struct {
	saved   int
	removed int
	err     error
}

func (f *fakeArchive) SaveDiagram(_ context.Context, _ *entity.Diagram) error {
	if f.err != nil {
		return f.err
	}
	f.saved++
	return nil
}

func (f *fakeArchive) Remove(_ context.Context, _ string) error {
	f.removed++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(gen *fakeGenerator, repo *fakeRepo, archive *fakeArchive) *GenerateService {
	return NewGenerateService(gen, repo, archive, validator.NewSequenceAnalyzer(), testLogger())
}

func TestGenerate_ShortFlowNeverCallsUpstream(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestService(gen, &fakeRepo{}, &fakeArchive{})

	cases := []string{
		"",
		"short",
		"ABCDEFGHI",          // 9 chars, one below the threshold
		"   ABCDEFGHI      ", // 9 after trimming
		"\n\tpay\n",
	}
	for _, flow := range cases {
		_, err := svc.Generate(context.Background(), flow)
		if !errors.Is(err, ErrFlowTooShort) {
			t.Errorf("Generate(%q) err = %v, want ErrFlowTooShort", flow, err)
		}
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times, want 0", gen.calls)
	}
}

func TestGenerate_MinimumLengthAccepted(t *testing.T) {
	gen := &fakeGenerator{result: entity.GenerationResult{
		Mermaid: "sequenceDiagram\n    Customer->>Merchant: pay",
		Notes:   "- one step",
	}}
	svc := newTestService(gen, &fakeRepo{}, &fakeArchive{})

	if _, err := svc.Generate(context.Background(), "ABCDEFGHIJ"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
}

func TestGenerate_UpstreamErrorPassedThrough(t *testing.T) {
	upstreamErr := errors.New("chat api error: 500 - upstream exploded")
	gen := &fakeGenerator{err: upstreamErr}
	svc := newTestService(gen, &fakeRepo{}, &fakeArchive{})

	_, err := svc.Generate(context.Background(), "customer pays merchant by card")
	if !errors.Is(err, upstreamErr) {
		t.Fatalf("err = %v, want upstream error", err)
	}
}

func TestGenerate_WrongGrammarRejected(t *testing.T) {
	gen := &fakeGenerator{result: entity.GenerationResult{
		Mermaid: "graph TD;\nA-->B",
		Notes:   "- perfectly fine notes",
	}}
	repo := &fakeRepo{}
	svc := newTestService(gen, repo, &fakeArchive{})

	_, err := svc.Generate(context.Background(), "customer pays merchant by card")
	if !errors.Is(err, ErrNotSequenceDiagram) {
		t.Fatalf("err = %v, want ErrNotSequenceDiagram", err)
	}
	if len(repo.saved) != 0 {
		t.Errorf("rejected diagram was persisted")
	}
}

func TestGenerate_ValidResultEchoedAndRecorded(t *testing.T) {
	want := entity.GenerationResult{
		Mermaid: "sequenceDiagram\n    Customer->>PaymentGateway: authorize",
		Notes:   "- a\n- b",
	}
	gen := &fakeGenerator{result: want}
	repo := &fakeRepo{}
	archive := &fakeArchive{}
	svc := newTestService(gen, repo, archive)

	got, err := svc.Generate(context.Background(), "customer authorizes a card payment")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != want {
		t.Errorf("result = %+v, want %+v", got, want)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("saved = %d, want 1", len(repo.saved))
	}
	if archive.saved != 1 {
		t.Errorf("archived = %d, want 1", archive.saved)
	}
	saved := repo.saved[0]
	if saved.Mermaid != want.Mermaid || saved.Notes != want.Notes {
		t.Errorf("saved diagram = %+v", saved)
	}
	if saved.ID == "" {
		t.Error("saved diagram has no id")
	}
}

func TestGenerate_StorageFailureDoesNotFailGeneration(t *testing.T) {
	want := entity.GenerationResult{
		Mermaid: "sequenceDiagram\n    Customer->>Merchant: pay",
		Notes:   "- ok",
	}
	gen := &fakeGenerator{result: want}
	repo := &fakeRepo{err: errors.New("mongo down")}
	archive := &fakeArchive{err: errors.New("disk full")}
	svc := newTestService(gen, repo, archive)

	got, err := svc.Generate(context.Background(), "customer pays merchant by card")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != want {
		t.Errorf("result = %+v, want %+v", got, want)
	}
}

func TestDiagramService_DeleteRemovesArchive(t *testing.T) {
	repo := &fakeRepo{}
	archive := &fakeArchive{}
	d := entity.NewDiagram("flow", entity.GenerationResult{Mermaid: "sequenceDiagram", Notes: ""})
	_ = repo.Save(context.Background(), d)

	svc := NewDiagramService(repo, archive)
	if err := svc.DeleteDiagram(context.Background(), d.ID); err != nil {
		t.Fatalf("DeleteDiagram: %v", err)
	}
	if archive.removed != 1 {
		t.Errorf("archive.removed = %d, want 1", archive.removed)
	}
	if len(repo.saved) != 0 {
		t.Errorf("diagram still in repo")
	}
}

func TestDiagramService_ExportText(t *testing.T) {
	repo := &fakeRepo{}
	d := entity.NewDiagram("flow description here", entity.GenerationResult{
		Mermaid: "sequenceDiagram\n    Customer->>Merchant: pay",
		Notes:   "- authorization only",
	})
	_ = repo.Save(context.Background(), d)

	svc := NewDiagramService(repo, nil)
	text, err := svc.ExportText(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	want := d.Notes + "\n\n" + d.Mermaid
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestDiagramService_ExportTextMissing(t *testing.T) {
	svc := NewDiagramService(&fakeRepo{}, nil)
	text, err := svc.ExportText(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}
