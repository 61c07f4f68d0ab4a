package semantic

import (
	"context"
	"testing"

	"github.com/connectjob/engine/engine/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func cvRecord(id string, idx int, vec []float32) Record {
	return Record{
		SourceType: domain.SourceCV,
		SourceID:   id,
		ChunkIndex: idx,
		Text:       "chunk text",
		Vector:     vec,
		Metadata:   Metadata{SourceType: domain.SourceCV, CV: &CVMeta{FullName: "A"}},
	}
}

func TestUpsertAndDocRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := Record{
		SourceType: domain.SourceJob,
		SourceID:   "j1",
		ChunkIndex: DocChunkIndex,
		Text:       "Job Title: Engineer",
		Vector:     []float32{0.25, -1.5, 3},
		Metadata: Metadata{
			SourceType:  domain.SourceJob,
			DocLevel:    true,
			TextPreview: "Job Title: Engineer",
			Job:         &JobMeta{Title: "Engineer", Skills: []string{"go"}},
		},
	}
	if err := s.Upsert(ctx, in); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.Doc(ctx, domain.SourceJob, "j1")
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	if got == nil {
		t.Fatal("doc not found after upsert")
	}
	if got.Text != in.Text || got.ChunkIndex != DocChunkIndex {
		t.Errorf("record mismatch: %+v", got)
	}
	if len(got.Vector) != 3 || got.Vector[1] != -1.5 {
		t.Errorf("vector did not roundtrip: %v", got.Vector)
	}
	if got.Metadata.Job == nil || got.Metadata.Job.Title != "Engineer" {
		t.Errorf("metadata did not roundtrip: %+v", got.Metadata)
	}
}

func TestUpsertOverwritesSameKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := cvRecord("c1", 0, []float32{1, 0})
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := first
	second.Text = "rewritten"
	second.Vector = []float32{0, 1}
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatal(err)
	}

	chunks, err := s.Chunks(ctx, domain.SourceCV, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected one record, got %d", len(chunks))
	}
	if chunks[0].Text != "rewritten" || chunks[0].Vector[0] != 0 {
		t.Errorf("upsert did not overwrite: %+v", chunks[0])
	}
}

func TestUpsertRejectsVariantMismatch(t *testing.T) {
	s := openTestStore(t)
	rec := cvRecord("c1", 0, []float32{1})
	rec.Metadata.CV = nil // cv source with no cv variant
	if err := s.Upsert(context.Background(), rec); err == nil {
		t.Fatal("expected validation error")
	}
	rec = cvRecord("c2", 0, []float32{1})
	rec.Metadata.Job = &JobMeta{} // both variants set
	if err := s.Upsert(context.Background(), rec); err == nil {
		t.Fatal("expected validation error for double variant")
	}
}

func TestDocAbsentIsNil(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Doc(context.Background(), domain.SourceCV, "nope")
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing doc, got %+v", got)
	}
}

func TestChunksOrderedAndExcludeDocLevel(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := cvRecord("c1", DocChunkIndex, []float32{1})
	for _, rec := range []Record{cvRecord("c1", 2, []float32{1}), cvRecord("c1", 0, []float32{1}), cvRecord("c1", 1, []float32{1}), doc} {
		if err := s.Upsert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	chunks, err := s.Chunks(ctx, domain.SourceCV, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunk records, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Fatalf("chunks out of order: %+v", chunks)
		}
	}
}

func TestDeleteChunksFromKeepsDocLevel(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, idx := range []int{DocChunkIndex, 0, 1, 2, 3, 4} {
		if err := s.Upsert(ctx, cvRecord("c1", idx, []float32{1})); err != nil {
			t.Fatal(err)
		}
	}

	// re-index shrank the document to 3 chunks
	n, err := s.DeleteChunksFrom(ctx, domain.SourceCV, "c1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("deleted %d, want 2", n)
	}
	chunks, _ := s.Chunks(ctx, domain.SourceCV, "c1")
	if len(chunks) != 3 {
		t.Fatalf("expected chunks 0..2 left, got %d", len(chunks))
	}
	if doc, _ := s.Doc(ctx, domain.SourceCV, "c1"); doc == nil {
		t.Fatal("doc-level record should survive chunk deletion")
	}

	// minIndex 0 wipes all chunks but still not the doc
	if _, err := s.DeleteChunksFrom(ctx, domain.SourceCV, "c1", 0); err != nil {
		t.Fatal(err)
	}
	chunks, _ = s.Chunks(ctx, domain.SourceCV, "c1")
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
	if doc, _ := s.Doc(ctx, domain.SourceCV, "c1"); doc == nil {
		t.Fatal("doc-level record should survive full chunk wipe")
	}
}

func TestDeleteSourceRemovesEverything(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, idx := range []int{DocChunkIndex, 0, 1} {
		if err := s.Upsert(ctx, cvRecord("c1", idx, []float32{1})); err != nil {
			t.Fatal(err)
		}
	}
	// a second entity that must not be touched
	if err := s.Upsert(ctx, cvRecord("c2", 0, []float32{1})); err != nil {
		t.Fatal(err)
	}

	n, err := s.DeleteSource(ctx, domain.SourceCV, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("deleted %d, want 3", n)
	}
	if doc, _ := s.Doc(ctx, domain.SourceCV, "c1"); doc != nil {
		t.Fatal("doc should be gone")
	}
	if chunks, _ := s.Chunks(ctx, domain.SourceCV, "c2"); len(chunks) != 1 {
		t.Fatal("unrelated entity was deleted")
	}
}

func TestScanChunksHonorsLimitAndType(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Upsert(ctx, cvRecord("c1", i, []float32{1})); err != nil {
			t.Fatal(err)
		}
	}
	job := Record{
		SourceType: domain.SourceJob, SourceID: "j1", ChunkIndex: 0,
		Vector:   []float32{1},
		Metadata: Metadata{SourceType: domain.SourceJob, Job: &JobMeta{}},
	}
	if err := s.Upsert(ctx, job); err != nil {
		t.Fatal(err)
	}

	got, err := s.ScanChunks(ctx, domain.SourceCV, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("limit ignored: got %d", len(got))
	}
	for _, rec := range got {
		if rec.SourceType != domain.SourceCV {
			t.Fatalf("wrong source type leaked into scan: %+v", rec)
		}
	}
}

func TestDocsReturnsOnlyDocLevel(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, rec := range []Record{
		cvRecord("c1", DocChunkIndex, []float32{1}),
		cvRecord("c1", 0, []float32{1}),
		cvRecord("c2", DocChunkIndex, []float32{1}),
	} {
		if err := s.Upsert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := s.Docs(ctx, domain.SourceCV)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	for _, d := range docs {
		if d.ChunkIndex != DocChunkIndex {
			t.Fatalf("chunk record in docs scan: %+v", d)
		}
	}
}

func TestVectorCodec(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.14159}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d", len(out))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("index %d: %v != %v", i, out[i], in[i])
		}
	}
	if bytesToFloat32Slice(nil) != nil {
		t.Fatal("empty payload should decode to nil")
	}
	if bytesToFloat32Slice([]byte{1, 2}) != nil {
		t.Fatal("truncated payload should decode to nil")
	}
}
