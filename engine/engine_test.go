package engine_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"docforge/engine"
	"docforge/raster"
	"docforge/store"
	"docforge/writer"
)

func pngAsset(t *testing.T, st *store.Memory, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return st.Add(name, "image/png", buf.Bytes())
}

func brokenAsset(st *store.Memory, name string) string {
	return st.Add(name, "image/png", []byte("these are not pixels"))
}

func artifactCount(t *testing.T, st *store.Memory) int {
	t.Helper()
	metas, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return len(metas)
}

func TestMergeThreeImagesThenPermutedDuplicate(t *testing.T) {
	st := store.NewMemory()
	e := engine.New(st)
	ctx := context.Background()

	a := pngAsset(t, st, "a.png", 100, 200)
	b := pngAsset(t, st, "b.png", 100, 200)
	c := pngAsset(t, st, "c.png", 100, 200)

	res, err := e.Merge(ctx, []string{a, b, c}, nil)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.State != engine.StateDone || res.Pages != 3 || res.Duplicate {
		t.Fatalf("unexpected result: %+v", res)
	}

	art, err := st.Get(ctx, res.ArtifactID)
	if err != nil {
		t.Fatalf("get artifact: %v", err)
	}
	if err := writer.Verify(art.Data); err != nil {
		t.Fatalf("produced PDF fails verification: %v", err)
	}
	if n := bytes.Count(art.Data, []byte("/MediaBox [0 0 100 200]")); n != 3 {
		t.Fatalf("MediaBox [0 0 100 200] appears %d times, want 3", n)
	}
	if !bytes.Contains(art.Data, []byte("/Count 3")) {
		t.Fatalf("page tree count missing")
	}

	// Same set, different order: detected as a duplicate, no new artifact.
	res2, err := e.Merge(ctx, []string{b, c, a}, nil)
	if err != nil {
		t.Fatalf("permuted merge: %v", err)
	}
	if !res2.Duplicate || res2.State != engine.StateSkipped {
		t.Fatalf("permuted merge not detected as duplicate: %+v", res2)
	}
	if res2.ArtifactID != res.ArtifactID {
		t.Fatalf("duplicate should name the first artifact: %s vs %s", res2.ArtifactID, res.ArtifactID)
	}
	if artifactCount(t, st) != 1 {
		t.Fatalf("a second artifact was created")
	}
}

func TestMergeSupersetIsDistinct(t *testing.T) {
	st := store.NewMemory()
	e := engine.New(st)
	ctx := context.Background()

	a := pngAsset(t, st, "a.png", 10, 10)
	b := pngAsset(t, st, "b.png", 10, 10)
	c := pngAsset(t, st, "c.png", 10, 10)

	first, err := e.Merge(ctx, []string{a, b}, nil)
	if err != nil {
		t.Fatalf("merge [a b]: %v", err)
	}
	second, err := e.Merge(ctx, []string{a, b, c}, nil)
	if err != nil {
		t.Fatalf("merge [a b c]: %v", err)
	}
	if second.Duplicate {
		t.Fatalf("[a b c] wrongly matched [a b]")
	}
	if second.ArtifactID == first.ArtifactID {
		t.Fatalf("distinct merges must produce distinct artifacts")
	}
	if artifactCount(t, st) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", artifactCount(t, st))
	}
}

func TestMergePartialFailure(t *testing.T) {
	st := store.NewMemory()
	e := engine.New(st)
	ctx := context.Background()

	a := pngAsset(t, st, "a.png", 40, 40)
	bad := brokenAsset(st, "bad.png")
	c := pngAsset(t, st, "c.png", 40, 40)

	res, err := e.Merge(ctx, []string{a, bad, c}, nil)
	if err != nil {
		t.Fatalf("partial merge should succeed, got %v", err)
	}
	if res.Pages != 2 {
		t.Fatalf("pages = %d, want 2", res.Pages)
	}
	if len(res.SkippedSourceIDs) != 1 || res.SkippedSourceIDs[0] != bad {
		t.Fatalf("skips = %v, want [%s]", res.SkippedSourceIDs, bad)
	}
	if res.State != engine.StateDone {
		t.Fatalf("state = %s, want done", res.State)
	}
}

func TestMergeAllSourcesFail(t *testing.T) {
	st := store.NewMemory()
	e := engine.New(st)

	bad1 := brokenAsset(st, "x.png")
	bad2 := brokenAsset(st, "y.png")

	_, err := e.Merge(context.Background(), []string{bad1, bad2}, nil)
	if !errors.Is(err, engine.ErrInsufficientValidSources) {
		t.Fatalf("want ErrInsufficientValidSources, got %v", err)
	}
	if artifactCount(t, st) != 0 {
		t.Fatalf("no artifact may be persisted on failure")
	}
}

func TestMergeBelowMinimum(t *testing.T) {
	st := store.NewMemory()
	e := engine.New(st)
	a := pngAsset(t, st, "a.png", 5, 5)

	_, err := e.Merge(context.Background(), []string{a}, nil)
	if !errors.Is(err, engine.ErrInsufficientValidSources) {
		t.Fatalf("merge of one source must be rejected, got %v", err)
	}
}

func TestConvertThenDuplicate(t *testing.T) {
	st := store.NewMemory()
	e := engine.New(st)
	ctx := context.Background()

	a := pngAsset(t, st, "scan.png", 100, 200)
	res, err := e.Convert(ctx, a, nil)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Pages != 1 || res.State != engine.StateDone {
		t.Fatalf("unexpected result: %+v", res)
	}
	art, err := st.Get(ctx, res.ArtifactID)
	if err != nil {
		t.Fatalf("get artifact: %v", err)
	}
	if art.Name != "scan.pdf" {
		t.Fatalf("artifact name = %q, want scan.pdf", art.Name)
	}
	if err := writer.Verify(art.Data); err != nil {
		t.Fatalf("produced PDF fails verification: %v", err)
	}

	res2, err := e.Convert(ctx, a, nil)
	if err != nil {
		t.Fatalf("second convert: %v", err)
	}
	if !res2.Duplicate || res2.ArtifactID != res.ArtifactID {
		t.Fatalf("second convert should find the existing artifact: %+v", res2)
	}
	if artifactCount(t, st) != 1 {
		t.Fatalf("duplicate convert created a new artifact")
	}
}

func TestConvertUndecodableFails(t *testing.T) {
	st := store.NewMemory()
	e := engine.New(st)

	bad := brokenAsset(st, "bad.png")
	res, err := e.Convert(context.Background(), bad, nil)
	if !errors.Is(err, raster.ErrDecodeFailed) {
		t.Fatalf("want ErrDecodeFailed, got %v", err)
	}
	if res.State != engine.StateFailed {
		t.Fatalf("state = %s, want failed", res.State)
	}
	if artifactCount(t, st) != 0 {
		t.Fatalf("failed conversion must not persist an artifact")
	}
}

func TestConvertUnsupportedMime(t *testing.T) {
	st := store.NewMemory()
	e := engine.New(st)

	id := st.Add("doc.txt", "text/plain", []byte("hello"))
	_, err := e.Convert(context.Background(), id, nil)
	if !errors.Is(err, raster.ErrUnsupportedSourceFormat) {
		t.Fatalf("want ErrUnsupportedSourceFormat, got %v", err)
	}
}

func TestConvertMissingSource(t *testing.T) {
	st := store.NewMemory()
	e := engine.New(st)
	_, err := e.Convert(context.Background(), "no-such-id", nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestProgressMonotonicEndsAtOne(t *testing.T) {
	st := store.NewMemory()
	e := engine.New(st)

	ids := []string{
		pngAsset(t, st, "a.png", 8, 8),
		pngAsset(t, st, "b.png", 8, 8),
		pngAsset(t, st, "c.png", 8, 8),
	}
	var seen []float64
	_, err := e.Merge(context.Background(), ids, func(f float64) { seen = append(seen, f) })
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(seen) == 0 {
		t.Fatalf("no progress reported")
	}
	prev := 0.0
	for _, f := range seen {
		if f < prev {
			t.Fatalf("progress regressed: %v", seen)
		}
		prev = f
	}
	if seen[len(seen)-1] != 1 {
		t.Fatalf("final progress = %v, want 1", seen[len(seen)-1])
	}
}

type failingPut struct{ *store.Memory }

func (f failingPut) Put(ctx context.Context, data []byte, meta store.ArtifactMeta) (string, error) {
	return "", fmt.Errorf("disk full")
}

func TestPersistFailureIsFatal(t *testing.T) {
	mem := store.NewMemory()
	e := engine.New(failingPut{mem})

	a := pngAsset(t, mem, "a.png", 6, 6)
	res, err := e.Convert(context.Background(), a, nil)
	if !errors.Is(err, engine.ErrPersistFailed) {
		t.Fatalf("want ErrPersistFailed, got %v", err)
	}
	if res.State != engine.StateFailed {
		t.Fatalf("state = %s, want failed", res.State)
	}
	if artifactCount(t, mem) != 0 {
		t.Fatalf("failed persist must leave nothing behind")
	}
}

func TestCancellationBeforePersist(t *testing.T) {
	st := store.NewMemory()
	e := engine.New(st)

	ids := []string{
		pngAsset(t, st, "a.png", 8, 8),
		pngAsset(t, st, "b.png", 8, 8),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Merge(ctx, ids, nil)
	if err == nil {
		t.Fatalf("canceled merge should fail")
	}
	if artifactCount(t, st) != 0 {
		t.Fatalf("canceled operation must not mutate storage")
	}
}

func TestMergeProvenanceRecordsRequestedSet(t *testing.T) {
	st := store.NewMemory()
	e := engine.New(st)
	ctx := context.Background()

	a := pngAsset(t, st, "a.png", 12, 12)
	bad := brokenAsset(st, "bad.png")
	b := pngAsset(t, st, "b.png", 12, 12)

	if _, err := e.Merge(ctx, []string{a, bad, b}, nil); err != nil {
		t.Fatalf("merge: %v", err)
	}
	// Re-requesting the identical set is the same operation, even though
	// one source was skipped the first time.
	res, err := e.Merge(ctx, []string{bad, b, a}, nil)
	if err != nil {
		t.Fatalf("repeat merge: %v", err)
	}
	if !res.Duplicate {
		t.Fatalf("repeat of the same requested set must be a duplicate")
	}
}
