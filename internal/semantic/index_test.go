package semantic_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pokedexlab/dexter/internal/dex"
	"github.com/pokedexlab/dexter/internal/semantic"
	"github.com/pokedexlab/dexter/pkg/provider/embeddings/mock"
)

const testDim = 4

// testDSN returns the test database DSN from the environment, or skips the
// test if DEXTER_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("DEXTER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DEXTER_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestIndex drops any existing flavor_texts table so each test starts
// from an empty index with the small test dimension.
func newTestIndex(t *testing.T, provider *mock.Provider) *semantic.Index {
	t.Helper()
	ctx := context.Background()
	dsn := testDSN(t)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS flavor_texts`); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	ix, err := semantic.NewIndex(ctx, dsn, provider, testDim)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	t.Cleanup(ix.Close)
	return ix
}

func TestIndexRecord_SkipsSentinelDescriptions(t *testing.T) {
	provider := &mock.Provider{DimensionsValue: testDim, ModelIDValue: "test-embed"}

	ix := newTestIndex(t, provider)
	ctx := context.Background()

	for _, desc := range []string{"", dex.DescriptionUnavailable, dex.DescriptionNotFound} {
		rec := dex.Record{Name: "Ditto", Description: desc}
		if err := ix.IndexRecord(ctx, rec); err != nil {
			t.Errorf("IndexRecord(%q): %v", desc, err)
		}
	}
	if len(provider.EmbedCalls) != 0 {
		t.Errorf("sentinel descriptions must not be embedded, got %d calls", len(provider.EmbedCalls))
	}
}

func TestIndexRecord_AndSearch(t *testing.T) {
	provider := &mock.Provider{
		DimensionsValue: testDim,
		ModelIDValue:    "test-embed",
		EmbedResult:     []float32{0.1, 0.2, 0.3, 0.4},
	}

	ix := newTestIndex(t, provider)
	ctx := context.Background()

	rec := dex.Record{
		Name:        "Pikachu",
		Description: "It stores electricity in its cheeks.",
	}
	if err := ix.IndexRecord(ctx, rec); err != nil {
		t.Fatalf("IndexRecord: %v", err)
	}
	// Upsert under the same creature must not error.
	if err := ix.IndexRecord(ctx, rec); err != nil {
		t.Fatalf("IndexRecord upsert: %v", err)
	}

	results, err := ix.Search(ctx, "which creature stores electricity?", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].Creature != "Pikachu" {
		t.Errorf("top result = %q, want Pikachu", results[0].Creature)
	}
	if results[0].Content != rec.Description {
		t.Errorf("content = %q", results[0].Content)
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	provider := &mock.Provider{
		DimensionsValue: testDim,
		EmbedResult:     []float32{1, 0, 0, 0},
	}

	ix := newTestIndex(t, provider)

	results, err := ix.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results == nil {
		t.Error("Search should return an empty slice, not nil")
	}
}
