package evaluation

import (
	"context"
	"path/filepath"
	"testing"

	"maitred/internal/catalog"
	"maitred/internal/database"
	"maitred/internal/extractor"
	"maitred/internal/models"
	"maitred/internal/semantic"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
)

func testParser(t *testing.T) Parser {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "evaluation_test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := database.SeedMenu(db); err != nil {
		t.Fatalf("failed to seed menu: %v", err)
	}
	cat, err := catalog.New(db)
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	ix := semantic.NewIndex(semantic.NewTFIDF(), cat)
	if err := ix.Rebuild(context.Background(), cat.ListAvailable()); err != nil {
		t.Fatalf("failed to build index: %v", err)
	}
	return extractor.New(cat, ix, 0, nil)
}

func TestBuiltinCasesPass(t *testing.T) {
	e := NewEvaluator(testParser(t))

	result := e.Run(context.Background())
	if result.Passed != result.CaseCount {
		for _, f := range result.Failures {
			t.Errorf("case %s (%q): %s", f.CaseID, f.Utterance, f.Detail)
		}
		t.Fatalf("passed %d of %d cases", result.Passed, result.CaseCount)
	}
	if result.Accuracy != 1.0 {
		t.Errorf("accuracy = %f, want 1.0", result.Accuracy)
	}
}

func TestAddCaseOverridesAndCounts(t *testing.T) {
	e := NewEvaluator(testParser(t))

	e.AddCase(Case{
		ID:        "my_case",
		Utterance: "1 ice cream",
		WantLines: []WantLine{{ItemName: "Ice Cream", Quantity: 1}},
	})
	if !e.HasCase("my_case") {
		t.Fatal("added case not registered")
	}

	result := e.Run(context.Background())
	if result.Passed != result.CaseCount {
		t.Fatalf("passed %d of %d cases: %+v", result.Passed, result.CaseCount, result.Failures)
	}
}

type stubParser struct{}

func (stubParser) Extract(ctx context.Context, utterance string) models.ParsedOrder {
	var parsed models.ParsedOrder
	parsed.Resolve()
	return parsed
}

func TestRunReportsFailures(t *testing.T) {
	e := NewEvaluator(stubParser{})

	result := e.Run(context.Background())
	if result.Passed != 0 {
		t.Errorf("passed = %d with a parser that resolves nothing", result.Passed)
	}
	// Cases expecting only unresolved fragments still fail, because the
	// stub surfaces no fragments either.
	if len(result.Failures) != result.CaseCount {
		t.Errorf("failures = %d, want %d", len(result.Failures), result.CaseCount)
	}
}
