package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/michalszc/library-api/pkg/observability/logger"
	mongostore "github.com/michalszc/library-api/pkg/store/mongodb"
	"github.com/michalszc/library-api/pkg/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The in-process engine and a MongoDB server must agree on every query shape the
// catalog emits; the same scenario runs against both.
func TestExecutors_Parity(t *testing.T) {
	uri := testutil.StartMongo(t)

	adapter, err := mongostore.NewAdapter(mongostore.Config{
		URL:              uri,
		Database:         "library_test",
		OperationTimeout: 5 * time.Second,
	}, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}
	defer adapter.Close()

	mongoExec, err := NewMongoDBExecutor(adapter)
	if err != nil {
		t.Fatal(err)
	}

	executors := map[string]Executor{
		"mongodb": mongoExec,
		"memory":  newMemoryExecutor(t),
	}
	for name, exec := range executors {
		t.Run(name, func(t *testing.T) {
			runExecutorScenario(t, exec, "books_"+name)
		})
	}
}

func runExecutorScenario(t *testing.T, exec Executor, collection string) {
	ctx := context.Background()
	g1, g2, g3 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	published := time.Date(2022, 10, 15, 12, 0, 0, 0, time.UTC)

	ids, err := exec.InsertMany(ctx, collection, []Document{
		{"title": "Alpha", "isbn": "9780000000001", "genre": []primitive.ObjectID{g1, g2}, "published": published, "__v": 0},
		{"title": "Beta", "isbn": "9780000000002", "genre": []primitive.ObjectID{g2, g1}, "__v": 0},
		{"title": "Gamma", "isbn": "9780000000003", "genre": []primitive.ObjectID{g1, g2, g3}, "__v": 0},
		{"title": "Delta", "isbn": "1230000000004", "genre": []primitive.ObjectID{g3}, "__v": 0},
	})
	if err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}
	if len(ids) != 4 {
		t.Fatalf("InsertMany() returned %d ids", len(ids))
	}

	titles := func(opts QueryOptions) []string {
		t.Helper()
		docs, err := exec.Find(ctx, collection, opts)
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		out := []string{}
		for _, d := range docs {
			out = append(out, d["title"].(string))
		}
		return out
	}
	byTitle := Sort{{Field: "title", Order: SortAsc}}

	cases := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{name: "prefix", opts: QueryOptions{Filter: Filter{"isbn": bson.M{"$regex": "^978"}}, Sort: byTitle}, want: []string{"Alpha", "Beta", "Gamma"}},
		{name: "contains all", opts: QueryOptions{Filter: Filter{"genre": bson.M{"$all": []primitive.ObjectID{g3}}}, Sort: byTitle}, want: []string{"Delta", "Gamma"}},
		{name: "genre set", opts: QueryOptions{Filter: Filter{"genre": bson.M{"$size": 2, "$all": []primitive.ObjectID{g2, g1}}}, Sort: byTitle}, want: []string{"Alpha", "Beta"}},
		{
			name: "day range",
			opts: QueryOptions{Filter: Filter{"published": bson.M{
				"$gte": time.Date(2022, 10, 15, 0, 0, 0, 0, time.UTC),
				"$lt":  time.Date(2022, 10, 16, 0, 0, 0, 0, time.UTC),
			}}},
			want: []string{"Alpha"},
		},
		{
			name: "or",
			opts: QueryOptions{Filter: Filter{"$or": []Filter{{"title": "Beta"}, {"title": "Delta"}}}, Sort: byTitle},
			want: []string{"Beta", "Delta"},
		},
		{name: "sort skip limit", opts: QueryOptions{Sort: Sort{{Field: "title", Order: SortDesc}}, Skip: 1, Limit: 2}, want: []string{"Delta", "Beta"}},
	}
	for _, tc := range cases {
		if got := titles(tc.opts); !equalStrings(got, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}

	docs, err := exec.Find(ctx, collection, QueryOptions{
		Filter:     Filter{"title": "Alpha"},
		Projection: Projection{"title": 1, "_id": 0, "genre": 0},
	})
	if err != nil {
		t.Fatalf("projected Find() error = %v", err)
	}
	if len(docs) != 1 || len(docs[0]) != 1 || docs[0]["title"] != "Alpha" {
		t.Fatalf("projection result = %v", docs)
	}

	n, err := exec.Count(ctx, collection, Filter{"genre": g1}, 0)
	if err != nil || n != 3 {
		t.Fatalf("Count() = %d, %v", n, err)
	}

	matched, err := exec.UpdateMany(ctx, collection, []Update{
		{ID: ids[0], Set: Document{"title": "Alpha 2"}},
		{ID: ids[1], Unset: []string{"isbn"}},
	})
	if err != nil || matched != 2 {
		t.Fatalf("UpdateMany() = %d, %v", matched, err)
	}
	doc, err := exec.FindOne(ctx, collection, IDFilter(ids[1]), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc["isbn"]; ok {
		t.Fatal("isbn should have been unset")
	}

	if _, err := exec.FindOne(ctx, collection, IDFilter(primitive.NewObjectID()), nil); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("FindOne() miss = %v, want ErrNoDocument", err)
	}

	deleted, err := exec.DeleteMany(ctx, collection, IDsFilter(ids[:2]))
	if err != nil || deleted != 2 {
		t.Fatalf("DeleteMany() = %d, %v", deleted, err)
	}
	deleted, err = exec.DeleteOne(ctx, collection, IDFilter(ids[2]))
	if err != nil || deleted != 1 {
		t.Fatalf("DeleteOne() = %d, %v", deleted, err)
	}
}

func TestMemoryExecutor_Scenario(t *testing.T) {
	runExecutorScenario(t, newMemoryExecutor(t), "books")
}

func newMemoryExecutor(t *testing.T) *MongoDBExecutor {
	t.Helper()
	exec, err := NewMemoryExecutor(logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewMemoryExecutor() error = %v", err)
	}
	t.Cleanup(func() { _ = exec.Close() })
	return exec
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
