package mongodb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/michalszc/library-api/pkg/observability/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestNewAdapter_Validation(t *testing.T) {
	log := logger.NewNopLogger()

	if _, err := NewAdapter(Config{}, log); err == nil {
		t.Fatal("expected error for empty URL and database")
	}
	if _, err := NewAdapter(Config{URL: "mongodb://localhost:27017"}, log); err == nil {
		t.Fatal("expected error for empty database")
	}
}

func TestPing_WhenClosed(t *testing.T) {
	a := &Adapter{closed: true}
	if err := a.Ping(context.Background()); err == nil {
		t.Fatal("expected error when adapter is closed")
	}
}

func TestClose_IdempotentWhenAlreadyClosed(t *testing.T) {
	a := &Adapter{closed: true}
	if err := a.Close(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestWithOperationTimeout_UsesAdapterTimeoutWhenNoDeadline(t *testing.T) {
	a := &Adapter{timeout: 2 * time.Second}

	ctx, cancel := a.withOperationTimeout(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected deadline from operation timeout")
	}
	if remaining := time.Until(deadline); remaining <= 0 || remaining > 2*time.Second {
		t.Fatalf("unexpected remaining timeout: %v", remaining)
	}
}

func TestWithOperationTimeout_PreservesCallerDeadline(t *testing.T) {
	a := &Adapter{timeout: 2 * time.Second}
	parentCtx, parentCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer parentCancel()

	ctx, cancel := a.withOperationTimeout(parentCtx)
	defer cancel()

	parentDeadline, _ := parentCtx.Deadline()
	gotDeadline, _ := ctx.Deadline()
	if !gotDeadline.Equal(parentDeadline) {
		t.Fatalf("expected caller deadline to be preserved, got %v want %v", gotDeadline, parentDeadline)
	}
}

func TestWithOperationTimeout_Disabled(t *testing.T) {
	a := &Adapter{}
	ctx, cancel := a.withOperationTimeout(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("expected no deadline when the adapter timeout is zero")
	}
}

func TestFindOptions(t *testing.T) {
	fo := findOptions(FindOptions{Skip: 2, Limit: 5, Sort: map[string]int{"name": 1}})
	if fo.Skip == nil || *fo.Skip != 2 {
		t.Fatalf("skip = %v, want 2", fo.Skip)
	}
	if fo.Limit == nil || *fo.Limit != 5 {
		t.Fatalf("limit = %v, want 5", fo.Limit)
	}
	if fo.Projection != nil {
		t.Fatal("projection should stay unset")
	}

	empty := findOptions(FindOptions{})
	if empty.Skip != nil || empty.Limit != nil || empty.Sort != nil {
		t.Fatal("zero options should leave the driver defaults untouched")
	}
}

func TestIsNoDocuments(t *testing.T) {
	if !IsNoDocuments(mongo.ErrNoDocuments) {
		t.Fatal("expected ErrNoDocuments to match")
	}
	if !IsNoDocuments(fmt.Errorf("find author: %w", mongo.ErrNoDocuments)) {
		t.Fatal("expected wrapped ErrNoDocuments to match")
	}
	if IsNoDocuments(fmt.Errorf("other")) {
		t.Fatal("unexpected match")
	}
}

func TestMemoryAdapter_Roundtrip(t *testing.T) {
	ctx := context.Background()
	a, err := NewMemoryAdapter("", logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewMemoryAdapter() error = %v", err)
	}
	defer a.Close()

	if !a.InMemory() || a.DatabaseName() != "library" {
		t.Fatalf("adapter = in-memory %v, database %q", a.InMemory(), a.DatabaseName())
	}
	if err := a.EnsureCollection(ctx, "genres"); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	if err := a.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}

	if _, err := a.InsertMany(ctx, "genres", []interface{}{
		bson.M{"name": "Poetry"},
		bson.M{"name": "Fantasy"},
		bson.M{"name": "Science Fiction"},
	}); err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}

	var names []bson.M
	err = a.Find(ctx, "genres", bson.M{"name": bson.M{"$regex": "^(Poetry|Fantasy)$"}},
		FindOptions{Sort: bson.D{{Key: "name", Value: 1}}, Projection: bson.M{"_id": 0}}, &names)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(names) != 2 || names[0]["name"] != "Fantasy" || names[1]["name"] != "Poetry" {
		t.Fatalf("Find() = %v", names)
	}

	n, err := a.CountDocuments(ctx, "genres", bson.M{}, 2)
	if err != nil || n != 2 {
		t.Fatalf("CountDocuments(limit 2) = %d, %v", n, err)
	}

	var missing bson.M
	if err := a.FindOne(ctx, "genres", bson.M{"name": "Horror"}, nil, &missing); !IsNoDocuments(err) {
		t.Fatalf("FindOne() miss = %v, want no documents", err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.HealthCheck(ctx); err == nil {
		t.Fatal("expected health check to fail after close")
	}
}
