package document

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testGenre struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Name    string             `bson:"name"`
	Version int                `bson:"__v"`
}

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	genres := NewCollection[testGenre](newMemoryExecutor(t), "genres")

	id, err := genres.Create(ctx, &testGenre{Name: "Fantasy"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	ids, err := genres.CreateMany(ctx, []*testGenre{{Name: "Horror"}, {Name: "Poetry"}})
	if err != nil || len(ids) != 2 {
		t.Fatalf("CreateMany() = %v, %v", ids, err)
	}

	got, err := genres.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.ID != id || got.Name != "Fantasy" {
		t.Fatalf("FindByID() = %+v", got)
	}

	exists, err := genres.Exists(ctx, Filter{"name": "Horror"})
	if err != nil || !exists {
		t.Fatalf("Exists() = %v, %v", exists, err)
	}

	if err := genres.Update(ctx, Update{ID: id, Set: Document{"name": "High Fantasy"}}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := genres.Update(ctx, Update{ID: primitive.NewObjectID(), Set: Document{"name": "x"}}); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("Update() on missing id = %v, want ErrNoDocument", err)
	}
	if err := genres.UpdateMany(ctx, []Update{{ID: ids[0], Set: Document{"name": "Gothic"}}, {ID: primitive.NewObjectID()}}); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("UpdateMany() with a missing id = %v, want ErrNoDocument", err)
	}

	all, err := genres.FindAll(ctx, QueryOptions{Sort: Sort{{Field: "name", Order: SortAsc}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Name != "Gothic" || all[1].Name != "High Fantasy" {
		t.Fatalf("FindAll() = %+v", all)
	}

	if err := genres.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := genres.Delete(ctx, id); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("second Delete() = %v, want ErrNoDocument", err)
	}
	n, err := genres.DeleteMany(ctx, ids)
	if err != nil || n != 2 {
		t.Fatalf("DeleteMany() = %d, %v", n, err)
	}
}

func TestDecodeEncode(t *testing.T) {
	id := primitive.NewObjectID()
	doc, err := Encode(testGenre{ID: id, Name: "Fantasy"})
	if err != nil {
		t.Fatal(err)
	}
	if doc["name"] != "Fantasy" || doc["_id"] != id {
		t.Fatalf("Encode() = %v", doc)
	}
	var out testGenre
	if err := Decode(doc, &out); err != nil {
		t.Fatal(err)
	}
	if out.ID != id || out.Name != "Fantasy" {
		t.Fatalf("Decode() = %+v", out)
	}
}
