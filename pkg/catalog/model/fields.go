package model

// Field registries, in stored order. Projection and sort options are checked against
// these lists.
var (
	AuthorFields       = []string{FieldID, "firstName", "lastName", "dateOfBirth", "dateOfDeath", FieldVersion}
	BookFields         = []string{FieldID, "title", "author", "summary", "isbn", "genre", FieldVersion}
	BookInstanceFields = []string{FieldID, "book", "publisher", "status", "back", FieldVersion}
	GenreFields        = []string{FieldID, "name", FieldVersion}
)

// Fields is a lookup set built from a registry.
type Fields map[string]struct{}

// NewFields indexes a registry.
func NewFields(names []string) Fields {
	f := make(Fields, len(names))
	for _, n := range names {
		f[n] = struct{}{}
	}
	return f
}

// Has reports whether name is registered.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Entity describes one catalog entity type.
type Entity struct {
	// Name is the singular display name used in messages, e.g. "Book instance".
	Name       string
	Collection string
	Fields     []string
	index      Fields
}

// Has reports whether field belongs to the entity.
func (e Entity) Has(field string) bool {
	return e.index.Has(field)
}

// Entity descriptors.
var (
	AuthorEntity       = Entity{Name: "Author", Collection: AuthorCollection, Fields: AuthorFields, index: NewFields(AuthorFields)}
	BookEntity         = Entity{Name: "Book", Collection: BookCollection, Fields: BookFields, index: NewFields(BookFields)}
	BookInstanceEntity = Entity{Name: "Book instance", Collection: BookInstanceCollection, Fields: BookInstanceFields, index: NewFields(BookInstanceFields)}
	GenreEntity        = Entity{Name: "Genre", Collection: GenreCollection, Fields: GenreFields, index: NewFields(GenreFields)}
)
