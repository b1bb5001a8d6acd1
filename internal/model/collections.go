package model

// Column describes one declared field of a collection. The SQLite backend
// turns these into table columns; the file and memory backends ignore them
// and persist whatever fields arrive.
type Column struct {
	Name string
	Type ColumnType
}

// ColumnType is the storage affinity of a declared column.
type ColumnType int

const (
	Text ColumnType = iota
	Bool
)

// UsersCollection holds login credentials. It is excluded from the generic
// CRUD routes — the only way to touch it is the seeding step at startup.
const UsersCollection = "users"

// Schemas declares every collection and its columns. The id column is
// implicit: every backend assigns a per-collection monotonically increasing
// int64, never reused, never reset by deletion.
var Schemas = map[string][]Column{
	UsersCollection: {
		{Name: "username"}, // unique
		{Name: "password"}, // bcrypt hash
	},
	"portfolio": {
		{Name: "title"},
		{Name: "location"},
		{Name: "tag"},
		{Name: "image"},
		{Name: "link"},
		{Name: "transactionType"},
		{Name: "propertyType"},
		{Name: "date"},
	},
	"blog": {
		{Name: "title"},
		{Name: "date"},
		{Name: "image"},
		{Name: "link"},
		{Name: "text"},
	},
	"gallery": {
		{Name: "url"},
		{Name: "category"},
		{Name: "date"},
	},
	"videos": {
		{Name: "title"},
		{Name: "youtubeId"},
		{Name: "date"},
	},
	"testimonials": {
		{Name: "author"},
		{Name: "text"},
		{Name: "date"},
	},
	"messages": {
		{Name: "name"},
		{Name: "phone"},
		{Name: "email"},
		{Name: "topic"},
		{Name: "message"},
		{Name: "date"},
		{Name: "read", Type: Bool},
	},
}

// Collections lists every stored collection, users included. Order matters
// for deterministic migration and backup traversal.
var Collections = []string{
	UsersCollection,
	"portfolio",
	"blog",
	"gallery",
	"videos",
	"testimonials",
	"messages",
}

// CRUDCollections are the collections exposed through the generic
// /api/{collection} routes.
var CRUDCollections = []string{
	"portfolio",
	"blog",
	"gallery",
	"videos",
	"testimonials",
	"messages",
}

// IsCRUDCollection reports whether name is served by the generic CRUD
// router. Unknown names and the users collection are not.
func IsCRUDCollection(name string) bool {
	for _, c := range CRUDCollections {
		if c == name {
			return true
		}
	}
	return false
}
