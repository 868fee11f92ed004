// Package registry maps collections to the physical tables holding their
// records and creates those tables on demand.
package registry

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/repository/contract"
	"lamdam-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store names must fit the longest derived index name in 63 bytes.
var storeNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,39}$`)

var reservedNames = map[string]struct{}{
	"users":              {},
	"collections":        {},
	"schema_migrations":  {},
	"information_schema": {},
	"public":             {},
	"user":               {},
	"table":              {},
	"select":             {},
	"order":              {},
	"group":              {},
}

type Store struct {
	Name         string
	DataType     entity.DataType
	CollectionID uuid.UUID
}

// ValidateName checks that name is safe to use as a table identifier.
func ValidateName(name string) error {
	if !storeNamePattern.MatchString(name) {
		return apperror.Validation("invalid collection name %q: use lowercase letters, digits and underscores, starting with a letter, at most 40 characters", name)
	}
	if _, reserved := reservedNames[name]; reserved || strings.HasPrefix(name, "pg_") {
		return apperror.Validation("collection name %q is reserved", name)
	}
	return nil
}

type StoreRegistry struct {
	db          *gorm.DB
	collections contract.CollectionRepository
	cache       *cache.Cache
	ensured     sync.Map
}

func NewStoreRegistry(db *gorm.DB, collections contract.CollectionRepository) *StoreRegistry {
	return &StoreRegistry{
		db:          db,
		collections: collections,
		cache:       cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Resolve returns the store of a collection.
func (r *StoreRegistry) Resolve(ctx context.Context, collectionID uuid.UUID) (Store, error) {
	key := collectionID.String()
	if x, found := r.cache.Get(key); found {
		return x.(Store), nil
	}

	col, err := r.collections.FindOne(ctx, specification.ByID{ID: collectionID})
	if err != nil {
		return Store{}, fmt.Errorf("resolve collection %s: %w", collectionID, err)
	}
	if col == nil {
		return Store{}, apperror.NotFound("collection not found")
	}
	if err := ValidateName(col.Name); err != nil {
		return Store{}, apperror.Internal(err, "collection %s has an unusable store name", collectionID)
	}

	store := Store{Name: col.Name, DataType: col.DataType, CollectionID: col.Id}
	r.cache.Set(key, store, cache.DefaultExpiration)
	return store, nil
}

// Names lists the store of every collection.
func (r *StoreRegistry) Names(ctx context.Context) ([]string, error) {
	cols, err := r.collections.FindAll(ctx, specification.OrderBy{Field: "name"})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	names := make([]string, 0, len(cols))
	for _, c := range cols {
		if ValidateName(c.Name) != nil {
			continue
		}
		names = append(names, c.Name)
	}
	return names, nil
}

type ddlStatement struct {
	sql  string
	vars []interface{}
}

func storeDDL(name string) []ddlStatement {
	table := clause.Table{Name: name}
	index := func(suffix string) clause.Table {
		return clause.Table{Name: fmt.Sprintf("idx_%s_%s", name, suffix)}
	}

	return []ddlStatement{
		{sql: `CREATE TABLE IF NOT EXISTS ? (
	id CHAR(26) COLLATE "C" PRIMARY KEY,
	prompt TEXT NOT NULL,
	input TEXT NOT NULL DEFAULT '',
	response TEXT NOT NULL DEFAULT '',
	output_positive TEXT NOT NULL DEFAULT '',
	output_negative TEXT NOT NULL DEFAULT '',
	history JSONB NOT NULL DEFAULT '[]',
	creator VARCHAR(255) NOT NULL DEFAULT '',
	creator_id UUID NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'pending',
	approved_by UUID,
	approved_at TIMESTAMPTZ,
	rejected_by UUID,
	rejected_at TIMESTAMPTZ,
	reject_reason TEXT NOT NULL DEFAULT '',
	last_modified_by UUID,
	hash CHAR(64) NOT NULL
)`, vars: []interface{}{table}},
		{sql: "CREATE UNIQUE INDEX IF NOT EXISTS ? ON ? (hash)", vars: []interface{}{index("hash"), table}},
		{sql: "CREATE INDEX IF NOT EXISTS ? ON ? (creator_id, created_at)", vars: []interface{}{index("creator"), table}},
		{sql: "CREATE INDEX IF NOT EXISTS ? ON ? (last_modified_by, last_updated)", vars: []interface{}{index("editor"), table}},
		{sql: "CREATE INDEX IF NOT EXISTS ? ON ? (status)", vars: []interface{}{index("status"), table}},
	}
}

// Ensure creates the table of a store with its unique hash index. Every
// statement is idempotent; each name is only checked once per process.
func (r *StoreRegistry) Ensure(ctx context.Context, name string) error {
	if _, done := r.ensured.Load(name); done {
		return nil
	}
	if err := ValidateName(name); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	for _, stmt := range storeDDL(name) {
		if err := db.Exec(stmt.sql, stmt.vars...).Error; err != nil {
			return fmt.Errorf("ensure store %s: %w", name, err)
		}
	}

	r.ensured.Store(name, struct{}{})
	return nil
}
