package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"lamdam-be/internal/entity"
	"lamdam-be/internal/paging"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/registry"
	"lamdam-be/internal/repository/contract"
	"lamdam-be/internal/repository/specification"
	"lamdam-be/internal/repository/unitofwork"
	"lamdam-be/pkg/events/domain"
	"lamdam-be/pkg/stats"

	"github.com/google/uuid"
)

// memoryDB is an in-memory stand-in for the database shared by every unit of
// work a test opens.
type memoryDB struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*entity.User
	collections map[uuid.UUID]*entity.Collection
	records     map[string]map[string]*entity.Record // store -> id -> record
	commits     int
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		users:       map[uuid.UUID]*entity.User{},
		collections: map[uuid.UUID]*entity.Collection{},
		records:     map[string]map[string]*entity.Record{},
	}
}

func (db *memoryDB) addUser(name string, role entity.UserRole) *entity.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &entity.User{
		Id:           uuid.New(),
		Name:         name,
		Email:        name + "@example.com",
		Status:       entity.UserStatusActive,
		Role:         role,
		RegisteredAt: time.Now(),
	}
	db.users[u.Id] = u
	return u
}

func (db *memoryDB) addCollection(name string, dataType entity.DataType) *entity.Collection {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := &entity.Collection{Id: uuid.New(), Name: name, DataType: dataType, CreatedAt: time.Now()}
	db.collections[c.Id] = c
	db.records[name] = map[string]*entity.Record{}
	return c
}

func (db *memoryDB) collection(id uuid.UUID) entity.Collection {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.collections[id]
}

func (db *memoryDB) recordCount(store string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.records[store])
}

func (db *memoryDB) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memoryUnitOfWork{db: db}
}

type memoryUnitOfWork struct {
	db *memoryDB
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *memoryUnitOfWork) Rollback() error                 { return nil }

func (u *memoryUnitOfWork) Commit() error {
	u.db.mu.Lock()
	u.db.commits++
	u.db.mu.Unlock()
	return nil
}

func (u *memoryUnitOfWork) UserRepository() contract.UserRepository {
	return &memoryUserRepo{db: u.db}
}

func (u *memoryUnitOfWork) CollectionRepository() contract.CollectionRepository {
	return &memoryCollectionRepo{db: u.db}
}

func (u *memoryUnitOfWork) StatsRepository() contract.StatsRepository {
	return memoryStatsRepo{}
}

func (u *memoryUnitOfWork) RecordRepository(store string, dataType entity.DataType) contract.RecordRepository {
	return &memoryRecordRepo{db: u.db, store: store}
}

type memoryUserRepo struct {
	db *memoryDB
}

func (r *memoryUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == user.Email {
			return apperror.Conflict("user already exists")
		}
	}
	if user.Id == uuid.Nil {
		user.Id = uuid.New()
	}
	cp := *user
	r.db.users[user.Id] = &cp
	return nil
}

func (r *memoryUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *user
	r.db.users[user.Id] = &cp
	return nil
}

func userMatches(u *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if u.Id != s.ID {
				return false
			}
		case specification.ByEmail:
			if u.Email != s.Email {
				return false
			}
		case specification.ByRoles:
			found := false
			for _, role := range s.Roles {
				if string(u.Role) == role {
					found = true
				}
			}
			if !found {
				return false
			}
		case specification.ActiveUsers:
			if u.Status != entity.UserStatusActive {
				return false
			}
		case specification.InactiveSince:
			if !u.InactiveSince(s.Cutoff) {
				return false
			}
		}
	}
	return true
}

func (r *memoryUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	users, _ := r.FindAll(ctx, specs...)
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

func (r *memoryUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.User
	for _, u := range r.db.users {
		if userMatches(u, specs) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (r *memoryUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	users, _ := r.FindAll(ctx, specs...)
	return int64(len(users)), nil
}

func (r *memoryUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.UserStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return apperror.NotFound("user not found")
	}
	u.Status = status
	return nil
}

func (r *memoryUserRepo) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if u, ok := r.db.users[id]; ok {
		u.LastActivity = &at
	}
	return nil
}

func (r *memoryUserRepo) SumMonthlyTarget(ctx context.Context, role entity.UserRole) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	sum := 0
	for _, u := range r.db.users {
		if u.Role == role {
			sum += u.MonthlyTarget
		}
	}
	return sum, nil
}

type memoryCollectionRepo struct {
	db *memoryDB
}

func (r *memoryCollectionRepo) Create(ctx context.Context, collection *entity.Collection) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.collections {
		if c.Name == collection.Name {
			return apperror.Conflict("collection already exists")
		}
	}
	cp := *collection
	r.db.collections[collection.Id] = &cp
	return nil
}

func (r *memoryCollectionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Collection, error) {
	cols, _ := r.FindAll(ctx, specs...)
	if len(cols) == 0 {
		return nil, nil
	}
	return cols[0], nil
}

func (r *memoryCollectionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Collection, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Collection
	for _, c := range r.db.collections {
		ok := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByID:
				ok = ok && c.Id == s.ID
			case specification.FilterBy:
				if s.Field == "name" {
					ok = ok && c.Name == s.Value
				}
			}
		}
		if ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryCollectionRepo) AdjustCount(ctx context.Context, id uuid.UUID, delta int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.collections[id].Count += delta
	return nil
}

func (r *memoryCollectionRepo) SetCount(ctx context.Context, id uuid.UUID, count int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.collections[id].Count = count
	return nil
}

type memoryStatsRepo struct{}

func (memoryStatsRepo) HourlyCounts(ctx context.Context, q contract.HourlyQuery) ([]stats.HourBucket, error) {
	return nil, nil
}

func (memoryStatsRepo) StatusCounts(ctx context.Context, stores []string) ([]contract.StoreStatusCount, error) {
	return nil, nil
}

type memoryRecordRepo struct {
	db    *memoryDB
	store string
}

func (r *memoryRecordRepo) Store() string { return r.store }

func (r *memoryRecordRepo) hashTaken(hash, exceptID string) bool {
	for id, rec := range r.db.records[r.store] {
		if rec.Hash == hash && id != exceptID {
			return true
		}
	}
	return false
}

func (r *memoryRecordRepo) Create(ctx context.Context, record *entity.Record) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.hashTaken(record.Hash, "") {
		return apperror.Conflict("record already exists")
	}
	cp := *record
	r.db.records[r.store][record.Id] = &cp
	return nil
}

func (r *memoryRecordRepo) Update(ctx context.Context, record *entity.Record) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.records[r.store][record.Id]; !ok {
		return apperror.NotFound("record not found")
	}
	if r.hashTaken(record.Hash, record.Id) {
		return apperror.Conflict("record already exists")
	}
	cp := *record
	r.db.records[r.store][record.Id] = &cp
	return nil
}

func (r *memoryRecordRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.records[r.store][id]; !ok {
		return false, nil
	}
	delete(r.db.records[r.store], id)
	return true, nil
}

func recordMatches(rec *entity.Record, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByRecordID:
			if rec.Id != s.ID {
				return false
			}
		case specification.ByRecordIDs:
			found := false
			for _, id := range s.IDs {
				if rec.Id == id {
					found = true
				}
			}
			if !found {
				return false
			}
		case specification.FilterBy:
			if s.Field == "status" && string(rec.Status) != s.Value {
				return false
			}
		}
	}
	return true
}

func (r *memoryRecordRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Record, error) {
	records, _ := r.FindAll(ctx, specs...)
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (r *memoryRecordRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Record, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Record
	for _, rec := range r.db.records[r.store] {
		if recordMatches(rec, specs) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (r *memoryRecordRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	records, _ := r.FindAll(ctx, specs...)
	return int64(len(records)), nil
}

func (r *memoryRecordRepo) InsertIgnoringDuplicates(ctx context.Context, records []*entity.Record) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var inserted int64
	for _, rec := range records {
		if r.hashTaken(rec.Hash, "") {
			continue
		}
		cp := *rec
		r.db.records[r.store][rec.Id] = &cp
		inserted++
	}
	return inserted, nil
}

func (r *memoryRecordRepo) Fetcher(specs ...specification.Specification) paging.Fetcher[*entity.Record] {
	return nil
}

// memoryStores resolves collections straight from memoryDB.
type memoryStores struct {
	db      *memoryDB
	ensured []string
}

func (m *memoryStores) Resolve(ctx context.Context, collectionID uuid.UUID) (registry.Store, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.collections[collectionID]
	if !ok {
		return registry.Store{}, apperror.NotFound("collection not found")
	}
	return registry.Store{Name: c.Name, DataType: c.DataType, CollectionID: c.Id}, nil
}

func (m *memoryStores) Ensure(ctx context.Context, name string) error {
	m.ensured = append(m.ensured, name)
	return nil
}

func (m *memoryStores) Names(ctx context.Context) ([]string, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var names []string
	for _, c := range m.db.collections {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names, nil
}

// recordingPublisher captures domain events and activity pings.
type recordingPublisher struct {
	mu        sync.Mutex
	changes   []domain.RecordChange
	moderated []domain.RecordChange
	counts    map[uuid.UUID]int64
	blocked   []uuid.UUID
	activity  []uuid.UUID
}

var _ domain.Publisher = (*recordingPublisher)(nil)

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{counts: map[uuid.UUID]int64{}}
}

func (p *recordingPublisher) PublishRecordChanged(ctx context.Context, change domain.RecordChange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
}

func (p *recordingPublisher) PublishRecordModerated(ctx context.Context, change domain.RecordChange, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moderated = append(p.moderated, change)
}

func (p *recordingPublisher) PublishCollectionUpdated(ctx context.Context, collectionID uuid.UUID, count int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[collectionID] = count
}

func (p *recordingPublisher) PublishUserBlocked(ctx context.Context, userID uuid.UUID, email, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocked = append(p.blocked, userID)
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error { return nil }

func (p *recordingPublisher) PublishActivity(ctx context.Context, userId uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activity = append(p.activity, userId)
}
