package specification

import (
	"strings"

	"lamdam-be/internal/constant"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Viewer is the user a record query is evaluated for.
type Viewer struct {
	ID   uuid.UUID
	Role entity.UserRole
}

// RecordFilter is the user supplied record list filter plus the visibility
// rule of the viewer. Specifications renders it as SQL; Matches evaluates the
// same predicate against a loaded record.
type RecordFilter struct {
	Keyword  string
	Creators []uuid.UUID
	Features []string
	Statuses []entity.RecordStatus
	DataType entity.DataType
	Viewer   Viewer
}

// ParseStatuses reads the status query parameter. Empty and "all" mean no
// restriction.
func ParseStatuses(raw string) ([]entity.RecordStatus, error) {
	var out []entity.RecordStatus
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		if part == constant.StatusFilterAll {
			return nil, nil
		}
		status := entity.RecordStatus(part)
		if !status.Valid() {
			return nil, apperror.Validation("unknown status %q", part)
		}
		out = append(out, status)
	}
	return out, nil
}

// ParseCreators reads a comma separated list of creator ids.
func ParseCreators(raw string) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, apperror.Validation("invalid creator id %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}

// ParseFeatures splits the features parameter and checks each name against
// the fields the data type has.
func ParseFeatures(raw string, dataType entity.DataType) ([]string, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		if _, ok := featureColumns(dataType)[part]; !ok {
			return nil, apperror.Validation("unknown feature %q for %s collections", part, dataType)
		}
		out = append(out, part)
	}
	return out, nil
}

func featureColumns(dataType entity.DataType) map[string]string {
	cols := map[string]string{
		constant.FeaturePrompt:  "prompt <> ''",
		constant.FeatureInput:   "input <> ''",
		constant.FeatureHistory: "jsonb_array_length(history) > 0",
	}
	if dataType == entity.DataTypeRM {
		cols[constant.FeatureOutput] = "(output_positive <> '' AND output_negative <> '')"
	} else {
		cols[constant.FeatureResponse] = "response <> ''"
	}
	return cols
}

func (f RecordFilter) keywordColumns() []string {
	if f.DataType == entity.DataTypeRM {
		return []string{"prompt", "input", "output_positive", "output_negative"}
	}
	return []string{"prompt", "response", "input"}
}

// Specifications renders the filter. Clauses are ANDed by gorm; every OR group
// carries its own parentheses.
func (f RecordFilter) Specifications() []Specification {
	var specs []Specification

	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		specs = append(specs, KeywordSearch{Keyword: kw, Columns: f.keywordColumns()})
	}
	if !f.Viewer.Role.SeesAllRecords() {
		specs = append(specs, VisibleTo{ViewerID: f.Viewer.ID})
	}
	if len(f.Statuses) == 1 {
		specs = append(specs, Filter("status", string(f.Statuses[0])))
	} else if len(f.Statuses) > 1 {
		specs = append(specs, StatusIn{Statuses: f.Statuses})
	}
	if len(f.Creators) > 0 {
		specs = append(specs, CreatedByAny{CreatorIDs: f.Creators})
	}
	if len(f.Features) > 0 {
		cols := featureColumns(f.DataType)
		conds := make([]string, 0, len(f.Features))
		for _, feat := range f.Features {
			if c, ok := cols[feat]; ok {
				conds = append(conds, c)
			}
		}
		if len(conds) > 0 {
			specs = append(specs, HasAnyFeature{Conditions: conds})
		}
	}
	return specs
}

// Visible reports whether the viewer may read r at all.
func (f RecordFilter) Visible(r *entity.Record) bool {
	if f.Viewer.Role.SeesAllRecords() {
		return true
	}
	return r.CreatorId == f.Viewer.ID || r.Status == entity.RecordStatusApproved
}

// KeywordSearch matches Keyword case-insensitively as a substring of any of
// Columns. LIKE wildcards in the keyword match literally.
type KeywordSearch struct {
	Keyword string
	Columns []string
}

func (s KeywordSearch) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + EscapeLike(s.Keyword) + "%"
	conds := make([]string, len(s.Columns))
	args := make([]interface{}, len(s.Columns))
	for i, col := range s.Columns {
		conds[i] = col + " ILIKE ?"
		args[i] = pattern
	}
	return db.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// VisibleTo restricts rows to the viewer's own records and approved ones.
type VisibleTo struct {
	ViewerID uuid.UUID
}

func (s VisibleTo) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("(creator_id = ? OR status = ?)", s.ViewerID, string(entity.RecordStatusApproved))
}

type StatusIn struct {
	Statuses []entity.RecordStatus
}

func (s StatusIn) Apply(db *gorm.DB) *gorm.DB {
	values := make([]string, len(s.Statuses))
	for i, st := range s.Statuses {
		values[i] = string(st)
	}
	return db.Where("status IN ?", values)
}

type CreatedByAny struct {
	CreatorIDs []uuid.UUID
}

func (s CreatedByAny) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("creator_id IN ?", s.CreatorIDs)
}

// HasAnyFeature ORs a set of trusted column predicates.
type HasAnyFeature struct {
	Conditions []string
}

func (s HasAnyFeature) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("(" + strings.Join(s.Conditions, " OR ") + ")")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE metacharacters of s.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
