package specification

import (
	"testing"

	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=lamdam dbname=lamdam sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func renderSQL(db *gorm.DB, specs []Specification) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		q := tx.Table("sft_test")
		for _, s := range specs {
			q = s.Apply(q)
		}
		var rows []map[string]interface{}
		return q.Find(&rows)
	})
}

func TestRecordFilterSQL(t *testing.T) {
	db := dryRunDB(t)
	viewer := uuid.MustParse("6f1c7d0e-8a4b-4c55-9d6e-0a1b2c3d4e5f")
	other := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	tests := []struct {
		name        string
		filter      RecordFilter
		contains    []string
		notContains []string
	}{
		{
			name: "annotator keyword search is gated",
			filter: RecordFilter{
				Keyword:  "tokenizer",
				DataType: entity.DataTypeSFT,
				Viewer:   Viewer{ID: viewer, Role: entity.UserRoleAnnotator},
			},
			contains: []string{
				"(prompt ILIKE '%tokenizer%' OR response ILIKE '%tokenizer%' OR input ILIKE '%tokenizer%')",
				"(creator_id = '" + viewer.String() + "' OR status = 'approved')",
			},
		},
		{
			name:        "corrector sees everything",
			filter:      RecordFilter{DataType: entity.DataTypeSFT, Viewer: Viewer{ID: viewer, Role: entity.UserRoleCorrector}},
			notContains: []string{"creator_id", "WHERE"},
		},
		{
			name: "rm keyword covers both outputs",
			filter: RecordFilter{
				Keyword:  "polite",
				DataType: entity.DataTypeRM,
				Viewer:   Viewer{Role: entity.UserRoleSuperuser},
			},
			contains:    []string{"output_positive ILIKE '%polite%'", "output_negative ILIKE '%polite%'"},
			notContains: []string{"response ILIKE"},
		},
		{
			name: "wildcards are escaped",
			filter: RecordFilter{
				Keyword:  "50%_off",
				DataType: entity.DataTypeSFT,
				Viewer:   Viewer{Role: entity.UserRoleSuperuser},
			},
			contains: []string{`'%50\%\_off%'`},
		},
		{
			name: "single status",
			filter: RecordFilter{
				Statuses: []entity.RecordStatus{entity.RecordStatusPending},
				Viewer:   Viewer{Role: entity.UserRoleSuperuser},
			},
			contains: []string{`"status" = 'pending'`},
		},
		{
			name: "several statuses and creators",
			filter: RecordFilter{
				Statuses: []entity.RecordStatus{entity.RecordStatusPending, entity.RecordStatusRejected},
				Creators: []uuid.UUID{other},
				Viewer:   Viewer{Role: entity.UserRoleSuperuser},
			},
			contains: []string{"status IN ('pending','rejected')", "creator_id IN ('" + other.String() + "')"},
		},
		{
			name: "features are ORed",
			filter: RecordFilter{
				Features: []string{"prompt", "history"},
				DataType: entity.DataTypeSFT,
				Viewer:   Viewer{Role: entity.UserRoleSuperuser},
			},
			contains: []string{"(prompt <> '' OR jsonb_array_length(history) > 0)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := renderSQL(db, tt.filter.Specifications())
			for _, want := range tt.contains {
				assert.Contains(t, sql, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, sql, unwanted)
			}
		})
	}
}

func TestRecordFilterVisibility(t *testing.T) {
	me := uuid.New()
	someoneElse := uuid.New()

	records := []*entity.Record{
		{Id: "a", CreatorId: me, Status: entity.RecordStatusPending, Output: entity.SFTOutput{}},
		{Id: "b", CreatorId: someoneElse, Status: entity.RecordStatusPending, Output: entity.SFTOutput{}},
		{Id: "c", CreatorId: someoneElse, Status: entity.RecordStatusRejected, Output: entity.SFTOutput{}},
		{Id: "d", CreatorId: someoneElse, Status: entity.RecordStatusApproved, Output: entity.SFTOutput{}},
	}

	visibleIDs := func(f RecordFilter) []string {
		var ids []string
		for _, r := range records {
			if f.Visible(r) {
				ids = append(ids, r.Id)
			}
		}
		return ids
	}

	for _, role := range []entity.UserRole{entity.UserRoleContributor, entity.UserRoleAnnotator} {
		f := RecordFilter{Viewer: Viewer{ID: me, Role: role}}
		assert.Equal(t, []string{"a", "d"}, visibleIDs(f), string(role))
	}
	for _, role := range []entity.UserRole{entity.UserRoleCorrector, entity.UserRoleSuperuser} {
		f := RecordFilter{Viewer: Viewer{ID: me, Role: role}}
		assert.Equal(t, []string{"a", "b", "c", "d"}, visibleIDs(f), string(role))
	}
}

func TestParseFilterParams(t *testing.T) {
	statuses, err := ParseStatuses("pending, approved")
	require.NoError(t, err)
	assert.Equal(t, []entity.RecordStatus{entity.RecordStatusPending, entity.RecordStatusApproved}, statuses)

	statuses, err = ParseStatuses("all")
	require.NoError(t, err)
	assert.Empty(t, statuses)

	_, err = ParseStatuses("archived")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	features, err := ParseFeatures("output,history", entity.DataTypeRM)
	require.NoError(t, err)
	assert.Equal(t, []string{"output", "history"}, features)

	_, err = ParseFeatures("output", entity.DataTypeSFT)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = ParseCreators("not-a-uuid")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}
