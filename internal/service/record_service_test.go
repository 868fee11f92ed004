package service

import (
	"context"
	"testing"

	"lamdam-be/internal/dto"
	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/repository/specification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordFixture struct {
	db        *memoryDB
	stores    *memoryStores
	events    *recordingPublisher
	service   IRecordService
	annotator *entity.User
	corrector *entity.User
	sft       *entity.Collection
}

func newRecordFixture(t *testing.T, approvalMode bool) *recordFixture {
	t.Helper()
	db := newMemoryDB()
	f := &recordFixture{
		db:        db,
		stores:    &memoryStores{db: db},
		events:    newRecordingPublisher(),
		annotator: db.addUser("ann", entity.UserRoleAnnotator),
		corrector: db.addUser("cor", entity.UserRoleCorrector),
		sft:       db.addCollection("sft_test", entity.DataTypeSFT),
	}
	f.service = NewRecordService(db, f.stores, f.events, f.events, approvalMode, logger.NewNopLogger())
	return f
}

func viewerOf(u *entity.User) specification.Viewer {
	return specification.Viewer{ID: u.Id, Role: u.Role}
}

func sftContent(prompt, response string) dto.RecordContentRequest {
	return dto.RecordContentRequest{Prompt: prompt, Response: response}
}

func TestCreateRecordInEmptyCollection(t *testing.T) {
	f := newRecordFixture(t, true)
	ctx := context.Background()
	req := &dto.CreateRecordRequest{CollectionId: f.sft.Id, RecordContentRequest: sftContent("hi", "hello there friend")}

	rec, err := f.service.Create(ctx, viewerOf(f.annotator), req)
	require.NoError(t, err)
	assert.Equal(t, "pending", rec.Status)
	assert.NotEmpty(t, rec.Hash)
	assert.Equal(t, f.annotator.Id, rec.CreatorId)
	assert.Equal(t, "ann", rec.Creator)
	require.NotNil(t, rec.Response)
	assert.Equal(t, "hello there friend", *rec.Response)
	assert.Equal(t, int64(1), f.db.collection(f.sft.Id).Count)
	assert.Equal(t, []string{"sft_test"}, f.stores.ensured)

	_, err = f.service.Create(ctx, viewerOf(f.annotator), req)
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "already exists")
	assert.Equal(t, int64(1), f.db.collection(f.sft.Id).Count)

	require.Len(t, f.events.changes, 1)
	assert.Equal(t, "created", f.events.changes[0].Action)
	assert.Equal(t, int64(1), f.events.counts[f.sft.Id])
	assert.Equal(t, f.annotator.Id, f.events.activity[0])
}

func TestCreateRecordWhitespaceVariantIsDuplicate(t *testing.T) {
	f := newRecordFixture(t, true)
	ctx := context.Background()

	_, err := f.service.Create(ctx, viewerOf(f.annotator), &dto.CreateRecordRequest{
		CollectionId: f.sft.Id, RecordContentRequest: sftContent("hi", "hello there friend"),
	})
	require.NoError(t, err)

	_, err = f.service.Create(ctx, viewerOf(f.corrector), &dto.CreateRecordRequest{
		CollectionId: f.sft.Id, RecordContentRequest: sftContent("  hi ", "hello   there friend\n"),
	})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestCreateRecordValidation(t *testing.T) {
	f := newRecordFixture(t, true)
	ctx := context.Background()

	_, err := f.service.Create(ctx, viewerOf(f.annotator), &dto.CreateRecordRequest{
		CollectionId: f.sft.Id, RecordContentRequest: sftContent("hi", "too short"),
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	rm := f.db.addCollection("rm_test", entity.DataTypeRM)
	_, err = f.service.Create(ctx, viewerOf(f.annotator), &dto.CreateRecordRequest{
		CollectionId: rm.Id, RecordContentRequest: dto.RecordContentRequest{Prompt: "hi", OutputPositive: "a long enough answer"},
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, 0, f.db.recordCount("rm_test"))
}

func TestChangeStatusRequiresApprovalModeAndModerator(t *testing.T) {
	ctx := context.Background()

	off := newRecordFixture(t, false)
	rec, err := off.service.Create(ctx, viewerOf(off.annotator), &dto.CreateRecordRequest{
		CollectionId: off.sft.Id, RecordContentRequest: sftContent("hi", "hello there friend"),
	})
	require.NoError(t, err)
	_, err = off.service.ChangeStatus(ctx, viewerOf(off.corrector), &dto.ChangeStatusRequest{
		Id: rec.Id, CollectionId: off.sft.Id, Status: "approved",
	})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	on := newRecordFixture(t, true)
	rec, err = on.service.Create(ctx, viewerOf(on.annotator), &dto.CreateRecordRequest{
		CollectionId: on.sft.Id, RecordContentRequest: sftContent("hi", "hello there friend"),
	})
	require.NoError(t, err)

	contributor := on.db.addUser("con", entity.UserRoleContributor)
	_, err = on.service.ChangeStatus(ctx, viewerOf(contributor), &dto.ChangeStatusRequest{
		Id: rec.Id, CollectionId: on.sft.Id, Status: "approved",
	})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	out, err := on.service.ChangeStatus(ctx, viewerOf(on.corrector), &dto.ChangeStatusRequest{
		Id: rec.Id, CollectionId: on.sft.Id, Status: "rejected", RejectReason: " off topic ",
	})
	require.NoError(t, err)
	assert.Equal(t, "rejected", out.Status)
	assert.Equal(t, "off topic", out.Meta.RejectReason)
	require.NotNil(t, out.Meta.RejectedBy)
	assert.Equal(t, on.corrector.Id, *out.Meta.RejectedBy)
	require.Len(t, on.events.moderated, 1)

	out, err = on.service.ChangeStatus(ctx, viewerOf(on.corrector), &dto.ChangeStatusRequest{
		Id: rec.Id, CollectionId: on.sft.Id, Status: "approved",
	})
	require.NoError(t, err)
	assert.Equal(t, "approved", out.Status)
	assert.Empty(t, out.Meta.RejectReason)
	assert.Nil(t, out.Meta.RejectedBy)
}

func TestForeignRecordsAreHiddenOrReadOnly(t *testing.T) {
	f := newRecordFixture(t, true)
	ctx := context.Background()
	other := f.db.addUser("other", entity.UserRoleAnnotator)

	rec, err := f.service.Create(ctx, viewerOf(f.annotator), &dto.CreateRecordRequest{
		CollectionId: f.sft.Id, RecordContentRequest: sftContent("hi", "hello there friend"),
	})
	require.NoError(t, err)

	// Pending records of someone else are invisible.
	_, err = f.service.Show(ctx, viewerOf(other), f.sft.Id, rec.Id)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	err = f.service.Delete(ctx, viewerOf(other), f.sft.Id, rec.Id)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.service.ChangeStatus(ctx, viewerOf(f.corrector), &dto.ChangeStatusRequest{
		Id: rec.Id, CollectionId: f.sft.Id, Status: "approved",
	})
	require.NoError(t, err)

	// Approved records are readable but not editable.
	shown, err := f.service.Show(ctx, viewerOf(other), f.sft.Id, rec.Id)
	require.NoError(t, err)
	assert.Equal(t, rec.Id, shown.Id)

	_, err = f.service.Update(ctx, viewerOf(other), &dto.UpdateRecordRequest{
		Id: rec.Id, CollectionId: f.sft.Id, RecordContentRequest: sftContent("hi", "a different answer"),
	})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestUpdateResetsModeration(t *testing.T) {
	f := newRecordFixture(t, true)
	ctx := context.Background()

	rec, err := f.service.Create(ctx, viewerOf(f.annotator), &dto.CreateRecordRequest{
		CollectionId: f.sft.Id, RecordContentRequest: sftContent("hi", "hello there friend"),
	})
	require.NoError(t, err)
	_, err = f.service.ChangeStatus(ctx, viewerOf(f.corrector), &dto.ChangeStatusRequest{
		Id: rec.Id, CollectionId: f.sft.Id, Status: "approved",
	})
	require.NoError(t, err)

	out, err := f.service.Update(ctx, viewerOf(f.corrector), &dto.UpdateRecordRequest{
		Id: rec.Id, CollectionId: f.sft.Id, RecordContentRequest: sftContent("hi", "a corrected answer"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", out.Status)
	assert.Nil(t, out.Meta.ApprovedBy)
	require.NotNil(t, out.Meta.LastModifiedBy)
	assert.Equal(t, f.corrector.Id, *out.Meta.LastModifiedBy)
	assert.NotEqual(t, rec.Hash, out.Hash)
	assert.Equal(t, f.annotator.Id, out.CreatorId)
}

func TestDeleteAdjustsCount(t *testing.T) {
	f := newRecordFixture(t, true)
	ctx := context.Background()

	rec, err := f.service.Create(ctx, viewerOf(f.annotator), &dto.CreateRecordRequest{
		CollectionId: f.sft.Id, RecordContentRequest: sftContent("hi", "hello there friend"),
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, viewerOf(f.annotator), f.sft.Id, rec.Id))
	assert.Equal(t, int64(0), f.db.collection(f.sft.Id).Count)
	assert.Equal(t, 0, f.db.recordCount("sft_test"))

	err = f.service.Delete(ctx, viewerOf(f.annotator), f.sft.Id, rec.Id)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	err = f.service.Delete(ctx, viewerOf(f.annotator), f.sft.Id, "not-a-ulid")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestMoveRecord(t *testing.T) {
	f := newRecordFixture(t, true)
	ctx := context.Background()
	target := f.db.addCollection("sft_target", entity.DataTypeSFT)
	rm := f.db.addCollection("rm_test", entity.DataTypeRM)

	rec, err := f.service.Create(ctx, viewerOf(f.annotator), &dto.CreateRecordRequest{
		CollectionId: f.sft.Id, RecordContentRequest: sftContent("hi", "hello there friend"),
	})
	require.NoError(t, err)

	_, err = f.service.Move(ctx, viewerOf(f.annotator), &dto.MoveRecordRequest{
		Id: rec.Id, CollectionId: f.sft.Id, TargetCollectionId: rm.Id,
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	moved, err := f.service.Move(ctx, viewerOf(f.annotator), &dto.MoveRecordRequest{
		Id: rec.Id, CollectionId: f.sft.Id, TargetCollectionId: target.Id,
	})
	require.NoError(t, err)
	assert.Equal(t, rec.Id, moved.Id)
	assert.Equal(t, rec.Hash, moved.Hash)
	assert.Equal(t, target.Id, moved.CollectionId)

	assert.Equal(t, int64(0), f.db.collection(f.sft.Id).Count)
	assert.Equal(t, int64(1), f.db.collection(target.Id).Count)
	assert.Equal(t, 0, f.db.recordCount("sft_test"))
	assert.Equal(t, 1, f.db.recordCount("sft_target"))
}

func TestImportIsIdempotent(t *testing.T) {
	f := newRecordFixture(t, true)
	ctx := context.Background()
	req := &dto.ImportRecordsRequest{
		CollectionId: f.sft.Id,
		Records: []dto.AlpacaRecord{
			{Instruction: "a", Output: dto.AlpacaOutput{"first"}},
			{Instruction: "b", Output: dto.AlpacaOutput{"second"}, History: [][]string{{"q", "r"}}},
			{Instruction: "a", Output: dto.AlpacaOutput{"first"}},
		},
	}

	_, err := f.service.Import(ctx, viewerOf(f.annotator), req)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	res, err := f.service.Import(ctx, viewerOf(f.corrector), req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Inserted)
	assert.Equal(t, int64(1), res.Skipped)
	assert.Equal(t, int64(2), f.db.collection(f.sft.Id).Count)

	res, err = f.service.Import(ctx, viewerOf(f.corrector), req)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Inserted)
	assert.Equal(t, int64(3), res.Skipped)
	assert.Equal(t, 2, f.db.recordCount("sft_test"))
}

func TestImportRejectsWrongOutputShape(t *testing.T) {
	f := newRecordFixture(t, true)
	rm := f.db.addCollection("rm_test", entity.DataTypeRM)

	_, err := f.service.Import(context.Background(), viewerOf(f.corrector), &dto.ImportRecordsRequest{
		CollectionId: rm.Id,
		Records:      []dto.AlpacaRecord{{Instruction: "a", Output: dto.AlpacaOutput{"only one"}}},
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, 0, f.db.recordCount("rm_test"))
}

func TestExportOnlyApproved(t *testing.T) {
	f := newRecordFixture(t, true)
	ctx := context.Background()

	_, err := f.service.Import(ctx, viewerOf(f.corrector), &dto.ImportRecordsRequest{
		CollectionId: f.sft.Id,
		Records: []dto.AlpacaRecord{
			{Instruction: "a", Output: dto.AlpacaOutput{"first"}},
			{Instruction: "b", Input: "ctx", Output: dto.AlpacaOutput{"second"}},
		},
	})
	require.NoError(t, err)

	all, err := f.service.Export(ctx, &dto.ExportRecordsRequest{CollectionId: f.sft.Id})
	require.NoError(t, err)
	assert.Empty(t, all)

	var approvedId string
	for _, rec := range f.db.records["sft_test"] {
		if rec.Prompt == "b" {
			approvedId = rec.Id
		}
	}
	_, err = f.service.ChangeStatus(ctx, viewerOf(f.corrector), &dto.ChangeStatusRequest{
		Id: approvedId, CollectionId: f.sft.Id, Status: "approved",
	})
	require.NoError(t, err)

	all, err = f.service.Export(ctx, &dto.ExportRecordsRequest{CollectionId: f.sft.Id})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].Instruction)
	assert.Equal(t, "ctx", all[0].Input)
	assert.Equal(t, dto.AlpacaOutput{"second"}, all[0].Output)
}
