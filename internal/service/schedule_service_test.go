package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestImportEntriesPersistsBatch(t *testing.T) {
	repo := &fakeScheduleRepo{}
	audit := &fakeAuditRepo{}
	svc := NewScheduleService(repo, audit, fakeTxManager{})

	agency := uuid.NewString()
	count, err := svc.ImportEntries(context.Background(), uuid.NewString(), ImportScheduleRequest{
		Entries: []ScheduleEntryRequest{
			{
				MemberID:       uuid.NewString(),
				DepotID:        uuid.NewString(),
				ProductID:      uuid.NewString(),
				DepotVariantID: uuid.NewString(),
				AgencyID:       agency,
				Quantity:       3,
				ScheduledDate:  "2026-03-10",
			},
			{
				MemberID:       uuid.NewString(),
				DepotID:        uuid.NewString(),
				ProductID:      uuid.NewString(),
				DepotVariantID: uuid.NewString(),
				Quantity:       2,
				ScheduledDate:  "2026-03-10",
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Len(t, repo.entries, 2)

	require.NotNil(t, repo.entries[0].AgencyID)
	require.Equal(t, agency, repo.entries[0].AgencyID.String())
	require.Nil(t, repo.entries[1].AgencyID) // attribution left unresolved

	require.Len(t, audit.entries, 1)
	require.Equal(t, model.ActionImportSchedule, audit.entries[0].Action)
}

func TestImportEntriesRejectsMalformedEntry(t *testing.T) {
	repo := &fakeScheduleRepo{}
	svc := NewScheduleService(repo, &fakeAuditRepo{}, fakeTxManager{})

	_, err := svc.ImportEntries(context.Background(), uuid.NewString(), ImportScheduleRequest{
		Entries: []ScheduleEntryRequest{
			{
				MemberID:       "not-a-uuid",
				DepotID:        uuid.NewString(),
				ProductID:      uuid.NewString(),
				DepotVariantID: uuid.NewString(),
				Quantity:       3,
				ScheduledDate:  "2026-03-10",
			},
		},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "entry 0")
	require.Empty(t, repo.entries)
}

func TestListEntriesRejectsInvalidDate(t *testing.T) {
	svc := NewScheduleService(&fakeScheduleRepo{}, &fakeAuditRepo{}, fakeTxManager{})

	_, _, err := svc.ListEntries(context.Background(), "10-03-2026", 1, 20)
	require.Error(t, err)
}
