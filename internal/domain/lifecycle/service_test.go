package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/ipd/internal/domain/catalog"
	"github.com/hms/ipd/internal/domain/ledger"
	"github.com/hms/ipd/internal/platform/apperr"
)

// passRunner satisfies db.Runner without a database. The service's rollback
// guarantee is exercised separately by checking no writes land after a
// conflict.
type passRunner struct{}

func (passRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// mockBeds honours real claim semantics under a mutex so concurrent admits
// race the same way they do against the database.
type mockBeds struct {
	mu   sync.Mutex
	beds map[uuid.UUID]*catalog.Bed
}

func newMockBeds() *mockBeds {
	return &mockBeds{beds: make(map[uuid.UUID]*catalog.Bed)}
}

func (m *mockBeds) add(status catalog.BedStatus) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.beds[id] = &catalog.Bed{ID: id, Status: status}
	return id
}

func (m *mockBeds) status(id uuid.UUID) catalog.BedStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beds[id].Status
}

func (m *mockBeds) GetBed(_ context.Context, id uuid.UUID) (*catalog.Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beds[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *mockBeds) ClaimBed(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beds[id]
	if !ok || b.Status != catalog.BedAvailable {
		return false, nil
	}
	b.Status = catalog.BedOccupied
	return true, nil
}

func (m *mockBeds) ReleaseBed(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.beds[id]; ok && b.Status == catalog.BedOccupied {
		b.Status = catalog.BedCleaning
	}
	return nil
}

type mockAllocs struct {
	mu     sync.Mutex
	allocs []*ledger.BedAllocation
}

func (m *mockAllocs) Open(_ context.Context, a *ledger.BedAllocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	if a.FromAt.IsZero() {
		a.FromAt = time.Now().UTC()
	}
	m.allocs = append(m.allocs, a)
	return nil
}

func (m *mockAllocs) Close(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.allocs {
		if a.ID == id && a.ToAt == nil {
			a.ToAt = &at
		}
	}
	return nil
}

func (m *mockAllocs) OpenByEncounter(_ context.Context, encounterID uuid.UUID) (*ledger.BedAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.allocs {
		if a.EncounterID == encounterID && a.ToAt == nil {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAllocs) byEncounter(encounterID uuid.UUID) []*ledger.BedAllocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ledger.BedAllocation
	for _, a := range m.allocs {
		if a.EncounterID == encounterID {
			out = append(out, a)
		}
	}
	return out
}

type mockEncRepo struct {
	mu         sync.Mutex
	encounters map[uuid.UUID]*Encounter
}

func newMockEncRepo() *mockEncRepo {
	return &mockEncRepo{encounters: make(map[uuid.UUID]*Encounter)}
}

func (m *mockEncRepo) Create(_ context.Context, e *Encounter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	m.encounters[e.ID] = &cp
	return nil
}

func (m *mockEncRepo) Get(_ context.Context, id uuid.UUID) (*Encounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.encounters[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *mockEncRepo) Update(_ context.Context, e *Encounter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.encounters[e.ID] = &cp
	return nil
}

func (m *mockEncRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*Encounter, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Encounter
	for _, e := range m.encounters {
		if f.PatientID != nil && e.PatientID != *f.PatientID {
			continue
		}
		if f.Status != nil && e.Status != *f.Status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func newTestService() (*Service, *mockEncRepo, *mockBeds, *mockAllocs) {
	repo := newMockEncRepo()
	beds := newMockBeds()
	allocs := &mockAllocs{}
	svc := NewService(repo, beds, allocs, passRunner{}, zerolog.Nop())
	return svc, repo, beds, allocs
}

func admitReq(bedID uuid.UUID) AdmitRequest {
	return AdmitRequest{
		HospitalID:    uuid.New(),
		PatientID:     uuid.New(),
		BedID:         bedID,
		AdmissionType: AdmissionEmergency,
		PerformedBy:   "nurse-7",
	}
}

func TestAdmit(t *testing.T) {
	svc, _, beds, allocs := newTestService()
	ctx := context.Background()
	bedID := beds.add(catalog.BedAvailable)

	enc, err := svc.Admit(ctx, admitReq(bedID))
	require.NoError(t, err)

	assert.Equal(t, StatusAdmitted, enc.Status)
	assert.Equal(t, catalog.BedOccupied, beds.status(bedID))
	require.NotNil(t, enc.CurrentBedID)
	assert.Equal(t, bedID, *enc.CurrentBedID)

	history := allocs.byEncounter(enc.ID)
	require.Len(t, history, 1)
	assert.Equal(t, ledger.ReasonInitialAdmission, *history[0].Reason)
	assert.Nil(t, history[0].ToAt)
	require.NotNil(t, history[0].PerformedBy)
	assert.Equal(t, "nurse-7", *history[0].PerformedBy)

	// The insert hands back the row timestamps so the admit response does
	// not serialize zero times.
	assert.False(t, enc.CreatedAt.IsZero())
	assert.False(t, enc.UpdatedAt.IsZero())
}

func TestAdmit_Validation(t *testing.T) {
	svc, _, beds, _ := newTestService()
	ctx := context.Background()
	bedID := beds.add(catalog.BedAvailable)

	req := admitReq(bedID)
	req.PatientID = uuid.Nil
	_, err := svc.Admit(ctx, req)
	assert.True(t, apperr.IsValidation(err))

	req = admitReq(bedID)
	req.AdmissionType = "walk_in"
	_, err = svc.Admit(ctx, req)
	assert.True(t, apperr.IsValidation(err))
}

func TestAdmit_BedNotAvailable(t *testing.T) {
	svc, repo, beds, allocs := newTestService()
	ctx := context.Background()

	for _, status := range []catalog.BedStatus{catalog.BedOccupied, catalog.BedCleaning, catalog.BedBlocked, catalog.BedMaintenance} {
		bedID := beds.add(status)
		_, err := svc.Admit(ctx, admitReq(bedID))
		assert.True(t, apperr.IsConflict(err), "status %s should conflict", status)
	}

	_, err := svc.Admit(ctx, admitReq(uuid.New()))
	assert.True(t, apperr.IsNotFound(err))

	// Nothing persisted along the failed paths.
	assert.Empty(t, repo.encounters)
	assert.Empty(t, allocs.allocs)
}

func TestAdmit_ConcurrentClaim(t *testing.T) {
	svc, repo, beds, allocs := newTestService()
	ctx := context.Background()
	bedID := beds.add(catalog.BedAvailable)

	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Admit(ctx, admitReq(bedID))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	won, lost := 0, 0
	for err := range errs {
		if err == nil {
			won++
		} else {
			require.True(t, apperr.IsConflict(err), "loser must see a conflict, got %v", err)
			lost++
		}
	}
	assert.Equal(t, 1, won, "exactly one admit wins the bed")
	assert.Equal(t, writers-1, lost)
	assert.Len(t, repo.encounters, 1)
	assert.Len(t, allocs.allocs, 1)
}

func TestTransferBed(t *testing.T) {
	svc, _, beds, allocs := newTestService()
	ctx := context.Background()
	oldBed := beds.add(catalog.BedAvailable)
	newBed := beds.add(catalog.BedAvailable)

	enc, err := svc.Admit(ctx, admitReq(oldBed))
	require.NoError(t, err)

	moved, err := svc.TransferBed(ctx, enc.ID, newBed, "", "clerk-2")
	require.NoError(t, err)

	assert.Equal(t, StatusTransferred, moved.Status)
	assert.Equal(t, catalog.BedCleaning, beds.status(oldBed))
	assert.Equal(t, catalog.BedOccupied, beds.status(newBed))

	history := allocs.byEncounter(enc.ID)
	require.Len(t, history, 2)
	assert.NotNil(t, history[0].ToAt, "first allocation closed")
	assert.Nil(t, history[1].ToAt, "second allocation open")
	assert.Equal(t, ledger.ReasonTransfer, *history[1].Reason)
	assert.Equal(t, "clerk-2", *history[1].PerformedBy)
}

func TestTransferBed_ReturnRequiresCleaning(t *testing.T) {
	svc, _, beds, allocs := newTestService()
	ctx := context.Background()
	bedA := beds.add(catalog.BedAvailable)
	bedB := beds.add(catalog.BedAvailable)

	enc, err := svc.Admit(ctx, admitReq(bedA))
	require.NoError(t, err)

	_, err = svc.TransferBed(ctx, enc.ID, bedB, "", "")
	require.NoError(t, err)

	// The vacated bed is in cleaning, not available, so moving straight
	// back is refused until housekeeping clears it.
	assert.Equal(t, catalog.BedCleaning, beds.status(bedA))
	_, err = svc.TransferBed(ctx, enc.ID, bedA, "", "")
	assert.True(t, apperr.IsConflict(err))

	// The failed return changes nothing: patient stays in B, bed A stays
	// in cleaning, and the ledger still shows one closed and one open row.
	assert.Equal(t, catalog.BedOccupied, beds.status(bedB))
	assert.Equal(t, catalog.BedCleaning, beds.status(bedA))
	history := allocs.byEncounter(enc.ID)
	require.Len(t, history, 2)
	assert.NotNil(t, history[0].ToAt)
	assert.Nil(t, history[1].ToAt)
	assert.Equal(t, bedB, history[1].BedID)
}

func TestTransferBed_SameBed(t *testing.T) {
	svc, _, beds, allocs := newTestService()
	ctx := context.Background()
	bedID := beds.add(catalog.BedAvailable)

	enc, err := svc.Admit(ctx, admitReq(bedID))
	require.NoError(t, err)

	_, err = svc.TransferBed(ctx, enc.ID, bedID, "", "")
	assert.True(t, apperr.IsConflict(err))

	// Rejected before any write: one open allocation, bed still occupied.
	assert.Len(t, allocs.byEncounter(enc.ID), 1)
	assert.Equal(t, catalog.BedOccupied, beds.status(bedID))
}

func TestTransferBed_TargetTaken(t *testing.T) {
	svc, _, beds, allocs := newTestService()
	ctx := context.Background()
	bedID := beds.add(catalog.BedAvailable)
	taken := beds.add(catalog.BedOccupied)

	enc, err := svc.Admit(ctx, admitReq(bedID))
	require.NoError(t, err)

	_, err = svc.TransferBed(ctx, enc.ID, taken, "", "")
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, catalog.BedOccupied, beds.status(bedID), "patient keeps the old bed")
	assert.Len(t, allocs.byEncounter(enc.ID), 1)
}

func TestTransferDoctor(t *testing.T) {
	svc, _, beds, allocs := newTestService()
	ctx := context.Background()
	bedID := beds.add(catalog.BedAvailable)

	docA := uuid.New()
	req := admitReq(bedID)
	req.AttendingDoctorID = &docA
	enc, err := svc.Admit(ctx, req)
	require.NoError(t, err)

	_, err = svc.TransferDoctor(ctx, enc.ID, docA)
	assert.True(t, apperr.IsConflict(err), "same attending should conflict")

	docB := uuid.New()
	updated, err := svc.TransferDoctor(ctx, enc.ID, docB)
	require.NoError(t, err)
	assert.Equal(t, docB, *updated.AttendingDoctorID)
	assert.Equal(t, StatusAdmitted, updated.Status, "status untouched")
	assert.Len(t, allocs.byEncounter(enc.ID), 1, "no ledger row for a doctor change")
	assert.Equal(t, catalog.BedOccupied, beds.status(bedID))
}

func TestDischarge(t *testing.T) {
	svc, _, beds, allocs := newTestService()
	ctx := context.Background()
	bedID := beds.add(catalog.BedAvailable)

	enc, err := svc.Admit(ctx, admitReq(bedID))
	require.NoError(t, err)

	done, err := svc.Discharge(ctx, enc.ID, StatusDischarged, "recovered, follow up in two weeks")
	require.NoError(t, err)

	assert.Equal(t, StatusDischarged, done.Status)
	assert.NotNil(t, done.DischargedAt)
	assert.Nil(t, done.CurrentBedID)
	assert.Equal(t, catalog.BedCleaning, beds.status(bedID))

	history := allocs.byEncounter(enc.ID)
	require.Len(t, history, 1)
	assert.NotNil(t, history[0].ToAt)
}

func TestDischarge_Validation(t *testing.T) {
	svc, _, beds, _ := newTestService()
	ctx := context.Background()
	bedID := beds.add(catalog.BedAvailable)
	enc, err := svc.Admit(ctx, admitReq(bedID))
	require.NoError(t, err)

	_, err = svc.Discharge(ctx, enc.ID, StatusDischarged, "")
	assert.True(t, apperr.IsValidation(err), "summary is required")

	_, err = svc.Discharge(ctx, enc.ID, "transferred", "note")
	assert.True(t, apperr.IsValidation(err), "non-terminal status rejected")
}

func TestDischarge_TerminalStatuses(t *testing.T) {
	for _, status := range []EncounterStatus{StatusDischarged, StatusLAMA, StatusAbsconded, StatusDeath} {
		svc, _, beds, _ := newTestService()
		ctx := context.Background()
		bedID := beds.add(catalog.BedAvailable)
		enc, err := svc.Admit(ctx, admitReq(bedID))
		require.NoError(t, err)

		done, err := svc.Discharge(ctx, enc.ID, status, "closing note")
		require.NoError(t, err)
		assert.Equal(t, status, done.Status)
	}
}

func TestTerminalEncounter_RejectsFurtherOps(t *testing.T) {
	svc, _, beds, _ := newTestService()
	ctx := context.Background()
	bedID := beds.add(catalog.BedAvailable)
	otherBed := beds.add(catalog.BedAvailable)

	enc, err := svc.Admit(ctx, admitReq(bedID))
	require.NoError(t, err)
	_, err = svc.Discharge(ctx, enc.ID, StatusLAMA, "left against medical advice")
	require.NoError(t, err)

	_, err = svc.TransferBed(ctx, enc.ID, otherBed, "", "")
	assert.True(t, apperr.IsConflict(err))

	_, err = svc.TransferDoctor(ctx, enc.ID, uuid.New())
	assert.True(t, apperr.IsConflict(err))

	_, err = svc.Discharge(ctx, enc.ID, StatusDischarged, "again")
	assert.True(t, apperr.IsConflict(err))
}

func TestDischarge_DefaultsToDischarged(t *testing.T) {
	svc, _, beds, _ := newTestService()
	ctx := context.Background()
	bedID := beds.add(catalog.BedAvailable)
	enc, err := svc.Admit(ctx, admitReq(bedID))
	require.NoError(t, err)

	done, err := svc.Discharge(ctx, enc.ID, "", "routine discharge")
	require.NoError(t, err)
	assert.Equal(t, StatusDischarged, done.Status)
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, apperr.IsNotFound(err))
}
