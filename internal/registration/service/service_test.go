package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebirth/internal/registration/models"
	"ebirth/internal/registration/store"
	"ebirth/internal/registration/ubrn"
	"ebirth/internal/sequence"
	dErrors "ebirth/pkg/domain-errors"
)

var testNow = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	sent []string
	to   []string
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, msisdn, text string) error {
	if n.err != nil {
		return n.err
	}
	n.to = append(n.to, msisdn)
	n.sent = append(n.sent, text)
	return nil
}

type failingStore struct {
	store.Store
	putErr error
}

func (s *failingStore) Put(ctx context.Context, reg *models.Registration) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.Store.Put(ctx, reg)
}

func newService(t *testing.T, st store.Store, notifier Notifier) *Service {
	t.Helper()
	gen := ubrn.NewGenerator("GHA", sequence.NewMemory(), ubrn.WithClock(func() time.Time { return testNow }))
	return New(st, gen, notifier, WithClock(func() time.Time { return testNow }))
}

func testSubmission(sessionKey string) models.Submission {
	return models.Submission{
		ChildFirstName: "Kofi",
		ChildSurname:   "Mensah",
		DateOfBirth:    time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC),
		Sex:            models.SexMale,
		RegionCode:     1,
		DistrictCode:   "027",
		MotherName:     "Ama Asante",
		MotherNIN:      "GHA-123456789-0",
		Recipient:      "0241234567",
		SessionKey:     sessionKey,
	}
}

func TestRegisterPersistsAndNotifies(t *testing.T) {
	st := store.NewMemory()
	notifier := &fakeNotifier{}
	svc := newService(t, st, notifier)

	id, err := svc.Register(context.Background(), testSubmission("sess-1"))
	require.NoError(t, err)
	require.NoError(t, ubrn.Validate(id), "issued UBRN must self-validate")

	rec, err := st.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Kofi Mensah", rec.ChildName())
	assert.Equal(t, models.StatusProvisional, rec.Status)
	assert.Equal(t, "sess-1", rec.SessionKey)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "0241234567", notifier.to[0])
	assert.Contains(t, notifier.sent[0], "Congratulations!")
	assert.Contains(t, notifier.sent[0], id)
}

func TestRegisterHealthWorkerMessage(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newService(t, store.NewMemory(), notifier)

	sub := testSubmission("sess-hw")
	sub.RegisteredBy = "HW-123456"
	id, err := svc.Register(context.Background(), sub)
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], "registered by a health worker")
	assert.Contains(t, notifier.sent[0], id)
}

func TestRegisterIdempotentPerSessionKey(t *testing.T) {
	st := store.NewMemory()
	notifier := &fakeNotifier{}
	svc := newService(t, st, notifier)

	first, err := svc.Register(context.Background(), testSubmission("sess-retry"))
	require.NoError(t, err)

	// Gateway retry replays the same confirmed submission.
	second, err := svc.Register(context.Background(), testSubmission("sess-retry"))
	require.NoError(t, err)

	assert.Equal(t, first, second, "retried confirmation must not issue a new UBRN")
	assert.Len(t, notifier.sent, 1, "retried confirmation must not re-send the SMS")
}

func TestRegisterStoreFailureSurfacesRetryableError(t *testing.T) {
	st := &failingStore{Store: store.NewMemory(), putErr: errors.New("connection refused")}
	notifier := &fakeNotifier{}
	svc := newService(t, st, notifier)

	_, err := svc.Register(context.Background(), testSubmission("sess-fail"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.Empty(t, notifier.sent, "no notification when persistence failed")
}

func TestRegisterNotificationFailureDoesNotFail(t *testing.T) {
	st := store.NewMemory()
	svc := newService(t, st, &fakeNotifier{err: errors.New("gateway down")})

	id, err := svc.Register(context.Background(), testSubmission("sess-sms"))
	require.NoError(t, err, "notification failures never block finalization")

	_, err = st.Get(context.Background(), id)
	assert.NoError(t, err)
}

func TestVerify(t *testing.T) {
	st := store.NewMemory()
	notifier := &fakeNotifier{}
	svc := newService(t, st, notifier)

	id, err := svc.Register(context.Background(), testSubmission("sess-v"))
	require.NoError(t, err)

	rec, err := svc.Verify(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Kofi Mensah", rec.ChildName())

	// Lowercase input normalizes before lookup.
	rec, err = svc.Verify(context.Background(), "  "+id+" ")
	require.NoError(t, err)
	assert.Equal(t, id, rec.UBRN)
}

func TestVerifyMalformed(t *testing.T) {
	svc := newService(t, store.NewMemory(), &fakeNotifier{})

	_, err := svc.Verify(context.Background(), "not-a-ubrn")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestVerifyBadCheckDigitRejectedBeforeLookup(t *testing.T) {
	st := store.NewMemory()
	svc := newService(t, st, &fakeNotifier{})

	id, err := svc.Register(context.Background(), testSubmission("sess-cd"))
	require.NoError(t, err)

	bad := id[:len(id)-1]
	if id[len(id)-1] == '0' {
		bad += "1"
	} else {
		bad += "0"
	}
	_, err = svc.Verify(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation),
		"a mismatched check digit is malformed, not merely unknown")
}

func TestVerifyNotFound(t *testing.T) {
	svc := newService(t, store.NewMemory(), &fakeNotifier{})

	// Well-formed, checksummed, but never registered.
	unknown := ubrn.Format("GHA", 9, "999", testNow, 42)
	_, err := svc.Verify(context.Background(), unknown)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
