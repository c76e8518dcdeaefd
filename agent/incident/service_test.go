package incident

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

// fakeRepo keys rows by fingerprint the way the unique index does.
type fakeRepo struct {
	mu        sync.Mutex
	byFP      map[string]*Incident
	upserts   int
	upsertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byFP: map[string]*Incident{}}
}

func (r *fakeRepo) Upsert(_ context.Context, inc *Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.upsertErr != nil {
		return r.upsertErr
	}
	if existing, ok := r.byFP[inc.Fingerprint]; ok {
		existing.Status = inc.Status
		existing.Occurrences++
		existing.Category, existing.Diagnosis, existing.Remediation = "", "", ""
		existing.ClassifiedAt = nil
		existing.UpdatedAt = inc.UpdatedAt
		*inc = *existing
		return nil
	}
	stored := *inc
	r.byFP[inc.Fingerprint] = &stored
	return nil
}

func (r *fakeRepo) Load(_ context.Context, id string) (*Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inc := range r.byFP {
		if inc.ID == id {
			cp := *inc
			return &cp, nil
		}
	}
	return nil, contractx.ErrNotFound
}

func (r *fakeRepo) Resolve(_ context.Context, id string, status Status, c Classification, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inc := range r.byFP {
		if inc.ID == id && inc.Status == StatusRunning {
			inc.Status = status
			inc.Category = c.Category
			inc.Diagnosis = c.Diagnosis
			inc.Remediation = c.Remediation
			inc.ClassifiedAt = &at
			return true, nil
		}
	}
	return false, nil
}

type fakeClassifier struct {
	verdict Classification
	err     error
	calls   int
}

func (c *fakeClassifier) Classify(context.Context, *Incident) (Classification, error) {
	c.calls++
	return c.verdict, c.err
}

type recordingDispatcher struct {
	ids []string
	err error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, id string) error {
	d.ids = append(d.ids, id)
	return d.err
}

func TestFingerprintIsDeterministic(t *testing.T) {
	t.Parallel()

	a := Fingerprint("TypeError", "Cannot read properties of undefined")
	b := Fingerprint("TypeError", "Cannot read properties of undefined")
	c := Fingerprint("RangeError", "Cannot read properties of undefined")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestFingerprintOnlyUsesFirstHundredRunes(t *testing.T) {
	t.Parallel()

	prefix := strings.Repeat("é", 100)
	assert.Equal(t, Fingerprint("E", prefix+"tail one"), Fingerprint("E", prefix+"tail two"))
}

func TestReportIncidentDeduplicatesIdenticalErrors(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	disp := &recordingDispatcher{}
	svc, err := NewService(repo, nil, WithDispatcher(disp))
	require.NoError(t, err)

	report := Report{ErrorType: "ChunkLoadError", ErrorMessage: "failed to load chunk for ada@example.com", Route: "/dashboard"}
	first, err := svc.ReportIncident(context.Background(), report)
	require.NoError(t, err)
	second, err := svc.ReportIncident(context.Background(), report)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.upserts)
	assert.Len(t, repo.byFP, 1)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Occurrences)
	assert.NotContains(t, second.ErrorMessage, "ada@example.com")
	assert.Equal(t, []string{first.ID, first.ID}, disp.ids)
}

func TestReportIncidentIgnoresDispatchFailure(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newFakeRepo(), nil, WithDispatcher(&recordingDispatcher{err: errors.New("queue down")}))
	require.NoError(t, err)

	inc, err := svc.ReportIncident(context.Background(), Report{ErrorType: "NetworkError", ErrorMessage: "fetch failed"})
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, inc.Status)
	assert.Equal(t, SeverityMedium, inc.Severity)
	assert.Equal(t, defaultSurface, inc.Surface)
}

func TestReportIncidentValidatesAndPropagatesStorageErrors(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc, err := NewService(repo, nil, WithDispatcher(&recordingDispatcher{}))
	require.NoError(t, err)

	_, err = svc.ReportIncident(context.Background(), Report{ErrorMessage: "no type"})
	require.ErrorIs(t, err, contractx.ErrValidation)

	repo.upsertErr = errors.New("db down")
	_, err = svc.ReportIncident(context.Background(), Report{ErrorType: "E", ErrorMessage: "m"})
	require.Error(t, err)
}

func TestClassifyMarksRefreshSafeIncidents(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	classifier := &fakeClassifier{verdict: Classification{Category: "network_transient", RefreshSafe: true, Diagnosis: "flaky network", Remediation: "Reload the page."}}
	svc, err := NewService(repo, classifier, WithDispatcher(&recordingDispatcher{}))
	require.NoError(t, err)

	inc, err := svc.ReportIncident(context.Background(), Report{ErrorType: "NetworkError", ErrorMessage: "fetch failed"})
	require.NoError(t, err)

	got, err := svc.Classify(context.Background(), inc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReadyToRefresh, got.Status)
	assert.Equal(t, "NETWORK_TRANSIENT", got.Category)
	require.NotNil(t, got.ClassifiedAt)
}

func TestClassifyRoutesBugsToEngineering(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	classifier := &fakeClassifier{verdict: Classification{Category: "BACKEND_BUG", RefreshSafe: true}}
	svc, err := NewService(repo, classifier, WithDispatcher(&recordingDispatcher{}))
	require.NoError(t, err)

	inc, err := svc.ReportIncident(context.Background(), Report{ErrorType: "HTTP500", ErrorMessage: "internal error"})
	require.NoError(t, err)

	got, err := svc.Classify(context.Background(), inc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsEngineering, got.Status)
}

func TestClassifyFailureNeedsEngineering(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	classifier := &fakeClassifier{err: errors.New("provider timeout")}
	svc, err := NewService(repo, classifier, WithDispatcher(&recordingDispatcher{}))
	require.NoError(t, err)

	inc, err := svc.ReportIncident(context.Background(), Report{ErrorType: "E", ErrorMessage: "boom"})
	require.NoError(t, err)

	got, err := svc.Classify(context.Background(), inc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsEngineering, got.Status)
	assert.Contains(t, got.Diagnosis, "provider timeout")
}

func TestClassifyOnlyActsWhileRunning(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	classifier := &fakeClassifier{verdict: Classification{Category: "UI_GLITCH", RefreshSafe: true}}
	svc, err := NewService(repo, classifier, WithDispatcher(&recordingDispatcher{}))
	require.NoError(t, err)

	inc, err := svc.ReportIncident(context.Background(), Report{ErrorType: "E", ErrorMessage: "boom"})
	require.NoError(t, err)

	_, err = svc.Classify(context.Background(), inc.ID)
	require.NoError(t, err)
	got, err := svc.Classify(context.Background(), inc.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, classifier.calls)
	assert.Equal(t, StatusReadyToRefresh, got.Status)

	reopened, err := svc.ReportIncident(context.Background(), Report{ErrorType: "E", ErrorMessage: "boom"})
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, reopened.Status)
	assert.Empty(t, reopened.Category)
}

func TestClassifyUnknownIncident(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newFakeRepo(), &fakeClassifier{}, WithDispatcher(&recordingDispatcher{}))
	require.NoError(t, err)

	_, err = svc.Classify(context.Background(), "missing")
	require.ErrorIs(t, err, contractx.ErrNotFound)
}

func TestLocalDispatcherClassifiesInBackground(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	classifier := &fakeClassifier{verdict: Classification{Category: "STALE_SESSION", RefreshSafe: true}}
	svc, err := NewService(repo, classifier)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	inc, err := svc.ReportIncident(ctx, Report{ErrorType: "AuthError", ErrorMessage: "session expired"})
	require.NoError(t, err)
	cancel()

	local, ok := svc.dispatcher.(*LocalDispatcher)
	require.True(t, ok)
	local.Wait()

	got, err := repo.Load(context.Background(), inc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReadyToRefresh, got.Status)
}

type fakePublisher struct {
	dest string
	body any
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, dest string, body any) (string, error) {
	p.dest, p.body = dest, body
	return "msg_1", p.err
}

func TestQStashDispatcherPublishesCallback(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	d, err := NewQStashDispatcher(pub, "https://agent.example.com/v1/incidents/classify")
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), "inc-1"))
	assert.Equal(t, "https://agent.example.com/v1/incidents/classify", pub.dest)
	assert.Equal(t, ClassifyRequest{IncidentID: "inc-1"}, pub.body)

	_, err = NewQStashDispatcher(pub, " ")
	require.Error(t, err)
}
