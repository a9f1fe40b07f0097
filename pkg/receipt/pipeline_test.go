package receipt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomorewaste/domain"
)

type stubExtractor struct {
	payload string
	err     error
	gate    chan struct{}
	calls   int
	mu      sync.Mutex
}

func (s *stubExtractor) Extract(ctx context.Context, image []byte, today time.Time) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.payload), nil
}

type recordingCommitter struct {
	got [][]domain.DraftItem
	err error
}

func (r *recordingCommitter) CommitDrafts(ctx context.Context, drafts []domain.DraftItem) error {
	r.got = append(r.got, drafts)
	return r.err
}

var pipelineToday = time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC)

func newTestPipeline(ex Extractor, c Committer, opts ...PipelineOption) *Pipeline {
	opts = append([]PipelineOption{WithPipelineClock(func() time.Time { return pipelineToday })}, opts...)
	return NewPipeline(ex, c, opts...)
}

const breadPayload = `{"items":[{"name":"Bread","price":3.2,"quantity":1,"category":"Bakery","expiry":"2025-01-10"}]}`

func TestPipeline_ExtractReviewCommit(t *testing.T) {
	committer := &recordingCommitter{}
	var transitions []State
	p := newTestPipeline(&stubExtractor{payload: breadPayload}, committer,
		WithTransitionHook(func(from, to State) { transitions = append(transitions, to) }))

	require.NoError(t, p.Begin())
	drafts, err := p.Submit(context.Background(), testPNG(t, 64, 64))
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, StateReviewing, p.State())

	require.NoError(t, p.EditDraft(drafts[0].ID, FieldQuantity, "2"))
	blank, err := p.AppendBlank()
	require.NoError(t, err)
	assert.Equal(t, BlankName, blank.Name)
	assert.Equal(t, "2025-01-03", blank.Expiry.String())
	require.NoError(t, p.RemoveDraft(blank.ID))

	require.NoError(t, p.Commit(context.Background()))
	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, p.Drafts())

	require.Len(t, committer.got, 1)
	require.Len(t, committer.got[0], 1)
	assert.Equal(t, "Bread", committer.got[0][0].Name)
	assert.Equal(t, 2, committer.got[0][0].Quantity)

	assert.Equal(t, []State{StateCapturing, StateExtracting, StateReviewing, StateCommitted, StateIdle}, transitions)
}

func TestPipeline_SubmitFromIdleBeginsCapture(t *testing.T) {
	p := newTestPipeline(&stubExtractor{payload: `[]`}, &recordingCommitter{})

	drafts, err := p.Submit(context.Background(), testPNG(t, 10, 10))
	require.NoError(t, err)
	assert.Empty(t, drafts)
	assert.Equal(t, StateReviewing, p.State())
	assert.ErrorIs(t, p.Commit(context.Background()), domain.ErrNoDrafts)
}

func TestPipeline_ExtractionFailureReturnsToIdle(t *testing.T) {
	var messages []string
	p := newTestPipeline(&stubExtractor{payload: `{"receipt":"unreadable"}`}, &recordingCommitter{},
		WithFailureHandler(func(msg string, err error) { messages = append(messages, msg) }))

	_, err := p.Submit(context.Background(), testPNG(t, 10, 10))
	require.ErrorIs(t, err, domain.ErrExtractionFailed)

	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, p.Drafts())
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "Failed to read receipt")
	assert.Contains(t, messages[0], "clearer photo")
}

func TestPipeline_InvalidImageNeverReachesExtractor(t *testing.T) {
	ex := &stubExtractor{payload: breadPayload}
	p := newTestPipeline(ex, &recordingCommitter{})

	_, err := p.Submit(context.Background(), []byte("garbage"))
	require.ErrorIs(t, err, domain.ErrInvalidImage)
	assert.Equal(t, 0, ex.calls)
	assert.Equal(t, StateIdle, p.State())
}

func TestPipeline_ServiceErrorReturnsToIdle(t *testing.T) {
	p := newTestPipeline(&stubExtractor{err: errors.New("quota exceeded")}, &recordingCommitter{})

	_, err := p.Submit(context.Background(), testPNG(t, 10, 10))
	require.Error(t, err)
	assert.Equal(t, StateIdle, p.State())
}

func TestPipeline_DismissDiscardsLateResult(t *testing.T) {
	ex := &stubExtractor{payload: breadPayload, gate: make(chan struct{})}
	p := newTestPipeline(ex, &recordingCommitter{})

	img := testPNG(t, 10, 10)
	errc := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), img)
		errc <- err
	}()

	require.Eventually(t, func() bool { return p.State() == StateExtracting }, time.Second, time.Millisecond)
	p.Dismiss()
	close(ex.gate)

	assert.ErrorIs(t, <-errc, ErrDiscarded)
	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, p.Drafts())
}

func TestPipeline_BusyWhileExtracting(t *testing.T) {
	ex := &stubExtractor{payload: breadPayload, gate: make(chan struct{})}
	p := newTestPipeline(ex, &recordingCommitter{})

	img := testPNG(t, 10, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Submit(context.Background(), img)
	}()
	require.Eventually(t, func() bool { return p.State() == StateExtracting }, time.Second, time.Millisecond)

	assert.ErrorIs(t, p.Begin(), domain.ErrPipelineBusy)
	_, err := p.Submit(context.Background(), testPNG(t, 10, 10))
	assert.ErrorIs(t, err, domain.ErrPipelineBusy)

	close(ex.gate)
	<-done
	assert.Equal(t, StateReviewing, p.State())
}

func TestPipeline_CancelOnlyWhileReviewing(t *testing.T) {
	p := newTestPipeline(&stubExtractor{payload: breadPayload}, &recordingCommitter{})
	assert.ErrorIs(t, p.Cancel(), domain.ErrNotReviewing)
	assert.ErrorIs(t, p.EditDraft("x", FieldName, "y"), domain.ErrNotReviewing)

	_, err := p.Submit(context.Background(), testPNG(t, 10, 10))
	require.NoError(t, err)
	require.NoError(t, p.Cancel())
	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, p.Drafts())
}

func TestPipeline_EditRejectsNonNumeric(t *testing.T) {
	p := newTestPipeline(&stubExtractor{payload: breadPayload}, &recordingCommitter{})
	drafts, err := p.Submit(context.Background(), testPNG(t, 10, 10))
	require.NoError(t, err)

	assert.ErrorIs(t, p.EditDraft(drafts[0].ID, FieldPrice, "abc"), domain.ErrInvalidDraftField)
	assert.ErrorIs(t, p.EditDraft("missing", FieldPrice, "1"), domain.ErrDraftNotFound)
	assert.Equal(t, 3.2, p.Drafts()[0].Price)
}

func TestPipeline_CommitFailureIsReported(t *testing.T) {
	var messages []string
	committer := &recordingCommitter{err: errors.New("offline")}
	p := newTestPipeline(&stubExtractor{payload: breadPayload}, committer,
		WithFailureHandler(func(msg string, err error) { messages = append(messages, msg) }))

	_, err := p.Submit(context.Background(), testPNG(t, 10, 10))
	require.NoError(t, err)

	require.Error(t, p.Commit(context.Background()))
	assert.Equal(t, StateIdle, p.State())
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "Failed to save items")
}

func TestPipeline_FailCapture(t *testing.T) {
	var messages []string
	p := newTestPipeline(&stubExtractor{}, &recordingCommitter{},
		WithFailureHandler(func(msg string, err error) { messages = append(messages, msg) }))

	require.NoError(t, p.Begin())
	p.FailCapture(errors.New("camera permission denied"))
	assert.Equal(t, StateIdle, p.State())
	assert.Len(t, messages, 1)
}
