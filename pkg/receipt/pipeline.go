package receipt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"nomorewaste/domain"
	"nomorewaste/pkg/ids"
)

type State string

const (
	StateIdle       State = "idle"
	StateCapturing  State = "capturing"
	StateExtracting State = "extracting"
	StateReviewing  State = "reviewing"
	StateCommitted  State = "committed"
)

// ErrDiscarded is returned by Submit when the pipeline was dismissed while the extraction
// was in flight. The late result is dropped.
var ErrDiscarded = errors.New("receipt: result discarded")

// Committer persists reviewed drafts. It may return before persistence completes.
type Committer interface {
	CommitDrafts(ctx context.Context, drafts []domain.DraftItem) error
}

type PipelineOption func(*Pipeline)

func WithDownscale(maxWidth, quality int) PipelineOption {
	return func(p *Pipeline) {
		p.maxWidth = maxWidth
		p.quality = quality
	}
}

func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// WithFailureHandler receives the user-facing message for every failure that resets the pipeline.
// Hooks run with the pipeline lock held and must not call back into it.
func WithFailureHandler(fn func(msg string, err error)) PipelineOption {
	return func(p *Pipeline) { p.onFailure = fn }
}

func WithTransitionHook(fn func(from, to State)) PipelineOption {
	return func(p *Pipeline) { p.onTransition = fn }
}

// Pipeline drives one receipt from capture to commit:
// idle -> capturing -> extracting -> reviewing -> committed -> idle.
// Any failure returns it to idle with no drafts kept.
type Pipeline struct {
	extractor    Extractor
	committer    Committer
	maxWidth     int
	quality      int
	now          func() time.Time
	newID        func() string
	onFailure    func(msg string, err error)
	onTransition func(from, to State)

	mu     sync.Mutex
	state  State
	drafts []domain.DraftItem
	gen    uint64
}

func NewPipeline(extractor Extractor, committer Committer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		committer: committer,
		maxWidth:  DefaultMaxWidth,
		quality:   DefaultJPEGQuality,
		now:       time.Now,
		newID:     ids.NewTemp,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FailureMessage is the text shown to the member when a receipt could not be read.
func FailureMessage(err error) string {
	if errors.Is(err, domain.ErrExtractionFailed) || errors.Is(err, domain.ErrInvalidImage) {
		return fmt.Sprintf("Failed to read receipt: %v. Please try a clearer photo.", err)
	}
	return fmt.Sprintf("Failed to read receipt: %v.", err)
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Drafts returns a copy of the drafts under review.
func (p *Pipeline) Drafts() []domain.DraftItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.DraftItem(nil), p.drafts...)
}

// setState must be called with mu held.
func (p *Pipeline) setState(to State) {
	from := p.state
	p.state = to
	if p.onTransition != nil && from != to {
		p.onTransition(from, to)
	}
}

func (p *Pipeline) fail(err error) {
	p.drafts = nil
	p.setState(StateIdle)
	msg := FailureMessage(err)
	log.Warnf("receipt: %s", msg)
	if p.onFailure != nil {
		p.onFailure(msg, err)
	}
}

// Begin starts a capture or upload.
func (p *Pipeline) Begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle {
		return domain.ErrPipelineBusy
	}
	p.setState(StateCapturing)
	return nil
}

// FailCapture reports a camera or file access failure.
func (p *Pipeline) FailCapture(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateCapturing {
		return
	}
	p.gen++
	p.fail(err)
}

// Submit downscales the captured image, extracts drafts from it and moves to reviewing.
// It blocks until the extraction service answers. Calling it from idle begins a capture.
func (p *Pipeline) Submit(ctx context.Context, raw []byte) ([]domain.DraftItem, error) {
	p.mu.Lock()
	switch p.state {
	case StateIdle:
		p.setState(StateCapturing)
	case StateCapturing:
	default:
		p.mu.Unlock()
		return nil, domain.ErrPipelineBusy
	}
	p.setState(StateExtracting)
	p.gen++
	gen := p.gen
	today := p.now()
	p.mu.Unlock()

	drafts, err := p.extract(ctx, raw, today)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || p.state != StateExtracting {
		return nil, ErrDiscarded
	}
	if err != nil {
		p.fail(err)
		return nil, err
	}
	p.drafts = drafts
	p.setState(StateReviewing)
	return append([]domain.DraftItem(nil), drafts...), nil
}

func (p *Pipeline) extract(ctx context.Context, raw []byte, today time.Time) ([]domain.DraftItem, error) {
	img, err := Downscale(raw, p.maxWidth, p.quality)
	if err != nil {
		return nil, err
	}
	payload, err := p.extractor.Extract(ctx, img, today)
	if err != nil {
		return nil, err
	}
	return ParseDrafts(payload, p.newID)
}

// Dismiss closes the flow from any state. An extraction still in flight is ignored when it returns.
func (p *Pipeline) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.drafts = nil
	p.setState(StateIdle)
}

// Cancel discards the drafts under review. It is only valid while reviewing.
func (p *Pipeline) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReviewing {
		return domain.ErrNotReviewing
	}
	p.drafts = nil
	p.setState(StateIdle)
	return nil
}

func (p *Pipeline) EditDraft(id, field, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReviewing {
		return domain.ErrNotReviewing
	}
	for i, d := range p.drafts {
		if d.ID != id {
			continue
		}
		updated, err := SetField(d, field, value)
		if err != nil {
			return err
		}
		next := append([]domain.DraftItem(nil), p.drafts...)
		next[i] = updated
		p.drafts = next
		return nil
	}
	return domain.ErrDraftNotFound
}

func (p *Pipeline) RemoveDraft(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReviewing {
		return domain.ErrNotReviewing
	}
	for i, d := range p.drafts {
		if d.ID == id {
			next := make([]domain.DraftItem, 0, len(p.drafts)-1)
			next = append(next, p.drafts[:i]...)
			p.drafts = append(next, p.drafts[i+1:]...)
			return nil
		}
	}
	return domain.ErrDraftNotFound
}

func (p *Pipeline) AppendBlank() (domain.DraftItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReviewing {
		return domain.DraftItem{}, domain.ErrNotReviewing
	}
	d := BlankDraft(p.newID(), p.now())
	p.drafts = append(append([]domain.DraftItem(nil), p.drafts...), d)
	return d, nil
}

// Commit hands the surviving drafts to the committer and returns to idle. A committer error
// is reported but local state already applied by the committer is left as is.
func (p *Pipeline) Commit(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateReviewing {
		p.mu.Unlock()
		return domain.ErrNotReviewing
	}
	if len(p.drafts) == 0 {
		p.mu.Unlock()
		return domain.ErrNoDrafts
	}
	drafts := p.drafts
	p.drafts = nil
	p.setState(StateCommitted)
	p.mu.Unlock()

	err := p.committer.CommitDrafts(ctx, drafts)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateCommitted {
		p.setState(StateIdle)
	}
	if err != nil {
		log.Errorf("receipt: commit %d drafts: %v", len(drafts), err)
		if p.onFailure != nil {
			p.onFailure(fmt.Sprintf("Failed to save items: %v", err), err)
		}
		return err
	}
	return nil
}
