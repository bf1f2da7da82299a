package service

import (
	"context"
	"sync"
	"time"

	cache "claimspipe/internal/cache/iface"
	"claimspipe/internal/domain"
	"claimspipe/internal/ml"
	"claimspipe/internal/repository"
	repoiface "claimspipe/internal/repository/iface"
	"claimspipe/internal/slack"
)

// memRepo is an in-memory RunRepository for unit tests
type memRepo struct {
	mu   sync.Mutex
	runs map[string]*domain.Run
}

func newMemRepo() *memRepo {
	return &memRepo{runs: map[string]*domain.Run{}}
}

func (r *memRepo) Create(ctx context.Context, run *domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *run
	r.runs[run.RunID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, runID string) (*domain.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return nil, repository.ErrRunNotFound
	}
	cp := *run
	cp.StartedSteps = append([]domain.StepRecord{}, run.StartedSteps...)
	if run.Results != nil {
		cp.Results = map[string]any{}
		for k, v := range run.Results {
			cp.Results[k] = v
		}
	}
	return &cp, nil
}

func (r *memRepo) UpdateFields(ctx context.Context, runID string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return repository.ErrRunNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			run.Status = v.(domain.RunStatus)
		case "current_step":
			run.CurrentStep = v.(string)
		case "started_steps":
			run.StartedSteps = append([]domain.StepRecord{}, v.([]domain.StepRecord)...)
		case "started_at":
			run.StartedAt = v.(int64)
		case "ended_at":
			run.EndedAt = v.(int64)
		case "duration_ms":
			run.DurationMs = v.(int64)
		case "error":
			run.Error = v.(string)
		case "results":
			run.Results = v.(map[string]any)
		case "slack_notified":
			run.SlackNotified = v.(bool)
		}
	}
	return nil
}

func (r *memRepo) AppendStep(ctx context.Context, runID string, record domain.StepRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return repository.ErrRunNotFound
	}
	run.StartedSteps = append(run.StartedSteps, record)
	return nil
}

func (r *memRepo) SetStepStatus(ctx context.Context, runID, stepName string, status domain.StepStatus, durationMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return repository.ErrRunNotFound
	}
	for i := range run.StartedSteps {
		if run.StartedSteps[i].Name == stepName {
			run.StartedSteps[i].Status = status
			if durationMs >= 0 {
				run.StartedSteps[i].DurationMs = durationMs
			}
			return nil
		}
	}
	return nil
}

func (r *memRepo) ClaimNotification(ctx context.Context, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return repository.ErrRunNotFound
	}
	if run.SlackNotified {
		return repository.ErrAlreadyNotified
	}
	run.SlackNotified = true
	return nil
}

func (r *memRepo) GetMostRecent(ctx context.Context) (*domain.Run, error) {
	r.mu.Lock()
	var latest *domain.Run
	for _, run := range r.runs {
		if latest == nil || run.StartedAt > latest.StartedAt {
			latest = run
		}
	}
	r.mu.Unlock()
	if latest == nil {
		return nil, repository.ErrRunNotFound
	}
	return r.GetByID(context.Background(), latest.RunID)
}

func (r *memRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	runs := make([]*domain.Run, 0, len(r.runs))
	for _, run := range r.runs {
		cp := *run
		runs = append(runs, &cp)
	}
	for i := 0; i < len(runs); i++ {
		for j := i + 1; j < len(runs); j++ {
			if runs[j].StartedAt > runs[i].StartedAt {
				runs[i], runs[j] = runs[j], runs[i]
			}
		}
	}
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// fakeStepSource serves a fixed step list
type fakeStepSource struct {
	steps []StepDescriptor
}

func (f *fakeStepSource) Steps() []StepDescriptor { return f.steps }

func (f *fakeStepSource) Names() []string {
	names := make([]string, len(f.steps))
	for i, s := range f.steps {
		names[i] = s.Name
	}
	return names
}

func (f *fakeStepSource) Find(name string) *StepDescriptor {
	for i := range f.steps {
		if f.steps[i].Name == name {
			return &f.steps[i]
		}
	}
	return nil
}

// fakeNotifier records finish notifications
type fakeNotifier struct {
	mu    sync.Mutex
	calls []*domain.Run
}

func (f *fakeNotifier) NotifyRunFinished(ctx context.Context, run *domain.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, run)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memLock is an in-memory Cache good enough for the run lock
type memLock struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemLock() *memLock {
	return &memLock{data: map[string]string{}}
}

func (m *memLock) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memLock) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memLock) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memLock) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memLock) Close() error { return nil }

// fakeSlackClient captures sent messages
type fakeSlackClient struct {
	mu       sync.Mutex
	messages []slack.Message
}

func (f *fakeSlackClient) SendMessage(ctx context.Context, message slack.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return nil
}

// fakeMLClient records task control calls
type fakeMLClient struct {
	mu           sync.Mutex
	stoppedTasks []string
	fetched      []string
}

func (f *fakeMLClient) Predict(ctx context.Context, csvPath, runID, webhookURL string) (*ml.PredictResult, error) {
	return &ml.PredictResult{TaskID: "task-1"}, nil
}

func (f *fakeMLClient) StopTask(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stoppedTasks = append(f.stoppedTasks, taskID)
	return nil
}

func (f *fakeMLClient) FetchResult(ctx context.Context, resultPath, destPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, resultPath)
	return nil
}

func (f *fakeMLClient) Health(ctx context.Context) error { return nil }

var (
	_ repoiface.RunRepository = (*memRepo)(nil)
	_ cache.Cache             = (*memLock)(nil)
	_ ml.Client               = (*fakeMLClient)(nil)
	_ slack.Client            = (*fakeSlackClient)(nil)
)
