package testutil

import (
	"context"
	"sync"

	"github.com/alexanderramin/promptforge/internal/llm"
)

// Reply is one scripted provider response.
type Reply struct {
	Text string
	Err  error
}

// FakeLLM is a scriptable llm.Client. Replies are queued per task type and
// consumed in order; once a queue is empty the default reply for that task
// is returned. Every request is recorded.
type FakeLLM struct {
	mu       sync.Mutex
	queues   map[llm.TaskType][]Reply
	defaults map[llm.TaskType]Reply
	calls    []llm.Request

	// Block, when set, is waited on before replying (or until ctx ends).
	Block chan struct{}
}

// NewFakeLLM creates a FakeLLM that answers every task with valid JSON.
func NewFakeLLM() *FakeLLM {
	return &FakeLLM{
		queues: make(map[llm.TaskType][]Reply),
		defaults: map[llm.TaskType]Reply{
			llm.TaskClarify: {Text: `{"questions":[{"id":"q1","question":"Who is the audience?","options":["Developers","Marketers"]},{"id":"q2","question":"How long should it be?","options":[]}]}`},
			llm.TaskFinal:   {Text: `{"prompt":"You are an expert copywriter. Write the requested piece."}`},
			llm.TaskEdit:    {Text: `{"prompt":"You are an expert copywriter. Keep it short."}`},
		},
	}
}

// Queue appends scripted replies for task.
func (f *FakeLLM) Queue(task llm.TaskType, replies ...Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[task] = append(f.queues[task], replies...)
}

// SetDefault replaces the fallback reply for task.
func (f *FakeLLM) SetDefault(task llm.TaskType, r Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaults[task] = r
}

func (f *FakeLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	block := f.Block
	var r Reply
	if q := f.queues[req.Task]; len(q) > 0 {
		r, f.queues[req.Task] = q[0], q[1:]
	} else {
		r = f.defaults[req.Task]
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, llm.ErrTimeout
		}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &llm.Response{Text: r.Text, Model: req.Model}, nil
}

// Calls returns a copy of the recorded requests.
func (f *FakeLLM) Calls() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.calls...)
}

// CallsFor returns the recorded requests for task.
func (f *FakeLLM) CallsFor(task llm.TaskType) []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []llm.Request
	for _, c := range f.calls {
		if c.Task == task {
			out = append(out, c)
		}
	}
	return out
}
