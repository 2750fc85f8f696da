// Package llmtest provides scripted llm.Completer fakes for stage tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/competitive-radar/backend/internal/llm"
)

// Reply is one scripted answer: either Content or Err.
type Reply struct {
	Content string
	Err     error
}

// Fake answers calls in order from Replies and records every request.
// Once the script is exhausted it answers with Default.
type Fake struct {
	mu       sync.Mutex
	Replies  []Reply
	Default  Reply
	Requests []llm.CompletionRequest
}

func NewFake(replies ...Reply) *Fake {
	return &Fake{Replies: replies, Default: Reply{Err: errors.New("llmtest: no scripted reply")}}
}

// JSON is shorthand for a successful reply.
func JSON(content string) Reply {
	return Reply{Content: content}
}

func Fail(err error) Reply {
	return Reply{Err: err}
}

func (f *Fake) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)
	reply := f.Default
	if len(f.Replies) > 0 {
		reply = f.Replies[0]
		f.Replies = f.Replies[1:]
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &llm.CompletionResponse{Content: reply.Content}, nil
}

// Calls returns how many requests were made.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

// Func adapts a function to llm.Completer.
type Func func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)

func (fn Func) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return fn(ctx, req)
}
