package generator

import (
	"context"
	"sync"
)

type reply struct {
	text string
	err  error
}

type recordedCall struct {
	prompt Prompt
	opts   CompletionOptions
}

// scriptedLLM returns its replies in order and records every call.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []reply
	calls   []recordedCall
}

func newScripted(replies ...reply) *scriptedLLM {
	return &scriptedLLM{replies: replies}
}

func (s *scriptedLLM) Complete(_ context.Context, prompt Prompt, opts CompletionOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, recordedCall{prompt: prompt, opts: opts})
	if len(s.replies) == 0 {
		return "", nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.text, r.err
}

func (s *scriptedLLM) Calls() []recordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedCall(nil), s.calls...)
}
