package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

// --- Shared mocks for core service tests ---

const fakeDims = 16

// fakeEmbedder hashes words into a small bag-of-words vector.
type fakeEmbedder struct {
	mu      sync.Mutex
	err     error
	calls   int
	batches [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = bagOfWords(t)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return fakeDims }
func (f *fakeEmbedder) ModelName() string { return "fake-embed" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error { return nil }

func bagOfWords(text string) []float32 {
	vec := make([]float32, fakeDims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%fakeDims]++
	}
	return vec
}

// fakeLLM records the conversation and returns a canned reply.
type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	messages []driven.ChatMessage
	opts     driven.ChatOptions
	calls    int
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = append([]driven.ChatMessage(nil), messages...)
	f.opts = opts
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error { return nil }

// fakePrompts serves prompts from a map.
type fakePrompts map[string]string

func (p fakePrompts) Load(name string) (string, error) { return p[name], nil }
func (p fakePrompts) Reload() {}

// Ensure mocks implement interfaces
var (
	_ driven.EmbeddingService = (*fakeEmbedder)(nil)
	_ driven.LLMService       = (*fakeLLM)(nil)
	_ driven.PromptStore      = fakePrompts(nil)
)
