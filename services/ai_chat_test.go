package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }

func (failingProvider) Reply(context.Context, string) (string, error) {
	return "", errors.New("upstream down")
}

type emptyProvider struct{}

func (emptyProvider) Name() string { return "empty" }

func (emptyProvider) Reply(context.Context, string) (string, error) {
	return "", nil
}

type cannedProvider struct{ reply string }

func (cannedProvider) Name() string { return "canned" }

func (p cannedProvider) Reply(context.Context, string) (string, error) {
	return p.reply, nil
}

func TestChatFallsThroughFailedProviders(t *testing.T) {
	svc := NewChatServiceWithProviders(failingProvider{}, emptyProvider{}, cannedProvider{reply: "sow wheat"})

	reply := svc.Chat(context.Background(), "what should I plant?")
	assert.Equal(t, "sow wheat", reply)
}

func TestChatStopsAtFirstNonEmptyReply(t *testing.T) {
	svc := NewChatServiceWithProviders(cannedProvider{reply: "first"}, cannedProvider{reply: "second"})

	reply := svc.Chat(context.Background(), "hello")
	assert.Equal(t, "first", reply)
}

func TestRuleBasedProviderKeywords(t *testing.T) {
	p := RuleBasedProvider{}

	cases := map[string]string{
		"my soil is red":      "soil test",
		"which fertilizer":    "NPK",
		"mandi market today":  "mandi",
		"price of onions":     "mandi",
		"something unrelated": "Monitor weather",
	}
	for message, want := range cases {
		reply, err := p.Reply(context.Background(), message)
		require.NoError(t, err)
		assert.Contains(t, reply, want, "message %q", message)
	}
}

func TestRuleBasedProviderNeverEmpty(t *testing.T) {
	reply, err := RuleBasedProvider{}.Reply(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
}
