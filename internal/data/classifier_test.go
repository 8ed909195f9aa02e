package data

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
)

type fakeChatClient struct {
	resp   string
	err    error
	system string
	user   string
}

func (f *fakeChatClient) Chat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	f.system = systemPrompt
	f.user = userMessage
	return f.resp, f.err
}

func TestBuildAnalysisPrompt_Single(t *testing.T) {
	p := BuildAnalysisPrompt([]string{"how do I stake?"}, "Alice (@alice)")

	assert.Contains(t, p, `Analyze this single message from the user: "how do I stake?"`)
	assert.Contains(t, p, `"Alice (@alice)"`)
	assert.Contains(t, p, "impersonation")
	assert.NotContains(t, p, "1.")
}

func TestBuildAnalysisPrompt_Batch(t *testing.T) {
	p := BuildAnalysisPrompt([]string{"hi", "any airdrop?", "dm me"}, "")

	assert.Contains(t, p, "oldest to newest")
	assert.Contains(t, p, "1. \"hi\"\n2. \"any airdrop?\"\n3. \"dm me\"")
	assert.Contains(t, p, "Based on ALL these messages")
	assert.NotContains(t, p, "display name")
}

func TestClassifierRepo_NormalizesResponse(t *testing.T) {
	client := &fakeChatClient{resp: "  DELETE\n"}
	r := NewClassifierRepo(client, "policy")

	out, err := r.Classify(context.Background(), []string{"x"}, "")
	require.NoError(t, err)
	assert.Equal(t, "delete", out)
	assert.Equal(t, "policy", client.system)
	assert.Contains(t, client.user, `"x"`)
}

func TestClassifierRepo_WrapsProviderError(t *testing.T) {
	cause := errors.New("quota exceeded")
	r := NewClassifierRepo(&fakeChatClient{err: cause}, "policy")

	_, err := r.Classify(context.Background(), []string{"x"}, "")
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, cause)
}
