package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/like4me/internal/store"
)

const messageResponse = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-test",
	"content": [{"type": "text", "text": "\"벚꽃 사진 정말 예쁘네요!\""}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 12, "output_tokens": 9}
}`

func TestAnthropicRecordsItemURL(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && len(body.Messages) > 0 && len(body.Messages[0].Content) > 0 {
			prompt = body.Messages[0].Content[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageResponse))
	}))
	defer srv.Close()

	g := NewAnthropic("test-key", "claude-test", 0, nil, option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	post := Post{URL: "https://blog.naver.com/friend/223000000001", Title: "봄 산책", Excerpt: "벚꽃이 피었습니다"}

	got, err := g.Generate(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, "벚꽃 사진 정말 예쁘네요!", got)
	assert.Contains(t, prompt, "Title: 봄 산책")

	dir, err := store.LLMCacheDir()
	require.NoError(t, err)
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var exchange store.LLMExchange
	require.NoError(t, json.Unmarshal(data, &exchange))
	assert.Equal(t, post.URL, exchange.ItemURL)
	assert.Equal(t, "claude-test", exchange.Model)
}
