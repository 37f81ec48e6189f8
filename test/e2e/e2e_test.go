//go:build e2e

package e2e

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/postmind/internal/chat"
	"github.com/inkwell-labs/postmind/internal/domain"
)

const postBody = `Goroutines are lightweight threads managed by the Go runtime.
They are multiplexed onto a small number of OS threads, which makes it cheap
to run many thousands of them concurrently. Channels connect goroutines and
let them exchange values without explicit locking.`

func TestE2E_Health(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.Get("/health")
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestE2E_AskFlow(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.SeedPost("goroutines", domain.PostStatusPublic, postBody)
	env.SeedPost("unfinished", domain.PostStatusDraft, postBody)

	t.Run("open question gets a grounded answer", func(t *testing.T) {
		resp, err := env.Post("/posts/goroutines/ask", map[string]string{
			"question": "How are goroutines scheduled?",
		})
		require.NoError(t, err)

		var answer struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &answer))
		assert.Equal(t, "How are goroutines scheduled?", answer.Question)
		assert.Equal(t, "A grounded scripted answer.", answer.Answer)
	})

	t.Run("summary question routes to the summary capability", func(t *testing.T) {
		resp, err := env.Post("/posts/goroutines/ask", map[string]string{
			"question": "Can you summarize this post?",
		})
		require.NoError(t, err)

		var answer struct {
			Answer string `json:"answer"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &answer))
		assert.Equal(t, "A concise scripted summary.", answer.Answer)
	})

	t.Run("empty question is rejected", func(t *testing.T) {
		_, err := env.Post("/posts/goroutines/ask", map[string]string{"question": "  "})
		assert.Error(t, err)
	})

	t.Run("unknown slug returns 404", func(t *testing.T) {
		_, err := env.Post("/posts/nope/ask", map[string]string{"question": "Anything?"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("drafts are invisible", func(t *testing.T) {
		_, err := env.Post("/posts/unfinished/ask", map[string]string{"question": "Anything?"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestE2E_ChatFlow(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.SeedPost("chatty", domain.PostStatusPublic, postBody)

	wsURL := "ws" + strings.TrimPrefix(env.ServerURL, "http") + "/posts/chatty/chat"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var hello chat.Frame
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, chat.FrameConnected, hello.Type)
	assert.Equal(t, chat.GreetingMessage, hello.Message)

	require.NoError(t, conn.WriteJSON(chat.QuestionFrame{Question: "What are channels for?"}))

	var answer chat.Frame
	require.NoError(t, conn.ReadJSON(&answer))
	assert.Equal(t, chat.FrameAnswer, answer.Type)
	assert.Equal(t, "What are channels for?", answer.Question)
	assert.NotEmpty(t, answer.Answer)

	// Blank questions keep the session alive and report an error frame.
	require.NoError(t, conn.WriteJSON(chat.QuestionFrame{Question: ""}))

	var oops chat.Frame
	require.NoError(t, conn.ReadJSON(&oops))
	assert.Equal(t, chat.FrameError, oops.Type)
	assert.NotEmpty(t, oops.Message)

	require.NoError(t, conn.WriteJSON(chat.QuestionFrame{Question: "Still there?"}))
	require.NoError(t, conn.ReadJSON(&answer))
	assert.Equal(t, chat.FrameAnswer, answer.Type)
}

func TestE2E_ChatRejectsUnknownPost(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	wsURL := "ws" + strings.TrimPrefix(env.ServerURL, "http") + "/posts/ghost/chat"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestE2E_AugmentPipeline(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.SeedCategory("Programming")
	env.SeedCategory("Travel")
	post := env.SeedPost("pipeline", domain.PostStatusPublic, postBody)

	resp, err := env.Post("/posts/pipeline/augment", nil)
	require.NoError(t, err)

	var enqueued struct {
		Enqueued []domain.AIJobKind `json:"enqueued"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &enqueued))
	assert.ElementsMatch(t, []domain.AIJobKind{
		domain.AIJobKindTags, domain.AIJobKindCategory, domain.AIJobKindRAG,
	}, enqueued.Enqueued)

	require.NoError(t, env.Worker.ProcessJobs(env.Ctx))

	stored, err := env.PostRepo.GetByID(env.Ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, stored.AITagsGenerated)
	assert.True(t, stored.AICategoryGenerated)
	assert.True(t, stored.HasEmbeddings())

	tagged, err := env.PostRepo.HasTags(env.Ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, tagged)
	assert.NotEmpty(t, stored.ContentChunks)

	var tagCount int
	require.NoError(t, env.Pool.QueryRow(env.Ctx,
		`SELECT COUNT(*) FROM post_tags WHERE post_id = $1`, post.ID).Scan(&tagCount))
	assert.Equal(t, 3, tagCount)

	var categoryName string
	require.NoError(t, env.Pool.QueryRow(env.Ctx,
		`SELECT c.name FROM categories c
		 JOIN post_categories pc ON pc.category_id = c.id
		 WHERE pc.post_id = $1`, post.ID).Scan(&categoryName))
	assert.Equal(t, "Programming", categoryName)

	var pending int
	require.NoError(t, env.Pool.QueryRow(env.Ctx,
		`SELECT COUNT(*) FROM ai_jobs WHERE status <> 'completed'`).Scan(&pending))
	assert.Equal(t, 0, pending)

	// A second round is a no-op: tags and category stay put and the
	// unchanged body is not re-embedded.
	chunksBefore := len(stored.ContentChunks)

	_, err = env.Post("/posts/pipeline/augment", nil)
	require.NoError(t, err)
	require.NoError(t, env.Worker.ProcessJobs(env.Ctx))

	again, err := env.PostRepo.GetByID(env.Ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, again.ContentChunks, chunksBefore)

	require.NoError(t, env.Pool.QueryRow(env.Ctx,
		`SELECT COUNT(*) FROM post_tags WHERE post_id = $1`, post.ID).Scan(&tagCount))
	assert.Equal(t, 3, tagCount)
}

func TestE2E_CLIWorkflow(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.BuildBinaries()

	env.SeedPost("cli-post", domain.PostStatusPublic, postBody)

	out, err := env.RunPostmind("ask", "cli-post", "summarize", "this", "post")
	require.NoError(t, err, "ask failed: %s", out)
	assert.Contains(t, out, "A concise scripted summary.")

	out, err = env.RunPostmind("augment", "cli-post")
	require.NoError(t, err, "augment failed: %s", out)

	out, err = env.RunPostmind("ask", "missing-post", "hello", "there")
	assert.Error(t, err)
	assert.Contains(t, out, "not found")
}
