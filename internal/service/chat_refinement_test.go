package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradx-api/internal/models"
	"github.com/noah-isme/gradx-api/pkg/ai"
)

func TestChatRefinementTrimsInputAndReply(t *testing.T) {
	engine := &stubConversationalist{reply: "  Fine.  "}
	chat := NewChatRefinement(engine, time.Second, testLogger())
	chat.Seed("opening")

	reply, err := chat.Send(context.Background(), chat.Generation(), "  Why Q2 & Q3?\n", ai.ConversationContext{})
	require.NoError(t, err)
	require.Equal(t, "Fine.", reply.Text)
	require.Equal(t, "Why Q2 & Q3?", engine.text)

	thread := chat.Thread()
	require.Len(t, thread, 3)
	require.Equal(t, models.ChatRoleUser, thread[1].Role)
	require.Equal(t, "Why Q2 & Q3?", thread[1].Text)

	require.Len(t, engine.prior, 1)
	require.Equal(t, ai.RoleModel, engine.prior[0].Role)
}

func TestChatRefinementKeepsComparisonText(t *testing.T) {
	cases := []string{
		"Is score<max for Q1?",
		"Why is x<y and y>z wrong in Q2?",
		"if a<b then Q3 gets 2",
		"<b>Q4</b> shows <script>alert(1)</script>",
	}

	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			engine := &stubConversationalist{reply: "ok"}
			chat := NewChatRefinement(engine, time.Second, testLogger())
			chat.Seed("opening")

			_, err := chat.Send(context.Background(), chat.Generation(), " "+text+" ", ai.ConversationContext{})
			require.NoError(t, err)
			require.Equal(t, text, engine.text)
			require.Equal(t, text, chat.Thread()[1].Text)
		})
	}
}

func TestChatRefinementRejectsBlankMessage(t *testing.T) {
	engine := &stubConversationalist{reply: "unused"}
	chat := NewChatRefinement(engine, time.Second, testLogger())
	chat.Seed("opening")

	_, err := chat.Send(context.Background(), chat.Generation(), " \t\n ", ai.ConversationContext{})
	require.ErrorIs(t, err, ErrEmptyMessage)
	require.Zero(t, engine.callCount())
	require.Equal(t, 1, chat.Len())
}

func TestChatRefinementBlankReplyFails(t *testing.T) {
	engine := &stubConversationalist{reply: "   "}
	chat := NewChatRefinement(engine, time.Second, testLogger())
	chat.Seed("opening")

	_, err := chat.Send(context.Background(), chat.Generation(), "Explain Q1", ai.ConversationContext{})
	require.ErrorIs(t, err, ErrChatTurnFailed)
	require.Equal(t, 2, chat.Len())
}

func TestChatRefinementStaleGenerationIsRejected(t *testing.T) {
	engine := &stubConversationalist{reply: "unused"}
	chat := NewChatRefinement(engine, time.Second, testLogger())
	chat.Seed("opening")
	generation := chat.Generation()
	chat.Clear()

	_, err := chat.Send(context.Background(), generation, "Explain Q1", ai.ConversationContext{})
	require.ErrorIs(t, err, ErrStaleChat)
	require.Zero(t, engine.callCount())
	require.Zero(t, chat.Len())
}

func TestChatRefinementSerializesTurns(t *testing.T) {
	engine := &stubConversationalist{
		reply:   "answer",
		block:   make(chan struct{}),
		started: make(chan struct{}, 2),
	}
	chat := NewChatRefinement(engine, 5*time.Second, testLogger())
	chat.Seed("opening")
	generation := chat.Generation()

	results := make(chan error, 2)
	go func() {
		_, err := chat.Send(context.Background(), generation, "first", ai.ConversationContext{})
		results <- err
	}()
	<-engine.started

	go func() {
		_, err := chat.Send(context.Background(), generation, "second", ai.ConversationContext{})
		results <- err
	}()

	// The second turn waits for the first, so its user message is not yet recorded.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 2, chat.Len())
	require.Equal(t, 1, engine.callCount())

	close(engine.block)
	require.NoError(t, <-results)
	require.NoError(t, <-results)

	thread := chat.Thread()
	require.Len(t, thread, 5)
	require.Equal(t, "first", thread[1].Text)
	require.Equal(t, "answer", thread[2].Text)
	require.Equal(t, "second", thread[3].Text)
	require.Equal(t, "answer", thread[4].Text)
}

func TestChatRefinementEngineErrorKeepsUserMessage(t *testing.T) {
	engine := &stubConversationalist{err: errors.New("quota exceeded")}
	chat := NewChatRefinement(engine, time.Second, testLogger())
	chat.Seed("opening")

	_, err := chat.Send(context.Background(), chat.Generation(), "Explain Q1", ai.ConversationContext{})
	require.ErrorIs(t, err, ErrChatTurnFailed)

	thread := chat.Thread()
	require.Len(t, thread, 2)
	require.Equal(t, models.ChatRoleUser, thread[1].Role)
}
