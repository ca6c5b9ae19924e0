package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/repository"
	"github.com/sakif/meydan/internal/repository/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return New()
	})
}

// A list handed out before a mutation must not see the mutation.
func TestListIsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Posts().Create(ctx, &model.Post{AuthorID: "a", Content: "one"}))

	before, err := s.Posts().List(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Posts().Create(ctx, &model.Post{AuthorID: "a", Content: "two"}))
	assert.Len(t, before, 1)
	assert.Equal(t, "one", before[0].Content)
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Messages().Append(ctx, &model.Message{SenderID: "a", ReceiverID: "b", Content: "x"})
			_, _ = s.Messages().List(ctx)
		}()
	}
	wg.Wait()

	msgs, err := s.Messages().List(ctx)
	require.NoError(t, err)
	assert.Len(t, msgs, 50)
}
