package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLists struct {
	data map[string][]string
}

func newMemLists() *memLists { return &memLists{data: map[string][]string{}} }

func (m *memLists) RPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		m.data[key] = append(m.data[key], string(v.([]byte)))
	}
	return redis.NewIntResult(int64(len(m.data[key])), nil)
}

func (m *memLists) BLPop(_ context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	for _, k := range keys {
		if l := m.data[k]; len(l) > 0 {
			m.data[k] = l[1:]
			return redis.NewStringSliceResult([]string{k, l[0]}, nil)
		}
	}
	return redis.NewStringSliceResult(nil, redis.Nil)
}

func TestEnqueueAndDequeue(t *testing.T) {
	mem := newMemLists()
	q := NewQueue(mem, nil)
	ctx := context.Background()

	require.NoError(t, q.EnqueueAvatarImport(ctx, 5, "https://example.com/a.png"))
	require.Len(t, mem.data[QueueAvatars], 1)

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, JobTypeAvatarImport, job.Type)
	assert.NotEmpty(t, job.ID)

	var p AvatarImportPayload
	require.NoError(t, json.Unmarshal(job.Payload, &p))
	assert.Equal(t, AvatarImportPayload{UserID: 5, SourceURL: "https://example.com/a.png"}, p)

	job, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestDequeue_SkipsGarbage(t *testing.T) {
	mem := newMemLists()
	mem.data[QueueAvatars] = []string{"{not json"}
	job, err := NewQueue(mem, nil).Dequeue(context.Background())
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestRetry_MovesToDLQAfterMaxRetries(t *testing.T) {
	mem := newMemLists()
	q := NewQueue(mem, nil)
	ctx := context.Background()
	job := &Job{ID: "j1", Type: JobTypeAvatarImport}

	for i := 1; i < MaxRetries; i++ {
		require.NoError(t, q.Retry(ctx, job))
		assert.Equal(t, i, job.Attempt)
	}
	assert.Len(t, mem.data[QueueAvatars], MaxRetries-1)
	assert.Empty(t, mem.data[QueueDLQ])

	require.NoError(t, q.Retry(ctx, job))
	assert.Len(t, mem.data[QueueDLQ], 1)
	assert.Len(t, mem.data[QueueAvatars], MaxRetries-1)
}
