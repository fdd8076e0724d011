package draft

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

type fakeCreator struct {
	failFor  map[string]bool
	panicFor map[string]bool
	jitter   bool

	mu       sync.Mutex
	inFlight int
	peak     int
	calls    atomic.Int64
	messages []Message
}

func (f *fakeCreator) Create(_ context.Context, msg Message) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.messages = append(f.messages, msg)
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.jitter {
		time.Sleep(time.Duration(rand.IntN(5)) * time.Millisecond)
	}
	if f.panicFor[msg.To] {
		panic("creator exploded")
	}
	if f.failFor[msg.To] {
		return "", eris.New("gmail: unexpected status 500")
	}
	return "draft-" + msg.To, nil
}

func requests(n int) []model.DraftRequest {
	out := make([]model.DraftRequest, n)
	for i := range out {
		addr := fmt.Sprintf("p%d@acme.com", i)
		out[i] = model.DraftRequest{
			Index: i,
			Contact: model.Contact{
				FirstName: fmt.Sprintf("P%d", i),
				LastName:  "Smith",
				Email:     &model.ResolvedEmail{Address: addr, Verified: true, Source: model.SourceFinder},
			},
			Subject: "Hello",
			Body:    "Body",
		}
	}
	return out
}

func TestCreateDrafts_OneFailureIsolated(t *testing.T) {
	creator := &fakeCreator{failFor: map[string]bool{"p3@acme.com": true}, jitter: true}
	c := NewController(creator, 5, time.Second)

	results := c.CreateDrafts(context.Background(), requests(12))

	require.Len(t, results, 12)
	failed := 0
	for i, r := range results {
		assert.Equal(t, i, r.Index, "results are in request order")
		if r.Err != nil {
			failed++
			assert.Equal(t, 3, r.Index)
			assert.Empty(t, r.ArtifactID)
			assert.Contains(t, r.Error, "500")
			continue
		}
		assert.Equal(t, fmt.Sprintf("draft-p%d@acme.com", i), r.ArtifactID)
		assert.True(t, r.OK())
	}
	assert.Equal(t, 1, failed)
}

func TestCreateDrafts_PanicIsolated(t *testing.T) {
	creator := &fakeCreator{panicFor: map[string]bool{"p0@acme.com": true}}
	c := NewController(creator, 2, 0)

	results := c.CreateDrafts(context.Background(), requests(3))

	require.Len(t, results, 3)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.NoError(t, results[2].Err)
}

func TestCreateDrafts_PoolIsBounded(t *testing.T) {
	creator := &fakeCreator{jitter: true}
	c := NewController(creator, 3, 0)

	results := c.CreateDrafts(context.Background(), requests(30))

	require.Len(t, results, 30)
	assert.LessOrEqual(t, creator.peak, 3)
	assert.Equal(t, int64(30), creator.calls.Load())
}

func TestCreateDrafts_NoRecipient(t *testing.T) {
	creator := &fakeCreator{}
	c := NewController(creator, 0, 0)

	reqs := requests(2)
	reqs[1].Contact.Email = nil

	results := c.CreateDrafts(context.Background(), reqs)

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.True(t, eris.Is(results[1].Err, ErrNoRecipient))
	assert.Equal(t, int64(1), creator.calls.Load())
}

func TestCreateDrafts_PreservesCallerIndices(t *testing.T) {
	creator := &fakeCreator{jitter: true}
	c := NewController(creator, 4, 0)

	reqs := requests(5)
	for i := range reqs {
		reqs[i].Index = 100 - i*10
	}

	results := c.CreateDrafts(context.Background(), reqs)

	var got []int
	for _, r := range results {
		got = append(got, r.Index)
	}
	assert.Equal(t, []int{60, 70, 80, 90, 100}, got)
}

func TestCreateDrafts_MessageFields(t *testing.T) {
	creator := &fakeCreator{}
	c := NewController(creator, 1, 0)

	reqs := requests(1)
	reqs[0].Attachments = []model.Attachment{{Filename: "resume.pdf", Data: []byte("%PDF")}}
	c.CreateDrafts(context.Background(), reqs)

	require.Len(t, creator.messages, 1)
	msg := creator.messages[0]
	assert.Equal(t, "p0@acme.com", msg.To)
	assert.Equal(t, "P0 Smith", msg.ToName)
	assert.Equal(t, "Hello", msg.Subject)
	require.Len(t, msg.Attachments, 1)
}

func TestCreateDrafts_CancelledContext(t *testing.T) {
	creator := &fakeCreator{}
	c := NewController(creator, 2, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := c.CreateDrafts(ctx, requests(4))

	require.Len(t, results, 4)
	for _, r := range results {
		assert.Error(t, r.Err)
	}
	assert.Zero(t, creator.calls.Load())
}

func TestCreateDrafts_Empty(t *testing.T) {
	c := NewController(&fakeCreator{}, 5, 0)
	assert.Empty(t, c.CreateDrafts(context.Background(), nil))
}
