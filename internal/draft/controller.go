// Package draft creates one outbound draft artifact per contact using a
// fixed-size worker pool.
package draft

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 5

// ErrNoRecipient marks a request whose contact has no resolved email.
var ErrNoRecipient = eris.New("draft: contact has no email address")

// Message is what a Creator sends to the artifact API.
type Message struct {
	To          string
	ToName      string
	Subject     string
	Body        string
	Attachments []model.Attachment
}

// Creator creates one draft artifact and returns its ID.
type Creator interface {
	Create(ctx context.Context, msg Message) (string, error)
}

// Controller fans draft requests out to a fixed pool of workers.
type Controller struct {
	creator Creator
	workers int
	timeout time.Duration
}

// NewController creates a Controller. workers <= 0 uses DefaultWorkers;
// timeout <= 0 disables the per-request deadline.
func NewController(creator Creator, workers int, timeout time.Duration) *Controller {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Controller{creator: creator, workers: workers, timeout: timeout}
}

// CreateDrafts processes every request independently and returns exactly
// one result per request, sorted by Index. A failing request never
// affects the others. Requests not yet started when ctx ends fail with
// the context error.
func (c *Controller) CreateDrafts(ctx context.Context, reqs []model.DraftRequest) []model.DraftResult {
	if len(reqs) == 0 {
		return nil
	}

	jobs := make(chan model.DraftRequest)
	var (
		mu      sync.Mutex
		results = make([]model.DraftResult, 0, len(reqs))
		wg      sync.WaitGroup
	)

	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				res := c.process(ctx, req)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}

	for _, req := range reqs {
		jobs <- req
	}
	close(jobs)
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	zap.L().Info("draft: batch complete",
		zap.Int("requests", len(reqs)),
		zap.Int("created", len(reqs)-failed),
		zap.Int("failed", failed),
	)
	return results
}

func (c *Controller) process(ctx context.Context, req model.DraftRequest) (res model.DraftResult) {
	res.Index = req.Index
	defer func() {
		if r := recover(); r != nil {
			res.ArtifactID = ""
			res.Err = eris.Errorf("draft: panic creating draft %d: %v", req.Index, r)
		}
		if res.Err != nil {
			res.Error = res.Err.Error()
			zap.L().Warn("draft: request failed",
				zap.Int("index", req.Index),
				zap.String("identity", req.Contact.Key.String()),
				zap.Error(res.Err),
			)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = eris.Wrap(err, "draft: not started")
		return res
	}
	if !req.Contact.HasEmail() {
		res.Err = ErrNoRecipient
		return res
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	id, err := c.creator.Create(ctx, Message{
		To:          req.Contact.Email.Address,
		ToName:      strings.TrimSpace(req.Contact.FirstName + " " + req.Contact.LastName),
		Subject:     req.Subject,
		Body:        req.Body,
		Attachments: req.Attachments,
	})
	if err != nil {
		res.Err = eris.Wrapf(err, "draft: create for %s", req.Contact.Email.Address)
		return res
	}
	res.ArtifactID = id
	return res
}
