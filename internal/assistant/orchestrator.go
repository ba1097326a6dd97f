package assistant

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"call-harvester-go/internal/logger"
)

const batchLimit = 5

// Orchestrator submits transcripts to the assistant service and shepherds
// each submission through polling, parsing and whole-submission retry.
type Orchestrator struct {
	client      Client
	assistantID string

	// tunable in tests; defaults match production behavior
	Retries      int
	RetryDelay   time.Duration
	PollInterval time.Duration
	PollAttempts int

	sem *semaphore.Weighted
	log *logrus.Entry
}

func New(client Client, assistantID string) *Orchestrator {
	return &Orchestrator{
		client:       client,
		assistantID:  assistantID,
		Retries:      3,
		RetryDelay:   time.Second,
		PollInterval: time.Second,
		PollAttempts: 60,
		sem:          semaphore.NewWeighted(batchLimit),
		log:          logger.New().WithField("module", "assistant"),
	}
}

// ProcessTranscriptWithRetry runs the full submit/poll cycle up to Retries
// times with linearly increasing delay between attempts. Any answer from the
// service is final: a parsed response, a completed run with nothing parseable
// in it (an explicit outcome, not an error), and a polling timeout
// (re-running would hit the same ceiling) all short-circuit. Only failed
// submissions retry; exhausted attempts yield the last failure, whose
// Value() is an empty object.
func (o *Orchestrator) ProcessTranscriptWithRetry(ctx context.Context, transcript string) Result {
	last := Empty()
	for attempt := 0; attempt < o.Retries; attempt++ {
		res := o.submitOnce(ctx, transcript)
		switch res.State {
		case ResultOk, ResultEmpty, ResultTimedOut:
			return res
		}
		last = res
		o.log.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"state":   res.State,
			"reason":  res.Reason,
		}).Warn("transcript submission attempt failed")
		if attempt < o.Retries-1 {
			select {
			case <-time.After(time.Duration(attempt+1) * o.RetryDelay):
			case <-ctx.Done():
				return last
			}
		}
	}
	o.log.Warn("all transcript submission attempts exhausted, returning empty result")
	return last
}

// submitOnce drives one Job through created, submitted, polling and into a
// terminal state. The batch semaphore bounds in-flight submissions.
func (o *Orchestrator) submitOnce(ctx context.Context, transcript string) Result {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return Failed(err.Error())
	}
	defer o.sem.Release(1)

	threadID, err := o.client.CreateThread(ctx)
	if err != nil {
		o.log.WithError(err).Error("thread creation failed")
		return Failed("create thread: " + err.Error())
	}
	job := &Job{ThreadID: threadID, State: JobCreated}

	if err := o.client.CreateMessage(ctx, threadID, "user", transcript); err != nil {
		o.log.WithError(err).Error("message creation failed")
		return Failed("create message: " + err.Error())
	}
	runID, err := o.client.CreateRun(ctx, threadID, o.assistantID)
	if err != nil {
		o.log.WithError(err).Error("run creation failed")
		return Failed("create run: " + err.Error())
	}
	job.RunID = runID
	job.advance(JobSubmitted)
	o.log.WithFields(logrus.Fields{"thread_id": threadID, "run_id": runID}).Debug("run started")

	return o.waitForCompletion(ctx, job)
}

// waitForCompletion polls the run at a fixed interval with a bounded attempt
// count and parses the reply once the run completes.
func (o *Orchestrator) waitForCompletion(ctx context.Context, job *Job) Result {
	log := o.log.WithFields(logrus.Fields{"thread_id": job.ThreadID, "run_id": job.RunID})
	job.advance(JobPolling)
	for attempt := 0; attempt < o.PollAttempts; attempt++ {
		status, err := o.client.RetrieveRun(ctx, job.ThreadID, job.RunID)
		if err != nil {
			log.WithError(err).Error("run status check failed")
			job.advance(JobFailed)
			return Failed("retrieve run: " + err.Error())
		}
		switch {
		case status == StatusCompleted:
			job.advance(JobCompleted)
			msgs, err := o.client.ListMessages(ctx, job.ThreadID)
			if err != nil {
				log.WithError(err).Error("listing messages failed")
				return Failed("list messages: " + err.Error())
			}
			return o.parseReply(msgs)
		case status.Terminal():
			log.WithField("status", string(status)).Error("run ended without output")
			job.advance(JobFailed)
			return Failed("run status " + string(status))
		}
		select {
		case <-time.After(o.PollInterval):
		case <-ctx.Done():
			job.advance(JobFailed)
			return Failed(ctx.Err().Error())
		}
	}
	log.Error("assistant response wait exceeded")
	job.advance(JobTimedOut)
	return TimedOut()
}

// parseReply takes the first assistant message's first non-empty text segment
// and parses it as JSON. Anything missing or malformed is an empty result,
// with the raw text logged for diagnosis.
func (o *Orchestrator) parseReply(msgs []Message) Result {
	for _, msg := range msgs {
		if msg.Role != "assistant" {
			continue
		}
		text := ""
		for _, seg := range msg.Segments {
			if seg.Type != "text" {
				continue
			}
			if t := strings.TrimSpace(seg.Text); t != "" {
				text = t
				break
			}
		}
		if text == "" {
			o.log.Warn("assistant reply has no text segment")
			return Empty()
		}
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(text), &data); err != nil {
			o.log.WithError(err).WithField("raw", text).Warn("assistant reply is not valid JSON")
			return Empty()
		}
		return Ok(data)
	}
	o.log.Warn("no assistant message in thread")
	return Empty()
}

// ProcessBatch fans a set of transcripts out under the in-flight cap and
// returns one slot per input in order; a failed item leaves a nil slot rather
// than aborting the batch.
func (o *Orchestrator) ProcessBatch(ctx context.Context, transcripts []string) []map[string]interface{} {
	results := make([]map[string]interface{}, len(transcripts))
	done := make(chan struct{})
	for i, tr := range transcripts {
		go func(i int, tr string) {
			defer func() {
				if r := recover(); r != nil {
					o.log.WithField("panic", r).WithField("index", i).Error("batch item panicked")
					results[i] = nil
				}
				done <- struct{}{}
			}()
			res := o.ProcessTranscriptWithRetry(ctx, tr)
			if res.State == ResultOk {
				results[i] = res.Data
			} else {
				results[i] = res.Value()
			}
		}(i, tr)
	}
	for range transcripts {
		<-done
	}
	close(done)
	return results
}
