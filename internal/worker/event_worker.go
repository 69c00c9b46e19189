package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"polltree/internal/metrics"
	"polltree/internal/retry"
)

const (
	KindVoteCast         = "vote_cast"
	KindBranchCreated    = "branch_created"
	KindPathCreated      = "path_created"
	KindReplyCreated     = "reply_created"
	KindFollowUpVoteCast = "followup_vote_cast"
)

// Event records one change to the poll tree.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	QuestionID int64     `json:"question_id,omitempty"`
	FollowUpID int64     `json:"follow_up_id,omitempty"`
	ChoiceID   int64     `json:"choice_id,omitempty"`
	UserID     int64     `json:"user_id"`
	At         time.Time `json:"at"`
}

func NewEvent(kind string) Event {
	return Event{ID: uuid.New(), Kind: kind, At: time.Now().UTC()}
}

// Key groups events of one question or follow-up onto one partition.
func (e Event) Key() []byte {
	if e.QuestionID != 0 {
		return []byte("q:" + strconv.FormatInt(e.QuestionID, 10))
	}
	return []byte("f:" + strconv.FormatInt(e.FollowUpID, 10))
}

type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// EventWorker drains the event channel, counts every event and forwards it
// to the publisher when one is configured.
type EventWorker struct {
	ch        <-chan Event
	publisher Publisher
	policy    retry.Policy
	log       *slog.Logger
}

func NewEventWorker(ch <-chan Event, publisher Publisher, log *slog.Logger) *EventWorker {
	if log == nil {
		log = slog.Default()
	}
	return &EventWorker{
		ch:        ch,
		publisher: publisher,
		policy:    retry.Policy{Attempts: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second},
		log:       log,
	}
}

// Run returns when ctx is done or the channel is closed.
func (w *EventWorker) Run(ctx context.Context) {
	w.log.Info("event worker started")
	defer w.log.Info("event worker stopped")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.ch:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		}
	}
}

func (w *EventWorker) handle(ctx context.Context, ev Event) {
	metrics.IncEvent(ev.Kind)
	w.log.Debug("tree event", "id", ev.ID, "kind", ev.Kind,
		"question_id", ev.QuestionID, "follow_up_id", ev.FollowUpID, "choice_id", ev.ChoiceID)

	if w.publisher == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		w.log.Error("encode event", "id", ev.ID, "err", err)
		return
	}
	err = retry.Do(ctx, w.policy, func(ctx context.Context) error {
		return w.publisher.Publish(ctx, ev.Key(), payload)
	})
	if err != nil {
		metrics.IncPublishFailure()
		w.log.Error("publish event", "id", ev.ID, "kind", ev.Kind, "err", err)
	}
}

// Emit enqueues ev without blocking; a full queue drops the event.
func Emit(ch chan<- Event, ev Event) bool {
	if ch == nil {
		return false
	}
	select {
	case ch <- ev:
		return true
	default:
		return false
	}
}
