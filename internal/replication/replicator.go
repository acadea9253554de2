package replication

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"stagequiz/internal/domain"
)

// KindState tags the only envelope kind carried on the wire today.
const KindState = "STATE"

// Envelope is the replication wire format: a state patch tagged with the
// sending instance's identity so receivers can drop their own echo.
type Envelope struct {
	Kind     string       `json:"kind"`
	SenderID string       `json:"senderId"`
	Patch    domain.Patch `json:"patch"`
}

// Bus abstracts the best-effort local broadcast channel. Publish is
// fire-and-forget: no acknowledgement, no retry, no ordering guarantee
// beyond the transport's natural per-sender FIFO. Subscribe delivers
// every payload published by any instance, including this one's.
type Bus interface {
	Publish(ctx context.Context, payload []byte) error
	Subscribe(handler func(payload []byte)) (cancel func(), err error)
}

// Target is the single mutation entry point remote patches are delivered
// into. The replicator never mutates state itself.
type Target interface {
	ApplyPatch(patch domain.Patch)
}

// Replicator propagates local mutations over a Bus and merges remote
// ones into a Target. Each instance carries a random identity generated
// at construction; envelopes bearing that identity are dropped on
// receive, which keeps a process from applying its own broadcast.
type Replicator struct {
	bus      Bus
	senderID string
}

func New(bus Bus) *Replicator {
	return NewWithSenderID(bus, newSenderID())
}

// NewWithSenderID pins the instance identity; tests use it to exercise
// the loop-prevention path.
func NewWithSenderID(bus Bus, senderID string) *Replicator {
	return &Replicator{bus: bus, senderID: senderID}
}

func (r *Replicator) SenderID() string { return r.senderID }

// Broadcast implements app.PatchSink. Failures are swallowed: a dropped
// patch is an accepted limitation of the channel, not an error the
// session can act on.
func (r *Replicator) Broadcast(patch domain.Patch) {
	env := Envelope{Kind: KindState, SenderID: r.senderID, Patch: patch}
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	_ = r.bus.Publish(context.Background(), payload)
}

// Attach subscribes the target to the bus. Malformed envelopes, unknown
// kinds, and this instance's own envelopes are dropped silently.
func (r *Replicator) Attach(target Target) (cancel func(), err error) {
	return r.bus.Subscribe(func(payload []byte) {
		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return
		}
		if env.Kind != KindState || env.SenderID == r.senderID {
			return
		}
		target.ApplyPatch(env.Patch)
	})
}

func newSenderID() string {
	return strconv.FormatUint(rand.New(rand.NewSource(time.Now().UnixNano())).Uint64(), 36)
}
