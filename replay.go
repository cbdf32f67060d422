package assetsync

import (
	"context"
	"fmt"

	"github.com/xraph/assetsync/delivery"
	"github.com/xraph/assetsync/dlq"
	"github.com/xraph/assetsync/id"
)

// ReplayDLQ redelivers a failed delivery to the brand's current endpoint with
// its current secret. The stored envelope is sent unchanged.
func (s *Syncer) ReplayDLQ(ctx context.Context, dlqID id.ID) (*dlq.Entry, error) {
	return s.dlqSvc.Replay(ctx, dlqID, dlqReplayer{s})
}

type dlqReplayer struct{ s *Syncer }

var _ dlq.Replayer = dlqReplayer{}

func (r dlqReplayer) Replay(ctx context.Context, e *dlq.Entry) (delivery.Result, error) {
	b, err := r.s.registry.Get(ctx, e.BrandID)
	if err != nil {
		return delivery.Result{}, err
	}

	if !b.Enabled {
		def, err := r.s.catalog.Lookup(e.EventType)
		if err != nil || !def.DeliverWhenDisabled {
			return delivery.Result{}, fmt.Errorf("%w: brand %s is disabled", ErrReplayFailed, b.ID)
		}
	}

	rctx, cancel := ctx, context.CancelFunc(func() {})
	if r.s.config.RequestTimeout > 0 {
		rctx, cancel = context.WithTimeout(ctx, r.s.config.RequestTimeout)
	}
	defer cancel()

	res := r.s.sender.SendRaw(rctx, b, e.Envelope, e.EventID, e.EventType)
	outcome := delivery.Classify(res)
	r.s.metrics.RecordDelivery(string(outcome), float64(res.LatencyMs)/1000.0)
	if outcome != delivery.OutcomeDelivered {
		return res, fmt.Errorf("%w: %s: %s", ErrReplayFailed, outcome, res.Error)
	}
	return res, nil
}
