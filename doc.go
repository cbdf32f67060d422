// Package assetsync routes asset-lifecycle events from an agency to the
// brands subscribed to each asset.
//
// assetsync is a library with a thin server binary. A Syncer wires the brand
// registry, the event catalog and envelope builder, the fan-out delivery
// engine, the dead letter queue and the internal event bus publisher.
//
// Key features:
//   - Brand registry over a durable store with an optional cache tier and a
//     secret index for inbound authentication
//   - CloudEvents-shaped envelopes built from a catalog of event definitions
//   - Concurrent fan-out with per-brand failure isolation
//   - Every envelope forwarded to the internal bus (Kafka or HTTP ingress)
//   - Per-brand routing rules evaluated for inbound brand events
//
// Quick start:
//
//	s, err := assetsync.New(
//	    assetsync.WithStore(postgresStore),
//	    assetsync.WithCache(redisStore),
//	    assetsync.WithPublisher(kafkaPublisher),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := s.SyncAsset(ctx, assetsync.AssetNotification{
//	    Host: "https://author.example.com",
//	    Path: "/content/dam/brand-a/hero.jpg",
//	})
package assetsync
