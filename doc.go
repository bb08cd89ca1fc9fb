// Package topgg is an unofficial Go client for the Top.gg API, the listing
// service for Discord bots.
//
// A Client is created from an API token, found on the webhooks page of a
// listed bot:
//
//	client, err := topgg.New(os.Getenv("TOPGG_TOKEN"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	bot, err := client.GetBot(ctx, 264811613708746752)
//
// # Rate limits
//
// The service allows roughly sixty requests a minute. The client paces all
// outgoing requests through a shared golang.org/x/time/rate limiter (one
// request per second by default; tune it with WithLimiter). When the server
// still answers 429, calls return a *RatelimitError carrying the advertised
// wait.
//
// # Errors
//
// Lookups for missing bots or users return ErrNotFound, a bad token returns
// ErrUnauthorized, and both are matched with errors.Is. Ratelimits and other
// unexpected statuses are typed errors for errors.As. Transport failures are
// returned wrapped, never swallowed.
//
// # Posting statistics
//
// Server counts are published with PostStats. For continuous publishing use
// the autoposter subpackage, which buffers the latest snapshot and flushes
// it on a fixed interval, and the tracker subpackage, which keeps the count
// current from gateway events.
//
// # Webhooks
//
// The webhook subpackage receives vote notifications as a standard
// http.Handler.
//
// All exported types are safe for concurrent use unless noted otherwise.
package topgg
