// Package webhook receives vote notifications as a standard http.Handler,
// mountable on any router.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/qepting91/topgg"
)

// Vote is a dispatched bot or server vote event.
type Vote struct {
	// ReceiverID is the bot or server that received the vote.
	ReceiverID topgg.Snowflake

	// VoterID is the user who voted.
	VoterID topgg.Snowflake

	// IsTest marks votes sent from the owner's test button.
	IsTest bool

	// IsWeekend reports whether the weekend multiplier was active, in which
	// case the vote counts twice. Always false for server votes.
	IsWeekend bool

	// Query holds the query parameters of the vote page, if any.
	Query url.Values
}

// UnmarshalJSON maps the wire payload onto Vote. Bot and server events name
// the receiver differently ("bot" or "guild"); the vote kind arrives as a
// "type" string; the query arrives as one urlencoded string.
func (v *Vote) UnmarshalJSON(data []byte) error {
	var raw struct {
		Bot       *topgg.Snowflake `json:"bot"`
		Guild     *topgg.Snowflake `json:"guild"`
		User      topgg.Snowflake  `json:"user"`
		Type      string           `json:"type"`
		IsWeekend bool             `json:"isWeekend"`
		Query     string           `json:"query"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.Bot != nil:
		v.ReceiverID = *raw.Bot
	case raw.Guild != nil:
		v.ReceiverID = *raw.Guild
	default:
		return fmt.Errorf("vote names neither a bot nor a guild")
	}

	v.VoterID = raw.User
	v.IsTest = raw.Type == "test"
	v.IsWeekend = raw.IsWeekend

	if raw.Query != "" {
		// Malformed query strings are dropped rather than failing the vote.
		if values, err := url.ParseQuery(strings.TrimPrefix(raw.Query, "?")); err == nil {
			v.Query = values
		}
	}
	return nil
}

// VoteHandler is the application callback invoked once per authenticated
// vote.
type VoteHandler interface {
	HandleVote(ctx context.Context, vote Vote) error
}

// VoteHandlerFunc adapts a function to the VoteHandler interface.
type VoteHandlerFunc func(ctx context.Context, vote Vote) error

func (f VoteHandlerFunc) HandleVote(ctx context.Context, vote Vote) error {
	return f(ctx, vote)
}

// Listener authenticates and decodes incoming vote requests. It implements
// http.Handler, so it mounts on net/http, chi and anything compatible.
type Listener struct {
	secret  string
	handler VoteHandler
	logger  *slog.Logger
}

// Option configures a Listener.
type Option func(*Listener)

// WithLogger sets the logger used for rejected requests and handler errors.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Listener) { l.logger = logger }
}

// NewListener returns a Listener that verifies the Authorization header
// against secret before handing votes to handler. The secret is the one
// configured on the bot's webhooks page.
func NewListener(secret string, handler VoteHandler, opts ...Option) (*Listener, error) {
	if secret == "" {
		return nil, errors.New("webhook: empty secret")
	}
	if handler == nil {
		return nil, errors.New("webhook: nil handler")
	}
	l := &Listener{secret: secret, handler: handler}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l, nil
}

const maxBodySize = 1 << 20

func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	auth := r.Header.Get("Authorization")
	if subtle.ConstantTimeCompare([]byte(auth), []byte(l.secret)) != 1 {
		l.logger.WarnContext(r.Context(), "webhook request with bad authorization",
			slog.String("remote", r.RemoteAddr))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var vote Vote
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&vote); err != nil {
		l.logger.WarnContext(r.Context(), "webhook request with bad payload",
			slog.String("error", err.Error()))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := l.handler.HandleVote(r.Context(), vote); err != nil {
		l.logger.ErrorContext(r.Context(), "vote handler failed",
			slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
