package relay

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qepting91/topgg"
	"github.com/qepting91/topgg/webhook"
)

// VoteRecord is one received vote as persisted in the NDJSON log.
type VoteRecord struct {
	ID         string          `json:"id"`
	ReceivedAt time.Time       `json:"received_at"`
	ReceiverID topgg.Snowflake `json:"receiver_id"`
	VoterID    topgg.Snowflake `json:"voter_id"`
	IsTest     bool            `json:"is_test"`
	IsWeekend  bool            `json:"is_weekend"`
}

// NewVoteRecord stamps a vote with an ID and arrival time.
func NewVoteRecord(vote webhook.Vote) VoteRecord {
	return VoteRecord{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now().UTC(),
		ReceiverID: vote.ReceiverID,
		VoterID:    vote.VoterID,
		IsTest:     vote.IsTest,
		IsWeekend:  vote.IsWeekend,
	}
}

// Recorder owns the vote log file. It is the single consumer of the record
// channel, so writes need no locking.
type Recorder struct {
	FilePath string
}

// Start appends records from input to the log until the channel closes.
func (r *Recorder) Start(wg *sync.WaitGroup, input <-chan VoteRecord) {
	defer wg.Done()

	f, err := os.OpenFile(r.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("opening vote log", "path", r.FilePath, "error", err)
		// Drain so producers never block on a dead recorder.
		for range input {
		}
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for rec := range input {
		if err := enc.Encode(rec); err != nil {
			slog.Error("writing vote record", "error", err)
		}
	}
}

// LoadRecords reads the vote log, skipping lines that fail to parse so one
// corrupt entry cannot take the dashboard down.
func LoadRecords(path string) []VoteRecord {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var records []VoteRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec VoteRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err == nil {
			records = append(records, rec)
		}
	}
	return records
}
