package topgg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// discordEpoch is the first second of 2015 in Unix milliseconds. Discord
// timestamps count from here, not from the Unix epoch.
const discordEpoch = 1420070400000

// Snowflake is a Discord object ID. The API serializes these as decimal
// strings because they overflow the safe integer range of JSON numbers.
type Snowflake uint64

// ParseSnowflake converts a decimal string into a Snowflake.
func ParseSnowflake(s string) (Snowflake, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", s, err)
	}
	return Snowflake(id), nil
}

func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// Time returns the creation time encoded in the upper bits of the ID.
func (s Snowflake) Time() time.Time {
	ms := int64(s>>22) + discordEpoch
	return time.UnixMilli(ms).UTC()
}

// WorkerID returns the internal worker ID bits.
func (s Snowflake) WorkerID() uint8 {
	return uint8((uint64(s) & 0x3E0000) >> 17)
}

// ProcessID returns the internal process ID bits.
func (s Snowflake) ProcessID() uint8 {
	return uint8((uint64(s) & 0x1F000) >> 12)
}

// Increment returns the per-process sequence number bits.
func (s Snowflake) Increment() uint16 {
	return uint16(uint64(s) & 0xFFF)
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts both the usual string form and a bare number, since
// a few endpoints are inconsistent about which they emit. An empty string
// (how the service spells an unset ID) decodes as zero.
func (s *Snowflake) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			*s = 0
			return nil
		}
		id, err := ParseSnowflake(str)
		if err != nil {
			return err
		}
		*s = id
		return nil
	}
	var n uint64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid snowflake: %w", err)
	}
	*s = Snowflake(n)
	return nil
}
