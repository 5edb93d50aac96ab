package audit

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"intellectdca/internal/domain"
)

// HashLength is the length of every audit hash in hex characters.
const HashLength = sha256.Size * 2

const delimiter = "-"

// Recorder fingerprints allocation and scan events. Each record stands alone:
// there is no link to a previous record, and nothing is written anywhere.
type Recorder struct {
	clock clockwork.Clock
}

func NewRecorder(clock clockwork.Clock) *Recorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Recorder{clock: clock}
}

// CreateRecord signs (caseID, owner, action) at the current time. Empty
// strings are hashed as-is.
func (r *Recorder) CreateRecord(caseID, owner, action string) domain.AuditRecord {
	ts := epochSeconds(r.clock.Now())
	return domain.AuditRecord{
		CaseID:    caseID,
		Owner:     owner,
		Status:    action,
		AuditHash: Fingerprint(caseID, owner, action, ts),
		Timestamp: ts,
	}
}

// Verify reports whether rec's hash still matches its fields.
func (r *Recorder) Verify(rec domain.AuditRecord) bool {
	want := Fingerprint(rec.CaseID, rec.Owner, rec.Status, rec.Timestamp)
	return subtle.ConstantTimeCompare([]byte(want), []byte(rec.AuditHash)) == 1
}

// Fingerprint is the SHA-256 hex digest of "caseID-owner-action-timestamp".
func Fingerprint(caseID, owner, action string, ts float64) string {
	raw := strings.Join([]string{caseID, owner, action, formatTimestamp(ts)}, delimiter)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// formatTimestamp renders the shortest round-tripping decimal and always keeps
// a fractional part, so whole seconds read "1700000000.0".
func formatTimestamp(ts float64) string {
	s := strconv.FormatFloat(ts, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
