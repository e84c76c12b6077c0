package notify

import (
	"strings"
	"time"
)

// Report is an opaque reference to a generated job report.
type Report struct {
	ID          string
	ContractID  uint
	URL         string
	GeneratedAt time.Time
}

// NewReport builds the report reference for a contract.
func NewReport(baseURL string, contractID uint, id string, now time.Time) Report {
	return Report{
		ID:          id,
		ContractID:  contractID,
		URL:         strings.TrimRight(baseURL, "/") + "/" + id,
		GeneratedAt: now,
	}
}
