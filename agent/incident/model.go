package incident

import (
	"time"

	"github.com/uptrace/bun"
)

type Status string

const (
	StatusRunning          Status = "RUNNING"
	StatusReadyToRefresh   Status = "READY_TO_REFRESH"
	StatusNeedsEngineering Status = "NEEDS_ENGINEERING"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Incident is one deduplicated error. Identical reports share a fingerprint
// and therefore a row.
type Incident struct {
	bun.BaseModel `bun:"table:rescue_incidents,alias:ri"`

	ID           string     `bun:"id,pk" json:"id"`
	Fingerprint  string     `bun:"fingerprint,notnull,unique" json:"fingerprint"`
	Surface      string     `bun:"surface,notnull" json:"surface"`
	ErrorType    string     `bun:"error_type,notnull" json:"errorType"`
	ErrorMessage string     `bun:"error_message,notnull" json:"errorMessage"`
	Severity     Severity   `bun:"severity,notnull" json:"severity"`
	Route        string     `bun:"route" json:"route,omitempty"`
	StoreID      string     `bun:"store_id" json:"storeId,omitempty"`
	Status       Status     `bun:"status,notnull" json:"status"`
	Occurrences  int        `bun:"occurrences,notnull,default:1" json:"occurrences"`
	Category     string     `bun:"category" json:"category,omitempty"`
	Diagnosis    string     `bun:"diagnosis" json:"diagnosis,omitempty"`
	Remediation  string     `bun:"remediation" json:"remediation,omitempty"`
	ClassifiedAt *time.Time `bun:"classified_at" json:"classifiedAt,omitempty"`
	CreatedAt    time.Time  `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull" json:"updatedAt"`
}

// Report is an inbound error report from a dashboard, storefront or worker.
type Report struct {
	Surface      string   `json:"surface"`
	ErrorType    string   `json:"errorType"`
	ErrorMessage string   `json:"errorMessage"`
	Severity     Severity `json:"severity,omitempty"`
	Route        string   `json:"route,omitempty"`
	StoreID      string   `json:"storeId,omitempty"`
}

// Classification is the classifier's verdict for one incident.
type Classification struct {
	Category    string `json:"category"`
	RefreshSafe bool   `json:"refreshSafe"`
	Diagnosis   string `json:"diagnosis"`
	Remediation string `json:"remediation"`
}
