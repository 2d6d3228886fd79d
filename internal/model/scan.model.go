package model

import "time"

type Scan struct {
	ID  int64     `json:"id"`
	UID string    `json:"uid"`
	TS  time.Time `json:"ts"`
}

// ScanResult is reported back to the field device that posted a scan.
type ScanResult struct {
	Status string   `json:"status"`
	UID    string   `json:"uid"`
	Linked bool     `json:"linked"`
	Amount *float64 `json:"amount,omitempty"`
	Note   string   `json:"note,omitempty"`
}
