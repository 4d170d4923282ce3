package storage

import "time"

// ProductionScan (apontamento) records that a unit reached the production checkpoint.
type ProductionScan struct {
	ID             int64     `json:"id" db:"id"`
	SerialNumber   string    `json:"serial_number" db:"serial_number"`
	Timestamp      time.Time `json:"timestamp" db:"created_at"`
	ScanDate       string    `json:"scan_date" db:"scan_date"` // local business day, YYYY-MM-DD
	ProductionType string    `json:"production_type,omitempty" db:"production_type"`
	OrderID        string    `json:"order_id,omitempty" db:"order_id"`
}
