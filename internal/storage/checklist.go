package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Status string

const (
	StatusUnset         Status = ""
	StatusConforming    Status = "Conforme"
	StatusNonConforming Status = "Não Conforme"
	StatusNotApplicable Status = "N/A"
)

var statusAliases = map[string]Status{
	"conforme":       StatusConforming,
	"c":              StatusConforming,
	"ok":             StatusConforming,
	"nao conforme":   StatusNonConforming,
	"nc":             StatusNonConforming,
	"n/a":            StatusNotApplicable,
	"na":             StatusNotApplicable,
	"nao aplicavel":  StatusNotApplicable,
	"not applicable": StatusNotApplicable,
	"conforming":     StatusConforming,
	"nonconforming":  StatusNonConforming,
	"non conforming": StatusNonConforming,
}

var folder = cases.Fold()

// ParseStatus accepts the stored labels as well as unaccented or differently
// cased spellings typed by operators ("nao conforme", "NC", "n/a").
func ParseStatus(s string) (Status, error) {
	key := foldLabel(s)
	if key == "" {
		return StatusUnset, nil
	}
	if st, ok := statusAliases[key]; ok {
		return st, nil
	}
	return StatusUnset, fmt.Errorf("unknown checklist status %q", s)
}

func foldLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	plain = folder.String(plain)
	return strings.Join(strings.Fields(plain), " ")
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// YesNo is a boolean persisted and serialised as "Sim"/"Não".
type YesNo bool

const (
	yes = "Sim"
	no  = "Não"
)

func (y YesNo) String() string {
	if y {
		return yes
	}
	return no
}

func (y YesNo) MarshalJSON() ([]byte, error) {
	return json.Marshal(y.String())
}

func (y *YesNo) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var b bool
		if errB := json.Unmarshal(data, &b); errB != nil {
			return err
		}
		*y = YesNo(b)
		return nil
	}
	return y.parse(raw)
}

func (y *YesNo) parse(raw string) error {
	switch foldLabel(raw) {
	case "sim", "yes", "true", "1":
		*y = true
	case "nao", "no", "false", "0", "":
		*y = false
	default:
		return fmt.Errorf("invalid yes/no value %q", raw)
	}
	return nil
}

func (y YesNo) Value() (driver.Value, error) {
	return y.String(), nil
}

func (y *YesNo) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return y.parse(v)
	case []byte:
		return y.parse(string(v))
	case bool:
		*y = YesNo(v)
		return nil
	case int64:
		*y = v != 0
		return nil
	case nil:
		*y = false
		return nil
	default:
		return fmt.Errorf("storage.YesNo.Scan: unsupported type %T", src)
	}
}

// ChecklistEntry is one checklist item of one submission. All rows of a
// submission share Timestamp, BatchID and the Rejected flag.
type ChecklistEntry struct {
	ID           int64     `json:"id" db:"id"`
	BatchID      string    `json:"batch_id" db:"batch_id"`
	SerialNumber string    `json:"serial_number" db:"serial_number"`
	Item         string    `json:"item" db:"item"`
	Status       Status    `json:"status" db:"status"`
	Observation  string    `json:"observation" db:"observation"`
	Inspector    string    `json:"inspector" db:"inspector"`
	Timestamp    time.Time `json:"timestamp" db:"created_at"`
	Rejected     YesNo     `json:"rejected" db:"rejected"`
	Reinspection YesNo     `json:"reinspection" db:"reinspection"`
	Photo        *string   `json:"photo,omitempty" db:"photo"`
}
