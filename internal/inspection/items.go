package inspection

import (
	"fmt"
	"strings"

	"qc-line/internal/storage"
)

// ItemDefinition describes one checklist question.
type ItemDefinition struct {
	Key                string   `json:"key"`
	RequireObservation bool     `json:"require_observation"`
	Options            []string `json:"options,omitempty"`
}

// ItemResult is the operator's answer for one item. Selected holds chosen
// options when the item offers a fixed list; Observation is free text.
type ItemResult struct {
	Status      storage.Status `json:"status"`
	Observation string         `json:"observation"`
	Selected    []string       `json:"selected,omitempty"`
}

func (r ItemResult) observationText() string {
	parts := make([]string, 0, len(r.Selected)+1)
	for _, s := range r.Selected {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if obs := strings.TrimSpace(r.Observation); obs != "" {
		parts = append(parts, obs)
	}
	return strings.Join(parts, "; ")
}

// Submission is one checklist form as handed over by the workflow layer.
type Submission struct {
	Serial       string
	Results      map[string]ItemResult
	Inspector    string
	Reinspection bool
	// Photo is the already encoded label photo, stored on the photo item row only.
	Photo *string
}

// Validate checks the submission against the item definitions.
func Validate(items []ItemDefinition, sub Submission) error {
	var missing []string
	if strings.TrimSpace(sub.Serial) == "" {
		missing = append(missing, "serial_number")
	}

	for _, item := range items {
		res, ok := sub.Results[item.Key]
		if !ok || res.Status == storage.StatusUnset {
			missing = append(missing, item.Key)
			continue
		}
		if item.RequireObservation && res.Status != storage.StatusNotApplicable && res.observationText() == "" {
			missing = append(missing, item.Key+".observation")
		}
	}

	if len(missing) > 0 {
		return &IncompleteSubmissionError{Missing: missing}
	}

	for _, item := range items {
		if err := checkOptions(item, sub.Results[item.Key]); err != nil {
			return err
		}
	}

	for _, item := range items {
		if sub.Results[item.Key].Status != storage.StatusNotApplicable {
			return nil
		}
	}
	return ErrAllItemsNotApplicable
}

// checkOptions rejects selections outside the item's fixed option list.
// Items without options take no selections.
func checkOptions(item ItemDefinition, res ItemResult) error {
	allowed := make(map[string]struct{}, len(item.Options))
	for _, o := range item.Options {
		allowed[o] = struct{}{}
	}
	for _, sel := range res.Selected {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		if _, ok := allowed[sel]; !ok {
			return fmt.Errorf("%w: %q for %s", ErrInvalidOption, sel, item.Key)
		}
	}
	return nil
}

// IsRejected reports whether any configured item was answered NonConforming.
// Answers for keys outside items are ignored.
func IsRejected(items []ItemDefinition, results map[string]ItemResult) bool {
	for _, item := range items {
		if results[item.Key].Status == storage.StatusNonConforming {
			return true
		}
	}
	return false
}
