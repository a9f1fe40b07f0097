package receipt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"nomorewaste/domain"
	"nomorewaste/entities"
)

// ItemsField is the list field accepted when the payload is an object.
const ItemsField = "items"

type rawDraft struct {
	Name     string    `json:"name"`
	Price    flexFloat `json:"price"`
	Quantity flexFloat `json:"quantity"`
	Category string    `json:"category"`
	Expiry   string    `json:"expiry"`
	Emoji    string    `json:"emoji"`
}

// flexFloat accepts a JSON number or a numeric string such as "3.20" or "$3.20".
type flexFloat struct {
	v  float64
	ok bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		f.v, f.ok = n, true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	n, err := parseNumber(s)
	if err != nil {
		return err
	}
	f.v, f.ok = n, true
	return nil
}

// parseNumber accepts finite decimal text only; "NaN" and "Inf" are rejected.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£¥")
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return n, nil
}

// ParseDrafts turns an extraction payload into drafts. A top-level list is accepted, as is an
// object carrying the list under "items". Any other shape is an extraction failure.
func ParseDrafts(payload []byte, newID func() string) ([]domain.DraftItem, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrExtractionFailed)
	}

	var raws []rawDraft
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
		}
		list, ok := obj[ItemsField]
		if !ok || !bytes.HasPrefix(bytes.TrimSpace(list), []byte("[")) {
			return nil, fmt.Errorf("%w: payload has no %q list", domain.ErrExtractionFailed, ItemsField)
		}
		if err := json.Unmarshal(list, &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
		}
	default:
		return nil, fmt.Errorf("%w: payload is neither a list nor an object", domain.ErrExtractionFailed)
	}

	drafts := make([]domain.DraftItem, 0, len(raws))
	for _, r := range raws {
		drafts = append(drafts, r.toDraft(newID()))
	}
	return drafts, nil
}

func (r rawDraft) toDraft(id string) domain.DraftItem {
	d := domain.DraftItem{
		ID:       id,
		Name:     strings.TrimSpace(r.Name),
		Category: domain.NormalizeCategory(r.Category),
		Quantity: 1,
		Emoji:    strings.TrimSpace(r.Emoji),
	}
	if d.Name == "" {
		d.Name = BlankName
	}
	if r.Price.ok && r.Price.v > 0 {
		d.Price = math.Round(r.Price.v*100) / 100
	}
	if r.Quantity.ok && r.Quantity.v >= 1 {
		d.Quantity = int(math.Min(r.Quantity.v, MaxDraftQuantity))
	}
	if exp, err := entities.ParseDate(r.Expiry); err == nil {
		d.Expiry = &exp
	}
	if d.Emoji == "" {
		d.Emoji = domain.CategoryEmoji(d.Category)
	}
	return d
}
