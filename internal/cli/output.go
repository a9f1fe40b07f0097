package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"nomorewaste/domain"
	"nomorewaste/pkg/fridge"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeDrafts(w io.Writer, drafts []domain.DraftItem) {
	for _, d := range drafts {
		expiry := "-"
		if d.Expiry != nil {
			expiry = d.Expiry.String()
		}
		fmt.Fprintf(w, "%s %-24s x%-3d %8.2f  %-8s %s\n", d.Emoji, d.Name, d.Quantity, d.Price, d.Category, expiry)
	}
}

func snapshotLine(s fridge.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "items=%d wasted=%d consumed=%d", len(s.Items), len(s.Waste), len(s.Consumed))
	if n := len(s.Unconfirmed); n > 0 {
		fmt.Fprintf(&b, " unconfirmed=%d", n)
	}
	if len(s.Activity) > 0 {
		a := s.Activity[0]
		fmt.Fprintf(&b, " | %s %s %s", a.UserEmail, a.ActionType, a.ItemName)
	}
	return b.String()
}
