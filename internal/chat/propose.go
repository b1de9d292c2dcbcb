package chat

import (
	"fmt"

	"github.com/swapcircle/swapcircle-go/internal/models"
)

// Proposal is the content + metadata pair for an item-proposal message.
type Proposal struct {
	Content  string
	Snapshot models.ItemSnapshot
}

// NewProposal builds an item-proposal message from a wardrobe item. own
// selects the phrasing: offering one of my items versus asking about
// one of theirs. The snapshot freezes the item fields at proposal time
// so the message stays renderable if the item is later edited or
// removed; a missing image simply leaves ItemImage empty and the
// renderer degrades to text.
func NewProposal(item models.ItemSummary, own bool) Proposal {
	content := fmt.Sprintf("I'm interested in your %q — let's discuss?", item.Title)
	if own {
		content = fmt.Sprintf("I'd like to offer my %q for this swap!", item.Title)
	}

	snap := models.ItemSnapshot{
		ItemID:        item.ID,
		ItemTitle:     item.Title,
		ItemBrand:     item.Brand,
		ItemSize:      item.Size,
		ItemCondition: item.Condition,
	}
	if len(item.Images) > 0 {
		snap.ItemImage = item.Images[0]
	}

	return Proposal{Content: content, Snapshot: snap}
}
