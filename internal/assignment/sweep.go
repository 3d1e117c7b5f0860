package assignment

import (
	"context"
	"fmt"

	"github.com/tessera-hq/tessera/internal/docstore"
)

// Violation describes one breach of the symmetric-link invariant.
type Violation struct {
	EventID       string
	StakeholderID string
	Detail        string
}

func (v Violation) String() string {
	return fmt.Sprintf("event=%s stakeholder=%s: %s", v.EventID, v.StakeholderID, v.Detail)
}

// Sweep cross-checks the three collections and reports every asymmetry:
// a side of the link without its mirror, or a junction record that
// disagrees with the linked documents. It repairs nothing; the report is
// for operators, since a violation means a batch bypassed this package.
func (s *Service) Sweep(ctx context.Context) ([]Violation, error) {
	eventDocs, err := s.store.List(ctx, docstore.CollectionEvents)
	if err != nil {
		return nil, err
	}
	stakeholderDocs, err := s.store.List(ctx, docstore.CollectionStakeholders)
	if err != nil {
		return nil, err
	}
	linkDocs, err := s.store.List(ctx, docstore.CollectionLinks)
	if err != nil {
		return nil, err
	}

	eventSide := make(map[string]map[string]bool, len(eventDocs))
	for _, doc := range eventDocs {
		members := make(map[string]bool)
		for _, id := range docstore.StringSlice(doc.Fields["stakeholder_ids"]) {
			members[id] = true
		}
		eventSide[doc.ID] = members
	}
	stakeholderSide := make(map[string]map[string]bool, len(stakeholderDocs))
	for _, doc := range stakeholderDocs {
		members := make(map[string]bool)
		for _, id := range docstore.StringSlice(doc.Fields["event_ids"]) {
			members[id] = true
		}
		stakeholderSide[doc.ID] = members
	}
	junction := make(map[string]bool, len(linkDocs))
	for _, doc := range linkDocs {
		junction[doc.ID] = true
	}

	var out []Violation
	for eventID, members := range eventSide {
		for stakeholderID := range members {
			if !stakeholderSide[stakeholderID][eventID] {
				out = append(out, Violation{eventID, stakeholderID, "event lists stakeholder but stakeholder does not list event"})
			}
			if !junction[LinkID(eventID, stakeholderID)] {
				out = append(out, Violation{eventID, stakeholderID, "link has no junction record"})
			}
		}
	}
	for stakeholderID, members := range stakeholderSide {
		for eventID := range members {
			if !eventSide[eventID][stakeholderID] {
				out = append(out, Violation{eventID, stakeholderID, "stakeholder lists event but event does not list stakeholder"})
			}
		}
	}
	for _, doc := range linkDocs {
		eventID := docstore.String(doc.Fields["event_id"])
		stakeholderID := docstore.String(doc.Fields["stakeholder_id"])
		if !eventSide[eventID][stakeholderID] || !stakeholderSide[stakeholderID][eventID] {
			out = append(out, Violation{eventID, stakeholderID, "junction record without a live link"})
		}
	}
	return out, nil
}
