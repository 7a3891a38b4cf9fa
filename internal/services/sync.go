package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gravadigital/nominations-api/internal/crm"
	"github.com/gravadigital/nominations-api/internal/domain/contact"
	"github.com/gravadigital/nominations-api/internal/domain/nominee"
	"github.com/gravadigital/nominations-api/internal/domain/outbox"
	"github.com/gravadigital/nominations-api/internal/storage/postgres"
)

// SyncTarget pairs one external system's outbox table with its sync client.
// The outbox is the durable delivery path; the syncer also serves the
// best-effort direct path.
type SyncTarget struct {
	Outbox postgres.OutboxRepository
	Syncer *crm.Syncer
}

// deliver replays one logical event against one external system using only
// the stored payload snapshot. Both the direct path and the outbox processor
// go through here so the two delivery attempts are interchangeable.
func deliver(ctx context.Context, syncer *crm.Syncer, eventType outbox.EventType, p *outbox.Payload) error {
	switch eventType {
	case outbox.EventNominationSubmitted:
		if p.Nominator == nil {
			return fmt.Errorf("payload for %s is missing the nominator snapshot", eventType)
		}
		if res := syncer.EnsureContact(ctx, p.Nominator.Email, contactAttributes(p.Nominator)); !res.Success {
			return errors.New(res.Error)
		}
		// Nominees without a contact email cannot be mirrored as contacts.
		if p.Nominee != nil && p.Nominee.Email != "" {
			if res := syncer.EnsureContact(ctx, p.Nominee.Email, nomineeAttributes(p.Nominee, p.LiveURL)); !res.Success {
				return errors.New(res.Error)
			}
		}
		return nil

	case outbox.EventNominationApproved:
		if p.Nominee != nil && p.Nominee.Email != "" {
			if res := syncer.EnsureContact(ctx, p.Nominee.Email, nomineeAttributes(p.Nominee, p.LiveURL)); !res.Success {
				return errors.New(res.Error)
			}
		}
		if p.Nominator != nil {
			attrs := contactAttributes(p.Nominator)
			if p.Nominee != nil {
				attrs["nominee_live_name"] = p.Nominee.DisplayName
			}
			attrs["nominee_live_url"] = p.LiveURL
			if res := syncer.EnsureContact(ctx, p.Nominator.Email, attrs); !res.Success {
				return errors.New(res.Error)
			}
		}
		return nil

	case outbox.EventVoteCast:
		if p.Voter == nil {
			return fmt.Errorf("payload for %s is missing the voter snapshot", eventType)
		}
		attrs := contactAttributes(p.Voter)
		attrs["voted"] = "true"
		attrs["voted_subcategory"] = p.SubcategoryID
		if res := syncer.EnsureContact(ctx, p.Voter.Email, attrs); !res.Success {
			return errors.New(res.Error)
		}
		return nil

	default:
		return fmt.Errorf("unknown event type: %s", eventType)
	}
}

func contactAttributes(c *outbox.ContactSnapshot) map[string]string {
	attrs := map[string]string{}
	put := func(key, value string) {
		if value != "" {
			attrs[key] = value
		}
	}
	put("first_name", c.FirstName)
	put("last_name", c.LastName)
	put("company", c.Company)
	put("title", c.Title)
	put("phone", c.Phone)
	put("country", c.Country)
	put("social_link", c.SocialLink)
	return attrs
}

func nomineeAttributes(n *outbox.NomineeSnapshot, liveURL string) map[string]string {
	attrs := map[string]string{
		"nominee_name": n.DisplayName,
		"nominee_type": n.Type,
	}
	put := func(key, value string) {
		if value != "" {
			attrs[key] = value
		}
	}
	put("title", n.Title)
	put("company", n.CompanyName)
	put("bio", n.Bio)
	put("why_vote", n.WhyVote)
	put("nominee_live_url", liveURL)
	return attrs
}

func snapshotContact(c *contact.Contact) *outbox.ContactSnapshot {
	return &outbox.ContactSnapshot{
		Email:      c.Email,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Company:    c.Company,
		Title:      c.Title,
		Phone:      c.Phone,
		Country:    c.Country,
		SocialLink: c.SocialLink,
	}
}

func snapshotNominee(n *nominee.Nominee) *outbox.NomineeSnapshot {
	return &outbox.NomineeSnapshot{
		Type:        string(n.Type),
		DisplayName: n.DisplayName(),
		Email:       n.Email,
		Title:       n.Title,
		CompanyName: n.CompanyName,
		Domain:      n.Domain,
		Bio:         n.Bio,
		WhyVote:     n.WhyVote,
	}
}
