package email

import (
	"context"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

// Notifier turns booking and staff events into emails.
type Notifier struct {
	sender    Sender
	templates *Templates
	from      string
	staffTo   string
}

var (
	_ ports.BookingNotifier = (*Notifier)(nil)
	_ ports.InviteMailer    = (*Notifier)(nil)
)

// NewNotifier sends from from; staff notifications go to staffTo.
func NewNotifier(sender Sender, templates *Templates, from, staffTo string) *Notifier {
	return &Notifier{
		sender:    sender,
		templates: templates,
		from:      from,
		staffTo:   staffTo,
	}
}

// NotifyStaff sends the new booking to the front desk. Replies go straight
// to the guest.
func (n *Notifier) NotifyStaff(ctx context.Context, c domain.BookingConfirmation) error {
	html, err := n.templates.Render(tplStaffBooking, c)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{
		From:    n.from,
		To:      []string{n.staffTo},
		ReplyTo: c.Booking.GuestEmail,
		Subject: "New Booking Request - " + c.Booking.GuestName,
		HTML:    html,
	})
}

func (n *Notifier) ConfirmGuest(ctx context.Context, c domain.BookingConfirmation) error {
	html, err := n.templates.Render(tplGuestBooking, c)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{
		From:    n.from,
		To:      []string{c.Booking.GuestEmail},
		ReplyTo: n.staffTo,
		Subject: "Booking Request Received - Mandioca Hostel",
		HTML:    html,
	})
}

func (n *Notifier) SendInvite(ctx context.Context, invite ports.Invite, link string) error {
	html, err := n.templates.Render(tplStaffInvite, struct {
		Name string
		Role domain.Role
		Link string
	}{invite.Name, invite.Role, link})
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{
		From:    n.from,
		To:      []string{invite.Email},
		Subject: "You're invited to the Mandioca Hostel back office",
		HTML:    html,
	})
}
