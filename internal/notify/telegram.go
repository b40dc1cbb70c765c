package notify

import (
	"encoding/json"
	"fmt"

	"geocms/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramSender is the subset of tgbotapi.BotAPI the notifier uses.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier pushes workflow notifications into staff chats.
type TelegramNotifier struct {
	bot        TelegramSender
	staffChats []int64
	logger     *zerolog.Logger
}

func NewTelegramNotifier(bot TelegramSender, staffChats []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:        bot,
		staffChats: staffChats,
		logger:     logger,
	}
}

// NotifyStaff sends one message to every configured staff chat.
func (n *TelegramNotifier) NotifyStaff(text string) {
	for _, chatID := range n.staffChats {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("staff notification failed")
		}
	}
}

// SubscribeAll wires the notifier into the event bus. Staff chats see
// new submissions and reports; decision events are skipped since staff
// made them.
func (n *TelegramNotifier) SubscribeAll(bus *events.EventBus) {
	bus.Subscribe(events.EventBorrowSubmitted, n.onBorrowSubmitted)
	bus.Subscribe(events.EventBorrowCancelled, n.onBorrowCancelled)
	bus.Subscribe(events.EventReservationSubmitted, n.onReservationSubmitted)
	bus.Subscribe(events.EventReservationCancelled, n.onReservationCancelled)
	bus.Subscribe(events.EventIssueReported, n.onIssueReported)
	bus.Subscribe(events.EventIssueResolved, n.onIssueResolved)
}

func (n *TelegramNotifier) onBorrowSubmitted(event *events.Event) error {
	var p events.BorrowEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return err
	}
	n.NotifyStaff(fmt.Sprintf("New borrow request #%d: %s wants %d x %s (%s to %s)",
		p.RequestID, p.UserName, p.Quantity, p.ItemName,
		p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02")))
	return nil
}

func (n *TelegramNotifier) onBorrowCancelled(event *events.Event) error {
	var p events.BorrowEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return err
	}
	n.NotifyStaff(fmt.Sprintf("Borrow request #%d cancelled by %s (%s)",
		p.RequestID, p.UserName, p.ItemName))
	return nil
}

func (n *TelegramNotifier) onReservationSubmitted(event *events.Event) error {
	var p events.ReservationEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return err
	}
	n.NotifyStaff(fmt.Sprintf("New reservation #%d: %s wants %s on %s %s-%s",
		p.ReservationID, p.UserName, p.LabName,
		p.Date.Format("2006-01-02"), p.StartTime, p.EndTime))
	return nil
}

func (n *TelegramNotifier) onReservationCancelled(event *events.Event) error {
	var p events.ReservationEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return err
	}
	n.NotifyStaff(fmt.Sprintf("Reservation #%d cancelled by %s (%s on %s)",
		p.ReservationID, p.UserName, p.LabName, p.Date.Format("2006-01-02")))
	return nil
}

func (n *TelegramNotifier) onIssueReported(event *events.Event) error {
	var p events.IssueEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return err
	}
	location := p.LabName
	if p.Computer != "" {
		location = fmt.Sprintf("%s / %s", p.LabName, p.Computer)
	}
	n.NotifyStaff(fmt.Sprintf("New issue #%d in %s: %s (reported by %s)",
		p.IssueID, location, p.Title, p.ReporterName))
	return nil
}

func (n *TelegramNotifier) onIssueResolved(event *events.Event) error {
	var p events.IssueEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return err
	}
	n.NotifyStaff(fmt.Sprintf("Issue #%d resolved by %s: %s",
		p.IssueID, p.ActorName, p.Title))
	return nil
}
