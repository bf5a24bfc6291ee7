package services

import (
	"fmt"
	"html"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"eb5tracker/internal/models"
)

// StageNotifier is told when an investor's stage becomes completed.
type StageNotifier interface {
	StageCompleted(inv models.Investor, stage models.Stage, by *models.Identity) error
}

// tgSender is the part of tgbotapi.BotAPI the notifier uses.
type tgSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramService struct {
	bot    tgSender
	chatID int64
}

// NewTelegramService returns nil when the bot is not configured.
func NewTelegramService(botToken string, chatID int64) (*TelegramService, error) {
	if botToken == "" || chatID == 0 {
		log.Printf("[tg][skip] token or chatID empty (token? %v chatID=%d)", botToken != "", chatID)
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	log.Printf("[tg][init] authorized as @%s", bot.Self.UserName)
	return &TelegramService{bot: bot, chatID: chatID}, nil
}

func newTelegramServiceWithSender(bot tgSender, chatID int64) *TelegramService {
	return &TelegramService{bot: bot, chatID: chatID}
}

func (t *TelegramService) SendMessage(text string) error {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("[tg][send][err] chatID=%d: %v", t.chatID, err)
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	log.Printf("[tg][send] chatID=%d ok", t.chatID)
	return nil
}

func (t *TelegramService) StageCompleted(inv models.Investor, stage models.Stage, by *models.Identity) error {
	who := "local session"
	if by != nil {
		who = by.Name
		if who == "" {
			who = by.Email
		}
	}
	date := ""
	if stage.CompletedDate != nil {
		date = *stage.CompletedDate
	}
	text := fmt.Sprintf(
		"<b>%s</b> completed <b>%s</b> on %s\nProgress: %d/%d stages (%.1f%%)\nMarked by %s",
		html.EscapeString(inv.Name),
		html.EscapeString(stage.Name),
		html.EscapeString(date),
		models.CompletedCount(inv.Stages), len(inv.Stages),
		models.ProgressPercent(inv.Stages),
		html.EscapeString(who),
	)
	return t.SendMessage(text)
}
