package telegram

import "gopkg.in/telebot.v3"

// Client sends messages to a Telegram chat. Team channels are group chats,
// so chatID may be negative.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
