package dgreeksslack

import (
	"github.com/slack-go/slack"
)

const helpText = "Available commands:\n" +
	"/help - Show this help message\n" +
	"/greeks <call|put> <spot> <strike> <days> <vol> [rate] [dividend] - Price an option and report its greeks\n" +
	"  vol, rate and dividend are decimals or percentages, e.g. 0.25 or 25%"

type HelpHandler struct{}

func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

func (h *HelpHandler) HandleCommand(data slack.SlashCommand, p poster) error {
	_, _, err := p.PostMessage(data.ChannelID,
		slack.MsgOptionText(helpText, false))
	return err
}
