package dgreeksslack

import (
	"fmt"

	"github.com/bcdannyboy/dgreeks/positions"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

// poster is the part of the Slack client the command handlers use.
type poster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

type Handler struct {
	helpHandler   *HelpHandler
	greeksHandler *GreeksHandler
	log           zerolog.Logger
}

func NewHandler(eval *positions.Evaluator, defaults Defaults, l zerolog.Logger) *Handler {
	return &Handler{
		helpHandler:   NewHelpHandler(),
		greeksHandler: NewGreeksHandler(eval, defaults),
		log:           l,
	}
}

func (h *Handler) Handle(evt *socketmode.Event, client *socketmode.Client) error {
	data, ok := evt.Data.(slack.SlashCommand)
	if !ok {
		return fmt.Errorf("unexpected slash command payload %T", evt.Data)
	}
	client.Ack(*evt.Request)
	return h.Dispatch(data, client)
}

// Dispatch runs the command named in data and posts its reply.
func (h *Handler) Dispatch(data slack.SlashCommand, p poster) error {
	h.log.Debug().Str("command", data.Command).Str("text", data.Text).Str("user", data.UserID).Msg("slash command")
	switch data.Command {
	case "/help":
		return h.helpHandler.HandleCommand(data, p)
	case "/greeks":
		return h.greeksHandler.HandleCommand(data, p)
	}
	return nil
}
