package dgreeksslack

import (
	"context"
	"log"

	"github.com/bcdannyboy/dgreeks/positions"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

type SlackBot struct {
	client       *slack.Client
	socketClient *socketmode.Client
	eventHandler *Handler
	log          zerolog.Logger
}

func NewSlackBot(appToken, botToken string, eval *positions.Evaluator, defaults Defaults, l zerolog.Logger) *SlackBot {
	client := slack.New(
		botToken,
		slack.OptionAppLevelToken(appToken),
	)

	socketClient := socketmode.New(
		client,
		socketmode.OptionDebug(l.GetLevel() <= zerolog.DebugLevel),
		socketmode.OptionLog(log.New(l.With().Str("component", "socketmode").Logger(), "", 0)),
	)

	return &SlackBot{
		client:       client,
		socketClient: socketClient,
		eventHandler: NewHandler(eval, defaults, l),
		log:          l,
	}
}

// Start serves slash commands until ctx is cancelled.
func (sb *SlackBot) Start(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-sb.socketClient.Events:
				if !ok {
					return
				}
				switch evt.Type {
				case socketmode.EventTypeConnected:
					sb.log.Info().Msg("connected to slack")
				case socketmode.EventTypeSlashCommand:
					if err := sb.eventHandler.Handle(&evt, sb.socketClient); err != nil {
						sb.log.Error().Err(err).Msg("slash command failed")
					}
				}
			}
		}
	}()

	return sb.socketClient.RunContext(ctx)
}
