package whatsapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/core"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSender delivers WhatsApp messages through the Twilio Messages API.
type TwilioSender struct {
	api  messageCreator
	from string
}

var _ core.MessageSender = (*TwilioSender)(nil)

func NewTwilioSender(accountSID, authToken, fromNumber string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return nil, errors.New("twilio account sid, auth token and sender number are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilioSender(client.Api, fromNumber), nil
}

func newTwilioSender(api messageCreator, fromNumber string) *TwilioSender {
	return &TwilioSender{api: api, from: WithChannelPrefix(fromNumber)}
}

// Send delivers body to a bare phone number. The Twilio client does not take
// a context, so cancellation is only checked before the call.
func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(WithChannelPrefix(to))
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio create message: %w", err)
	}

	sid := ""
	if msg != nil && msg.Sid != nil {
		sid = *msg.Sid
	}
	utils.Zlog.Info("WhatsApp message sent", zap.String("to", to), zap.String("sid", sid))
	return sid, nil
}
