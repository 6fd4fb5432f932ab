package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioMessenger sends messages through the Messages API. WhatsApp numbers
// use the "whatsapp:+..." address form in From and To.
type TwilioMessenger struct {
	accountSID string
	from       string
	to         string

	client *twilio.RestClient
}

// NewTwilioMessenger creates a messenger with default sender and recipient.
func NewTwilioMessenger(sid, token, from, to string) (*TwilioMessenger, error) {
	if sid == "" || token == "" {
		return nil, ErrNotConfigured
	}
	return newTwilioMessenger(sid, token, from, to, defaultClient()), nil
}

func newTwilioMessenger(sid, token, from, to string, hc *http.Client) *TwilioMessenger {
	c := &twclient.Client{
		Credentials: twclient.NewCredentials(sid, token),
		HTTPClient:  hc,
	}
	c.SetAccountSid(sid)

	return &TwilioMessenger{
		accountSID: sid,
		from:       from,
		to:         to,
		client:     twilio.NewRestClientWithParams(twilio.ClientParams{Client: c}),
	}
}

// Send posts msg and returns the message SID. Empty From and To fall back
// to the messenger's defaults.
func (t *TwilioMessenger) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if msg.From == "" {
		msg.From = t.from
	}
	if msg.To == "" {
		msg.To = t.to
	}

	params := &twapi.CreateMessageParams{}
	params.SetPathAccountSid(t.accountSID)
	params.SetFrom(msg.From)
	params.SetTo(msg.To)
	params.SetBody(msg.Body)
	if msg.MediaURL != "" {
		params.SetMediaUrl([]string{msg.MediaURL})
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio send: %w", err)
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}
