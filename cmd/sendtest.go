package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/api/channels/whatsapp"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

func newSendTestCmd() *cobra.Command {
	var to, body string

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Send a WhatsApp message through Twilio to check credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := loadConfig()
			if err != nil {
				return err
			}
			defer cleanup()

			if to == "" {
				to = cfg.DefaultRecipient
			}
			if to == "" {
				return errors.New("no recipient: pass --to or set TO_NUMBER")
			}

			sender, err := whatsapp.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioNumber)
			if err != nil {
				return err
			}

			sid, err := sender.Send(cmd.Context(), whatsapp.StripChannelPrefix(to), body)
			if err != nil {
				return err
			}
			utils.Zlog.Info("Test message sent", zap.String("sid", sid))
			cmd.Printf("sent %s\n", sid)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient phone number (defaults to TO_NUMBER)")
	cmd.Flags().StringVar(&body, "body", "Hello from lightning-whatsapp!", "message text")
	return cmd
}
