package notify

import (
	"fmt"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/config"
)

// NewUploader builds the uploader named by cfg.Provider. "none" yields nil,
// which disables the upload step.
func NewUploader(cfg config.StorageConfig) (Uploader, error) {
	switch cfg.Provider {
	case "cloudinary":
		u, err := NewCloudinaryUploader(cfg.CloudName, cfg.APIKey, cfg.APISecret)
		if err != nil {
			return nil, err
		}
		return u, nil
	case "local", "":
		return LocalUploader{}, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// NewMessenger builds the messenger named by cfg.Provider. An MQTT
// messenger is connected before it is returned.
func NewMessenger(cfg config.MessagingConfig) (Messenger, error) {
	switch cfg.Provider {
	case "twilio":
		m, err := NewTwilioMessenger(cfg.AccountSID, cfg.AuthToken, cfg.From, cfg.To)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "mqtt":
		m := NewMQTTMessenger(cfg.Broker, cfg.ClientID, cfg.Topic)
		if err := m.Connect(); err != nil {
			return nil, err
		}
		return m, nil
	case "log", "":
		return LogMessenger{}, nil
	default:
		return nil, fmt.Errorf("unknown messaging provider %q", cfg.Provider)
	}
}
