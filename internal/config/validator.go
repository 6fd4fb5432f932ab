package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for values the pipeline cannot run with.
func Validate(cfg *Config) error {
	var errs []error

	switch cfg.Capture.Backend {
	case "screen", "video":
	default:
		errs = append(errs, fmt.Errorf("capture.backend must be screen or video, got %q", cfg.Capture.Backend))
	}
	if cfg.Capture.Backend == "video" && cfg.Capture.Device == "" {
		errs = append(errs, errors.New("capture.device is required for the video backend"))
	}
	if cfg.Capture.Width <= 0 || cfg.Capture.Height <= 0 {
		errs = append(errs, fmt.Errorf("capture size must be positive, got %dx%d", cfg.Capture.Width, cfg.Capture.Height))
	}

	if cfg.Gesture.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("gesture.threshold must be positive, got %d", cfg.Gesture.Threshold))
	}
	if cfg.Gesture.Timeframe <= 0 {
		errs = append(errs, fmt.Errorf("gesture.timeframe must be positive, got %s", cfg.Gesture.Timeframe))
	}

	switch cfg.Violence.LoneFemaleRule {
	case "literal", "sole", "any":
	default:
		errs = append(errs, fmt.Errorf("violence.lone_female_rule must be literal, sole or any, got %q", cfg.Violence.LoneFemaleRule))
	}

	if cfg.Alert.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("alert.cooldown must not be negative, got %s", cfg.Alert.Cooldown))
	}
	if cfg.Alert.ViolenceLog == "" || cfg.Alert.GestureLog == "" {
		errs = append(errs, errors.New("alert.violence_log and alert.gesture_log are required"))
	}

	switch cfg.Alert.Storage.Provider {
	case "cloudinary":
		s := cfg.Alert.Storage
		if s.CloudName == "" || s.APIKey == "" || s.APISecret == "" {
			errs = append(errs, errors.New("cloudinary storage needs cloud_name, api_key and api_secret"))
		}
	case "local", "none":
	default:
		errs = append(errs, fmt.Errorf("alert.storage.provider must be cloudinary, local or none, got %q", cfg.Alert.Storage.Provider))
	}

	switch cfg.Alert.Messaging.Provider {
	case "twilio":
		m := cfg.Alert.Messaging
		if m.AccountSID == "" || m.AuthToken == "" || m.From == "" || m.To == "" {
			errs = append(errs, errors.New("twilio messaging needs account_sid, auth_token, from and to"))
		}
	case "mqtt":
		if cfg.Alert.Messaging.Broker == "" || cfg.Alert.Messaging.Topic == "" {
			errs = append(errs, errors.New("mqtt messaging needs broker and topic"))
		}
	case "log":
	default:
		errs = append(errs, fmt.Errorf("alert.messaging.provider must be twilio, mqtt or log, got %q", cfg.Alert.Messaging.Provider))
	}

	switch cfg.Display.Surface {
	case "window", "mjpeg", "none":
	default:
		errs = append(errs, fmt.Errorf("display.surface must be window, mjpeg or none, got %q", cfg.Display.Surface))
	}
	if cfg.Display.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("display.capacity must be positive, got %d", cfg.Display.Capacity))
	}
	if cfg.Display.Surface == "mjpeg" && !cfg.Server.Enabled {
		errs = append(errs, errors.New("display.surface mjpeg requires server.enabled"))
	}

	return errors.Join(errs...)
}
