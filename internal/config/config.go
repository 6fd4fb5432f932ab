// Package config loads the YAML application configuration and the JSON
// region file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigLoadError is returned when a configuration file is missing, corrupt or
// unusable. It is fatal at startup.
type ConfigLoadError struct {
	Path string
	Err  error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("load config %s: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() error {
	return e.Err
}

// Config is the complete application configuration.
type Config struct {
	RegionsFile string         `yaml:"regions_file"`
	LogFormat   string         `yaml:"log_format"` // json or text
	Debug       bool           `yaml:"debug"`
	Capture     CaptureConfig  `yaml:"capture"`
	Vision      VisionConfig   `yaml:"vision"`
	Gesture     GestureConfig  `yaml:"gesture"`
	Violence    ViolenceConfig `yaml:"violence"`
	Alert       AlertConfig    `yaml:"alert"`
	Display     DisplayConfig  `yaml:"display"`
	Server      ServerConfig   `yaml:"server"`
	Store       StoreConfig    `yaml:"store"`
	Tray        TrayConfig     `yaml:"tray"`
}

// CaptureConfig selects where frames come from.
type CaptureConfig struct {
	Backend      string  `yaml:"backend"` // screen, video
	Device       string  `yaml:"device"`  // device index or stream URL for the video backend
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	MotionGate   bool    `yaml:"motion_gate"`
	MotionThresh float64 `yaml:"motion_threshold"`
}

// VisionConfig points at the external model processes.
type VisionConfig struct {
	SidecarCommand   []string `yaml:"sidecar_command"`
	HandsCommand     []string `yaml:"hands_command"`
	PersonConfidence float64  `yaml:"person_confidence"`
	HandConfidence   float64  `yaml:"hand_confidence"`
	TrackIoU         float64  `yaml:"track_iou"`
	TrackMaxAge      int      `yaml:"track_max_age"`
	SmoothingWindow  int      `yaml:"smoothing_window"`
}

// GestureConfig tunes the distress gesture state machine.
type GestureConfig struct {
	Threshold int           `yaml:"threshold"`
	Timeframe time.Duration `yaml:"timeframe"`
}

// ViolenceConfig tunes verdict rules.
type ViolenceConfig struct {
	LoneFemaleRule string `yaml:"lone_female_rule"`
}

// AlertConfig controls logging, evidence and outbound channels.
type AlertConfig struct {
	ViolenceLog  string          `yaml:"violence_log"`
	GestureLog   string          `yaml:"gesture_log"`
	EvidenceRoot string          `yaml:"evidence_root"`
	EvidenceExt  string          `yaml:"evidence_ext"`
	Cooldown     time.Duration   `yaml:"cooldown"`
	HooksDir     string          `yaml:"hooks_dir"`
	Storage      StorageConfig   `yaml:"storage"`
	Messaging    MessagingConfig `yaml:"messaging"`
}

// StorageConfig configures the object-storage channel.
type StorageConfig struct {
	Provider  string `yaml:"provider"` // cloudinary, local, none
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

// MessagingConfig configures the notification channel.
type MessagingConfig struct {
	Provider   string `yaml:"provider"` // twilio, mqtt, log
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	Broker     string `yaml:"broker"`
	Topic      string `yaml:"topic"`
	ClientID   string `yaml:"client_id"`
}

// DisplayConfig sizes the display queue and picks the surface.
type DisplayConfig struct {
	Surface    string        `yaml:"surface"` // window, mjpeg, none
	Capacity   int           `yaml:"capacity"`
	PutTimeout time.Duration `yaml:"put_timeout"`
	GetTimeout time.Duration `yaml:"get_timeout"`
}

// ServerConfig configures the HTTP status server.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// StoreConfig configures the sqlite alert mirror.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// TrayConfig enables the operator tray.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a Config with the values the pipeline was tuned with.
func Default() Config {
	return Config{
		RegionsFile: "regions.json",
		LogFormat:   "text",
		Capture: CaptureConfig{
			Backend:      "screen",
			Width:        640,
			Height:       480,
			MotionThresh: 1.0,
		},
		Vision: VisionConfig{
			SidecarCommand:   []string{"python3", "scripts/vision_service.py"},
			HandsCommand:     []string{"python3", "scripts/mediapipe_service.py"},
			PersonConfidence: 0.3,
			HandConfidence:   0.7,
			TrackIoU:         0.3,
			TrackMaxAge:      30,
		},
		Gesture: GestureConfig{
			Threshold: 3,
			Timeframe: 10 * time.Second,
		},
		Violence: ViolenceConfig{
			LoneFemaleRule: "literal",
		},
		Alert: AlertConfig{
			ViolenceLog:  "violence_log.csv",
			GestureLog:   "sos_gestures.csv",
			EvidenceRoot: ".",
			EvidenceExt:  "png",
			Storage:      StorageConfig{Provider: "local"},
			Messaging:    MessagingConfig{Provider: "log", Topic: "abhayam/alerts"},
		},
		Display: DisplayConfig{
			Surface:    "window",
			Capacity:   20,
			PutTimeout: 100 * time.Millisecond,
			GetTimeout: 100 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Store: StoreConfig{
			Path: "abhayam.db",
		},
	}
}

// Load reads a YAML configuration file on top of Default. An empty path
// returns the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ConfigLoadError{Path: path, Err: err}
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, &ConfigLoadError{Path: path, Err: fmt.Errorf("parse: %w", err)}
		}
	}

	applyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}

	return &cfg, nil
}

// applyEnv lets credentials come from the environment instead of the file.
func applyEnv(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"ABHAYAM_CLOUDINARY_CLOUD", &cfg.Alert.Storage.CloudName},
		{"ABHAYAM_CLOUDINARY_KEY", &cfg.Alert.Storage.APIKey},
		{"ABHAYAM_CLOUDINARY_SECRET", &cfg.Alert.Storage.APISecret},
		{"ABHAYAM_TWILIO_SID", &cfg.Alert.Messaging.AccountSID},
		{"ABHAYAM_TWILIO_TOKEN", &cfg.Alert.Messaging.AuthToken},
		{"ABHAYAM_MESSAGE_FROM", &cfg.Alert.Messaging.From},
		{"ABHAYAM_MESSAGE_TO", &cfg.Alert.Messaging.To},
		{"ABHAYAM_MQTT_BROKER", &cfg.Alert.Messaging.Broker},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			*o.dst = v
		}
	}
}
