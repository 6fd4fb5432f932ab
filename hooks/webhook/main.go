// Command webhook is an alert hook that forwards each alert to an HTTP
// endpoint. Build it into hooks/webhook/webhook next to hook.json.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Request represents the input from the hook executor.
type Request struct {
	Event  json.RawMessage `json:"event"`
	Config json.RawMessage `json:"config"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type config struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var cfg config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}
	if cfg.URL == "" {
		writeErrorResponse("config.url is required")
		return
	}

	timeout := 3 * time.Second
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			writeErrorResponse(fmt.Sprintf("invalid timeout: %v", err))
			return
		}
		timeout = d
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(cfg.URL, "application/json", bytes.NewReader(req.Event))
	if err != nil {
		writeErrorResponse(fmt.Sprintf("post failed: %v", err))
		return
	}
	resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		writeErrorResponse(fmt.Sprintf("endpoint returned %s", resp.Status))
		return
	}

	data, _ := json.Marshal(map[string]int{"status": resp.StatusCode})
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{
		Success: false,
		Error:   errMsg,
	})
}
