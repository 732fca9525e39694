package feeds

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Tailscale lists tailnet devices through the public v2 API.
type Tailscale struct {
	tailnet string
	apiKey  string
	client  *http.Client
}

// Device is one node in the tailnet. Online is derived from LastSeen
// since the API does not report liveness directly.
type Device struct {
	Hostname string    `json:"hostname"`
	OS       string    `json:"os"`
	Addrs    []string  `json:"addresses"`
	LastSeen time.Time `json:"lastSeen"`
	Online   bool      `json:"online"`
}

type tailscaleDevicesResponse struct {
	Devices []struct {
		Hostname  string   `json:"hostname"`
		OS        string   `json:"os"`
		Addresses []string `json:"addresses"`
		LastSeen  string   `json:"lastSeen"`
	} `json:"devices"`
}

func (t *Tailscale) Devices(ctx context.Context) ([]Device, error) {
	tailnet := t.tailnet
	if tailnet == "" {
		tailnet = "-" // API alias for the key's default tailnet
	}
	endpoint := fmt.Sprintf("https://api.tailscale.com/api/v2/tailnet/%s/devices", tailnet)

	var resp tailscaleDevicesResponse
	headers := map[string]string{"Authorization": "Bearer " + t.apiKey}
	if err := getJSON(ctx, t.client, "Tailscale", endpoint, headers, &resp); err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(resp.Devices))
	for _, d := range resp.Devices {
		lastSeen := parseDate(d.LastSeen)
		devices = append(devices, Device{
			Hostname: d.Hostname,
			OS:       d.OS,
			Addrs:    d.Addresses,
			LastSeen: lastSeen,
			Online:   !lastSeen.IsZero() && time.Since(lastSeen) < 5*time.Minute,
		})
	}
	return devices, nil
}
