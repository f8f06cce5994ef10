package device

import (
	"context"
	"errors"
	"log"

	"sprinklex-server/entities"
)

// DefaultCandidates are tried after any cached URL: the controller's own
// access point address, then its mDNS name.
var DefaultCandidates = []string{"http://192.168.4.1", "http://sprinklex.local"}

var ErrDeviceNotFound = errors.New("Device not found. Make sure ESP8266 is powered on and connected to WiFi.")

// Discovery is a controller that answered during a scan.
type Discovery struct {
	Client *Client
	Info   *entities.DeviceInfo
	State  *entities.DeviceState
}

// Candidates puts cached first, then defaults, dropping blanks and repeats.
func Candidates(cached string, defaults []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(defaults)+1)
	for _, u := range append([]string{cached}, defaults...) {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// Discover tries each candidate in order and returns the first controller
// that answers a ping and serves its info and state.
func Discover(ctx context.Context, candidates []string, token string, opts ...Option) (*Discovery, error) {
	for _, u := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		client := NewClient(u, token, opts...)
		if !client.Ping(ctx) {
			log.Printf("discovery: no answer from %s", u)
			continue
		}
		info, err := client.DeviceInfo(ctx)
		if err != nil {
			log.Printf("discovery failed for %s: %v", u, err)
			continue
		}
		state, err := client.State(ctx)
		if err != nil {
			log.Printf("discovery failed for %s: %v", u, err)
			continue
		}
		return &Discovery{Client: client, Info: info, State: state}, nil
	}
	return nil, ErrDeviceNotFound
}
