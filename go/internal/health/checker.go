package health

import (
	"context"
	"encoding/json"
	"errors"
	"net"

	"github.com/reckman-cloud/employee-admin-app/go/clients"
	"github.com/reckman-cloud/employee-admin-app/go/internal/queue"
)

// HealthEndpoint is the path served by the API.
const HealthEndpoint = "/api/health"

// HTTPChecker calls a remote health endpoint.
type HTTPChecker struct {
	client *clients.BaseClient
}

func NewHTTPChecker(client *clients.BaseClient) *HTTPChecker {
	return &HTTPChecker{client: client}
}

// Check treats any response carrying a health body as an answer, so a 503 that says
// ok:false is degraded rather than an error.
func (c *HTTPChecker) Check(ctx context.Context) (queue.Snapshot, error) {
	body, err := c.client.Get(ctx, HealthEndpoint, nil)
	if err != nil {
		var se *clients.StatusError
		if errors.As(err, &se) {
			if snap, ok := parseSnapshot([]byte(se.Body)); ok {
				return snap, nil
			}
		}
		return queue.Snapshot{}, err
	}

	snap, ok := parseSnapshot(body)
	if !ok {
		return queue.Snapshot{}, errors.New("health response is not a health body")
	}
	return snap, nil
}

func parseSnapshot(body []byte) (queue.Snapshot, bool) {
	var probe struct {
		OK *bool `json:"ok"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || probe.OK == nil {
		return queue.Snapshot{}, false
	}
	var snap queue.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return queue.Snapshot{}, false
	}
	return snap, true
}

// GatewayChecker asks the queue directly, for in-process probes.
type GatewayChecker struct {
	gateway *queue.Gateway
}

func NewGatewayChecker(g *queue.Gateway) *GatewayChecker {
	return &GatewayChecker{gateway: g}
}

func (c *GatewayChecker) Check(ctx context.Context) (queue.Snapshot, error) {
	return c.gateway.Health(ctx), nil
}

// InterfaceConnectivity reports whether any non-loopback interface is up with an address.
func InterfaceConnectivity() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return true
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if addrs, err := iface.Addrs(); err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}
