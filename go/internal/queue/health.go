package queue

import (
	"context"
	"net/url"
	"strings"
)

// Snapshot is the queue health report. It is recomputed on every probe and never stored.
type Snapshot struct {
	OK                      bool         `json:"ok"`
	QueueName               *string      `json:"queueName"`
	ApproximateMessageCount *int64       `json:"approximateMessageCount"`
	Reason                  *string      `json:"reason"`
	Connection              ConnInfo     `json:"connection"`
	Diagnostics             *Diagnostics `json:"diagnostics,omitempty"`
}

// ConnInfo describes the configured connection without secrets.
type ConnInfo struct {
	URL            string `json:"url,omitempty"`
	CredentialType string `json:"credentialType,omitempty"`
}

type Diagnostics struct {
	Message string `json:"message"`
}

// Health reports whether the queue exists and, if so, an approximate message count.
func (g *Gateway) Health(ctx context.Context) Snapshot {
	snap := Snapshot{Connection: g.connInfo()}
	if g.cfg.Name != "" {
		name := g.cfg.Name
		snap.QueueName = &name
	}

	fail := func(reason string, err error) Snapshot {
		snap.Reason = &reason
		if err != nil {
			snap.Diagnostics = &Diagnostics{Message: g.redact(err.Error())}
		}
		return snap
	}

	b, err := g.connect(ctx)
	if err != nil {
		if IsReason(err, ReasonMissingConfig) {
			return fail(ReasonMissingConfig, nil)
		}
		return fail(ReasonConnectionFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	exists, err := b.Exists(ctx)
	if err != nil {
		return fail(ReasonConnectionFailed, err)
	}
	if !exists {
		return fail(ReasonQueueNotFound, nil)
	}

	count, err := b.ApproximateCount(ctx)
	if err != nil {
		return fail(ReasonConnectionFailed, err)
	}
	snap.OK = true
	snap.ApproximateMessageCount = &count
	return snap
}

func (g *Gateway) connInfo() ConnInfo {
	info := ConnInfo{URL: redactURL(g.cfg.URL)}
	switch {
	case g.cfg.CredsFile != "":
		info.CredentialType = "creds-file"
	case strings.Contains(g.cfg.URL, "@"):
		info.CredentialType = "url-userinfo"
	}
	return info
}

// redact strips the raw connection URL from messages; it may carry credentials.
func (g *Gateway) redact(msg string) string {
	if g.cfg.URL == "" {
		return msg
	}
	return strings.ReplaceAll(msg, g.cfg.URL, redactURL(g.cfg.URL))
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	var parts []string
	for _, s := range strings.Split(raw, ",") {
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil {
			parts = append(parts, "[redacted]")
			continue
		}
		parts = append(parts, u.Redacted())
	}
	return strings.Join(parts, ",")
}
