package inverter

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const statusPath = "/status.html"

// Client fetches the inverter's embedded status page.
type Client struct {
	http *resty.Client
	log  logrus.FieldLogger
}

// NewClient builds a client for http://host with basic auth credentials.
func NewClient(host, user, password string, timeout time.Duration, log logrus.FieldLogger) *Client {
	rc := resty.New().
		SetBaseURL("http://"+host).
		SetBasicAuth(user, password).
		SetTimeout(timeout).
		SetLogger(restyLogger{log: log.WithField("source", "resty")})
	return &Client{http: rc, log: log}
}

// restyLogger sends resty's own messages (including its plain-HTTP basic auth
// warning) to trace level.
type restyLogger struct {
	log *logrus.Entry
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.log.Tracef(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.log.Tracef(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.log.Tracef(format, v...) }

// Fetch returns the raw status page. Failures are routine (the device drops
// connections now and then) and only logged at trace level.
func (c *Client) Fetch(ctx context.Context) (string, bool) {
	resp, err := c.http.R().SetContext(ctx).Get(statusPath)
	if err != nil {
		c.log.WithError(err).Trace("fetch status page")
		return "", false
	}
	if !resp.IsSuccess() {
		c.log.WithField("status", resp.Status()).Trace("unexpected status fetching status page")
		return "", false
	}
	return resp.String(), true
}
