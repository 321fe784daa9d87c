package midtrans

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	mt "github.com/midtrans/midtrans-go"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultFrontendURL = "http://localhost:3000"
)

type Config struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
	// 未設定時使用 SDK 依環境決定的官方網址，設定後改打指定位址 (例如 mock gateway)
	SnapBaseURL string
	CoreBaseURL string
	// 付款完成後導回前端
	FrontendURL string
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.FrontendURL == "" {
		c.FrontendURL = defaultFrontendURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	c.SnapBaseURL = strings.TrimRight(c.SnapBaseURL, "/")
	c.CoreBaseURL = strings.TrimRight(c.CoreBaseURL, "/")
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
	return c
}

func (c Config) environment() mt.EnvironmentType {
	if c.IsProduction {
		return mt.Production
	}
	return mt.Sandbox
}

// endpointOverride 把 SDK 固定的官方 host 導向設定的位址
type endpointOverride struct {
	next    http.RoundTripper
	targets map[string]*url.URL
}

func (t *endpointOverride) RoundTrip(req *http.Request) (*http.Response, error) {
	target, ok := t.targets[req.URL.Host]
	if !ok {
		return t.next.RoundTrip(req)
	}
	out := req.Clone(req.Context())
	out.URL.Scheme = target.Scheme
	out.URL.Host = target.Host
	out.URL.Path = target.Path + req.URL.Path
	out.URL.RawPath = ""
	out.Host = target.Host
	return t.next.RoundTrip(out)
}

// withEndpointOverride 沒有任何覆寫時原樣回傳，否則複製一份 http.Client 換掉 Transport
func withEndpointOverride(client *http.Client, env mt.EnvironmentType, snapBaseURL, coreBaseURL string) *http.Client {
	targets := make(map[string]*url.URL)
	add := func(official, override string) {
		if override == "" {
			return
		}
		from, err := url.Parse(official)
		if err != nil {
			return
		}
		to, err := url.Parse(override)
		if err != nil || to.Host == "" {
			return
		}
		to.Path = strings.TrimRight(to.Path, "/")
		targets[from.Host] = to
	}
	add(env.SnapURL(), snapBaseURL)
	add(env.BaseUrl(), coreBaseURL)
	if len(targets) == 0 {
		return client
	}

	next := client.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	cp := *client
	cp.Transport = &endpointOverride{next: next, targets: targets}
	return &cp
}
