package proxy

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"regexp"

	"github.com/rickgao/marketdash/internal/config"
	"github.com/rickgao/marketdash/internal/metrics"
)

// Rule is a compiled proxy rule.
type Rule struct {
	Pattern     *regexp.Regexp
	Target      *url.URL
	RewriteFrom *regexp.Regexp // nil leaves the path unchanged
	RewriteTo   string

	proxy *httputil.ReverseProxy
}

// Rewrite returns path with the first match of RewriteFrom replaced.
func (r *Rule) Rewrite(path string) string {
	if r.RewriteFrom == nil {
		return path
	}
	loc := r.RewriteFrom.FindStringSubmatchIndex(path)
	if loc == nil {
		return path
	}
	var dst []byte
	dst = r.RewriteFrom.ExpandString(dst, r.RewriteTo, path, loc)
	return path[:loc[0]] + string(dst) + path[loc[1]:]
}

// Proxy dispatches requests to the first matching rule.
type Proxy struct {
	rules   []*Rule
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New compiles rules.
func New(rules []config.ProxyRule, logger *slog.Logger, m *metrics.Metrics) (*Proxy, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.Default
	}

	p := &Proxy{logger: logger, metrics: m}
	for i, rc := range rules {
		rule, err := p.compile(rc)
		if err != nil {
			return nil, fmt.Errorf("proxy rule %d: %w", i, err)
		}
		p.rules = append(p.rules, rule)
	}
	return p, nil
}

func (p *Proxy) compile(rc config.ProxyRule) (*Rule, error) {
	pattern, err := regexp.Compile(rc.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	target, err := url.Parse(rc.Target)
	if err != nil {
		return nil, fmt.Errorf("parse target: %w", err)
	}

	rule := &Rule{Pattern: pattern, Target: target}
	if rc.Rewrite != nil {
		rule.RewriteFrom, err = regexp.Compile(rc.Rewrite.From)
		if err != nil {
			return nil, fmt.Errorf("compile rewrite: %w", err)
		}
		rule.RewriteTo = rc.Rewrite.To
	}

	rule.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = rule.Rewrite(pr.In.URL.Path)
			pr.Out.URL.RawPath = ""
			// SetURL also drops the inbound Host, so the target sees its own.
			pr.SetURL(rule.Target)
			pr.SetXForwarded()
			p.logger.Info("proxy request",
				"method", pr.In.Method,
				"path", pr.In.URL.Path,
				"upstream", pr.Out.URL.String(),
			)
		},
		ModifyResponse: func(resp *http.Response) error {
			p.metrics.RecordProxy(false)
			p.logger.Info("proxy response",
				"status", resp.StatusCode,
				"path", resp.Request.URL.Path,
			)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			p.metrics.RecordProxy(true)
			p.logger.Error("proxy error", "path", r.URL.Path, "error", err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	return rule, nil
}

// Match returns the first rule matching path, or nil.
func (p *Proxy) Match(path string) *Rule {
	for _, r := range p.rules {
		if r.Pattern.MatchString(path) {
			return r
		}
	}
	return nil
}

// Rules returns the compiled rules in match order.
func (p *Proxy) Rules() []*Rule {
	return p.rules
}

// Middleware proxies matching requests and passes the rest to next.
func (p *Proxy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rule := p.Match(r.URL.Path); rule != nil {
			rule.proxy.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
