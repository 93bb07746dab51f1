package core

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"envnotify/logger"
	"envnotify/store"

	"github.com/andybalholm/brotli"
	"github.com/elazarl/goproxy"
)

// HoldClock never fires, so a banner shown with it stays as drawn. The proxy uses it
// because the injected script owns the teardown once the page has left.
type HoldClock struct{}

func (HoldClock) AfterFunc(time.Duration, func()) {}

// NewNotifyProxy builds the intercepting proxy. When ca is non-nil HTTPS is intercepted
// with certificates minted from it; otherwise CONNECT tunnels pass through untouched.
func NewNotifyProxy(rules *store.RuleStore, ca *tls.Certificate) *goproxy.ProxyHttpServer {
	proxy := goproxy.NewProxyHttpServer()
	proxy.Logger = log.New(io.Discard, "", 0)

	if ca != nil {
		proxy.OnRequest().HandleConnect(goproxy.FuncHttpsHandler(func(host string, ctx *goproxy.ProxyCtx) (*goproxy.ConnectAction, string) {
			logger.ProxyDebug("HandleConnect for session %d, host %s", ctx.Session, host)
			return &goproxy.ConnectAction{Action: goproxy.ConnectMitm, TLSConfig: goproxy.TLSConfigFromCA(ca)}, host
		}))
	}

	proxy.OnResponse().DoFunc(func(resp *http.Response, ctx *goproxy.ProxyCtx) *http.Response {
		if resp == nil || ctx.Req == nil || ctx.Req.URL == nil {
			return resp
		}
		return InjectBanner(resp, ctx.Req.URL.String(), rules)
	})

	return proxy
}

// StartNotifyProxy loads the CA and serves the proxy on port until ctx is cancelled or
// the listener fails.
func StartNotifyProxy(ctx context.Context, port, caCertPath, caKeyPath string, rules *store.RuleStore) error {
	ca, err := LoadCA(caCertPath, caKeyPath)
	if err != nil {
		return fmt.Errorf("could not load CA certificate/key: %w. Please run 'proxy init-ca' or check config", err)
	}
	logger.ProxyInfo("CA certificate and key loaded from %s / %s", caCertPath, caKeyPath)

	server := &http.Server{Addr: ":" + port, Handler: NewNotifyProxy(rules, &ca)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.ProxyError("Notify proxy shutdown: %v", err)
		}
	}()

	logger.ProxyInfo("Notify proxy starting on :%s", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("notify proxy on :%s: %w", port, err)
	}
	logger.ProxyInfo("Notify proxy on :%s stopped", port)
	return nil
}

// InjectBanner returns resp with the winning rule's banner drawn into the page, or resp
// unchanged when the response is not an HTML page, nothing matches, or anything fails.
func InjectBanner(resp *http.Response, pageURL string, rules *store.RuleStore) *http.Response {
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !isUTF8HTML(resp.Header.Get("Content-Type")) {
		return resp
	}
	// These carry no body to draw into.
	if resp.StatusCode == http.StatusNoContent || (resp.Request != nil && resp.Request.Method == http.MethodHead) {
		return resp
	}
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	if !decodable(encoding) {
		logger.ProxyDebug("RESP: %s uses unsupported Content-Encoding %q, passing through", pageURL, encoding)
		return resp
	}

	list, err := rules.Load(requestContext(resp))
	if err != nil {
		logger.ProxyError("RESP: loading rules for %s: %v", pageURL, err)
		return resp
	}
	rule, ok := Select(pageURL, list)
	if !ok {
		return resp
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		logger.ProxyError("RESP: reading body of %s: %v", pageURL, err)
		resp.Body = io.NopCloser(bytes.NewReader(raw))
		return resp
	}
	restore := func() *http.Response {
		resp.Body = io.NopCloser(bytes.NewReader(raw))
		return resp
	}

	page, err := decodeBody(encoding, raw)
	if err != nil {
		logger.ProxyError("RESP: decoding %s body of %s: %v", encoding, pageURL, err)
		return restore()
	}

	surface, err := NewDocumentSurface(bytes.NewReader(page))
	if err != nil {
		logger.ProxyError("RESP: parsing %s: %v", pageURL, err)
		return restore()
	}
	if err := NewPresenter(surface, WithClock(HoldClock{})).Show(rule); err != nil {
		logger.ProxyError("RESP: showing banner on %s: %v", pageURL, err)
		return restore()
	}
	out, err := surface.Render()
	if err != nil {
		logger.ProxyError("RESP: rendering %s: %v", pageURL, err)
		return restore()
	}

	resp.Body = io.NopCloser(strings.NewReader(out))
	resp.ContentLength = int64(len(out))
	resp.Header.Del("Content-Encoding")
	resp.Header.Set("Content-Length", strconv.Itoa(len(out)))
	resp.Uncompressed = true
	logger.ProxyInfo("RESP: banner for rule %s (%q) injected into %s", rule.ID, rule.Message, pageURL)
	return resp
}

func requestContext(resp *http.Response) context.Context {
	if resp.Request != nil {
		return resp.Request.Context()
	}
	return context.Background()
}

func isUTF8HTML(contentType string) bool {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "text/html" {
		return false
	}
	charset := strings.ToLower(params["charset"])
	return charset == "" || charset == "utf-8" || charset == "utf8"
}

func decodable(encoding string) bool {
	switch encoding {
	case "", "identity", "gzip", "br":
		return true
	}
	return false
}

func decodeBody(encoding string, raw []byte) ([]byte, error) {
	switch encoding {
	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(raw)))
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	default:
		return raw, nil
	}
}
