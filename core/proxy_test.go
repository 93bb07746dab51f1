package core

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"envnotify/models"
	"envnotify/store"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<!DOCTYPE html><html><head><title>t</title></head><body style="margin:0"><p>hello</p></body></html>`

func newRuleStore(t *testing.T, rules ...models.Rule) *store.RuleStore {
	t.Helper()
	s := store.NewRuleStore(store.NewMemoryKV())
	require.NoError(t, s.Save(context.Background(), rules))
	return s
}

func htmlResponse(t *testing.T, body []byte, encoding string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "https://prod.example.com/page", nil)
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}
	if encoding != "" {
		resp.Header.Set("Content-Encoding", encoding)
	}
	return resp
}

func readDoc(t *testing.T, resp *http.Response) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

var prodRule = models.Rule{ID: "p1", URLPattern: "https://prod.", MatchType: models.MatchPrefix, Message: "PRODUCTION <careful>", BorderColor: "#ff0000", Order: 0}

func TestInjectBanner(t *testing.T) {
	rules := newRuleStore(t, prodRule)

	resp := InjectBanner(htmlResponse(t, []byte(testPage), ""), "https://prod.example.com/page", rules)
	doc := readDoc(t, resp)

	banner := doc.Find("#" + BannerID)
	require.Equal(t, 1, banner.Length())
	assert.Equal(t, "PRODUCTION <careful>", banner.Text())
	assert.True(t, banner.HasClass(BannerClass))
	assert.Contains(t, banner.AttrOr("style", ""), "background-color:#ff0000")

	bodyStyle := doc.Find("body").AttrOr("style", "")
	assert.Contains(t, bodyStyle, "margin:0;")
	assert.Contains(t, bodyStyle, "border:8px solid #ff0000")
	assert.Equal(t, 1, doc.Find("head style[data-envnotify-style]").Length())

	script := doc.Find("script[data-envnotify-teardown]")
	require.Equal(t, 1, script.Length())
	assert.Contains(t, script.Text(), "5000")
	assert.Contains(t, script.Text(), "300")
	assert.Contains(t, script.Text(), FadeOutClass)

	assert.Equal(t, "hello", doc.Find("p").Text())
	assert.Empty(t, resp.Header.Get("Content-Encoding"))
}

func TestInjectBannerDecodesCompressedBodies(t *testing.T) {
	rules := newRuleStore(t, prodRule)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(testPage))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, err = bw.Write([]byte(testPage))
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	for encoding, body := range map[string][]byte{"gzip": gz.Bytes(), "br": br.Bytes()} {
		t.Run(encoding, func(t *testing.T) {
			resp := InjectBanner(htmlResponse(t, body, encoding), "https://prod.example.com/", rules)
			assert.Empty(t, resp.Header.Get("Content-Encoding"))
			assert.True(t, resp.Uncompressed)
			out, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, int64(len(out)), resp.ContentLength)
			assert.Contains(t, string(out), `id="`+BannerID+`"`)
		})
	}
}

func TestInjectBannerPassThrough(t *testing.T) {
	rules := newRuleStore(t, prodRule)

	tests := []struct {
		name   string
		url    string
		mutate func(*http.Response)
	}{
		{name: "no rule matches", url: "https://dev.example.com/"},
		{name: "not html", url: "https://prod.example.com/", mutate: func(r *http.Response) { r.Header.Set("Content-Type", "application/json") }},
		{name: "non utf-8 charset", url: "https://prod.example.com/", mutate: func(r *http.Response) { r.Header.Set("Content-Type", "text/html; charset=shift_jis") }},
		{name: "redirect", url: "https://prod.example.com/", mutate: func(r *http.Response) { r.StatusCode = http.StatusFound }},
		{name: "unknown encoding", url: "https://prod.example.com/", mutate: func(r *http.Response) { r.Header.Set("Content-Encoding", "zstd") }},
		{name: "head request", url: "https://prod.example.com/", mutate: func(r *http.Response) { r.Request.Method = http.MethodHead }},
		{name: "no content", url: "https://prod.example.com/", mutate: func(r *http.Response) { r.StatusCode = http.StatusNoContent }},
		{name: "corrupt gzip", url: "https://prod.example.com/", mutate: func(r *http.Response) { r.Header.Set("Content-Encoding", "gzip") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := htmlResponse(t, []byte(testPage), "")
			if tt.mutate != nil {
				tt.mutate(resp)
			}
			out := InjectBanner(resp, tt.url, rules)
			body, err := io.ReadAll(out.Body)
			require.NoError(t, err)
			assert.Equal(t, testPage, string(body))
		})
	}
}

func TestInjectBannerReplacesStaleBanner(t *testing.T) {
	rules := newRuleStore(t, prodRule)
	page := `<html><head></head><body><div id="envnotify-banner">old</div></body></html>`

	doc := readDoc(t, InjectBanner(htmlResponse(t, []byte(page), ""), "https://prod.example.com/", rules))
	banner := doc.Find("#" + BannerID)
	require.Equal(t, 1, banner.Length())
	assert.Equal(t, "PRODUCTION <careful>", banner.Text())
}

func TestDocumentSurfaceLifecycle(t *testing.T) {
	surface, err := NewDocumentSurface(strings.NewReader("<p>bare fragment</p>"))
	require.NoError(t, err)

	clock := &manualClock{}
	p := NewPresenter(surface, WithClock(clock))
	require.NoError(t, p.Show(ruleA))
	b := p.Current()
	require.True(t, surface.Attached(b))

	clock.Advance(DwellDuration)
	out, err := surface.Render()
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	assert.True(t, doc.Find("#"+BannerID).HasClass(FadeOutClass))

	clock.Advance(FadeOutDuration)
	assert.False(t, surface.Attached(b))
	out, err = surface.Render()
	require.NoError(t, err)
	assert.NotContains(t, out, `id="`+BannerID+`"`)
	assert.NotContains(t, out, "data-envnotify-teardown")
	assert.Contains(t, out, "border:8px solid #ff0000")
}

func TestNotifyProxyEndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, testPage)
	}))
	defer upstream.Close()

	rules := newRuleStore(t, models.Rule{ID: "local", URLPattern: "127.0.0.1", MatchType: models.MatchContains, Message: "LOCAL", BorderColor: "#00ff00"})
	proxy := httptest.NewServer(NewNotifyProxy(rules, nil))
	defer proxy.Close()

	proxyURL, err := url.Parse(proxy.URL)
	require.NoError(t, err)
	client := &http.Client{Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)}}

	resp, err := client.Get(upstream.URL + "/index.html")
	require.NoError(t, err)
	defer resp.Body.Close()

	doc := readDoc(t, resp)
	assert.Equal(t, "LOCAL", doc.Find("#"+BannerID).Text())
	assert.Contains(t, doc.Find("body").AttrOr("style", ""), "#00ff00")
}
