package core

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const bannerStyleMarker = "data-envnotify-style"

var bannerStylesheet = fmt.Sprintf(`<style %s>
.%[2]s{position:fixed;top:0;left:0;right:0;z-index:2147483647;padding:12px 16px;color:#fff;font:bold 16px/1.4 sans-serif;text-align:center;box-shadow:0 2px 6px rgba(0,0,0,.3);opacity:1;transition:opacity %[3]dms ease-out}
.%[2]s.%[4]s{opacity:0}
</style>`, bannerStyleMarker, BannerClass, FadeOutDuration.Milliseconds(), FadeOutClass)

// Runs the same dwell and fade-out in the browser once the page has left the proxy.
var bannerScript = fmt.Sprintf(`<script data-envnotify-teardown>(function(){var b=document.getElementById(%q);if(!b)return;setTimeout(function(){if(!b.isConnected)return;b.classList.add(%q);setTimeout(function(){b.remove();},%d);},%d);})();</script>`,
	BannerID, FadeOutClass, FadeOutDuration.Milliseconds(), DwellDuration.Milliseconds())

// DocumentSurface draws banners into a parsed HTML document.
type DocumentSurface struct {
	doc   *goquery.Document
	nodes map[*Banner]*goquery.Selection
}

// NewDocumentSurface parses r as HTML. Missing html/head/body elements are synthesized.
func NewDocumentSurface(r io.Reader) (*DocumentSurface, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html document: %w", err)
	}
	return &DocumentSurface{doc: doc, nodes: make(map[*Banner]*goquery.Selection)}, nil
}

func (d *DocumentSurface) SetPageBorder(widthPx int, color string) {
	body := d.doc.Find("body").First()
	style := strings.TrimSpace(body.AttrOr("style", ""))
	if style != "" && !strings.HasSuffix(style, ";") {
		style += ";"
	}
	style += fmt.Sprintf("border:%dpx solid %s;box-sizing:border-box;", widthPx, color)
	body.SetAttr("style", style)
}

func (d *DocumentSurface) Append(b *Banner) error {
	body := d.doc.Find("body").First()
	if body.Length() == 0 {
		return fmt.Errorf("document has no body element")
	}

	// A banner left over from an earlier injection is replaced, never stacked.
	d.doc.Find("#" + b.ID).Remove()
	d.doc.Find("script[data-envnotify-teardown]").Remove()

	if d.doc.Find("style["+bannerStyleMarker+"]").Length() == 0 {
		head := d.doc.Find("head").First()
		if head.Length() > 0 {
			head.AppendHtml(bannerStylesheet)
		} else {
			body.PrependHtml(bannerStylesheet)
		}
	}

	body.AppendHtml(fmt.Sprintf(`<div id="%s" class="%s" style="background-color:%s">%s</div>`,
		html.EscapeString(b.ID), BannerClass, html.EscapeString(b.Background), html.EscapeString(b.Message)))
	node := body.ChildrenFiltered("#" + b.ID).Last()
	if node.Length() == 0 {
		return fmt.Errorf("banner %s not found after append", b.ID)
	}
	body.AppendHtml(bannerScript)

	d.nodes[b] = node
	return nil
}

func (d *DocumentSurface) AddClass(b *Banner, class string) {
	if node, ok := d.nodes[b]; ok {
		node.AddClass(class)
	}
}

func (d *DocumentSurface) Remove(b *Banner) {
	node, ok := d.nodes[b]
	if !ok {
		return
	}
	node.Remove()
	d.doc.Find("script[data-envnotify-teardown]").Remove()
	delete(d.nodes, b)
}

func (d *DocumentSurface) Attached(b *Banner) bool {
	node, ok := d.nodes[b]
	return ok && node.Length() > 0 && node.Get(0).Parent != nil
}

// Render serializes the document, doctype included.
func (d *DocumentSurface) Render() (string, error) {
	return d.doc.Html()
}
