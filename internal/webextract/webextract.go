// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package webextract fetches a web page and reduces it to its readable
// text, which the narrative stage uses as source material.
package webextract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultMaxChars bounds the text handed to the prompt.
	DefaultMaxChars = 12000
	defaultTimeout  = 20 * time.Second
	maxBodySize     = 5 << 20
)

// chrome lists elements that never carry article text.
const chrome = "script, style, nav, footer, header, aside, form, iframe, noscript, svg, " +
	".sidebar, #sidebar, .ad, .advertisement, .popup, .modal, .cookie-banner"

// contentSelectors are tried in order; the first with text wins.
var contentSelectors = []string{
	"article", "main", "[role='main']",
	".entry-content", ".post-content", ".post-body", ".article-body",
	".content", "#content",
}

const blocks = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre"

// ErrBlockedAddress means the URL, or a redirect it led to, resolved to
// a loopback, private, link-local or otherwise non-public address.
var ErrBlockedAddress = errors.New("webextract: address not allowed")

// sharedAddrSpace is the carrier-grade NAT range (RFC 6598).
var sharedAddrSpace = netip.MustParsePrefix("100.64.0.0/10")

// publicAddr reports whether ip may be fetched on behalf of a user.
func publicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsValid() &&
		!ip.IsLoopback() &&
		!ip.IsPrivate() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsInterfaceLocalMulticast() &&
		!ip.IsMulticast() &&
		!ip.IsUnspecified() &&
		!sharedAddrSpace.Contains(ip)
}

// dialPublic runs after DNS resolution for every connection, redirects
// included, and refuses non-public targets.
func dialPublic(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || !publicAddr(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	return nil
}

// Page is the readable part of a web page.
type Page struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Extractor fetches pages over HTTP.
type Extractor struct {
	httpClient *http.Client
	maxChars   int
}

// New creates an extractor. Zero values select the defaults.
func New(timeout time.Duration, maxChars int) *Extractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: dialPublic}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &Extractor{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		maxChars:   maxChars,
	}
}

// Extract downloads rawURL and returns its title and text. Only public
// addresses are fetched.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("webextract: invalid url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("webextract: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Postforge/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webextract: fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("webextract: fetch %s: status %d", u.Host, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("webextract: parse: %w", err)
	}

	page := &Page{URL: u.String(), Title: title(doc)}
	doc.Find(chrome).Remove()
	page.Text = truncate(text(doc), e.maxChars)
	if page.Text == "" {
		return nil, fmt.Errorf("webextract: no readable text at %s", u.Host)
	}
	return page, nil
}

func title(doc *goquery.Document) string {
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if t := strings.TrimSpace(doc.Find("head title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func text(doc *goquery.Document) string {
	for _, sel := range contentSelectors {
		if t := collect(doc.Find(sel).First()); t != "" {
			return t
		}
	}
	return collect(doc.Find("body"))
}

// collect joins the block-level text under s, one paragraph per block.
func collect(s *goquery.Selection) string {
	var paras []string
	s.Find(blocks).Each(func(_ int, item *goquery.Selection) {
		if t := strings.Join(strings.Fields(item.Text()), " "); t != "" {
			paras = append(paras, t)
		}
	})
	return strings.Join(paras, "\n\n")
}

// truncate cuts s to at most max runes on a word boundary.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	cut := string([]rune(s)[:max])
	if i := strings.LastIndexAny(cut, " \n"); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
