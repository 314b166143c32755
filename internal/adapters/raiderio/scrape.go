package raiderio

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/mythra/keymates/pkg/logger"
)

// Pre-compiled page-wide patterns, tried in order over the raw page text.
// Tolerant of intervening markup, whitespace, and case.
var characterIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)CharacterID[^0-9]{0,20}(\d+)`),
	regexp.MustCompile(`(?is)"characterId"\s*:?\s*(\d+)`),
}

// scriptIDPattern is the fallback applied inside a single script block
// whose content is not valid JSON.
var scriptIDPattern = regexp.MustCompile(`(?i)characterId[^0-9]{0,20}(\d+)`)

// ResolveCharacterID turns a human-entered region/realm/name into the
// service's stable numeric character id by scraping the public profile page.
// There is no direct API lookup for this id.
func (c *Client) ResolveCharacterID(ctx context.Context, region, realm, name string) (int64, error) {
	target := c.baseURL + fmt.Sprintf(characterPagePath,
		url.PathEscape(region), url.PathEscape(realm), url.PathEscape(name), url.QueryEscape(c.season))

	page, err := c.get(ctx, endpointCharacterPage, target)
	if err != nil {
		return 0, err
	}

	for _, pattern := range characterIDPatterns {
		if match := pattern.FindSubmatch(page); match != nil {
			if id, err := strconv.ParseInt(string(match[1]), 10, 64); err == nil && id > 0 {
				c.logger.Debug(ctx, "character id matched on page text", logger.Int64("id", id))
				return id, nil
			}
		}
	}

	// Structured scan of embedded script blocks.
	doc, err := html.Parse(bytes.NewReader(page))
	if err == nil {
		if id := scanScripts(doc); id > 0 {
			c.logger.Debug(ctx, "character id found in script block", logger.Int64("id", id))
			return id, nil
		}
	}

	return 0, fmt.Errorf("%w: no extraction rule matched profile page for %s/%s/%s",
		ErrCharacterNotFound, region, realm, name)
}

// scanScripts walks the document tree and probes each script block that
// mentions the identifier: parse as JSON and read the field, or fall back
// to a scoped regex when the block is not valid JSON. The first block that
// yields an id wins; later blocks are not scanned.
func scanScripts(node *html.Node) int64 {
	if node.Type == html.ElementNode && node.Data == "script" {
		if id := probeScript(scriptText(node)); id > 0 {
			return id
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if id := scanScripts(child); id > 0 {
			return id
		}
	}
	return 0
}

// scriptText concatenates the text content of a script element.
func scriptText(node *html.Node) string {
	var text strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			text.WriteString(child.Data)
		}
	}
	return strings.TrimSpace(text.String())
}

// probeScript extracts a character id from one script block's text.
func probeScript(data string) int64 {
	if !strings.Contains(data, "characterId") {
		return 0
	}
	if gjson.Valid(data) {
		return gjson.Get(data, "characterId").Int()
	}
	if match := scriptIDPattern.FindStringSubmatch(data); match != nil {
		if id, err := strconv.ParseInt(match[1], 10, 64); err == nil {
			return id
		}
	}
	return 0
}
