package htmlpage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maltedev/brain-product-parser/internal/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `<html><body>
<div class="header-bottom-in"><input class="quick-search-input" value="old"></div>
<ul id="list">
	<li class="item"><a href="/a">First</a></li>
	<li class="item"><a href="/b">Second</a></li>
	<li class="item"><span>No link</span></li>
</ul>
<img id="with" src="/1.jpg"><img id="without">
</body></html>`

func newPage(t *testing.T) *Page {
	t.Helper()
	page, err := ParseString(doc, "https://brain.com.ua/")
	require.NoError(t, err)
	return page
}

func TestLocateXPathAndCSS(t *testing.T) {
	page := newPage(t)

	byXPath, err := page.Locate("xpath=//li[@class='item']").All()
	require.NoError(t, err)
	assert.Len(t, byXPath, 3)

	byCSS, err := page.Locate("#list li.item").All()
	require.NoError(t, err)
	assert.Len(t, byCSS, 3)

	bare, err := page.Locate("//li//a").All()
	require.NoError(t, err)
	assert.Len(t, bare, 2)
}

func TestChainedXPathIsRelative(t *testing.T) {
	page := newPage(t)

	items, err := page.Locate("css=li.item").All()
	require.NoError(t, err)
	require.Len(t, items, 3)

	links, err := items[0].Locate("xpath=//a").All()
	require.NoError(t, err)
	require.Len(t, links, 1, "//a under the first item must not match the second item's link")

	text, err := links[0].Text()
	require.NoError(t, err)
	assert.Equal(t, "First", text)
}

func TestFirstAndStrictMode(t *testing.T) {
	page := newPage(t)

	_, err := page.Locate("li.item a").Text()
	assert.ErrorContains(t, err, "strict mode violation")

	text, err := page.Locate("li.item a").First().Text()
	require.NoError(t, err)
	assert.Equal(t, "First", text)
}

func TestWaitVisibleMissingIsTimeout(t *testing.T) {
	page := newPage(t)

	err := page.Locate("xpath=//h1").WaitVisible(10 * time.Second)
	assert.True(t, driver.IsTimeout(err))

	assert.NoError(t, page.Locate("#list").WaitVisible(time.Second))
}

func TestAttribute(t *testing.T) {
	page := newPage(t)

	src, ok, err := page.Locate("#with").Attribute("src")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/1.jpg", src)

	_, ok, err = page.Locate("#without").Attribute("src")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = page.Locate("#missing").Attribute("src")
	assert.ErrorIs(t, err, driver.ErrNotFound)
}

func TestTypingAndActions(t *testing.T) {
	page := newPage(t)
	input := page.Locate("xpath=//div[contains(@class, 'header-bottom-in')]//input[@class='quick-search-input']")

	require.NoError(t, input.Clear())
	require.NoError(t, input.Type("Apple iPhone 15", 80*time.Millisecond))
	require.NoError(t, input.Click())
	require.NoError(t, page.Scroll(0, 700))

	value, ok, err := input.Attribute("value")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Apple iPhone 15", value)

	actions := page.Actions()
	require.Len(t, actions, 4)
	assert.Contains(t, actions[0], "clear")
	assert.Contains(t, actions[1], `"Apple iPhone 15"`)
	assert.Equal(t, "scroll 0,700", actions[3])
}

func TestNavigateOnlyToOwnURL(t *testing.T) {
	page := newPage(t)

	assert.NoError(t, page.Navigate("https://brain.com.ua/", driver.WaitNetworkIdle, time.Minute))
	assert.Error(t, page.Navigate("https://example.com/", driver.WaitNetworkIdle, time.Minute))
}

func TestLoadFileRoundTrip(t *testing.T) {
	page := newPage(t)
	content, err := page.Content()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snapshot.html")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file://"+path, loaded.URL())

	links, err := loaded.Locate("li.item a").All()
	require.NoError(t, err)
	assert.Len(t, links, 2)
}
