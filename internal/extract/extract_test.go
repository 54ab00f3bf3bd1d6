package extract

import (
	"net/url"
	"reflect"
	"strings"
	"testing"
)

const samplePage = `<html>
<head>
  <title> Sample Page </title>
  <script>var tracking = "ignore me";</script>
  <style>body { color: red; }</style>
</head>
<body>
  <h1>Heading</h1>
  <p>Some body text with a <a href="/relative">relative link</a>
  and an <a href="https://other.example/page#section">absolute link</a>.</p>
  <a href="mailto:someone@example.org">mail</a>
  <a href="/relative">again</a>
</body>
</html>`

func TestParse(t *testing.T) {
	base, _ := url.Parse("https://site.example/dir/")

	page, err := Parse(strings.NewReader(samplePage), base)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if page.Title != "Sample Page" {
		t.Errorf("Title mis-extracted: %q", page.Title)
	}
	if strings.Contains(page.Text, "tracking") || strings.Contains(page.Text, "color: red") {
		t.Errorf("Script/style content leaked into text: %q", page.Text)
	}
	if !strings.Contains(page.Text, "Some body text") || !strings.Contains(page.Text, "Heading") {
		t.Errorf("Visible text missing: %q", page.Text)
	}

	want := []string{
		"https://site.example/relative",
		"https://other.example/page",
	}
	if !reflect.DeepEqual(page.ExternalURLs, want) {
		t.Errorf("Links mis-extracted:\n got %v\nwant %v", page.ExternalURLs, want)
	}
}

func TestParseWithoutLinks(t *testing.T) {
	page, err := Parse(strings.NewReader("<html><body><p>plain</p></body></html>"), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if page.Text != "plain" || len(page.ExternalURLs) != 0 {
		t.Errorf("Unexpected page: %+v", page)
	}
}
