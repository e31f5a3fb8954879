package parser

import (
	"reflect"
	"testing"

	"chatlogs/internal/domain"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>#musicbrainz 2015-03-01</title></head>
<body>
<h1>#musicbrainz</h1>
<dl>
  <dt><a href="#10:00" name="10:00">10:00</a> [alice]</dt>
  <dd>Hello World</dd>
  <dt><a href="#10:01" name="10:01">10:01</a> [bob]</dt>
  <dd>Hello <b>there</b> &amp; welcome</dd>
  <dt><a href="#10:02" name="10:02">10:02</a> [carol]</dt>
  <dd>see <a href="http://musicbrainz.org">http://musicbrainz.org</a></dd>
</dl>
<dl><dt><a>99:99</a> [ignored]</dt><dd>second list</dd></dl>
</body>
</html>`

func TestParse(t *testing.T) {
	triples, err := NewHTMLParser().Parse([]byte(samplePage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.Triple{
		{Timestamp: "10:00", Author: "alice", Text: "Hello World"},
		{Timestamp: "10:01", Author: "bob", Text: "Hello there & welcome"},
		{Timestamp: "10:02", Author: "carol", Text: "see http://musicbrainz.org"},
	}
	if !reflect.DeepEqual(triples, want) {
		t.Errorf("Parse() =\n%#v\nwant\n%#v", triples, want)
	}
}

func TestParse_NoDefinitionList(t *testing.T) {
	triples, err := NewHTMLParser().Parse([]byte("<html><body><p>No logs today</p></body></html>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(triples) != 0 {
		t.Errorf("expected no triples, got %v", triples)
	}
}

func TestParse_UnpairedEntriesDropped(t *testing.T) {
	page := `<dl>
<dt><a>10:00</a> [alice]</dt><dd>first</dd>
<dt><a>10:01</a> [bob]</dt>
</dl>`
	triples, err := NewHTMLParser().Parse([]byte(page))
	if err != nil {
		t.Fatal(err)
	}
	if len(triples) != 1 {
		t.Fatalf("expected 1 triple, got %d: %v", len(triples), triples)
	}
	if triples[0].Author != "alice" || triples[0].Text != "first" {
		t.Errorf("unexpected triple %+v", triples[0])
	}
}

func TestParse_AuthorWithoutLink(t *testing.T) {
	triples, err := NewHTMLParser().Parse([]byte(`<dl><dt>[dave]</dt><dd>hi</dd></dl>`))
	if err != nil {
		t.Fatal(err)
	}
	want := []domain.Triple{{Timestamp: "", Author: "dave", Text: "hi"}}
	if !reflect.DeepEqual(triples, want) {
		t.Errorf("Parse() = %#v, want %#v", triples, want)
	}
}
