package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

const page = `<!DOCTYPE html>
<html>
<head>
  <title>Release &amp; Notes</title>
  <style>body { color: red; }</style>
</head>
<body>
  <script>alert("x")</script>
  <h1>Version 2</h1>
  <!-- internal -->
  <p>Adds <b>streaming</b>&nbsp;answers.<br>Fixes   crashes.</p>
  <ul><li>one</li><li>two</li></ul>
  <table><tr><td>a</td><td>b</td></tr></table>
</body>
</html>`

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".html", ".htm", ".xhtml"}, New().Extensions())
}

func TestNormalise(t *testing.T) {
	doc := domain.Document{URI: "/docs/notes.html", Title: "notes.html", Content: page}

	out, err := New().Normalise(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "Release & Notes", out.Title)
	assert.Equal(t, "html", out.Metadata["format"])
	assert.Equal(t, "Version 2\nAdds streaming answers.\nFixes crashes.\none\ntwo\na b", out.Content)
	assert.Nil(t, doc.Metadata)
}

func TestNormalise_NoTitle(t *testing.T) {
	doc := domain.Document{Title: "frag.html", Content: "<div>hello</div>"}

	out, err := New().Normalise(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "frag.html", out.Title)
	assert.Equal(t, "hello", out.Content)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "A B", Title("<TITLE>\n  A\n  B </TITLE>"))
	assert.Empty(t, Title("<title>  </title>"))
	assert.Empty(t, Title("<p>no title</p>"))
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "text only", input: "plain", want: "plain"},
		{name: "entities", input: "&lt;tag&gt; &quot;q&quot;", want: `<tag> "q"`},
		{name: "pre block", input: "<pre>code</pre>after", want: "code\nafter"},
		{name: "self closing break", input: "a<br/>b<hr />c", want: "a\nb\nc"},
		{name: "template hidden", input: "<template><p>x</p></template>shown", want: "shown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Strip(tt.input))
		})
	}
}
