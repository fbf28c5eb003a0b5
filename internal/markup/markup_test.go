package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<h1>Post</h1>
<p>See <a href="notes.pdf">the <em>notes</em></a> and <a href="https://example.org">a site</a>.</p>
<p><img src="photo.jpg" alt="A photo" class="wide framed"></p>
<p><img data-src="//cdn.example.org/x.png"/></p>
<p><a name="anchor-only">no href</a></p>`

func TestExtract(t *testing.T) {
	refs, err := Extract(sample)
	require.NoError(t, err)

	assert.Equal(t, []Anchor{
		{Href: "notes.pdf", Text: "the notes"},
		{Href: "https://example.org", Text: "a site"},
	}, refs.Anchors)
	assert.Equal(t, []Image{
		{Src: "photo.jpg", Alt: "A photo", Classes: []string{"wide", "framed"}},
		{Src: "//cdn.example.org/x.png"},
	}, refs.Images)
}

func TestExtract_UnclosedAnchorAtEOF(t *testing.T) {
	refs, err := Extract(`<a href="a.txt">dangling`)
	require.NoError(t, err)
	assert.Equal(t, []Anchor{{Href: "a.txt", Text: "dangling"}}, refs.Anchors)
}

func TestRewriteImages_KeepsEverythingElse(t *testing.T) {
	out, err := RewriteImages(sample, func(img Image) (string, bool) {
		if IsExternal(img.Src) {
			return LazyExternal(img.Src), true
		}
		return "", false
	})
	require.NoError(t, err)

	want := strings.Replace(sample, `<img data-src="//cdn.example.org/x.png"/>`,
		`<img data-src="//cdn.example.org/x.png" class="lazyload" />`, 1)
	assert.Equal(t, want, out)
}

func TestResponsiveHTML(t *testing.T) {
	r := Responsive{
		Width:       600,
		Height:      400,
		Placeholder: "photo-48px.jpg",
		Default:     "photo-600px.jpg",
		SrcSet:      []SrcSetEntry{{"photo-500px.jpg", 500}, {"photo-600px.jpg", 600}},
		Classes:     []string{"wide"},
		Alt:         `A "quoted" photo`,
	}
	assert.Equal(t,
		`<img style="max-width: 600px; max-height: 400px;" src="photo-48px.jpg" data-src="photo-600px.jpg" data-sizes="auto" data-srcset="photo-500px.jpg 500w,photo-600px.jpg 600w" class="lazyload lqip-blur wide" alt="A &#34;quoted&#34; photo"/>`,
		r.HTML())
}

func TestIsExternalAndLocal(t *testing.T) {
	for _, ref := range []string{"http://a", "https://a", "//cdn/a.png"} {
		assert.True(t, IsExternal(ref), ref)
		assert.False(t, IsLocalFile(ref), ref)
	}
	for _, href := range []string{"#top", "/about/", "mailto:me@example.org", "tel:123", "", "?q=1"} {
		assert.False(t, IsLocalFile(href), href)
	}
	for _, href := range []string{"notes.pdf", "files/data.csv", "../shared/a.zip"} {
		assert.True(t, IsLocalFile(href), href)
	}
}

func TestMetaTags(t *testing.T) {
	cases := []struct {
		name      string
		doc       string
		source    string
		hasImages bool
		want      []string
	}{
		{"plain", "<p>hi</p>", "hi", false, nil},
		{"inline math", `<p>\(x^2\)</p>`, "", false, []string{MetaMath}},
		{"display math", `<p>\[x\]</p>`, "", false, []string{MetaMath}},
		{"math only in source", `<p>(x^2)</p>`, `\(x^2\)`, false, []string{MetaMath}},
		{"code", `<pre><code class="go">x</code></pre>`, "", false, []string{MetaCode}},
		{"image", `<img src="a.png">`, "", true, []string{MetaImage}},
		{"responsive", `<img data-srcset="a 1w" class="lazyload">`, "", true,
			[]string{MetaImage, MetaLazyloadImage, MetaResponsiveImage}},
		{"lazyload text without images", `<p>lazyload srcset</p>`, "", false, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MetaTags(tc.doc, tc.source, tc.hasImages))
		})
	}
}
