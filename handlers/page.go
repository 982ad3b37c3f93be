package handlers

import "html/template"

type pageData struct {
	Title         string
	Artist        string
	DefaultArtist string
	Message       string
	Lyrics        string
	Image         string
	Source        string
}

// ImageURL marks the data URI as safe; html/template rejects data: URLs in
// src attributes otherwise.
func (d pageData) ImageURL() template.URL {
	return template.URL(d.Image)
}

var page = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Lyric Cloud</title>
<style>
body { font-family: sans-serif; max-width: 1040px; margin: 2em auto; }
pre { white-space: pre-wrap; background: #f6f6f6; padding: 1em; }
.message { color: #b00020; }
img { max-width: 100%; border: 1px solid #ddd; }
</style>
</head>
<body>
<h1>Lyric Cloud</h1>
<form method="get" action="/">
  <input name="title" placeholder="Song title" value="{{.Title}}">
  <input name="artist" placeholder="{{.DefaultArtist}}" value="{{.Artist}}">
  <button type="submit">Visualize</button>
</form>
{{if .Message}}<p class="message">{{.Message}}</p>{{end}}
{{if .Image}}
<h2>Word cloud</h2>
<img src="{{.ImageURL}}" alt="Word cloud for {{.Title}}">
<h2>Lyrics</h2>
<p><small>source: {{.Source}}</small></p>
<pre>{{.Lyrics}}</pre>
{{end}}
</body>
</html>
`))
