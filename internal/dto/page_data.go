package dto

import "html/template"

// Banner is one message box on the page; each line is its own paragraph.
type Banner struct {
	Kind  string // success, error or warning
	Lines []string
}

// PageData feeds the index template.
type PageData struct {
	Title       string
	State       string
	Banners     []Banner
	ModelReady  bool
	Accept      string
	Filename    string
	OriginalURI template.URL
	ShowDetect  bool
	Result      *PageResult
}

type PageResult struct {
	AnnotatedURI template.URL
	Lines        []string
}
