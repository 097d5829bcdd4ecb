// Package render turns session and store state into markdown, terminal
// output, HTML and chart images.
//
// Markdown is produced from embedded text/template files. The same markdown
// is printed to a terminal through glamour (Terminal) or served as HTML
// through goldmark with GitHub tables (HTML).
//
// Numbers are formatted with go-humanize separators; amounts and market caps
// are shown in CNY through go-money.
package render
