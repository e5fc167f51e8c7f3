// Package render turns validation state into an HTML summary.
//
// Summaries are rendered with pongo2. Message text is sanitised with
// bluemonday before it reaches the template, so messages may carry light
// inline markup (<strong>, <em>, <code>, links) but never scripts. Theme
// tokens resolved through a go-theme selector become CSS custom properties
// on the summary element.
package render
