package audit

// Document is the read-only view of a parsed page that the checks depend on.
// Selectors use CSS syntax.
type Document interface {
	// SelectFirst returns the first element matching selector in document
	// order. The boolean is false when nothing matches.
	SelectFirst(selector string) (Element, bool)

	// SelectAll returns every element matching selector in document order.
	SelectAll(selector string) []Element
}

// Element is a single node returned by a Document.
type Element interface {
	// Text returns the concatenated text of the element and its descendants.
	Text() string

	// Attr returns the value of the named attribute and whether it is set.
	Attr(name string) (string, bool)
}
