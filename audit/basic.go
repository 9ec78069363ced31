package audit

// CheckBasicSEO inspects the title, meta description and heading elements.
// Missing elements are reported with Exists false; it never fails.
func CheckBasicSEO(doc Document) BasicSEO {
	var result BasicSEO

	if title, ok := doc.SelectFirst("title"); ok {
		result.Title = TitleCheck{Exists: true, Content: title.Text()}
	}

	// A description tag without a content attribute still exists, with an
	// empty description.
	if meta, ok := doc.SelectFirst(`meta[name="description"]`); ok {
		content, _ := meta.Attr("content")
		result.MetaDescription = MetaDescriptionCheck{Exists: true, Content: content}
	}

	h1s := doc.SelectAll("h1")
	result.H1.Count = len(h1s)
	if len(h1s) > 0 {
		result.H1.Content = h1s[0].Text()
	}

	result.H2.Count = len(doc.SelectAll("h2"))

	return result
}
