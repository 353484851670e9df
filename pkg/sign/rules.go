package sign

// QueryString signs the encoded query as sent.
func QueryString(m Material) string {
	return m.Query
}

// SortedJoin signs key=value pairs sorted by key and joined with '&',
// without percent-encoding.
func SortedJoin(m Material) string {
	return EncodeQuery(m.Params.Sorted(), Raw)
}

// MethodHostPathQuery signs "METHOD\nhost\npath\nquery".
func MethodHostPathQuery(m Material) string {
	return m.Method + "\n" + m.Host + "\n" + m.Path + "\n" + m.Query
}

// StampMethodPathBody signs timestamp + METHOD + path (+ "?query") + body.
func StampMethodPathBody(m Material) string {
	return m.Timestamp + m.Method + m.Path + QuerySuffix(m.Query) + m.Body
}

// QuerySuffix returns "?q", or nothing for an empty query.
func QuerySuffix(q string) string {
	if q == "" {
		return ""
	}
	return "?" + q
}
