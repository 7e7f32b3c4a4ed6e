package domain

import "encoding/json"

// Page is one cursor page of an upstream collection. An empty NextCursor marks the last page.
type Page struct {
	Items      []json.RawMessage
	NextCursor string
}
