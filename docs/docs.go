// Package docs holds the OpenAPI description of the sync service.
package docs

import _ "embed"

// SwaggerJSON is served at /swagger/doc.json
//
//go:embed swagger.json
var SwaggerJSON []byte
