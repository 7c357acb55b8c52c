// Package docs embeds the OpenAPI description served by the API.
package docs

import _ "embed"

//go:embed swagger.yml
var Swagger []byte
