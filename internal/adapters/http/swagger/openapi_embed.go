package swagger

import _ "embed"

// OpenAPI holds the embedded OpenAPI document served at /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte
