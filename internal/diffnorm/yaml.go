package diffnorm

import "gopkg.in/yaml.v3"

// LooksLikeValidYAML reports whether content round-trips through a generic
// YAML decode. It is a best-effort sniff used only to warn when an ADL
// file's post-image no longer parses as YAML; it is never a schema field
// and never causes a file or commit to be dropped.
func LooksLikeValidYAML(content string) bool {
	var v any
	return yaml.Unmarshal([]byte(content), &v) == nil
}
