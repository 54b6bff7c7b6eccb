// Package source reads image bytes behind a URI.
//
// Plain paths, file:// and data: URIs are read locally. http(s):// URIs are
// only fetched when the Resolver allows remote input, since captioning
// runs on-device by default.
package source
