// Package codecs provides custom field codecs for types the wire format
// cannot represent natively. Codec-backed fields always travel as bytes.
package codecs
