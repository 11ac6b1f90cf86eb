// Package metadata holds the declared shape of message types: field
// registration and validation, type resolution, inheritance flattening,
// sealing into wire schemas, the codec overlay and identity restoration.
//
// Descriptors are created through a Registry keyed by TypeRef. Fields are
// declared during initialization; the first Seal freezes the descriptor
// and caches its compiled schema, after which it is safe for concurrent use.
//
//	reg := metadata.NewRegistry()
//	user := reg.Declare(metadata.Named("User"))
//	user.MustField("name", metadata.String).
//		MustField("born", metadata.Date, metadata.Optional()).
//		MustField("tags", metadata.Array, metadata.OfType(metadata.String))
//	schema, err := user.Seal()
package metadata
