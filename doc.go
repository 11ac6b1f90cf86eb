// Package protolite derives versionable protobuf schemas from declared
// message types and encodes and decodes payloads against them.
//
// Message types are declared field by field on a registry. The first encode,
// decode or CompiledSchema call seals a type: its fields are flattened
// across the inheritance chain, tagged in declaration order and compiled
// into a protobuf schema that is cached for the lifetime of the registry.
//
// Basic usage:
//
//	client := protolite.NewClient(protolite.WithLogger(logger))
//	user := metadata.Named("User")
//	client.Declare(user).
//	    MustField("name", metadata.String).
//	    MustField("born", metadata.Date, metadata.Optional())
//
//	data, err := client.Encode(user, map[string]any{"name": "ada"})
//	msg, err := client.Decode(user, data)
//
// Producers and consumers can compare Checksum values, or exchange the
// output of CollectSchema, to detect schema drift before decoding.
package protolite
