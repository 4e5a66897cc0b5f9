package amf

import "github.com/pkg/errors"

// ErrEncodingRange is returned when a value lies outside what the target format or width can represent.
var ErrEncodingRange = errors.New("amf: value out of encodable range")

// ErrEncodingType is returned when a writer is handed a value of the wrong shape.
var ErrEncodingType = errors.New("amf: value has the wrong type for this writer")

// ErrDecoding is returned for unknown markers, truncated input, bad references and length mismatches.
var ErrDecoding = errors.New("amf: malformed input")

// ErrUnsupportedFeature is returned for externalizable objects and cyclic object graphs.
var ErrUnsupportedFeature = errors.New("amf: unsupported feature")

// ErrExternalizable is returned when an externalizable object or trait is met. It is an ErrUnsupportedFeature.
var ErrExternalizable = errors.Wrap(ErrUnsupportedFeature, "externalizable objects")

// ErrFormatMisuse is returned when an operation does not exist in the configured format.
var ErrFormatMisuse = errors.New("amf: operation not valid for this format")
