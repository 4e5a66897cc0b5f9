// Package amfx encodes and decodes AMFX, the XML rendition of the AMF3 value model:
//
//	<amfx ver="3" xmlns="http://www.macromedia.com/2005/amfx">
//	  <body targetURI="..." responseURI="...">value</body>
//	</amfx>
package amfx

import (
	"github.com/torresjeff/amf"
	"github.com/torresjeff/amf/config"
)

const (
	Namespace = config.AMFXNamespace
	Version   = config.AMFXVersion
)

// Flex list wrappers registered as collections by amf.NewRegistry.
const (
	ArrayCollection   = amf.ArrayCollection
	ArrayList         = amf.ArrayList
	MXArrayCollection = amf.MXArrayCollection
)

// Response is a decoded AMFX message.
type Response struct {
	TargetURI   string
	ResponseURI string
	Message     amf.Value
}
