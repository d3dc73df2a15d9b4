// ABOUTME: Container abstraction package for demuxers and codecs
// ABOUTME: Provides Container, Coder, Packet, SampleBlock and the format registry
// Package container defines the capability a stream decoder needs from a
// demuxer/codec engine: stream enumeration, per-stream coder lookup,
// packet iteration and stateful decode steps into sample blocks.
//
// Backends live in sub-packages and register themselves with Register.
// Import them for their side effects:
//
//	import (
//	    _ "github.com/Resonate-Protocol/resonate-decode/pkg/container/ogg"
//	    _ "github.com/Resonate-Protocol/resonate-decode/pkg/container/wav"
//	)
//
//	c, err := container.Open(r)
package container
