package anytalk

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
)

// Wire protocol constants (spec §4.3). All multi-byte integers are
// big-endian. Every vendor frame begins with a 4-byte header:
//
//	byte 0: bits 7-4 protocol version (=1), bits 3-0 header size in 4-byte
//	        units (=1)
//	byte 1: bits 7-4 message type, bits 3-0 message-type flags
//	byte 2: bits 7-4 serialization, bits 3-0 compression
//	byte 3: reserved (=0)
const (
	protocolVersion = 0x1
	headerSizeUnits = 0x1

	msgTypeFullClientRequest = 0x1
	msgTypeAudioOnly         = 0x2
	msgTypeFullServerResp    = 0x9
	msgTypeError             = 0xF

	flagNoSequence       = 0x0
	flagLastNoSequence   = 0x2
	flagTerminalResponse = 0x3

	serializationNone = 0x0
	serializationJSON = 0x1

	compressionNone = 0x0
	compressionGzip = 0x1

	wireHeaderLen = 4
)

func buildHeader(msgType, flags, serialization, compression byte) [wireHeaderLen]byte {
	return [wireHeaderLen]byte{
		(protocolVersion << 4) | headerSizeUnits,
		(msgType << 4) | flags,
		(serialization << 4) | compression,
		0,
	}
}

// EncodeFullClientRequest encodes the initial JSON request frame sent once
// at session start (spec §4.3, §6).
func EncodeFullClientRequest(jsonBody []byte) []byte {
	header := buildHeader(msgTypeFullClientRequest, flagNoSequence, serializationJSON, compressionNone)
	out := make([]byte, 0, wireHeaderLen+4+len(jsonBody))
	out = append(out, header[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(jsonBody)))
	out = append(out, jsonBody...)
	return out
}

// EncodeAudioOnly encodes a PCM audio frame. When last is true the frame
// carries the last-no-sequence flag; pcm may be empty to signal the
// terminal audio marker (spec §4.3, §6).
func EncodeAudioOnly(pcm []byte, last bool) []byte {
	flags := byte(flagNoSequence)
	if last {
		flags = flagLastNoSequence
	}
	header := buildHeader(msgTypeAudioOnly, flags, serializationNone, compressionNone)
	out := make([]byte, 0, wireHeaderLen+4+len(pcm))
	out = append(out, header[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(pcm)))
	out = append(out, pcm...)
	return out
}

// FrameKind discriminates a decoded inbound vendor frame.
type FrameKind int

const (
	FrameResponse FrameKind = iota
	FrameError
	FrameUnknown
)

// DecodedFrame is the result of decoding one vendor frame carried inside a
// WebSocket binary message.
type DecodedFrame struct {
	Kind FrameKind

	// Valid when Kind == FrameResponse.
	Payload  []byte // raw JSON payload
	Terminal bool   // flags == 0b0011, spec §4.3 "final response frame"

	// Valid when Kind == FrameError.
	ErrorCode    uint32
	ErrorMessage string
}

// DecodeFrame decodes one vendor frame. Any message type other than
// full-server-response or error is reported as FrameUnknown and should be
// ignored by the caller (spec §4.3).
func DecodeFrame(data []byte) (DecodedFrame, error) {
	if len(data) < wireHeaderLen {
		return DecodedFrame{}, newTransportError(KindProtocolDecodeFailure, "DecodeFrame", fmt.Errorf("frame too short: %d bytes", len(data)))
	}

	msgType := data[1] >> 4
	flags := data[1] & 0x0F
	compression := data[2] & 0x0F
	body := data[wireHeaderLen:]

	switch msgType {
	case msgTypeFullServerResp:
		if len(body) < 4+4 {
			return DecodedFrame{}, newTransportError(KindProtocolDecodeFailure, "DecodeFrame", fmt.Errorf("response frame too short"))
		}
		// Skip the 4-byte sequence field.
		size := binary.BigEndian.Uint32(body[4:8])
		payload := body[8:]
		if uint32(len(payload)) < size {
			return DecodedFrame{}, newTransportError(KindProtocolDecodeFailure, "DecodeFrame", fmt.Errorf("declared payload size %d exceeds available %d", size, len(payload)))
		}
		payload = payload[:size]
		if compression == compressionGzip {
			decompressed, err := gunzip(payload)
			if err != nil {
				return DecodedFrame{}, newTransportError(KindProtocolDecodeFailure, "DecodeFrame", err)
			}
			payload = decompressed
		}
		return DecodedFrame{
			Kind:     FrameResponse,
			Payload:  payload,
			Terminal: flags == flagTerminalResponse,
		}, nil

	case msgTypeError:
		if len(body) < 4+4 {
			return DecodedFrame{}, newTransportError(KindProtocolDecodeFailure, "DecodeFrame", fmt.Errorf("error frame too short"))
		}
		code := binary.BigEndian.Uint32(body[0:4])
		msgSize := binary.BigEndian.Uint32(body[4:8])
		rest := body[8:]
		if uint32(len(rest)) < msgSize {
			return DecodedFrame{}, newTransportError(KindProtocolDecodeFailure, "DecodeFrame", fmt.Errorf("declared message size %d exceeds available %d", msgSize, len(rest)))
		}
		return DecodedFrame{
			Kind:         FrameError,
			ErrorCode:    code,
			ErrorMessage: string(rest[:msgSize]),
		}, nil

	default:
		return DecodedFrame{Kind: FrameUnknown}, nil
	}
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}
