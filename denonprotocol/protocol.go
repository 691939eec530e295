// Package denonprotocol implements the text and HEOS control protocols of
// Denon and Marantz network receivers.
//
// Protocol Format:
//
//	Text protocol (port 23):   <COMMAND>\r\n          replies are \r-terminated
//	HEOS protocol (port 1255): heos://<group>/<cmd>[?k=v&k=v]\r\n
//	HEOS reply:                {"heos":{"command":..,"result":..,"message":..},"payload":..}\r\n
//
// Example Session:
//
//	CLI: SIMPLAY
//	AVR: SIMPLAY
//	CLI: heos://player/get_players
//	AVR: {"heos":{"command":"player/get_players","result":"success","message":""},"payload":[...]}
package denonprotocol

import "fmt"

// Protocol constants.
const (
	// DefaultHost is the receiver address used when none is configured.
	DefaultHost = "192.168.0.209"

	// TextPort is the TCP port of the line-oriented text protocol.
	TextPort = 23

	// HEOSPort is the TCP port of the HEOS JSON protocol.
	HEOSPort = 1255

	// LineTerminator ends every command line sent to either protocol.
	LineTerminator = "\r\n"

	// TextDelimiter terminates a reply on the text protocol.
	TextDelimiter byte = '\r'

	// HEOSDelimiter terminates a reply on the HEOS protocol.
	HEOSDelimiter byte = '\n'

	// HEOSScheme prefixes every HEOS command.
	HEOSScheme = "heos://"

	// EventCommandPrefix is the command prefix of unsolicited HEOS events.
	EventCommandPrefix = "event/"

	// CommandUnderProcess marks an interim HEOS acknowledgement; the real
	// reply follows later on the same stream.
	CommandUnderProcess = "command under process"
)

// Protocol identifies one of the two control surfaces.
type Protocol int

const (
	// ProtocolText is the telnet-style text protocol.
	ProtocolText Protocol = iota
	// ProtocolHEOS is the HEOS JSON protocol.
	ProtocolHEOS
)

// Port returns the fixed TCP port of the protocol.
func (p Protocol) Port() int {
	switch p {
	case ProtocolHEOS:
		return HEOSPort
	default:
		return TextPort
	}
}

// Delimiter returns the byte that terminates one chunk of device output.
func (p Protocol) Delimiter() byte {
	switch p {
	case ProtocolHEOS:
		return HEOSDelimiter
	default:
		return TextDelimiter
	}
}

// String returns a short name for logs and errors.
func (p Protocol) String() string {
	switch p {
	case ProtocolText:
		return "text"
	case ProtocolHEOS:
		return "heos"
	default:
		return fmt.Sprintf("protocol(%d)", int(p))
	}
}
