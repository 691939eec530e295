package denonprotocol

import (
	"strconv"
	"strings"
)

// TextCommand is a single line of the text protocol, sent verbatim.
type TextCommand string

// NewSelectInputCommand switches the audio input.
func NewSelectInputCommand(in Input) TextCommand {
	return TextCommand("SI" + in.ProtocolName())
}

// NewVideoSelectCommand switches the video input independently of audio.
func NewVideoSelectCommand(in Input) TextCommand {
	return TextCommand("SV" + in.ProtocolName())
}

// NewRawTextCommand wraps a user-supplied text protocol line.
func NewRawTextCommand(line string) TextCommand {
	return TextCommand(line)
}

// Format returns the command without the line terminator.
func (c TextCommand) Format() string {
	return string(c)
}

// FormatLine returns the command as sent on the wire.
func (c TextCommand) FormatLine() string {
	return string(c) + LineTerminator
}

// Param is one key/value pair of a HEOS command.
type Param struct {
	Key   string
	Value string
}

// HEOSCommand is a heos://<group>/<name>?k=v command.
type HEOSCommand struct {
	Group  string
	Name   string
	Params []Param
}

// NewGetPlayersCommand lists the players known to the device.
func NewGetPlayersCommand() HEOSCommand {
	return HEOSCommand{Group: "player", Name: "get_players"}
}

// NewPlayStreamCommand plays a URL on the given player.
func NewPlayStreamCommand(pid int64, url string) HEOSCommand {
	return HEOSCommand{
		Group: "browse",
		Name:  "play_stream",
		Params: []Param{
			{Key: "pid", Value: strconv.FormatInt(pid, 10)},
			{Key: "url", Value: url},
		},
	}
}

// NewRegisterForChangeEventsCommand turns unsolicited change events on or off.
func NewRegisterForChangeEventsCommand(enable bool) HEOSCommand {
	state := "off"
	if enable {
		state = "on"
	}
	return HEOSCommand{
		Group:  "system",
		Name:   "register_for_change_events",
		Params: []Param{{Key: "enable", Value: state}},
	}
}

// Path returns "<group>/<name>", the value the device echoes back in the
// reply header.
func (c HEOSCommand) Path() string {
	return c.Group + "/" + c.Name
}

// Format returns the command URL without the line terminator.
func (c HEOSCommand) Format() string {
	var b strings.Builder
	b.WriteString(HEOSScheme)
	b.WriteString(c.Path())
	for i, p := range c.Params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(escapeParam(p.Value))
	}
	return b.String()
}

// FormatLine returns the command as sent on the wire.
func (c HEOSCommand) FormatLine() string {
	return c.Format() + LineTerminator
}

// The HEOS protocol reserves only these three characters inside parameter
// values. Everything else, including ':' and '/', is sent as is.
var paramEscaper = strings.NewReplacer("%", "%25", "&", "%26", "=", "%3D")

var paramUnescaper = strings.NewReplacer("%25", "%", "%26", "&", "%3D", "=", "%3d", "=")

func escapeParam(v string) string {
	return paramEscaper.Replace(v)
}

func unescapeParam(v string) string {
	return paramUnescaper.Replace(v)
}

// ParseHEOSCommand splits a raw heos:// line into its parts. Parameter
// values are unescaped.
func ParseHEOSCommand(line string) (HEOSCommand, error) {
	trimmed := strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(trimmed, HEOSScheme)
	if !ok {
		return HEOSCommand{}, newInvalidHEOSCommandError(line, "missing heos:// scheme")
	}

	path, query, _ := strings.Cut(rest, "?")
	group, name, ok := strings.Cut(path, "/")
	if !ok || group == "" || name == "" {
		return HEOSCommand{}, newInvalidHEOSCommandError(line, "expected <group>/<command>")
	}

	cmd := HEOSCommand{Group: group, Name: name}
	if query == "" {
		return cmd, nil
	}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		cmd.Params = append(cmd.Params, Param{Key: key, Value: unescapeParam(value)})
	}
	return cmd, nil
}
