package denonprotocol

import "strings"

// Input is a physical or logical input source on the receiver.
type Input int

const (
	InputCblSat Input = iota
	InputMediaPlayer
	InputBluRay
	InputGame
	InputAux1
	InputAux2
	InputPhono
	InputTvAudio
	InputTuner
	InputUsb
	InputBluetooth
	InputInternetRadio
	InputNet
)

type inputInfo struct {
	name    string // CLI name
	token   string // Protocol token
	aliases []string
}

var inputTable = [...]inputInfo{
	InputCblSat:        {name: "cbl-sat", token: "CBLSAT"},
	InputMediaPlayer:   {name: "media-player", token: "MPLAY", aliases: []string{"mplay"}},
	InputBluRay:        {name: "blu-ray", token: "BD", aliases: []string{"bd"}},
	InputGame:          {name: "game", token: "GAME"},
	InputAux1:          {name: "aux1", token: "AUX1"},
	InputAux2:          {name: "aux2", token: "AUX2"},
	InputPhono:         {name: "phono", token: "PHONO"},
	InputTvAudio:       {name: "tv-audio", token: "TV", aliases: []string{"tv"}},
	InputTuner:         {name: "tuner", token: "TUNER"},
	InputUsb:           {name: "usb", token: "USB"},
	InputBluetooth:     {name: "bluetooth", token: "BT"},
	InputInternetRadio: {name: "internet-radio", token: "IRADIO", aliases: []string{"iradio"}},
	InputNet:           {name: "net", token: "NET", aliases: []string{"heos"}},
}

func (in Input) valid() bool {
	return in >= 0 && int(in) < len(inputTable)
}

// ProtocolName returns the uppercase token the text protocol uses for the
// input, e.g. "MPLAY" for InputMediaPlayer.
func (in Input) ProtocolName() string {
	if !in.valid() {
		return ""
	}
	return inputTable[in].token
}

// String returns the command-line name of the input.
func (in Input) String() string {
	if !in.valid() {
		return "unknown"
	}
	return inputTable[in].name
}

// Aliases returns the alternate command-line names of the input.
func (in Input) Aliases() []string {
	if !in.valid() {
		return nil
	}
	return append([]string(nil), inputTable[in].aliases...)
}

// AllInputs returns every input in declaration order.
func AllInputs() []Input {
	all := make([]Input, len(inputTable))
	for i := range inputTable {
		all[i] = Input(i)
	}
	return all
}

// ParseInput resolves a command-line name, an alias, or a protocol token.
// Matching is case-insensitive.
func ParseInput(name string) (Input, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, info := range inputTable {
		if lower == info.name || strings.EqualFold(lower, info.token) {
			return Input(i), nil
		}
		for _, alias := range info.aliases {
			if lower == alias {
				return Input(i), nil
			}
		}
	}
	return 0, newInvalidInputError(name)
}
