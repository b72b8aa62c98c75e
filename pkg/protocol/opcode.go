// ABOUTME: Opcodes carried in the "op" field of node messages
// ABOUTME: Parsing and formatting between opcode strings and Opcode values
package protocol

import (
	"errors"
	"fmt"
)

// Opcode identifies the kind of a message exchanged with a node
type Opcode string

const (
	OpDestroy      Opcode = "destroy"      // client -> node
	OpEvent        Opcode = "event"        // node -> client
	OpPause        Opcode = "pause"        // client -> node
	OpPlay         Opcode = "play"         // client -> node
	OpPlayerUpdate Opcode = "playerUpdate" // node -> client
	OpSeek         Opcode = "seek"         // client -> node
	OpStats        Opcode = "stats"        // node -> client
	OpStop         Opcode = "stop"         // client -> node
	OpVoiceUpdate  Opcode = "voiceUpdate"  // client -> node
	OpVolume       Opcode = "volume"       // client -> node
	OpUnknown      Opcode = "unknown"
)

// ErrUnknownOpcode is returned by ParseOpcode for strings that name no opcode
var ErrUnknownOpcode = errors.New("unknown opcode")

var opcodes = map[string]Opcode{
	string(OpDestroy):      OpDestroy,
	string(OpEvent):        OpEvent,
	string(OpPause):        OpPause,
	string(OpPlay):         OpPlay,
	string(OpPlayerUpdate): OpPlayerUpdate,
	string(OpSeek):         OpSeek,
	string(OpStats):        OpStats,
	string(OpStop):         OpStop,
	string(OpVoiceUpdate):  OpVoiceUpdate,
	string(OpVolume):       OpVolume,
}

// ParseOpcode converts s to an Opcode. Unknown strings yield OpUnknown and
// an error wrapping ErrUnknownOpcode.
func ParseOpcode(s string) (Opcode, error) {
	if op, ok := opcodes[s]; ok {
		return op, nil
	}
	return OpUnknown, fmt.Errorf("%w: %q", ErrUnknownOpcode, s)
}

// String returns the wire representation of the opcode
func (o Opcode) String() string {
	return string(o)
}
