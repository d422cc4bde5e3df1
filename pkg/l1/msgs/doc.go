// Package msgs provides the L1 motor messages and their wire encoding.
//
// Every message is wrapped in a Typed envelope carrying the type ID and,
// for commands and replies, a sequence number. The high bit of the type ID
// separates events from commands, and TypeIDMaskReply marks replies.
// Payloads are protobuf messages from proto/l1/v1.
package msgs
