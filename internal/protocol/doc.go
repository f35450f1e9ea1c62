// Package protocol serves the host's command surface over newline-delimited
// JSON.
//
// A Dispatcher reads command_request messages from a Stream, routes each one
// to the handler registered for its command and writes a command_response
// carrying the same request_id. Handlers run concurrently, so a slow
// call_mcp_tool does not hold up a stop_session sent after it. A
// command_cancel_request cancels the context of an in-flight handler.
//
// Wire format:
//
//	-> {"type":"command_request","request_id":"1","request":{"command":"get_mcp_tools","session_id":7}}
//	<- {"type":"command_response","request_id":"1","subtype":"success","response":[...]}
//	-> {"type":"command_cancel_request","request_id":"2"}
//	<- {"type":"command_response","request_id":"2","subtype":"cancel_acknowledgment","response":{"found":true,"already_completed":false}}
//
// Example usage:
//
//	stream := protocol.NewStream(log, os.Stdin, os.Stdout)
//	dispatcher := protocol.NewDispatcher(log, stream)
//	dispatcher.RegisterHandler("get_mcp_tools", handleGetTools)
//
//	err := dispatcher.Serve(ctx)
package protocol
