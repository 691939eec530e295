// Package denonprotocol provides a Go client for the two network control
// protocols of Denon and Marantz AV receivers.
//
// # Protocol Overview
//
// The receiver listens on two independent TCP ports:
//
//	23    text protocol, one ASCII command per line (SIMPLAY, MVUP, PWON)
//	1255  HEOS protocol, heos://<group>/<command>?k=v lines answered by JSON
//
// Text commands are fire-and-forget. HEOS replies are wrapped in an
// envelope whose result field must be checked before the payload is used:
//
//	{"heos":{"command":"player/get_players","result":"success","message":""},
//	 "payload":[{"name":"Living Room","pid":1,...}]}
//
// # Basic Usage
//
//	client := denonprotocol.NewClient("192.168.0.209")
//	defer client.Close()
//
//	if err := client.SelectInput(ctx, denonprotocol.InputMediaPlayer); err != nil {
//	    log.Fatal(err)
//	}
//
//	// A nil pid plays on the first player the device reports.
//	if err := client.PlayURL(ctx, nil, "http://radio.example/stream"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Sessions
//
// A Client holds at most one connection per protocol. The first operation
// that needs a protocol dials it; later operations reuse the same
// connection for the lifetime of the Client. A connection that dies is not
// redialed, the next operation on it fails with a *ConnectionError.
//
// # Interactive Shell
//
// Client.Shell runs a pass-through session: a background goroutine prints
// device output as it arrives while the caller's LineReader feeds user input
// to the same connection.
//
//	err := client.Shell(ctx, denonprotocol.ProtocolHEOS, denonprotocol.ShellOptions{
//	    Subscribe: true,
//	    Input:     editor,
//	    Output:    editor,
//	})
//
// # Errors
//
// Failures are reported as *ConnectionError, *DecodeError, *ProtocolError
// (the device answered result=fail) or *NotFoundError (no players). Use
// errors.As to tell them apart.
package denonprotocol
