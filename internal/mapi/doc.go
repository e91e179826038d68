// Package mapi implements a minimal client for the MAPI wire protocol
// spoken by MonetDB servers and by the merovingian (monetdbd) control
// port.
//
// Only what the bootstrap tool needs is implemented: protocol v9 block
// framing, challenge/response authentication, the SQL language for a
// probe query, and the control language for asking monetdbd about
// database status. The client is not a database driver.
package mapi
