package mapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"strings"
)

// controlDatabase is the pseudo database name the merovingian control
// language authenticates against.
const controlDatabase = "merovingian"

// controlUser is the fixed administrative account of the daemon.
const controlUser = "monetdb"

// controlTransport abstracts the two control dialects: framed and
// authenticated over TCP, raw and unauthenticated over the unix socket.
type controlTransport interface {
	Cmd(operation string) (string, error)
	Close() error
}

// Control is a client for the monetdbd control interface.
type Control struct {
	conn controlTransport
}

// DialControl connects to the control interface of the daemon. A host
// beginning with "/" names the farm directory and is dialled over the
// daemon's unix socket <host>/.s.monetdb.<port>, which needs no
// authentication. Any other host is dialled over TCP, which requires
// control=yes on the farm and authenticates with the farm passphrase.
func DialControl(ctx context.Context, host string, port int, passphrase string) (*Control, error) {
	if strings.HasPrefix(host, "/") {
		return dialControlSocket(ctx, filepath.Join(host, fmt.Sprintf(".s.monetdb.%d", port)))
	}

	conn, err := Dial(ctx, host, port, Config{
		Database: controlDatabase,
		Username: controlUser,
		Password: passphrase,
		Language: "control",
	})
	if err != nil {
		return nil, fmt.Errorf("control connection: %w", err)
	}
	return &Control{conn: conn}, nil
}

func dialControlSocket(ctx context.Context, socket string) (*Control, error) {
	var d net.Dialer
	netConn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return nil, fmt.Errorf("control connection: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = netConn.SetDeadline(deadline)
	}
	return &Control{conn: &rawControl{netConn: netConn}}, nil
}

// Command sends a control command for a database ("status", "start",
// "stop", ...) and returns the response payload.
func (c *Control) Command(database, command string) (string, error) {
	return c.conn.Cmd(database + " " + command)
}

// Status asks the daemon for the status of a database. The response is
// the raw property listing merovingian answers with.
func (c *Control) Status(database string) (string, error) {
	return c.Command(database, "status")
}

// Close terminates the control connection.
func (c *Control) Close() error {
	return c.conn.Close()
}

// rawControl speaks the unframed control dialect of the unix socket:
// the command goes out as-is, the daemon answers and closes its side.
// One command per connection.
type rawControl struct {
	netConn net.Conn
}

// Cmd sends one raw control command and reads the full response.
func (r *rawControl) Cmd(operation string) (string, error) {
	if _, err := r.netConn.Write([]byte(operation)); err != nil {
		return "", fmt.Errorf("send control command: %w", err)
	}
	payload, err := io.ReadAll(r.netConn)
	if err != nil {
		return "", fmt.Errorf("%w: read control response: %v", ErrOperational, err)
	}

	payload = bytes.TrimSpace(payload)
	switch {
	case bytes.HasPrefix(payload, msgError):
		return "", classifyError(string(payload[1:]))
	case bytes.HasPrefix(payload, []byte("OK")):
		return strings.TrimSpace(string(payload[2:])), nil
	default:
		return string(payload), nil
	}
}

// Close terminates the raw connection.
func (r *rawControl) Close() error {
	return r.netConn.Close()
}
