package mapi

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"net"
	"strconv"
	"strings"

	"github.com/monetci/monetup/internal/logger"
)

// Protocol message markers, the first byte(s) of a server message.
var (
	msgMore     = []byte("\x01\x02\n")
	msgInfo     = []byte("#")
	msgError    = []byte("!")
	msgQUpdate  = []byte("&2")
	msgRedirect = []byte("^")
	msgOK       = []byte("=OK")
)

// resultMarkers are the first bytes of messages carrying query results,
// returned to the caller verbatim.
const resultMarkers = "&%[*+-="

// maxRedirects bounds how many merovingian login restarts and monetdb
// redirects a single connection attempt follows.
const maxRedirects = 10

// Config holds the login parameters of a MAPI connection.
type Config struct {
	// Database is the target database. The merovingian control port
	// uses the pseudo database "merovingian".
	Database string

	// Username and Password authenticate the login. Control
	// connections pass the farm passphrase as password.
	Username string
	Password string

	// Language is the command language: "sql" or "control".
	Language string
}

// Conn is an authenticated MAPI connection.
type Conn struct {
	netConn net.Conn
	codec   *codec
	cfg     Config
}

// redirectError asks the dialer to restart the connection elsewhere.
type redirectError struct {
	host     string
	port     int
	database string
}

func (e *redirectError) Error() string {
	return fmt.Sprintf("redirect to monetdb://%s:%d/%s", e.host, e.port, e.database)
}

// Dial connects to host:port, performs the protocol v9 login and
// follows server redirects. The context deadline, when set, bounds the
// whole exchange.
func Dial(ctx context.Context, host string, port int, cfg Config) (*Conn, error) {
	for hop := 0; hop <= maxRedirects; hop++ {
		conn, err := dialOnce(ctx, host, port, cfg)
		if err == nil {
			return conn, nil
		}
		var redir *redirectError
		if errors.As(err, &redir) {
			logger.Debug("mapi: following redirect to %s:%d/%s", redir.host, redir.port, redir.database)
			host, port, cfg.Database = redir.host, redir.port, redir.database
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: maximal number of redirects reached (%d)", ErrOperational, maxRedirects)
}

func dialOnce(ctx context.Context, host string, port int, cfg Config) (*Conn, error) {
	var d net.Dialer
	netConn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("dial %s:%d: %w", host, port, err)
	}

	// Mirror the upstream client's socket settings.
	if tcp, ok := netConn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
		_ = tcp.SetKeepAlive(false)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = netConn.SetDeadline(deadline)
	}

	conn := &Conn{
		netConn: netConn,
		codec:   &codec{rw: netConn},
		cfg:     cfg,
	}
	if err := conn.login(0); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// newConn wraps an established transport without dialing. Used by
// tests to drive the handshake over an in-memory pipe.
func newConn(rw net.Conn, cfg Config) *Conn {
	return &Conn{netConn: rw, codec: &codec{rw: rw}, cfg: cfg}
}

// login reads the server challenge, answers it and interprets the
// server's verdict. A merovingian redirect restarts authentication on
// the same connection.
func (c *Conn) login(iteration int) error {
	challenge, err := c.codec.readMessage()
	if err != nil {
		return fmt.Errorf("read challenge: %w", err)
	}

	response, err := challengeResponse(string(challenge), c.cfg)
	if err != nil {
		return err
	}
	if err := c.codec.writeMessage([]byte(response)); err != nil {
		return fmt.Errorf("write login response: %w", err)
	}

	prompt, err := c.codec.readMessage()
	if err != nil {
		return fmt.Errorf("read login result: %w", err)
	}
	prompt = bytes.TrimSpace(prompt)

	switch {
	case len(prompt) == 0, bytes.Equal(prompt, msgOK):
		return nil

	case bytes.HasPrefix(prompt, msgInfo):
		logger.Debug("mapi: %s", prompt[1:])
		return nil

	case bytes.HasPrefix(prompt, msgError):
		return fmt.Errorf("%w: login: %s", ErrDatabase, prompt[1:])

	case bytes.HasPrefix(prompt, msgRedirect):
		return c.redirect(prompt, iteration)

	default:
		return fmt.Errorf("%w: unknown login state: %q", ErrProgramming, prompt)
	}
}

// redirect handles a ^mapi redirect prompt. A prompt can carry several
// redirects; only the first is used.
func (c *Conn) redirect(prompt []byte, iteration int) error {
	first := strings.Fields(string(prompt))[0][1:]
	parts := strings.Split(first, ":")
	if len(parts) < 2 {
		return fmt.Errorf("%w: unknown redirect: %s", ErrProgramming, prompt)
	}

	switch parts[1] {
	case "merovingian":
		// The daemon proxies to the database server; authenticate again
		// on the same connection.
		if iteration >= maxRedirects {
			return fmt.Errorf("%w: maximal number of redirects reached (%d)", ErrOperational, maxRedirects)
		}
		logger.Debug("mapi: restarting authentication")
		return c.login(iteration + 1)

	case "monetdb":
		if len(parts) < 4 {
			return fmt.Errorf("%w: unknown redirect: %s", ErrProgramming, prompt)
		}
		host := strings.TrimPrefix(parts[2], "//")
		portdb := strings.SplitN(parts[3], "/", 2)
		if len(portdb) != 2 {
			return fmt.Errorf("%w: unknown redirect: %s", ErrProgramming, prompt)
		}
		port, err := strconv.Atoi(portdb[0])
		if err != nil {
			return fmt.Errorf("%w: unknown redirect: %s", ErrProgramming, prompt)
		}
		return &redirectError{host: host, port: port, database: portdb[1]}

	default:
		return fmt.Errorf("%w: unknown redirect: %s", ErrProgramming, prompt)
	}
}

// Cmd sends one command and returns the server's textual response.
// Result-bearing responses are returned verbatim; errors are mapped to
// the typed error classes.
func (c *Conn) Cmd(operation string) (string, error) {
	logger.Debug("mapi: executing command %q", operation)

	if err := c.codec.writeMessage([]byte(operation)); err != nil {
		return "", fmt.Errorf("send command: %w", err)
	}
	return c.readResponse()
}

func (c *Conn) readResponse() (string, error) {
	response, err := c.codec.readMessage()
	if err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", nil
	}

	switch {
	case bytes.HasPrefix(response, msgOK):
		return strings.TrimSpace(string(response[3:])), nil

	case bytes.Equal(response, msgMore):
		// The server expects more input it is not going to get.
		return c.Cmd("")

	case bytes.HasPrefix(response, msgQUpdate):
		for _, line := range bytes.Split(response, []byte("\n")) {
			if bytes.HasPrefix(line, msgError) {
				return "", classifyError(string(line[1:]))
			}
		}
		return string(response), nil

	case strings.IndexByte(resultMarkers, response[0]) >= 0:
		return string(response), nil

	case bytes.HasPrefix(response, msgError):
		return "", classifyError(string(response[1:]))

	case bytes.HasPrefix(response, msgInfo):
		logger.Debug("mapi: %s", response[1:])
		return "", nil

	case c.cfg.Language == "control" && bytes.HasPrefix(response, []byte("OK")):
		return strings.TrimSpace(string(response[2:])), nil

	default:
		return "", fmt.Errorf("%w: unknown state: %q", ErrProgramming, response)
	}
}

// Close terminates the connection.
func (c *Conn) Close() error {
	return c.netConn.Close()
}

// challengeResponse answers a protocol v9 login challenge of the form
// salt:identity:protocol:hashes:endianness:algo. The password is first
// hashed with the server-named algorithm, then salted with the
// strongest mutually supported digest.
func challengeResponse(challenge string, cfg Config) (string, error) {
	parts := strings.Split(challenge, ":")
	if len(parts) < 6 {
		return "", fmt.Errorf("%w: malformed challenge: %q", ErrProgramming, challenge)
	}
	salt, protocol, hashes, algo := parts[0], parts[2], parts[3], parts[5]

	if protocol != "9" {
		return "", fmt.Errorf("%w: we only speak protocol v9, server wants %s", ErrNotSupported, protocol)
	}

	pwdigest, err := hexdigest(algo, cfg.Password)
	if err != nil {
		return "", err
	}

	var pwhash string
	switch {
	case strings.Contains(hashes, "SHA1"):
		salted, _ := hexdigest("SHA1", pwdigest+salt)
		pwhash = "{SHA1}" + salted
	case strings.Contains(hashes, "MD5"):
		salted, _ := hexdigest("MD5", pwdigest+salt)
		pwhash = "{MD5}" + salted
	default:
		return "", fmt.Errorf("%w: unsupported hash algorithms required for login: %s", ErrNotSupported, hashes)
	}

	fields := []string{"BIG", cfg.Username, pwhash, cfg.Language, cfg.Database}
	return strings.Join(fields, ":") + ":", nil
}

// hexdigest returns the hex digest of value under the named algorithm.
func hexdigest(algo, value string) (string, error) {
	var h hash.Hash
	switch strings.ToUpper(algo) {
	case "SHA512":
		h = sha512.New()
	case "SHA384":
		h = sha512.New384()
	case "SHA256":
		h = sha256.New()
	case "SHA224":
		h = sha256.New224()
	case "SHA1":
		h = sha1.New()
	case "MD5":
		h = md5.New()
	default:
		return "", fmt.Errorf("%w: unknown hash algorithm %q", ErrNotSupported, algo)
	}
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil)), nil
}
