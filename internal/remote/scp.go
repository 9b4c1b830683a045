package remote

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ProtocolError is an error reported by the remote scp sink.
type ProtocolError struct {
	Fatal   bool
	Message string
}

func (e *ProtocolError) Error() string {
	return "scp: remote error: " + e.Message
}

// scpCommand is the sink command run on the remote host.
func scpCommand(remotePath string, dir bool) string {
	if dir {
		return "scp -r -t " + shellQuote(remotePath)
	}
	return "scp -t " + shellQuote(remotePath)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// scpSender writes the source side of the scp protocol. Directory names follow
// scp: an existing remote target receives the directory inside it, a missing
// one is created with the directory's contents.
type scpSender struct {
	fs afero.Fs
	w  io.Writer
	r  *bufio.Reader
}

func newSCPSender(fs afero.Fs, w io.Writer, r io.Reader) *scpSender {
	return &scpSender{fs: fs, w: w, r: bufio.NewReader(r)}
}

// Send transfers local, a file or a directory tree.
func (s *scpSender) Send(local string) error {
	info, err := s.fs.Stat(local)
	if err != nil {
		return err
	}
	if err := s.ack(); err != nil {
		return err
	}
	if info.IsDir() {
		return s.sendDir(local, info)
	}
	return s.sendFile(local, info)
}

func (s *scpSender) sendFile(local string, info os.FileInfo) error {
	name, err := entryName(local)
	if err != nil {
		return err
	}
	f, err := s.fs.Open(local)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintf(s.w, "C%04o %d %s\n", info.Mode().Perm(), info.Size(), name); err != nil {
		return err
	}
	if err := s.ack(); err != nil {
		return err
	}
	if _, err := io.CopyN(s.w, f, info.Size()); err != nil {
		return fmt.Errorf("scp: sending %s: %w", local, err)
	}
	if _, err := s.w.Write([]byte{0}); err != nil {
		return err
	}
	return s.ack()
}

func (s *scpSender) sendDir(local string, info os.FileInfo) error {
	name, err := entryName(local)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "D%04o 0 %s\n", info.Mode().Perm(), name); err != nil {
		return err
	}
	if err := s.ack(); err != nil {
		return err
	}

	entries, err := afero.ReadDir(s.fs, local)
	if err != nil {
		return err
	}
	for _, e := range entries {
		child := filepath.Join(local, e.Name())
		// Follow symlinks like scp does.
		ci, err := s.fs.Stat(child)
		if err != nil {
			return err
		}
		switch {
		case ci.IsDir():
			err = s.sendDir(child, ci)
		case ci.Mode().IsRegular():
			err = s.sendFile(child, ci)
		default:
			continue
		}
		if err != nil {
			return err
		}
	}

	if _, err := io.WriteString(s.w, "E\n"); err != nil {
		return err
	}
	return s.ack()
}

func (s *scpSender) ack() error {
	b, err := s.r.ReadByte()
	if err != nil {
		return fmt.Errorf("scp: reading response: %w", err)
	}
	switch b {
	case 0:
		return nil
	case 1, 2:
		msg, _ := s.r.ReadString('\n')
		return &ProtocolError{Fatal: b == 2, Message: strings.TrimSpace(msg)}
	default:
		return fmt.Errorf("scp: unexpected response byte %#x", b)
	}
}

func entryName(local string) (string, error) {
	name := path.Base(filepath.ToSlash(local))
	if strings.ContainsAny(name, "\n\r") {
		return "", fmt.Errorf("scp: file name %q cannot be transferred", name)
	}
	return name, nil
}
