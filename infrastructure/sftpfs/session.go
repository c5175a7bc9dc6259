// Package sftpfs implements the engine's remote-session contract over an
// established SSH/SFTP connection.
package sftpfs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"sftpflow/contract"
	errs "sftpflow/errors"
)

const copyBufferSize = 32 * 1024

// Config carries what is needed to open the SFTP channel. Password and key
// auth can be combined; the server picks whichever succeeds first.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	KeyFile  string
	Timeout  time.Duration
}

// Session is a live SFTP channel implementing contract.RemoteSession.
// One session is shared across sequential transfers; the queue guarantees a
// single transfer body runs at a time.
type Session struct {
	conn   *ssh.Client
	client *sftp.Client
	log    *slog.Logger
}

var _ contract.RemoteSession = (*Session)(nil)

// Dial connects and opens the SFTP subsystem.
func Dial(cfg Config, log *slog.Logger) (*Session, error) {
	var auth []ssh.AuthMethod
	if cfg.KeyFile != "" {
		key, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         cfg.Timeout,
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := ssh.Dial("tcp", addr, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s failed: %w", addr, err)
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open sftp subsystem: %w", err)
	}
	log.Info("SFTP session established", "host", cfg.Host, "user", cfg.User)
	return &Session{conn: conn, client: client, log: log}, nil
}

func (s *Session) Close() error {
	cerr := s.client.Close()
	if err := s.conn.Close(); err != nil {
		return err
	}
	return cerr
}

// Stat probes remote metadata; a missing path maps to ErrRemoteNotFound.
func (s *Session) Stat(_ context.Context, remotePath string) (contract.RemoteFileInfo, error) {
	fi, err := s.client.Stat(remotePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return contract.RemoteFileInfo{}, fmt.Errorf("%s: %w", remotePath, errs.ErrRemoteNotFound)
		}
		return contract.RemoteFileInfo{}, fmt.Errorf("remote stat %s failed: %w", remotePath, err)
	}
	return contract.RemoteFileInfo{Size: fi.Size(), ModTime: fi.ModTime(), IsDir: fi.IsDir()}, nil
}

func (s *Session) RemoteFileSize(ctx context.Context, remotePath string) (int64, error) {
	info, err := s.Stat(ctx, remotePath)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// Upload streams a local file to the remote path. With offset > 0 both sides
// are positioned at the offset and the existing remote prefix is kept;
// otherwise the remote file is truncated.
func (s *Session) Upload(ctx context.Context, localPath, remotePath string, offset int64, onProgress contract.ProgressFunc) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open upload source: %w", err)
	}
	defer src.Close()

	var dst *sftp.File
	if offset > 0 {
		if _, err = src.Seek(offset, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek upload source: %w", err)
		}
		dst, err = s.client.OpenFile(remotePath, os.O_WRONLY|os.O_CREATE)
		if err == nil {
			_, err = dst.Seek(offset, io.SeekStart)
		}
	} else {
		dst, err = s.client.Create(remotePath)
	}
	if err != nil {
		return fmt.Errorf("failed to open remote destination: %w", err)
	}
	defer dst.Close()

	return copyWithProgress(ctx, dst, src, offset, onProgress)
}

// Download streams a remote file into localPath, continuing at offset when
// given one.
func (s *Session) Download(ctx context.Context, remotePath, localPath string, offset int64, onProgress contract.ProgressFunc) error {
	src, err := s.client.Open(remotePath)
	if err != nil {
		return fmt.Errorf("failed to open remote source: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open download destination: %w", err)
	}
	defer dst.Close()

	if offset > 0 {
		if _, err = src.Seek(offset, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek remote source: %w", err)
		}
		if _, err = dst.Seek(offset, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek download destination: %w", err)
		}
	} else if err = dst.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate download destination: %w", err)
	}

	return copyWithProgress(ctx, dst, src, offset, onProgress)
}

// UniqueRemotePath finds a non-colliding sibling of remotePath by inserting
// " (n)" before the extension, falling back to a random suffix after 999
// attempts.
func (s *Session) UniqueRemotePath(_ context.Context, remotePath string) (string, error) {
	dir := path.Dir(remotePath)
	name := path.Base(remotePath)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 1; n <= 999; n++ {
		candidate := path.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if _, err := s.client.Stat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
	}
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return path.Join(dir, fmt.Sprintf("%s-%s%s", stem, hex.EncodeToString(suffix), ext)), nil
}

// copyWithProgress moves bytes in fixed-size chunks, checking for
// cancellation between chunks and reporting absolute progress (offset
// included) after each write.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, offset int64, onProgress contract.ProgressFunc) error {
	buf := make([]byte, copyBufferSize)
	moved := offset
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write failed after %d bytes: %w", moved, werr)
			}
			moved += int64(n)
			if onProgress != nil {
				onProgress(moved)
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("read failed after %d bytes: %w", moved, rerr)
		}
	}
}
