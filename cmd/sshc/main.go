// Package main is sshc's CLI: dial a message-oriented transport, present a
// certificate, and ferry a PTY shell between the remote and this process's
// own stdin/stdout.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"github.com/msgboxio/sshc"
	"github.com/msgboxio/sshc/transport"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "sshc HOST",
		Short: "Connect an interactive shell over a message-oriented transport",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v, args[0])
		},
	}

	flags := cmd.Flags()
	flags.String("user", "", "username to authenticate as")
	flags.String("cert", "", "path to the ssh certificate (e.g. id_ed25519-cert.pub)")
	flags.String("key", "", "path to the certificate's private key")
	flags.Int("cols", sshc.DefaultCols, "initial terminal width")
	flags.Int("rows", sshc.DefaultRows, "initial terminal height")
	flags.Bool("verbose", false, "enable debug logging")

	_ = v.BindPFlags(flags)
	v.SetEnvPrefix("SSHC")
	v.AutomaticEnv()

	return cmd
}

func run(v *viper.Viper, host string) error {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	if !v.GetBool("verbose") {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	creds, err := loadCredentials(v.GetString("user"), v.GetString("cert"), v.GetString("key"))
	if err != nil {
		return errors.Wrap(err, "loading credentials")
	}

	t, err := transport.DialWebSocket(context.Background(), host)
	if err != nil {
		return errors.Wrap(err, "dialing transport")
	}

	stdinFD := int(os.Stdin.Fd())
	priorState, err := term.MakeRaw(stdinFD)
	if err != nil {
		return errors.Wrap(err, "entering raw terminal mode")
	}
	defer term.Restore(stdinFD, priorState)

	conn, err := sshc.Connect(t, creds, func(err error) {
		level.Error(logger).Log("msg", "connection failed", "err", err)
	}, sshc.Options{
		Cols:   v.GetInt("cols"),
		Rows:   v.GetInt("rows"),
		Logger: logger,
		OnPtyDenied: func() {
			level.Warn(logger).Log("msg", "server denied pty allocation")
		},
	})
	if err != nil {
		return errors.Wrap(err, "connecting")
	}

	conn.OnData(func(b []byte) { os.Stdout.Write(b) })

	go pumpStdin(conn)

	<-conn.Done()
	return nil
}

func pumpStdin(conn *sshc.Connection) {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			conn.Write(chunk)
		}
		if err != nil {
			conn.Close()
			return
		}
	}
}

func loadCredentials(username, certPath, keyPath string) (sshc.Credentials, error) {
	if username == "" || certPath == "" || keyPath == "" {
		return sshc.Credentials{}, errors.New("--user, --cert, and --key are all required")
	}

	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return sshc.Credentials{}, errors.Wrap(err, "reading private key")
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return sshc.Credentials{}, errors.Wrap(err, "parsing private key")
	}

	certBytes, err := os.ReadFile(certPath)
	if err != nil {
		return sshc.Credentials{}, errors.Wrap(err, "reading certificate")
	}
	pub, _, _, _, err := ssh.ParseAuthorizedKey(certBytes)
	if err != nil {
		return sshc.Credentials{}, errors.Wrap(err, "parsing certificate")
	}
	cert, ok := pub.(*ssh.Certificate)
	if !ok {
		return sshc.Credentials{}, errors.New("file at --cert is not an ssh certificate")
	}

	certSigner, err := ssh.NewCertSigner(cert, signer)
	if err != nil {
		return sshc.Credentials{}, errors.Wrap(err, "building certificate signer")
	}

	return sshc.Credentials{Username: username, Signer: certSigner, Certificate: cert}, nil
}
